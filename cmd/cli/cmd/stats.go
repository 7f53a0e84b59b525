package cmd

import (
	"fmt"
	"io"
	"strings"

	"hiretrack/pkg/api"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many applications are in each status (hr/admin)",
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := newClient(cmd)
		if !ok {
			return
		}

		dist, err := client.Stats()
		if err != nil {
			printErr(cmd, err)
			return
		}

		if err := render(cmd, dist, func(w io.Writer) {
			printDistribution(w, *dist)
		}); err != nil {
			printErr(cmd, err)
		}
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show the analytics report (hr/admin)",
	Long: `Print the daily application trend, the status distribution and the job
breakdown. Without --from/--to the last 30 days are reported.

Example:
  atsctl analytics --from 2024-06-01 --to 2024-06-30`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		from, _ := flags.GetString("from")
		to, _ := flags.GetString("to")

		if (from == "") != (to == "") {
			cmd.Println("Error: --from and --to must be given together")
			return
		}

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		report, err := client.Analytics(from, to)
		if err != nil {
			printErr(cmd, err)
			return
		}

		if err := render(cmd, report, func(w io.Writer) {
			fmt.Fprintf(w, "%sApplications per day (%s to %s)%s\n", colorBold, report.From, report.To, colorReset)
			for _, d := range report.Trend {
				fmt.Fprintf(w, "%s\t%d\t%s\n", d.Date, d.Count, strings.Repeat("▇", int(min(d.Count, 40))))
			}
			fmt.Fprintln(w)
			printDistribution(w, report.Distribution)
			fmt.Fprintln(w)
			printBuckets(w, "Department", report.Breakdown.ByDepartment)
			printBuckets(w, "Location", report.Breakdown.ByLocation)
			printBuckets(w, "Employment type", report.Breakdown.ByEmploymentType)
		}); err != nil {
			printErr(cmd, err)
		}
	},
}

func printDistribution(w io.Writer, dist api.StatusDistribution) {
	fmt.Fprintf(w, "%sSTATUS\tCOUNT%s\n", colorBold, colorReset)
	for _, s := range dist.Statuses {
		fmt.Fprintf(w, "%s\t%d\n", s.Status, s.Count)
	}
	fmt.Fprintf(w, "total\t%d\n", dist.Total)
}

func printBuckets(w io.Writer, title string, buckets []api.Bucket) {
	fmt.Fprintf(w, "%s%s\tJOBS\tAPPLICATIONS%s\n", colorBold, strings.ToUpper(title), colorReset)
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%d\t%d\n", b.Key, b.Jobs, b.Applications)
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(analyticsCmd)

	analyticsCmd.Flags().String("from", "", "First day of the trend window (YYYY-MM-DD)")
	analyticsCmd.Flags().String("to", "", "Last day of the trend window (YYYY-MM-DD)")
}
