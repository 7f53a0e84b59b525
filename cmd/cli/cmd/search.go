package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search jobs and applications (hr/admin)",
	Long: `Match the query against job titles and descriptions, and against
application statuses and review comments.

Example:
  atsctl search backend
  atsctl search "system design" --type applications --limit 10`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		kind, _ := flags.GetString("type")
		limit, _ := flags.GetInt("limit")
		offset, _ := flags.GetInt("offset")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		resp, err := client.Search(strings.Join(args, " "), kind, limit, offset)
		if err != nil {
			printErr(cmd, err)
			return
		}

		if err := render(cmd, resp, func(w io.Writer) {
			if len(resp.Jobs) == 0 && len(resp.Applications) == 0 {
				fmt.Fprintf(w, "Nothing matches %q.\n", resp.Query)
				return
			}
			if len(resp.Jobs) > 0 {
				fmt.Fprintf(w, "%sJOB\tTITLE\tCOMPANY\tLOCATION%s\n", colorBold, colorReset)
				for _, j := range resp.Jobs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", j.ID, j.Title, j.Company, j.Location)
				}
			}
			if len(resp.Applications) > 0 {
				if len(resp.Jobs) > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%sAPPLICATION\tJOB\tSTATUS\tSUBMITTED%s\n", colorBold, colorReset)
				for _, app := range resp.Applications {
					job := app.JobID
					if app.Job != nil {
						job = app.Job.Title + " @ " + app.Job.Company
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", app.ID, job, app.Status, relativeTime(app.CreatedAt)+" ago")
				}
			}
		}); err != nil {
			printErr(cmd, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("type", "", "Restrict to jobs or applications")
	searchCmd.Flags().Int("limit", 0, "Page size (server default when 0)")
	searchCmd.Flags().Int("offset", 0, "Number of results to skip")
}
