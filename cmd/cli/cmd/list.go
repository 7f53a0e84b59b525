package cmd

import (
	"fmt"
	"io"

	"hiretrack/pkg/api"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications",
	Long: `List your own applications. Staff can pass --all to list every
application, optionally filtered by status or job.

Example:
  atsctl list
  atsctl list --all --status interview --limit 20`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		all, _ := flags.GetBool("all")
		status, _ := flags.GetString("status")
		jobID, _ := flags.GetString("job")
		limit, _ := flags.GetInt("limit")
		offset, _ := flags.GetInt("offset")

		if !all && (status != "" || jobID != "" || limit != 0 || offset != 0) {
			cmd.Println("Error: --status, --job, --limit and --offset require --all")
			return
		}

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		var (
			resp *api.ListApplicationsResponse
			err  error
		)
		if all {
			resp, err = client.ListAll(ListFilter{Status: status, JobID: jobID, Limit: limit, Offset: offset})
		} else {
			resp, err = client.ListMine()
		}
		if err != nil {
			printErr(cmd, err)
			return
		}

		if err := render(cmd, resp, func(w io.Writer) {
			if len(resp.Applications) == 0 {
				fmt.Fprintln(w, "No applications found.")
				return
			}
			fmt.Fprintf(w, "%sID\tJOB\tSTATUS\tSUBMITTED%s\n", colorBold, colorReset)
			for _, app := range resp.Applications {
				job := app.JobID
				if app.Job != nil {
					job = app.Job.Title + " @ " + app.Job.Company
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", app.ID, job, app.Status, relativeTime(app.CreatedAt)+" ago")
			}
		}); err != nil {
			printErr(cmd, err)
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show [application_id]",
	Short: "Show one application",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := newClient(cmd)
		if !ok {
			return
		}

		app, err := client.GetApplication(args[0])
		if err != nil {
			printErr(cmd, err)
			return
		}

		if err := render(cmd, app, func(w io.Writer) {
			fmt.Fprintf(w, "%s %sApplication Details%s\n", statusIcon(app.Status), colorBold, colorReset)
			fmt.Fprintln(w, "──────────────────────────────")
			printApplication(w, *app)
		}); err != nil {
			printErr(cmd, err)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [application_id]",
	Short: "Show the pipeline history of an application",
	Long:  `Print every recorded status change of an application, oldest first, with the note and the user who made it.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := newClient(cmd)
		if !ok {
			return
		}

		hist, err := client.History(args[0])
		if err != nil {
			printErr(cmd, err)
			return
		}

		if err := render(cmd, hist, func(w io.Writer) {
			fmt.Fprintf(w, "%sWHEN\tSTATUS\tBY\tNOTE%s\n", colorBold, colorReset)
			for _, e := range hist.Entries {
				by := deref(e.UpdatedBy)
				if e.UpdatedBy == nil {
					by = "applicant"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Status, by, deref(e.Note))
			}
		}); err != nil {
			printErr(cmd, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)

	listCmd.Flags().Bool("all", false, "List every application (hr/admin)")
	listCmd.Flags().String("status", "", "Filter by status")
	listCmd.Flags().String("job", "", "Filter by job ID")
	listCmd.Flags().Int("limit", 0, "Page size (server default 50, max 200)")
	listCmd.Flags().Int("offset", 0, "Number of applications to skip")
}
