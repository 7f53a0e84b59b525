package cmd

import (
	"fmt"
	"io"

	"hiretrack/pkg/api"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply for a job",
	Long: `Submit an application for a published job. Either reference a resume
that was uploaded before or pass a file that is uploaded first.

Example:
  atsctl apply --job 5b0c... --resume 9f1e...
  atsctl apply --job 5b0c... --resume-file ./cv.pdf`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		jobID, _ := flags.GetString("job")
		resumeID, _ := flags.GetString("resume")
		resumeFile, _ := flags.GetString("resume-file")

		if jobID == "" {
			cmd.Println("Error: --job is required")
			return
		}
		if (resumeID == "") == (resumeFile == "") {
			cmd.Println("Error: exactly one of --resume or --resume-file is required")
			return
		}

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		if resumeFile != "" {
			uploaded, err := client.UploadResume(resumeFile)
			if err != nil {
				printErr(cmd, err)
				return
			}
			resumeID = uploaded.ID
			cmd.PrintErrf("Uploaded resume %s\n", resumeID)
		}

		app, err := client.Apply(jobID, resumeID)
		if err != nil {
			printErr(cmd, err)
			return
		}

		if err := render(cmd, app, func(w io.Writer) {
			fmt.Fprintf(w, "%s✓ Application submitted%s\n", colorGreen, colorReset)
			printApplication(w, *app)
		}); err != nil {
			printErr(cmd, err)
		}
	},
}

func printApplication(w io.Writer, app api.Application) {
	fmt.Fprintf(w, "ID:\t%s\n", app.ID)
	if app.Job != nil {
		fmt.Fprintf(w, "Job:\t%s at %s (%s)\n", app.Job.Title, app.Job.Company, app.Job.Location)
	} else {
		fmt.Fprintf(w, "Job:\t%s\n", app.JobID)
	}
	fmt.Fprintf(w, "Status:\t%s\n", colorizeStatus(app.Status))
	if app.Rating != nil {
		fmt.Fprintf(w, "Rating:\t%d\n", *app.Rating)
	}
	if app.Comments != nil {
		fmt.Fprintf(w, "Comments:\t%s\n", *app.Comments)
	}
	fmt.Fprintf(w, "Submitted:\t%s\n", formatTimeWithRelative(app.CreatedAt))
	fmt.Fprintf(w, "Updated:\t%s\n", formatTimeWithRelative(app.UpdatedAt))
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().String("job", "", "ID of the job to apply for (required)")
	applyCmd.Flags().String("resume", "", "ID of an uploaded resume")
	applyCmd.Flags().String("resume-file", "", "Path of a resume to upload first (txt, html or pdf)")
}
