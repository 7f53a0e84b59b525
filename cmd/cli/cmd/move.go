package cmd

import (
	"fmt"
	"io"

	"hiretrack/pkg/api"

	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move [application_id] [status]",
	Short: "Move an application to another pipeline status",
	Long: `Move an application along the hiring pipeline.

Staff move candidates between pending, reviewing, interview, offer and
rejected. Applicants accept an offer with "accepted".

Example:
  atsctl move 9f1e... interview --note "passed the phone screen"
  atsctl move 9f1e... accepted`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		note, _ := cmd.Flags().GetString("note")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		res, err := client.Move(args[0], args[1], note)
		if err != nil {
			printErr(cmd, err)
			return
		}
		printTransition(cmd, res)
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw [application_id]",
	Short: "Withdraw your application",
	Long:  `Withdraw an application you submitted. The application and its history are kept.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		note, _ := cmd.Flags().GetString("note")

		client, ok := newClient(cmd)
		if !ok {
			return
		}

		res, err := client.Withdraw(args[0], note)
		if err != nil {
			printErr(cmd, err)
			return
		}
		printTransition(cmd, res)
	},
}

func printTransition(cmd *cobra.Command, res *api.TransitionResponse) {
	if err := render(cmd, res, func(w io.Writer) {
		fmt.Fprintf(w, "Application %s is now %s\n", res.Application.ID, colorizeStatus(res.Application.Status))
		fmt.Fprintf(w, "%sRecorded at %s (entry #%d)%s\n", colorDim,
			res.LedgerEntry.Timestamp.Format("2006-01-02 15:04:05"), res.LedgerEntry.ID, colorReset)
	}); err != nil {
		printErr(cmd, err)
	}
}

func init() {
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(withdrawCmd)

	moveCmd.Flags().String("note", "", "Note recorded with the status change")
	withdrawCmd.Flags().String("note", "", "Reason for withdrawing")
}
