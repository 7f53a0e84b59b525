package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "atsctl",
	Short: "atsctl is a command line tool for the hiretrack applicant tracking API",
	Long: `atsctl is the command-line interface for hiretrack.

Applicants submit applications and follow them through the hiring pipeline;
HR and admin staff move candidates between stages and read pipeline analytics.

Common workflows:

  Apply for a job with a resume file:
    atsctl apply --job <job-id> --resume-file cv.pdf

  Follow your applications:
    atsctl list
    atsctl history <application-id>

  Move a candidate (hr/admin):
    atsctl move <application-id> interview --note "strong onsite"

  Read analytics (hr/admin):
    atsctl stats
    atsctl analytics --from 2024-06-01 --to 2024-06-30 -o yaml

  Mint a development token (needs the server's JWT secret):
    atsctl token --user-id <uuid> --role hr

Configuration:
  Flags, $HOME/.atsctl.yaml or environment variables:
    ATS_URL      API endpoint (default: http://localhost:6161)
    ATS_TOKEN    Bearer token
    ATS_OUTPUT   table, yaml or json`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".atsctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".atsctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "ATS_VARNAME"
	viper.SetEnvPrefix("ATS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.atsctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "hiretrack API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format: table, yaml or json")
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
}

// newClient builds an API client from the resolved configuration. It prints
// a hint and returns false when no token is configured.
func newClient(cmd *cobra.Command) (*Client, bool) {
	token := viper.GetString("token")
	if token == "" {
		cmd.Println("API token not found. Please set it using the --token flag or the ATS_TOKEN environment variable")
		return nil, false
	}
	return NewClient(viper.GetString("url"), token), true
}

// printErr reports a failed API call the same way for every command.
func printErr(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("Error: %v\n", err)
}
