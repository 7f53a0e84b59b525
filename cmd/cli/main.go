// Package main is the entry point for atsctl, the hiretrack command-line client.
package main

import (
	"os"

	"hiretrack/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
