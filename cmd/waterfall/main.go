// Command waterfall runs the signal-ingestion and waterfall-rendering
// pipeline described in this repository, plus a standalone mock signal
// source useful for local development without real hardware.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "waterfall",
	Short: "Signal ingestion and waterfall rendering pipeline",
}

func main() {
	rootCmd.AddCommand(serveCmd, mockDeviceCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("waterfall v%s\n", version)
	},
}
