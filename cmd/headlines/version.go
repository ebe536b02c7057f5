package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "headlines %s\n", Version)
		fmt.Fprintln(out, "Terminal news reader")
		fmt.Fprintln(out, "github.com/pders01/headlines")
	},
}
