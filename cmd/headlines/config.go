package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/config"
)

var (
	flagConfigOutput string
	flagConfigForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a config file with every default",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfigOutput
		if path == "" {
			path = config.DefaultPath()
		}
		if !flagConfigForce && fileExists(path) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.GenerateDefaultConfig(path); err != nil {
			return fmt.Errorf("generating config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.DefaultPath())
	},
}

func init() {
	configGenCmd.Flags().StringVarP(&flagConfigOutput, "output", "o", "", "where to write the file (default: XDG config dir)")
	configGenCmd.Flags().BoolVar(&flagConfigForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configPathCmd)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
