package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached articles per partition",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		counts, err := e.store.Partitions()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Store: %s (%s)\n", e.cfg.Database.Path, e.cfg.Database.Driver)
		if len(counts) == 0 {
			fmt.Fprintln(out, "No cached articles.")
			return nil
		}

		total := 0
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("SCHEME", "VALUE", "ARTICLES")
		for _, c := range counts {
			t.Row(c.Partition.Scheme.String(), c.Partition.Value, strconv.Itoa(c.Count))
			total += c.Count
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintf(out, "Total: %d article(s) in %d partition(s)\n", total, len(counts))
		return nil
	},
}
