package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all supported sources",
	Long:  "Reads the config and prints a table of every supported job board and whether it is enabled.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-20s %-12s %s\n", "Source", "Min delay", "Status")
	fmt.Fprintln(w, strings.Repeat("─", 42))

	enabled, disabled := 0, 0
	for _, name := range knownSources() {
		status := "enabled"
		if !cfg.SourceEnabled(name) {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		fmt.Fprintf(w, "%-20s %-12s %s\n", name, cfg.RateLimit.MinDelayFor(name), status)
	}

	fmt.Fprintf(w, "\nTotal: %d sources (%d enabled, %d disabled)\n", enabled+disabled, enabled, disabled)
	return nil
}
