package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/remotehub/internal/browse"
	"github.com/amishk599/remotehub/internal/filter"
	"github.com/amishk599/remotehub/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Shows the source picker TUI, then a paginated job list with a detail view.",
	RunE:  runBrowseCmd,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	runBrowse(sqlStore, knownSources())
	return nil
}

func runBrowse(finder browse.Finder, sources []string) {
	for {
		sel, ok, err := browse.RunSourcePicker(sources)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if !ok {
			return
		}

		label := "All sources"
		if len(sel.Sources) == 1 {
			label = sel.Sources[0]
		}
		criteria := filter.Criteria{
			Sources:       sel.Sources,
			WorldwideOnly: sel.WorldwideOnly,
			Page:          1,
		}

		first, err := browse.RunLoader(label, finder, criteria)
		if err != nil {
			fmt.Printf("Error loading jobs: %v\n", err)
			continue
		}

		wantQuit, err := browse.RunBrowser(finder, label, criteria, first)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
