// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medsearch/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [search-id]",
	Short: "Show past searches recorded in the history database",
	Long: `History lists recent searches from the history database configured via
history_path. With a search ID argument it shows how each provider behaved
during that search.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.HistoryPath == "" {
		return fmt.Errorf("history is disabled: set history_path in the config file")
	}

	store, err := history.NewStore(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid search ID %q", args[0])
		}
		return showSearchSources(cmd, store, id)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No recorded searches.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-19s  %-40s  %-9s  %-7s  %-5s  %s\n",
		"ID", "When", "Query", "Strategy", "Results", "Cache", "Elapsed")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 105))

	for _, e := range entries {
		query := e.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		cache := ""
		if e.CacheHit {
			cache = "hit"
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-19s  %-40s  %-9s  %-7d  %-5s  %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), query,
			e.Strategy, e.ResultCount, cache, formatElapsed(e.Elapsed))
	}
	return nil
}

func showSearchSources(cmd *cobra.Command, store *history.Store, id int64) error {
	statuses, err := store.Sources(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return fmt.Errorf("no search with ID %d", id)
	}

	fmt.Fprintf(os.Stdout, "%-18s  %-8s  %-7s  %-9s  %s\n",
		"Source", "State", "Records", "Elapsed", "Error")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))

	for name, st := range statuses {
		fmt.Fprintf(os.Stdout, "%-18s  %-8s  %-7d  %-9s  %s\n",
			name, st.State, st.RawCount, formatElapsed(st.Elapsed), st.Err)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum entries to list")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}
