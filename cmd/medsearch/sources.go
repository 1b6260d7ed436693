// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medsearch/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured literature providers",
	Long: `Sources shows every provider medsearch knows about with its effective
configuration: whether it is enabled, its per-source result cap, and its
client-side rate limit.`,
	RunE: runSources,
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg.Sources)
	}

	fmt.Fprintf(os.Stdout, "%-18s  %-8s  %-11s  %s\n",
		"Source", "Enabled", "MaxResults", "RateLimit")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 50))

	for _, name := range types.SourceNames {
		sc, ok := cfg.Sources[name]
		if !ok {
			continue
		}
		rate := "off"
		if sc.RateLimit > 0 {
			rate = fmt.Sprintf("%.1f/s", sc.RateLimit)
		}
		fmt.Fprintf(os.Stdout, "%-18s  %-8t  %-11d  %s\n",
			name, sc.Enabled, sc.MaxResults, rate)
	}
	return nil
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(sourcesCmd)
}
