// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medsearch/internal/history"
	"github.com/pdiddy/medsearch/internal/pipeline"
	"github.com/pdiddy/medsearch/internal/rerank"
	"github.com/pdiddy/medsearch/internal/source"
	"github.com/pdiddy/medsearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search biomedical literature providers and rank the merged results",
	Long: `Search sends the query to every enabled provider in parallel, merges
records that describe the same work (matching DOI, PMID, NCT ID, or
title+author), and ranks the merged list.

A provider that times out or errors is reported and skipped; the search
succeeds with whatever the remaining providers returned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sortBy, _ := cmd.Flags().GetString("sort-by")
	strategy, err := types.ParseStrategy(sortBy)
	if err != nil {
		return err
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	noRerank, _ := cmd.Flags().GetBool("no-rerank")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	savePath, _ := cmd.Flags().GetString("save")

	keys := source.Keys{
		SemanticScholar: secretDefault("semantic-scholar-api-key", ""),
		NCBI:            secretDefault("ncbi-api-key", ""),
	}
	adapters := source.BuildAdapters(cfg, keys, nil)
	engine, err := rerank.New(cfg.Weights, cfg.CacheSize)
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, adapters, engine)
	res, err := p.SearchAndRank(cmd.Context(), query, pipeline.Options{
		MaxResults: maxResults,
		SortBy:     strategy,
		NoRerank:   noRerank,
		Exclude:    exclude,
	})
	if err != nil {
		return err
	}

	reportFailedSources(res.Stats)

	if cfg.HistoryPath != "" {
		if err := recordHistory(cmd, cfg.HistoryPath, query, res); err != nil {
			fmt.Fprintf(os.Stderr, "warning: history not recorded: %v\n", err)
		}
	}

	if savePath != "" {
		if err := history.WriteResultFile(savePath, query, res.Records, res.Stats); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved results to", savePath)
	}

	return formatSearchOutput(res, jsonOutput)
}

func recordHistory(cmd *cobra.Command, path, query string, res *pipeline.Result) error {
	store, err := history.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Record(cmd.Context(), query, len(res.Records), res.Stats)
	return err
}

// reportFailedSources prints one stderr line per provider that did not
// answer normally.
func reportFailedSources(stats types.SearchStats) {
	for name, st := range stats.Sources {
		switch st.State {
		case types.SourceTimeout:
			fmt.Fprintf(os.Stderr, "warning: %s timed out after %s\n", name, formatElapsed(st.Elapsed))
		case types.SourceError:
			fmt.Fprintf(os.Stderr, "warning: %s failed: %s\n", name, st.Err)
		}
	}
}

func formatSearchOutput(res *pipeline.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if len(res.Records) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-5s  %-5s  %-9s  %-55s  %s\n",
		"Rank", "Score", "Year", "Citations", "Title", "Sources")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, r := range res.Records {
		title := r.Title
		if len(title) > 55 {
			title = title[:52] + "..."
		}
		year := ""
		if !r.PublishedDate.IsZero() {
			year = r.PublishedDate.Format("2006")
		}
		fmt.Fprintf(os.Stdout, "%-4d  %5.2f  %-5s  %-9d  %-55s  %s\n",
			i+1, r.FinalScore, year, r.CitationCount, title, strings.Join(r.Sources, ","))
	}

	fmt.Fprintf(os.Stdout, "\n%d results (%d raw from %d sources, %d merged, %s)\n",
		len(res.Records), res.Stats.Dedup.Input, res.Stats.SucceededSources(),
		res.Stats.Dedup.Input-res.Stats.Dedup.Output, formatElapsed(res.Stats.Elapsed))
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of results to return (0 = config default)")
	searchCmd.Flags().String("sort-by", "", "sort strategy: weighted, relevance, authority, recency, or citations")
	searchCmd.Flags().Bool("no-rerank", false, "skip scoring; return results in merge order")
	searchCmd.Flags().StringSlice("exclude", nil, "providers to skip (comma-separated)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "save results to a YAML snapshot file")

	rootCmd.AddCommand(searchCmd)
}
