// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the medsearch CLI.
// Implements: prd100-pipeline, prd105-configuration, prd107-history
// (CLI surface). See docs/ARCHITECTURE § Pipeline Interface.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/medsearch/internal/secrets"
	"github.com/pdiddy/medsearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback
// otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the medsearch CLI.
var rootCmd = &cobra.Command{
	Use:   "medsearch",
	Short: "Federated search across biomedical literature databases",
	Long: `medsearch queries multiple biomedical literature providers — PubMed,
Europe PMC, Semantic Scholar, ClinicalTrials.gov, bioRxiv, and medRxiv —
in parallel, merges records describing the same work, and ranks the merged
list by relevance, authority, recency, and metadata quality.

Searches can be saved to YAML snapshots and are recorded in a local
history database when one is configured.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./medsearch.yaml or ~/.config/medsearch/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("medsearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "medsearch"))
		}
	}

	viper.SetEnvPrefix("MEDSEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig overlays file and environment settings onto the built-in
// defaults and validates the result.
func loadConfig() (types.Config, error) {
	cfg := types.DefaultConfig()

	if viper.IsSet("timeout") {
		cfg.Timeout = viper.GetDuration("timeout")
	}
	if viper.IsSet("user_agent") {
		cfg.UserAgent = viper.GetString("user_agent")
	}
	if viper.IsSet("max_concurrent") {
		cfg.MaxConcurrent = viper.GetInt64("max_concurrent")
	}
	if viper.IsSet("per_source_timeout") {
		cfg.PerSourceTimeout = viper.GetDuration("per_source_timeout")
	}
	if viper.IsSet("cache_size") {
		cfg.CacheSize = viper.GetInt("cache_size")
	}
	if viper.IsSet("strategy") {
		cfg.Strategy = types.Strategy(viper.GetString("strategy"))
	}
	if viper.IsSet("max_results") {
		cfg.MaxResults = viper.GetInt("max_results")
	}
	if viper.IsSet("history_path") {
		cfg.HistoryPath = viper.GetString("history_path")
	}

	for _, dim := range []struct {
		key string
		dst *float64
	}{
		{"weights.relevance", &cfg.Weights.Relevance},
		{"weights.authority", &cfg.Weights.Authority},
		{"weights.recency", &cfg.Weights.Recency},
		{"weights.quality", &cfg.Weights.Quality},
	} {
		if viper.IsSet(dim.key) {
			*dim.dst = viper.GetFloat64(dim.key)
		}
	}

	for _, name := range types.SourceNames {
		sc := cfg.Sources[name]
		prefix := "sources." + name + "."
		if viper.IsSet(prefix + "enabled") {
			sc.Enabled = viper.GetBool(prefix + "enabled")
		}
		if viper.IsSet(prefix + "max_results") {
			sc.MaxResults = viper.GetInt(prefix + "max_results")
		}
		if viper.IsSet(prefix + "rate_limit") {
			sc.RateLimit = viper.GetFloat64(prefix + "rate_limit")
		}
		cfg.Sources[name] = sc
	}

	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

func formatElapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
