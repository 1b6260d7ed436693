// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/medsearch/pkg/types"
)

// ResultFile is the on-disk snapshot of one search: the query, the final
// ranked records, and the run's diagnostics. A saved search can be reloaded
// and inspected later without re-querying any provider.
type ResultFile struct {
	Query     string            `yaml:"query"`
	Strategy  types.Strategy    `yaml:"strategy,omitempty"`
	Records   []types.Record    `yaml:"records"`
	Stats     types.SearchStats `yaml:"stats"`
	Timestamp time.Time         `yaml:"timestamp"`
}

// WriteResultFile saves a completed search to a YAML file.
func WriteResultFile(path, query string, records []types.Record, stats types.SearchStats) error {
	rf := ResultFile{
		Query:     query,
		Strategy:  stats.Rerank.Strategy,
		Records:   records,
		Stats:     stats,
		Timestamp: time.Now(),
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved search snapshot.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}
