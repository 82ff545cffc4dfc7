// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// QueryFile is the on-disk representation of a search and its results, so a
// later fetch or extraction step can reuse them without re-querying.
type QueryFile struct {
	Query      string               `yaml:"query"`
	Backend    string               `yaml:"backend"`
	MaxResults int                  `yaml:"max_results"`
	Results    []types.SearchResult `yaml:"results"`
	Timestamp  time.Time            `yaml:"timestamp"`
}

// WriteQueryFile saves a query and its results to a YAML file.
func WriteQueryFile(path string, qf QueryFile) error {
	if qf.Timestamp.IsZero() {
		qf.Timestamp = time.Now().UTC()
	}
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// URLs returns the result URLs in order.
func (qf *QueryFile) URLs() []string {
	urls := make([]string, len(qf.Results))
	for i, r := range qf.Results {
		urls[i] = r.URL
	}
	return urls
}
