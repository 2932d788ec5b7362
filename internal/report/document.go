package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/kamilpajak/qaharness/pkg/models"
)

// ReadDocument loads a test-data.json written by Write.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report data: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse report data %s: %w", path, err)
	}
	return &doc, nil
}

// Snapshot rebuilds the aggregate snapshot the document was rendered from.
// Browser channels come back sorted by name.
func (d *Document) Snapshot() models.Snapshot {
	snap := models.Snapshot{
		FinishedAt: d.Environment.GeneratedAt,
		StartedAt:  d.Environment.StartedAt,
		Overall:    d.Metrics,
		Suites:     d.SuiteMetrics,
		API:        d.APIMetrics,
		Failures:   d.Failures,
		Channels:   make([]models.ChannelMetrics, 0, len(d.BrowserMetrics)),
	}
	for _, c := range d.BrowserMetrics {
		snap.Channels = append(snap.Channels, c)
	}
	sort.Slice(snap.Channels, func(i, j int) bool {
		return snap.Channels[i].Name < snap.Channels[j].Name
	})
	return snap
}
