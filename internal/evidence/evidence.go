// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence merges per-query search results into the evidence set
// handed to answer synthesis.
package evidence

import "github.com/pdiddy/answer-engine/pkg/types"

// DefaultMaxResults is the evidence cap used when none is configured.
const DefaultMaxResults = 5

// Stats summarises one aggregation for the run trace.
type Stats struct {
	// Total is the number of results received across all batches.
	Total int

	// Duplicates is the number of results dropped because their URL was
	// already present.
	Duplicates int

	// Truncated is the number of unique results dropped by the cap.
	Truncated int
}

// Aggregate concatenates batches in order, keeps the first result for each
// URL, and truncates to max. Later duplicates are dropped even when their
// title or snippet differ. No scoring or reordering is applied.
func Aggregate(batches [][]types.SearchResult, max int) (types.EvidenceSet, Stats) {
	if max <= 0 {
		max = DefaultMaxResults
	}

	var stats Stats
	seen := make(map[string]struct{})
	out := types.EvidenceSet{}

	for _, batch := range batches {
		for _, r := range batch {
			stats.Total++
			if _, ok := seen[r.URL]; ok {
				stats.Duplicates++
				continue
			}
			seen[r.URL] = struct{}{}
			out = append(out, r)
		}
	}

	if len(out) > max {
		stats.Truncated = len(out) - max
		out = out[:max]
	}
	return out, stats
}
