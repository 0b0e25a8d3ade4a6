// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline:
// search results, the evidence set handed to synthesis, the research outcome
// returned to callers, and the configuration for each stage.
package types

// SearchResult is one retrieved document reference. Results come from the
// live search page or from the offline knowledge source and are not modified
// after creation.
type SearchResult struct {
	// Title is the result headline as shown by the source.
	Title string `json:"title" yaml:"title"`

	// URL is the absolute destination URL. It is the deduplication key.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short excerpt shown under the title.
	Snippet string `json:"snippet" yaml:"snippet"`
}

// EvidenceSet is an ordered list of results, unique by URL, that is passed to
// answer synthesis.
type EvidenceSet []SearchResult

// URLs returns the URL of every item, in order.
func (e EvidenceSet) URLs() []string {
	if e == nil {
		return nil
	}
	urls := make([]string, len(e))
	for i, r := range e {
		urls[i] = r.URL
	}
	return urls
}
