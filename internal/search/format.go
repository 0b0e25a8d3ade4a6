// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes a retrieval as a human-readable table to w.
func FormatTable(r Retrieval, w io.Writer) {
	if len(r.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %s\n", "Rank", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, res := range r.Results {
		fmt.Fprintf(w, "%-4d  %-50s  %s\n", i+1, truncate(res.Title, 50), res.URL)
	}

	fmt.Fprintf(w, "\n%d results (%s", len(r.Results), r.Origin)
	if r.Reason != "" {
		fmt.Fprintf(w, ": %s", r.Reason)
	}
	fmt.Fprintln(w, ")")
}

// FormatJSON writes the retrieval's results as indented JSON to w.
func FormatJSON(r Retrieval, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Results)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
