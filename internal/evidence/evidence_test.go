// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func res(url, title string) types.SearchResult {
	return types.SearchResult{Title: title, URL: url, Snippet: "snippet for " + title}
}

func TestAggregate_FirstOccurrenceWins(t *testing.T) {
	batches := [][]types.SearchResult{
		{res("https://a", "A from q1"), res("https://b", "B from q1")},
		{res("https://a", "A from q2"), res("https://c", "C from q2")},
		{res("https://b", "B from q3")},
	}

	got, stats := Aggregate(batches, 5)

	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, got.URLs())
	assert.Equal(t, "A from q1", got[0].Title)
	assert.Equal(t, "snippet for A from q1", got[0].Snippet)
	assert.Equal(t, "B from q1", got[1].Title)
	assert.Equal(t, Stats{Total: 5, Duplicates: 2, Truncated: 0}, stats)
}

func TestAggregate_UniqueURLs(t *testing.T) {
	var batch []types.SearchResult
	for i := 0; i < 20; i++ {
		batch = append(batch, res(fmt.Sprintf("https://dup/%d", i%3), fmt.Sprint(i)))
	}

	got, _ := Aggregate([][]types.SearchResult{batch, batch}, 10)

	seen := map[string]int{}
	for _, u := range got.URLs() {
		seen[u]++
	}
	for u, n := range seen {
		assert.Equal(t, 1, n, u)
	}
	assert.Len(t, got, 3)
}

func TestAggregate_NeverExceedsMax(t *testing.T) {
	for _, size := range []int{0, 1, 4, 5, 6, 50} {
		var batches [][]types.SearchResult
		for q := 0; q < 3; q++ {
			var b []types.SearchResult
			for i := 0; i < size; i++ {
				b = append(b, res(fmt.Sprintf("https://q%d/%d", q, i), "t"))
			}
			batches = append(batches, b)
		}
		got, stats := Aggregate(batches, 5)
		assert.LessOrEqual(t, len(got), 5, "size %d", size)
		assert.Equal(t, 3*size, stats.Total)
		assert.Equal(t, stats.Total-stats.Duplicates-stats.Truncated, len(got))
	}
}

func TestAggregate_TruncationKeepsFirstSeenOrder(t *testing.T) {
	batches := [][]types.SearchResult{
		{res("https://1", "1"), res("https://2", "2"), res("https://3", "3")},
		{res("https://4", "4"), res("https://5", "5"), res("https://6", "6")},
	}
	got, stats := Aggregate(batches, 4)
	assert.Equal(t, []string{"https://1", "https://2", "https://3", "https://4"}, got.URLs())
	assert.Equal(t, 2, stats.Truncated)
}

func TestAggregate_DefaultMax(t *testing.T) {
	var b []types.SearchResult
	for i := 0; i < 9; i++ {
		b = append(b, res(fmt.Sprintf("https://x/%d", i), "t"))
	}
	got, _ := Aggregate([][]types.SearchResult{b}, 0)
	assert.Len(t, got, DefaultMaxResults)
}

func TestAggregate_Empty(t *testing.T) {
	got, stats := Aggregate(nil, 5)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, Stats{}, stats)
}
