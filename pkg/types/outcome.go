// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects whether a question is answered directly or after web retrieval.
type Mode string

const (
	ModeNoSearch  Mode = "no_search"
	ModeWebSearch Mode = "web_search"
)

// ErrUnknownMode is returned by ParseMode for unrecognised values.
var ErrUnknownMode = errors.New("unknown mode")

// ParseMode converts user input into a Mode. Hyphens are accepted in place of
// underscores so "web-search" works on the command line.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")) {
	case ModeNoSearch:
		return ModeNoSearch, nil
	case ModeWebSearch:
		return ModeWebSearch, nil
	default:
		return "", fmt.Errorf("%w %q: use %s or %s", ErrUnknownMode, s, ModeNoSearch, ModeWebSearch)
	}
}

// ResearchOutcome is the terminal artifact of one pipeline run.
//
// Evidence and Sources are set only in web_search mode, and Sources is always
// Evidence.URLs(). When Success is false, Answer is empty and Error holds the
// failure description.
type ResearchOutcome struct {
	Success  bool        `json:"success" yaml:"success"`
	Answer   string      `json:"answer" yaml:"answer"`
	Evidence EvidenceSet `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Sources  []string    `json:"sources,omitempty" yaml:"sources,omitempty"`
	Mode     Mode        `json:"mode" yaml:"mode"`
	Error    string      `json:"error,omitempty" yaml:"error,omitempty"`

	// Trace is a human-readable summary of the run: queries planned and
	// whether each one was answered live or from the fallback source.
	Trace string `json:"trace,omitempty" yaml:"trace,omitempty"`
}
