// Package diff produces line-based hunks between two versions of a
// file and applies an accepted subset of hunks back onto content. It
// only ever sees files the sync planner flagged as needing review.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ckit-sh/ckit/pkg/logging"
)

// DefaultContextLines is the context window used when the caller does
// not specify one.
const DefaultContextLines = 3

// FileHunk is a contiguous block of line-level differences. Lines
// carry a one-character prefix ('+', '-' or ' ') followed by the raw
// line content including its line terminator, so applying a hunk
// reproduces the target content byte for byte.
type FileHunk struct {
	OldStart int      `json:"oldStart"`
	OldLines int      `json:"oldLines"`
	NewStart int      `json:"newStart"`
	NewLines int      `json:"newLines"`
	Lines    []string `json:"lines"`
}

// GenerateHunks diffs current against updated and returns the changed
// regions with contextLines of surrounding context. Identical inputs
// yield no hunks. The label only identifies the file in logs.
func GenerateHunks(current, updated, label string, contextLines int) []FileHunk {
	if contextLines < 0 {
		contextLines = DefaultContextLines
	}

	a := splitLines(current)
	b := splitLines(updated)

	matcher := difflib.NewMatcher(a, b)

	var hunks []FileHunk
	for _, group := range matcher.GetGroupedOpCodes(contextLines) {
		first := group[0]
		last := group[len(group)-1]

		hunk := FileHunk{
			OldStart: first.I1 + 1,
			OldLines: last.I2 - first.I1,
			NewStart: first.J1 + 1,
			NewLines: last.J2 - first.J1,
		}

		for _, op := range group {
			switch op.Tag {
			case 'e':
				for _, line := range a[op.I1:op.I2] {
					hunk.Lines = append(hunk.Lines, " "+line)
				}
			case 'r':
				for _, line := range a[op.I1:op.I2] {
					hunk.Lines = append(hunk.Lines, "-"+line)
				}
				for _, line := range b[op.J1:op.J2] {
					hunk.Lines = append(hunk.Lines, "+"+line)
				}
			case 'd':
				for _, line := range a[op.I1:op.I2] {
					hunk.Lines = append(hunk.Lines, "-"+line)
				}
			case 'i':
				for _, line := range b[op.J1:op.J2] {
					hunk.Lines = append(hunk.Lines, "+"+line)
				}
			}
		}

		hunks = append(hunks, hunk)
	}

	if len(hunks) > 0 {
		logger := logging.GetLogger("diff")
		logger.Debug().
			Str("file", label).
			Int("hunks", len(hunks)).
			Msg("Generated hunks")
	}

	return hunks
}

// splitLines splits content into lines, each keeping its terminator.
// A final line without a terminator is kept as-is, so joining the
// result reproduces the input exactly.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
