package diff

import (
	"sort"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/span"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/ckit-sh/ckit/pkg/logging"
)

// ApplyResult reports what ApplyHunks did to the content.
type ApplyResult struct {
	// Content is the merged result.
	Content string

	// Applied is the number of accepted hunks that made it in.
	Applied int

	// Skipped counts accepted hunks dropped by the manual fallback
	// because they no longer fit the content. Callers surface this
	// count; a skip is never silent.
	Skipped int
}

// ApplyHunks merges the accepted subset of hunks into content. The
// accepted slice parallels hunks; missing entries count as rejected.
//
// Hunks that still match the content are applied as text edits. When
// any accepted hunk no longer matches (the file drifted since the hunks
// were generated), application falls back to manual splicing: hunks are
// applied bottom-up so line numbers stay valid, and hunks whose ranges
// no longer fit are logged and skipped. Only when not a single accepted
// hunk can be applied does ApplyHunks fail; returning the original
// content as if it were merged would hide data loss.
func ApplyHunks(content string, hunks []FileHunk, accepted []bool) (*ApplyResult, error) {
	var acceptedHunks []FileHunk
	for i, h := range hunks {
		if i < len(accepted) && accepted[i] {
			acceptedHunks = append(acceptedHunks, h)
		}
	}

	if len(acceptedHunks) == 0 {
		return &ApplyResult{Content: content}, nil
	}

	if merged, ok := applyAsEdits(content, acceptedHunks); ok {
		return &ApplyResult{Content: merged, Applied: len(acceptedHunks)}, nil
	}

	logger := logging.GetLogger("diff")
	logger.Warn().
		Int("hunks", len(acceptedHunks)).
		Msg("Hunks no longer match content, falling back to manual splicing")

	merged, applied, skipped := spliceHunks(content, acceptedHunks)
	if applied == 0 {
		return nil, errors.Newf(errors.ErrDiffApply,
			"could not apply any of %d accepted hunks", len(acceptedHunks)).
			WithDetail("hunks", len(acceptedHunks))
	}

	return &ApplyResult{Content: merged, Applied: applied, Skipped: skipped}, nil
}

// applyAsEdits converts hunks to line-granular text edits and applies
// them. It refuses (ok=false) unless every hunk still matches the
// content exactly and the hunks are ordered and disjoint, which is what
// makes the edit application safe. Spans carry line, column and byte
// offset so edit application never has to re-derive positions.
func applyAsEdits(content string, hunks []FileHunk) (merged string, ok bool) {
	lines := splitLines(content)

	prevEnd := 0
	for _, h := range hunks {
		if h.OldStart <= prevEnd {
			return "", false
		}
		if !hunkMatches(lines, h) {
			return "", false
		}
		prevEnd = h.OldStart + h.OldLines - 1
	}

	defer func() {
		if r := recover(); r != nil {
			merged, ok = "", false
		}
	}()

	// lineOffsets[i] is the byte offset of 1-based line i+1; the final
	// entry is len(content) and doubles as the end-of-file position.
	lineOffsets := make([]int, len(lines)+1)
	for i, line := range lines {
		lineOffsets[i+1] = lineOffsets[i] + len(line)
	}

	uri := span.URIFromPath("merge")
	edits := make([]gotextdiff.TextEdit, 0, len(hunks))
	for _, h := range hunks {
		var newText strings.Builder
		for _, raw := range h.Lines {
			if raw == "" {
				continue
			}
			if raw[0] == ' ' || raw[0] == '+' {
				newText.WriteString(raw[1:])
			}
		}

		startLine := h.OldStart
		endLine := h.OldStart + h.OldLines
		edits = append(edits, gotextdiff.TextEdit{
			Span: span.New(uri,
				span.NewPoint(startLine, 1, lineOffsets[startLine-1]),
				span.NewPoint(endLine, 1, lineOffsets[endLine-1])),
			NewText: newText.String(),
		})
	}

	return gotextdiff.ApplyEdits(content, edits), true
}

// hunkMatches verifies the hunk's old side is exactly what the content
// holds at the hunk's position.
func hunkMatches(lines []string, h FileHunk) bool {
	var old []string
	for _, raw := range h.Lines {
		if raw == "" {
			return false
		}
		switch raw[0] {
		case ' ', '-':
			old = append(old, raw[1:])
		case '+':
		default:
			return false
		}
	}

	if len(old) != h.OldLines {
		return false
	}

	start := h.OldStart - 1
	if start < 0 || start+len(old) > len(lines) {
		// A pure insertion at end of file has no old lines to match.
		return len(old) == 0 && start == len(lines)
	}

	for i, line := range old {
		if lines[start+i] != line {
			return false
		}
	}
	return true
}

// spliceHunks applies hunks by direct line splicing. Hunks are applied
// in descending OldStart order so earlier hunks' positions are not
// shifted by later splices. Malformed body entries are ignored; hunks
// whose ranges do not fit the current line count are skipped, not
// fatal.
func spliceHunks(content string, hunks []FileHunk) (string, int, int) {
	logger := logging.GetLogger("diff")
	lines := splitLines(content)

	ordered := make([]FileHunk, len(hunks))
	copy(ordered, hunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OldStart > ordered[j].OldStart
	})

	applied := 0
	skipped := 0
	for _, h := range ordered {
		deletions := 0
		var replacement []string
		for _, raw := range h.Lines {
			if raw == "" {
				continue
			}
			switch raw[0] {
			case ' ':
				deletions++
				replacement = append(replacement, raw[1:])
			case '-':
				deletions++
			case '+':
				replacement = append(replacement, raw[1:])
			}
		}

		start := h.OldStart - 1
		if start < 0 || start > len(lines) || start+deletions > len(lines) {
			logger.Warn().
				Int("oldStart", h.OldStart).
				Int("deletions", deletions).
				Int("lineCount", len(lines)).
				Msg("Hunk does not fit content, skipping")
			skipped++
			continue
		}

		next := make([]string, 0, len(lines)-deletions+len(replacement))
		next = append(next, lines[:start]...)
		next = append(next, replacement...)
		next = append(next, lines[start+deletions:]...)
		lines = next
		applied++
	}

	return strings.Join(lines, ""), applied, skipped
}
