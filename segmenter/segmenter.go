// Package segmenter splits a finished post text into an ordered chain of
// publish-sized parts, cutting at natural boundaries where possible.
package segmenter

import "strings"

// minCut is the smallest acceptable natural cut offset. A boundary earlier
// than this would leave an almost-empty part, so the cut is forced instead.
const minCut = 20

// terminals are sentence-ending runes that qualify as cut points.
var terminals = map[rune]bool{'。': true, '！': true, '？': true, '!': true, '?': true}

// Options bounds one split operation. All counts are in runes.
type Options struct {
	Limit    int // maximum runes per part
	MaxParts int // maximum number of parts; 0 means unlimited
}

// Split divides text into at most opts.MaxParts parts of at most opts.Limit
// runes each. Cut points are chosen inside each window preferring the
// rightmost newline, then the rightmost sentence terminal; when neither
// clears minCut a hard cut at the limit is taken. Any remainder left after
// the part budget is folded into the last part and re-truncated to the limit
// as a lossy last resort, so the result never silently drops leading content
// and never exceeds the part budget.
func Split(text string, opts Options) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if opts.Limit <= 0 {
		return []string{text}
	}

	remaining := []rune(text)
	var parts []string

	for len(remaining) > 0 && (opts.MaxParts <= 0 || len(parts) < opts.MaxParts) {
		if len(remaining) <= opts.Limit {
			if p := strings.TrimSpace(string(remaining)); p != "" {
				parts = append(parts, p)
			}
			remaining = nil
			break
		}

		window := remaining[:opts.Limit+1]
		cut := -1
		for i, r := range window {
			if r == '\n' {
				cut = max(cut, i)
			} else if terminals[r] {
				// cut after the terminal so it stays with its sentence
				cut = max(cut, i+1)
			}
		}
		if cut < minCut || cut > opts.Limit {
			cut = opts.Limit
		}

		part := strings.TrimSpace(string(remaining[:cut]))
		remaining = []rune(strings.TrimSpace(string(remaining[cut:])))
		if part != "" {
			parts = append(parts, part)
		}
	}

	// Part budget exhausted with text left over: append it to the final part,
	// then re-truncate. Truncation here is lossy but guarantees termination
	// and the per-part bound.
	if len(remaining) > 0 && len(parts) > 0 {
		last := []rune(strings.TrimSpace(parts[len(parts)-1] + "\n" + string(remaining)))
		if len(last) > opts.Limit {
			last = last[:opts.Limit]
		}
		parts[len(parts)-1] = strings.TrimRight(string(last), " \t\n")
	}

	return parts
}
