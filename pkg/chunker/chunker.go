// Package chunker splits oversized payloads into fixed-length segments so
// each fits under a per-field size ceiling, and joins them back.
package chunker

import "strings"

// DefaultSize per-segment ceiling for base64 photo payloads
const DefaultSize = 800000

// Split cuts s into contiguous segments of exactly size characters; the last
// may be shorter. A string within the limit (including "") comes back as a
// single segment. size < 1 disables splitting.
//
// Base64 is ASCII, so byte offsets are character offsets.
func Split(s string, size int) []string {
	if size < 1 || len(s) <= size {
		return []string{s}
	}

	n := (len(s) + size - 1) / size
	out := make([]string, 0, n)
	for start := 0; start < len(s); start += size {
		end := start + size
		if end > len(s) {
			end = len(s)
		}
		out = append(out, s[start:end])
	}
	return out
}

// Join reassembles segments produced by Split
func Join(chunks []string) string {
	return strings.Join(chunks, "")
}
