package google

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrSearchUnavailable matches every failed search via errors.Is. An empty
// result is not a failure.
var ErrSearchUnavailable = errors.New("google: provider search unavailable")

// snippetLimit bounds how much of an upstream body is kept for diagnostics.
const snippetLimit = 200

// SearchError describes a failed Places search.
type SearchError struct {
	Op         string // search_nearby, search_text or autocomplete
	StatusCode int    // 0 when no response was received
	Snippet    string // truncated upstream body, if any
	Malformed  bool   // body could not be parsed
	Err        error
}

func (e *SearchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "google: %s failed", e.Op)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Snippet != "" {
		fmt.Fprintf(&b, " (body: %s)", e.Snippet)
	}
	return b.String()
}

func (e *SearchError) Unwrap() error { return e.Err }

// Is makes every SearchError match ErrSearchUnavailable.
func (e *SearchError) Is(target error) bool {
	return target == ErrSearchUnavailable
}

// Snippet returns body truncated to a short, valid UTF-8 diagnostic string.
func Snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= snippetLimit {
		return s
	}
	s = s[:snippetLimit]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "..."
}
