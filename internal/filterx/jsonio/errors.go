package jsonio

import "fmt"

// IncompleteError signals the input ended before a value was fully formed
// (spec.md §4.16: "Incomplete input is distinguished from invalid input").
// A caller streaming bytes can treat this as "need more data" rather than
// a hard parse failure.
type IncompleteError struct {
	Reason string
}

func (e *IncompleteError) Error() string { return "jsonio: incomplete input: " + e.Reason }

func incompleteError(reason string) error { return &IncompleteError{Reason: reason} }

// InvalidError reports malformed JSON with a short excerpt around the
// failing offset (spec.md §4.16: "invalid input includes a short excerpt
// around the failure offset for diagnostics").
type InvalidError struct {
	Offset  int
	Excerpt string
	Reason  string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("jsonio: invalid input at offset %d near %q: %s", e.Offset, e.Excerpt, e.Reason)
}

const excerptRadius = 16

func invalidError(s string, offset int, reason string) error {
	start := offset - excerptRadius
	if start < 0 {
		start = 0
	}
	end := offset + excerptRadius
	if end > len(s) {
		end = len(s)
	}
	return &InvalidError{Offset: offset, Excerpt: s[start:end], Reason: reason}
}

// IsIncomplete reports whether err signals truncated (not malformed) input.
func IsIncomplete(err error) bool {
	_, ok := err.(*IncompleteError)
	return ok
}
