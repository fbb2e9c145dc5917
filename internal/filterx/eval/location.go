package eval

import "fmt"

// Location is the source-location tuple every expression node carries
// (spec.md §4.2, §6.1: "(filename, start_line, start_col, end_line,
// end_col, literal_source_text)"). It lives in eval rather than expr so
// that error frames can reference it without expr depending on eval in
// both directions.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	Text      string
}

// String renders the diagnostic form used in FILTERX ERROR log lines
// (spec.md §6.3): "<file>:<line>:<col>|<source_text>".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d|%s", l.File, l.StartLine, l.StartCol, l.Text)
}
