package diagfmt

import (
	"encoding/json"
	"io"
)

// Output is the root of the JSON report.
type Output struct {
	Errors []Entry `json:"errors"`
	Count  int     `json:"count"`
}

// JSON writes entries as one indented document.
func JSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Output{Errors: entries, Count: len(entries)})
}
