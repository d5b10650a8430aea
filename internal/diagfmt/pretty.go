package diagfmt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"dysc/internal/diag"
)

var (
	unitColor  = color.New(color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	codeColor  = color.New(color.FgYellow)
)

// Pretty writes err as
//
//	<unit>: error[<ID>]: <stage>: <message>
//
// Joined errors produce one line each.
func Pretty(w io.Writer, unit string, err error, opts PrettyOpts) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			Pretty(w, unit, e, opts)
		}
		return
	}
	e := Describe(unit, err)
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}

	var sb strings.Builder
	if e.Unit != "" {
		sb.WriteString(paint(unitColor, e.Unit))
		sb.WriteString(": ")
	}
	sb.WriteString(paint(errorColor, "error"))
	if e.Code != "" {
		sb.WriteString(paint(codeColor, "["+e.Code+"]"))
	}
	sb.WriteString(": ")
	msg := e.Message
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if opts.Width > 0 && runewidth.StringWidth(msg) > opts.Width {
		msg = runewidth.Truncate(msg, opts.Width, "...")
	}
	sb.WriteString(msg)
	fmt.Fprintln(w, sb.String())
}

// Entry is the structured form of one error.
type Entry struct {
	Unit     string `json:"unit,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Code     string `json:"code,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Name     string `json:"name,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message"`
}

// Describe splits err into its structured parts. Text wrapped around a
// *diag.Error becomes the stage.
func Describe(unit string, err error) Entry {
	e := Entry{Unit: unit, Message: err.Error()}
	var de *diag.Error
	if !errors.As(err, &de) {
		return e
	}
	full, inner := err.Error(), de.Error()
	if i := strings.LastIndex(full, inner); i > 0 {
		e.Stage = strings.TrimSuffix(full[:i], ": ")
	}
	e.Code = de.Code.ID()
	e.Kind = de.Kind
	e.Name = de.Name
	e.Expected = de.Expected
	e.Actual = de.Actual
	e.Message = strings.TrimPrefix(inner, de.Code.ID()+" ")
	return e
}
