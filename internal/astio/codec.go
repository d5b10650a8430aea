package astio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"dysc/internal/ast"
)

// Format selects the serialized representation.
type Format uint8

const (
	FormatMsgpack Format = iota + 1
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatMsgpack:
		return "msgpack"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat converts a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("invalid tree format: %q (expected: msgpack|json)", s)
	}
}

// FormatForPath guesses the format from a file extension; anything other
// than .json is msgpack.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMsgpack
}

// Encode writes n to w.
func Encode(w io.Writer, n ast.Node, format Format) error {
	rec, err := ToRecord(n)
	if err != nil {
		return err
	}
	switch format {
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetSortMapKeys(true)
		return enc.Encode(rec)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	return fmt.Errorf("unsupported tree format %v", format)
}

// Decode reads one tree from r.
func Decode(r io.Reader, format Format) (ast.Node, error) {
	var rec Record
	switch format {
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode msgpack tree: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode json tree: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported tree format %v", format)
	}
	return FromRecord(&rec)
}

// Marshal encodes n into a byte slice.
func Marshal(n ast.Node, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, n, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
