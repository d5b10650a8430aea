// Package astio reads and writes trees in the interchange form produced by
// the front end. Each node becomes a Record tagged with its kind name;
// absent fields mean Empty. The binary form is msgpack and the JSON form
// exists for hand-written fixtures.
package astio

// Record is the serialized form of one node.
type Record struct {
	Kind     string             `msgpack:"kind" json:"kind"`
	Name     string             `msgpack:"name,omitempty" json:"name,omitempty"`
	Tag      string             `msgpack:"tag,omitempty" json:"tag,omitempty"`
	Length   int64              `msgpack:"length,omitempty" json:"length,omitempty"`
	Op       string             `msgpack:"op,omitempty" json:"op,omitempty"`
	Int      *int64             `msgpack:"int,omitempty" json:"int,omitempty"`
	Float    *float64           `msgpack:"float,omitempty" json:"float,omitempty"`
	Str      *string            `msgpack:"str,omitempty" json:"str,omitempty"`
	Bool     *bool              `msgpack:"bool,omitempty" json:"bool,omitempty"`
	Capacity int64              `msgpack:"capacity,omitempty" json:"capacity,omitempty"`
	Variadic bool               `msgpack:"variadic,omitempty" json:"variadic,omitempty"`
	Items    []*Record          `msgpack:"items,omitempty" json:"items,omitempty"`
	Fields   map[string]*Record `msgpack:"fields,omitempty" json:"fields,omitempty"`
}

// Field names used in Record.Fields.
const (
	fieldType       = "type"
	fieldSub        = "sub"
	fieldStart      = "start"
	fieldEnd        = "end"
	fieldItems      = "items"
	fieldVar        = "var"
	fieldReturn     = "return"
	fieldParams     = "params"
	fieldGuard      = "guard"
	fieldBody       = "body"
	fieldTest       = "test"
	fieldPass       = "pass"
	fieldFail       = "fail"
	fieldSource     = "source"
	fieldArgs       = "args"
	fieldSignature  = "signature"
	fieldExpr       = "expr"
	fieldTarget     = "target"
	fieldLeft       = "left"
	fieldRight      = "right"
	fieldStatements = "statements"
)

func (r *Record) set(name string, child *Record) {
	if child == nil {
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]*Record)
	}
	r.Fields[name] = child
}

func (r *Record) field(name string) *Record {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}
