package ast

import (
	"fmt"
	"strings"
)

// Tag is the logical type constructor.
type Tag uint8

const (
	TagInvalid Tag = iota
	TagInt
	TagFloat
	TagString
	TagBool
	TagArray
	TagRange
	TagBuffer
)

var tagNames = [...]string{
	TagInvalid: "invalid",
	TagInt:     "int",
	TagFloat:   "float",
	TagString:  "string",
	TagBool:    "bool",
	TagArray:   "array",
	TagRange:   "range",
	TagBuffer:  "buffer",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "invalid"
}

// ParseTag maps a tag name to its Tag.
func ParseTag(s string) (Tag, error) {
	for i, name := range tagNames {
		if i != int(TagInvalid) && name == s {
			return Tag(i), nil
		}
	}
	return TagInvalid, fmt.Errorf("unknown type tag %q", s)
}

// Aggregate reports whether the tag carries an element subtype.
func (t Tag) Aggregate() bool {
	return t == TagArray || t == TagRange
}

// Type is a tag plus an optional element subtype and fixed length.
// Length 0 means "unknown"; Sub is Empty or a *Type.
type Type struct {
	Tag    Tag
	Sub    Node
	Length int
}

// NewType builds a scalar type.
func NewType(tag Tag) *Type {
	return &Type{Tag: tag, Sub: Empty}
}

// ArrayOf builds an array type; sub may be Empty while unresolved.
func ArrayOf(sub Node, length int) *Type {
	return &Type{Tag: TagArray, Sub: orEmpty(sub), Length: length}
}

// RangeOf builds a range type over sub.
func RangeOf(sub Node) *Type {
	return &Type{Tag: TagRange, Sub: orEmpty(sub)}
}

func (t *Type) Kind() Kind { return KindType }

// IsComplete is true for scalar tags; aggregates also need a complete subtype.
func (t *Type) IsComplete() bool {
	if t == nil || t.Tag == TagInvalid {
		return false
	}
	if t.Tag.Aggregate() {
		return IsComplete(t.Sub)
	}
	return true
}

// Elem returns the element type of an aggregate, or Empty.
func (t *Type) Elem() Node {
	if t == nil || !t.Tag.Aggregate() {
		return Empty
	}
	return orEmpty(t.Sub)
}

func (t *Type) TransformChildren(f TransformFunc) (Node, error) {
	sub, err := applyOptType(KindType, "Sub", f, t.Sub)
	if err != nil {
		return nil, err
	}
	return &Type{Tag: t.Tag, Sub: sub, Length: t.Length}, nil
}

func (t *Type) String() string { return TypeString(t) }

// TypeString renders a type compactly: int, array<int>[3], range<int>, ?.
func TypeString(n Node) string {
	t, ok := n.(*Type)
	if !ok || t == nil {
		return "?"
	}
	if !t.Tag.Aggregate() {
		return t.Tag.String()
	}
	var sb strings.Builder
	sb.WriteString(t.Tag.String())
	sb.WriteString("<")
	sb.WriteString(TypeString(t.Sub))
	sb.WriteString(">")
	if t.Length > 0 {
		fmt.Fprintf(&sb, "[%d]", t.Length)
	}
	return sb.String()
}

// TypeSuffix renders a type as an identifier-safe fragment, used to name
// specialized function clones.
func TypeSuffix(n Node) string {
	t, ok := n.(*Type)
	if !ok || t == nil {
		return "any"
	}
	if !t.Tag.Aggregate() {
		return t.Tag.String()
	}
	return t.Tag.String() + "_" + TypeSuffix(t.Sub)
}
