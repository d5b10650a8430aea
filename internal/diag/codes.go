package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Tree construction / transform framework
	NodeConflict  Code = 1001
	MalformedNode Code = 1002

	// Type inference
	TypeMismatch      Code = 2001
	UnresolvedType    Code = 2002
	InferenceStalled  Code = 2003
	UndefinedFunction Code = 2004

	// Lowering
	UnsupportedInterpolation Code = 3001

	// Code generation
	ArgumentTypeMismatch Code = 4001
)

var codeDescription = map[Code]string{
	UnknownCode:              "Unknown error",
	NodeConflict:             "Conflicting node information",
	MalformedNode:            "Malformed node",
	TypeMismatch:             "Type mismatch",
	UnresolvedType:           "Unresolved type",
	InferenceStalled:         "Type inference stalled",
	UndefinedFunction:        "Undefined function",
	UnsupportedInterpolation: "Unsupported interpolation",
	ArgumentTypeMismatch:     "Argument type mismatch",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("AST%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("INF%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
