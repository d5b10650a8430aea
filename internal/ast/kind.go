package ast

// Kind identifies the variant of a node.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindList
	KindFile
	KindType
	KindLiteral
	KindVariable
	KindBuffer
	KindUse
	KindFnDef
	KindIf
	KindFor
	KindCall
	KindReturn
	KindVarDecl
	KindAssign
	KindOp
	KindStrConcat
	KindCast
)

var kindNames = [...]string{
	KindEmpty:     "Empty",
	KindList:      "List",
	KindFile:      "File",
	KindType:      "Type",
	KindLiteral:   "Literal",
	KindVariable:  "Variable",
	KindBuffer:    "Buffer",
	KindUse:       "UseStatement",
	KindFnDef:     "FnDef",
	KindIf:        "IfBlock",
	KindFor:       "ForLoop",
	KindCall:      "FnCall",
	KindReturn:    "ReturnStatement",
	KindVarDecl:   "VariableDeclaration",
	KindAssign:    "Assignment",
	KindOp:        "Op",
	KindStrConcat: "StrConcat",
	KindCast:      "Cast",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return KindEmpty, false
}
