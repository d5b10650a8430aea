// Package ast defines the tree the middle-end and back-end operate on.
//
// The tree is a closed sum over Kind: every variant implements Node, and every
// pass switches exhaustively over the kinds it cares about. Nodes are values:
// TransformChildren never mutates the receiver, it rebuilds the node with the
// rewritten children, so subtrees may be shared freely between trees.
//
// Absent fields hold the Empty sentinel rather than nil. Combine(Empty, x) is x,
// which lets passes merge partially known information (types, signatures)
// without special cases.
package ast
