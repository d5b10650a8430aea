// Package diagfmt renders compilation errors for terminals and tools.
package diagfmt

// PrettyOpts configures pretty-printing of errors.
type PrettyOpts struct {
	Color bool
	// Width caps the message column count; 0 means unlimited.
	Width int
}
