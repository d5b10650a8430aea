// Package diag defines the error taxonomy shared by the inference, lowering and
// code generation passes.
//
// # Data model
//
// Every failure produced by the core is an *Error. It carries:
//
//   - Code – compact numeric identifier (see codes.go) with a stable string form.
//   - Kind – the node kind the failing handler was looking at (e.g. "Op", "FnCall").
//   - Name – the variable or function name involved, when there is one.
//   - Expected / Actual – rendered types for mismatch-class errors.
//   - Msg – short human oriented text.
//
// Errors are always fatal to the enclosing compilation. The core never renders
// them; cmd/dysc is responsible for turning an *Error into a diagnostic line.
//
// Matching uses the standard errors package:
//
//	if errors.Is(err, diag.ErrTypeMismatch) { ... }
//
// (*Error).Is compares codes only, so the exported sentinels match any error
// of the same class regardless of its context fields.
package diag
