// Package trace records what the compiler driver is doing so slow or
// stuck compilations can be diagnosed.
//
//	dysc emit --trace=- --trace-level=detail a.dyt.json b.dyt.json
//
// A batch opens a driver span, each file a unit span under it and each
// stage of a file a pass span under that; lowering steps and inference
// iterations are node events. Spans travel in the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopePass, "infer")
//	defer span.End("")
//
// The stream tracer writes text or NDJSON as events happen, the ring
// tracer keeps the newest events for a crash dump, and the multi tracer
// does both.
package trace
