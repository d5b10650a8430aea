package pipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageDecode reads a serialized tree.
	StageDecode Stage = "decode"
	// StageInfer runs type inference.
	StageInfer Stage = "infer"
	// StageLower inlines guards and lowers string concatenation.
	StageLower Stage = "lower"
	// StageEmit generates LLVM IR.
	StageEmit Stage = "emit"
)

var stageOrder = map[Stage]int{
	StageDecode: 1,
	StageInfer:  2,
	StageLower:  3,
	StageEmit:   4,
}

// ParseStage converts a stage name.
func ParseStage(s string) (Stage, bool) {
	st := Stage(s)
	_, ok := stageOrder[st]
	return st, ok
}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the unit is currently in a stage.
	StatusWorking Status = "working"
	// StatusDone indicates the unit finished.
	StatusDone Status = "done"
	// StatusCached indicates the unit's IR came from the cache.
	StatusCached Status = "cached"
	// StatusError indicates the unit failed.
	StatusError Status = "error"
)

// Event reports progress for a unit (or for the whole batch when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use when passed to CompileAll.
type ProgressSink interface {
	OnEvent(Event)
}

func emitStage(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

func emitQueued(sink ProgressSink, files []string) {
	for _, file := range files {
		emitStage(sink, file, "", StatusQueued, nil, 0)
	}
}
