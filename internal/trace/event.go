package trace

import "time"

// Kind tells span boundaries, instants and liveness pulses apart.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
	// KindPulse is emitted periodically while a batch span is open, so a
	// trace that keeps pulsing without new ends points at a stuck unit.
	KindPulse
)

var kindNames = [...]string{
	KindBegin: "begin",
	KindEnd:   "end",
	KindPoint: "point",
	KindPulse: "pulse",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event, coarsest first: a batch of files,
// one file, one stage of a file, and the steps inside a stage.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1
	ScopeUnit
	ScopePass
	ScopeNode
)

var scopeNames = [...]string{
	ScopeDriver: "driver",
	ScopeUnit:   "unit",
	ScopePass:   "pass",
	ScopeNode:   "node",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record. Elapsed is set on end events only.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Elapsed  time.Duration
	Extra    map[string]string
}
