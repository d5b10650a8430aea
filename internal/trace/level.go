package trace

import (
	"fmt"
	"strings"
)

// Level controls which events reach a tracer.
type Level uint8

const (
	LevelOff Level = iota
	// LevelError records only spans that ended in failure.
	LevelError
	// LevelPhase records the batch and each file.
	LevelPhase
	// LevelDetail adds the stages of each file.
	LevelDetail
	// LevelDebug adds lowering steps and inference iterations.
	LevelDebug
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by String; empty means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(s)
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// finest is the deepest scope recorded at l.
func (l Level) finest() Scope {
	switch l {
	case LevelPhase:
		return ScopeUnit
	case LevelDetail:
		return ScopePass
	case LevelDebug:
		return ScopeNode
	}
	return 0
}

// ShouldEmit reports whether events of scope are recorded at l.
func (l Level) ShouldEmit(scope Scope) bool {
	return scope <= l.finest()
}

// tracks reports whether a span of scope must be kept live at l, which
// at LevelError is every span since any of them may fail.
func (l Level) tracks(scope Scope) bool {
	return l == LevelError || l.ShouldEmit(scope)
}

// admits reports whether ev is recorded at l.
func (l Level) admits(ev *Event) bool {
	switch {
	case l == LevelOff:
		return false
	case ev.Kind == KindPulse:
		return true
	case l == LevelError:
		return ev.Kind == KindEnd && ev.Detail == "error"
	}
	return l.ShouldEmit(ev.Scope)
}
