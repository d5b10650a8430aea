package trace

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// emit numbers ev so every tracer in a fan-out sees the same sequence.
func emit(t Tracer, ev *Event) {
	ev.Seq = seqCounter.Add(1)
	t.Emit(ev)
}

// binding is what a context carries: the tracer, the innermost open span
// and the pulse interval for batch spans.
type binding struct {
	tracer Tracer
	span   uint64
	pulse  time.Duration
}

type ctxKey struct{}

func bound(ctx context.Context) binding {
	if ctx != nil {
		if b, ok := ctx.Value(ctxKey{}).(binding); ok {
			return b
		}
	}
	return binding{tracer: Nop}
}

// WithTracer attaches t to ctx. A nil t detaches tracing.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	b := bound(ctx)
	b.tracer = t
	return context.WithValue(ctx, ctxKey{}, b)
}

// WithPulse sets how often batch spans started under ctx emit a pulse.
// Zero disables pulses.
func WithPulse(ctx context.Context, every time.Duration) context.Context {
	b := bound(ctx)
	b.pulse = every
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext returns the tracer attached to ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	return bound(ctx).tracer
}

// Span is an open interval of work. The zero of a filtered span is inert.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string

	stop chan struct{}
	done sync.WaitGroup
}

// Start opens a span as a child of the span ctx carries and returns a
// context carrying the new one. A driver-scope span pulses while open
// when ctx has a pulse interval.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	b := bound(ctx)
	if !b.tracer.Level().tracks(scope) {
		return ctx, &Span{}
	}
	s := &Span{
		tracer:  b.tracer,
		id:      spanCounter.Add(1),
		parent:  b.span,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	emit(s.tracer, &Event{
		Time:     s.started,
		Kind:     KindBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     name,
	})
	if scope == ScopeDriver && b.pulse > 0 {
		s.pulse(b.pulse)
	}
	b.span = s.id
	return context.WithValue(ctx, ctxKey{}, b), s
}

func (s *Span) pulse(every time.Duration) {
	stop := make(chan struct{})
	s.stop = stop
	s.done.Add(1)
	go func() {
		defer s.done.Done()
		tick := time.NewTicker(every)
		defer tick.Stop()
		for n := 1; ; n++ {
			select {
			case now := <-tick.C:
				emit(s.tracer, &Event{
					Time:     now,
					Kind:     KindPulse,
					Scope:    s.scope,
					ParentID: s.id,
					Name:     s.name,
					Detail:   "#" + strconv.Itoa(n),
					Elapsed:  now.Sub(s.started),
				})
			case <-stop:
				return
			}
		}
	}()
}

// WithExtra records key=value on the span's end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// End closes the span with detail ("error" marks a failure) and returns
// how long it was open. Pulses stop before the end event is emitted.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	if s.stop != nil {
		close(s.stop)
		s.done.Wait()
		s.stop = nil
	}
	now := time.Now()
	elapsed := now.Sub(s.started)
	emit(s.tracer, &Event{
		Time:     now,
		Kind:     KindEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Elapsed:  elapsed,
		Extra:    s.extra,
	})
	return elapsed
}

// ID is zero for a span the level filtered out.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Mark records an instant under the span ctx carries.
func Mark(ctx context.Context, scope Scope, name string, extra map[string]string) {
	b := bound(ctx)
	if !b.tracer.Level().ShouldEmit(scope) {
		return
	}
	emit(b.tracer, &Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: b.span,
		Name:     name,
		Extra:    extra,
	})
}
