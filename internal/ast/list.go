package ast

// List is an ordered sequence of nodes. Empty items are dropped on
// construction.
type List struct {
	Items []Node
}

// NewList builds a list from items, filtering out Empty.
func NewList(items ...Node) *List {
	out := make([]Node, 0, len(items))
	for _, item := range items {
		if IsEmpty(item) {
			continue
		}
		out = append(out, item)
	}
	return &List{Items: out}
}

func (l *List) Kind() Kind { return KindList }

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// First returns the first item or Empty.
func (l *List) First() Node {
	if l.Len() == 0 {
		return Empty
	}
	return l.Items[0]
}

// Last returns the last item or Empty.
func (l *List) Last() Node {
	if l.Len() == 0 {
		return Empty
	}
	return l.Items[len(l.Items)-1]
}

// WithLast returns a copy of l with its last item replaced.
func (l *List) WithLast(n Node) *List {
	if l.Len() == 0 {
		return NewList(n)
	}
	items := make([]Node, len(l.Items))
	copy(items, l.Items)
	items[len(items)-1] = n
	return NewList(items...)
}

// Map applies f to every item and collects the results into a new list.
func (l *List) Map(f TransformFunc) (*List, error) {
	if l == nil {
		return NewList(), nil
	}
	out := make([]Node, 0, len(l.Items))
	for _, item := range l.Items {
		next, err := apply(f, item)
		if err != nil {
			return nil, err
		}
		out = append(out, next)
	}
	return NewList(out...), nil
}

func (l *List) TransformChildren(f TransformFunc) (Node, error) {
	return l.Map(f)
}

// Concat appends extra; a List argument contributes its items.
func (l *List) Concat(extra Node) *List {
	items := make([]Node, 0, l.Len()+1)
	if l != nil {
		items = append(items, l.Items...)
	}
	if other, ok := extra.(*List); ok {
		items = append(items, other.Items...)
	} else {
		items = append(items, extra)
	}
	return NewList(items...)
}

// Flatten inlines nested lists recursively, preserving left-to-right order.
func (l *List) Flatten() *List {
	out := make([]Node, 0, l.Len())
	var walk func(*List)
	walk = func(cur *List) {
		for _, item := range cur.Items {
			if nested, ok := item.(*List); ok {
				walk(nested)
				continue
			}
			out = append(out, item)
		}
	}
	if l != nil {
		walk(l)
	}
	return &List{Items: out}
}

func (l *List) String() string { return Dump(l) }
