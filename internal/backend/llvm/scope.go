package llvm

import "strconv"

// Scope hands out unique names within one function (locals and labels)
// or within the module (globals). The first request for a hint returns
// the hint itself; later ones get a numeric suffix.
type Scope struct {
	used map[string]int
}

func NewScope() *Scope {
	return &Scope{used: make(map[string]int)}
}

// Reserve marks name as taken, e.g. for parameters and function names.
func (s *Scope) Reserve(name string) {
	if _, ok := s.used[name]; !ok {
		s.used[name] = 1
	}
}

// Fresh returns an unused name derived from hint.
func (s *Scope) Fresh(hint string) string {
	n, ok := s.used[hint]
	if !ok {
		s.used[hint] = 1
		return hint
	}
	for {
		name := hint + "." + strconv.Itoa(n)
		n++
		if _, taken := s.used[name]; !taken {
			s.used[hint] = n
			s.used[name] = 1
			return name
		}
	}
}
