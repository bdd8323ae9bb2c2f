// Package dsu implements a disjoint-set (union-find) forest over comparable keys.
package dsu

// Set tracks a partition of keys. The zero value is not usable; call New.
type Set[T comparable] struct {
	parent map[T]T
	rank   map[T]int
	order  []T
}

func New[T comparable]() *Set[T] {
	return &Set[T]{parent: make(map[T]T), rank: make(map[T]int)}
}

// Add registers x as a singleton. Adding a known key is a no-op.
func (s *Set[T]) Add(x T) {
	if _, ok := s.parent[x]; ok {
		return
	}
	s.parent[x] = x
	s.order = append(s.order, x)
}

// Find returns the representative of x, registering x first if needed.
func (s *Set[T]) Find(x T) T {
	s.Add(x)
	root := x
	for s.parent[root] != root {
		root = s.parent[root]
	}
	for x != root {
		next := s.parent[x]
		s.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets holding a and b and reports whether they were disjoint.
func (s *Set[T]) Union(a, b T) bool {
	ra, rb := s.Find(a), s.Find(b)
	if ra == rb {
		return false
	}
	switch {
	case s.rank[ra] < s.rank[rb]:
		s.parent[ra] = rb
	case s.rank[ra] > s.rank[rb]:
		s.parent[rb] = ra
	default:
		s.parent[rb] = ra
		s.rank[ra]++
	}
	return true
}

func (s *Set[T]) Connected(a, b T) bool {
	return s.Find(a) == s.Find(b)
}

func (s *Set[T]) Len() int {
	return len(s.order)
}

// Groups returns every set. Members keep insertion order, and groups are ordered by
// their first inserted member.
func (s *Set[T]) Groups() [][]T {
	index := make(map[T]int)
	var out [][]T
	for _, x := range s.order {
		root := s.Find(x)
		i, ok := index[root]
		if !ok {
			i = len(out)
			index[root] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], x)
	}
	return out
}
