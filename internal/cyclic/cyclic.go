// Package cyclic provides a closed, ordered set of variants with a current
// value that rotates forward and backward with wraparound. It backs the sort
// order and mod type toggles as well as TUI window focus.
package cyclic

// Filter holds the variants and the index of the current one. The index is
// always in [0, len(variants)).
type Filter[T comparable] struct {
	variants []T
	idx      int
}

// New returns a filter positioned on the first variant. It panics when no
// variants are given, the same way regexp.MustCompile does for bad input:
// an empty enumeration is a programming error.
func New[T comparable](variants ...T) *Filter[T] {
	if len(variants) == 0 {
		panic("cyclic: no variants")
	}
	vs := make([]T, len(variants))
	copy(vs, variants)
	return &Filter[T]{variants: vs}
}

// Value returns the current variant.
func (f *Filter[T]) Value() T { return f.variants[f.idx] }

// Index returns the position of the current variant in declared order.
func (f *Filter[T]) Index() int { return f.idx }

// Len returns the number of variants.
func (f *Filter[T]) Len() int { return len(f.variants) }

// Variants returns a copy of the variants in declared order.
func (f *Filter[T]) Variants() []T {
	out := make([]T, len(f.variants))
	copy(out, f.variants)
	return out
}

// Cycle advances to the next variant, wrapping from last to first.
func (f *Filter[T]) Cycle() {
	f.idx = (f.idx + 1) % len(f.variants)
}

// CycleBack retreats to the previous variant, wrapping from first to last.
func (f *Filter[T]) CycleBack() {
	n := len(f.variants)
	f.idx = (f.idx - 1 + n) % n
}

// CycleTo calls Cycle until the current value equals target. It takes no
// steps when already there and at most Len()-1 otherwise. A target that is not
// one of the variants leaves the filter untouched and reports false.
func (f *Filter[T]) CycleTo(target T) bool {
	if f.indexOf(target) < 0 {
		return false
	}
	for f.Value() != target {
		f.Cycle()
	}
	return true
}

// Set jumps straight to target. Same contract as CycleTo.
func (f *Filter[T]) Set(target T) bool {
	i := f.indexOf(target)
	if i < 0 {
		return false
	}
	f.idx = i
	return true
}

func (f *Filter[T]) indexOf(v T) int {
	for i, x := range f.variants {
		if x == v {
			return i
		}
	}
	return -1
}
