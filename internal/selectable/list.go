// Package selectable implements the one labeled, single-cursor list used for
// every item kind the UI shows: remote search results, staged and unstaged
// mods, categories and the file-variant picker.
package selectable

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Entry pairs a value with the label it is displayed under.
type Entry[T any] struct {
	Label string
	Value T
}

// List is an ordered sequence of entries with an optional selection cursor
// and a free-text query. The zero value is not ready; use New.
type List[T any] struct {
	entries []Entry[T]
	cursor  int // -1 means nothing selected
	query   []rune
}

func New[T any]() *List[T] {
	return &List[T]{cursor: -1}
}

// Entries builds entries from values using label to render each one.
func Entries[T any](values []T, label func(T) string) []Entry[T] {
	out := make([]Entry[T], len(values))
	for i, v := range values {
		out[i] = Entry[T]{Label: label(v), Value: v}
	}
	return out
}

// Refresh replaces the entire content and resets both cursor and query.
func (l *List[T]) Refresh(entries []Entry[T]) {
	l.entries = make([]Entry[T], len(entries))
	copy(l.entries, entries)
	l.cursor = -1
	l.query = l.query[:0]
}

// Clear empties the list, the same as refreshing with nothing.
func (l *List[T]) Clear() { l.Refresh(nil) }

func (l *List[T]) Len() int      { return len(l.entries) }
func (l *List[T]) IsEmpty() bool { return len(l.entries) == 0 }

// Labels returns display labels in order.
func (l *List[T]) Labels() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Label
	}
	return out
}

// Values returns the values in order.
func (l *List[T]) Values() []T {
	out := make([]T, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Value
	}
	return out
}

// At returns the entry at i.
func (l *List[T]) At(i int) (Entry[T], bool) {
	if i < 0 || i >= len(l.entries) {
		return Entry[T]{}, false
	}
	return l.entries[i], true
}

// Next moves the cursor down one, stopping at the last entry. With nothing
// selected it selects the first entry. No-op on an empty list.
func (l *List[T]) Next() {
	n := len(l.entries)
	if n == 0 {
		return
	}
	switch {
	case l.cursor < 0:
		l.cursor = 0
	case l.cursor+1 < n:
		l.cursor++
	}
}

// Previous moves the cursor up one, stopping at the first entry. With nothing
// selected it selects the first entry. No-op on an empty list.
func (l *List[T]) Previous() {
	if len(l.entries) == 0 {
		return
	}
	if l.cursor > 0 {
		l.cursor--
		return
	}
	l.cursor = 0
}

// Cursor returns the selected index or -1.
func (l *List[T]) Cursor() int { return l.cursor }

// SetCursor selects i, clamped to the list bounds. A negative i deselects.
func (l *List[T]) SetCursor(i int) {
	switch {
	case len(l.entries) == 0 || i < 0:
		l.cursor = -1
	case i >= len(l.entries):
		l.cursor = len(l.entries) - 1
	default:
		l.cursor = i
	}
}

// Select returns the value under the cursor, if any.
func (l *List[T]) Select() (T, bool) {
	e, ok := l.At(l.cursor)
	return e.Value, ok
}

// SelectedLabel returns the label under the cursor or "".
func (l *List[T]) SelectedLabel() string {
	e, _ := l.At(l.cursor)
	return e.Label
}

func (l *List[T]) Query() string { return string(l.query) }

func (l *List[T]) SetQuery(q string) { l.query = []rune(q) }

// Matches returns the indices whose labels fuzzy-match the query, best match
// first. An empty query matches everything in order.
func (l *List[T]) Matches() []int {
	if len(l.query) == 0 {
		out := make([]int, len(l.entries))
		for i := range out {
			out[i] = i
		}
		return out
	}
	ranks := fuzzy.RankFindNormalizedFold(string(l.query), l.Labels())
	sort.Stable(ranks)
	out := make([]int, len(ranks))
	for i, r := range ranks {
		out[i] = r.OriginalIndex
	}
	return out
}

// SelectBestMatch moves the cursor to the best fuzzy match for the query.
func (l *List[T]) SelectBestMatch() bool {
	if len(l.query) == 0 {
		return false
	}
	m := l.Matches()
	if len(m) == 0 {
		return false
	}
	l.cursor = m[0]
	return true
}
