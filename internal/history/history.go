// Package history records visited locations with a browser-style cursor.
//
// A History is not safe for concurrent use; its owner serializes access.
package history

type History[T any] struct {
	entries []T
	cursor  int // valid index whenever entries is non-empty
}

func New[T any]() *History[T] {
	return &History[T]{}
}

// Navigate drops every entry after the cursor, appends v and moves the
// cursor onto it.
func (h *History[T]) Navigate(v T) {
	if len(h.entries) > 0 {
		clear(h.entries[h.cursor+1:])
		h.entries = h.entries[:h.cursor+1]
	}
	h.entries = append(h.entries, v)
	h.cursor = len(h.entries) - 1
}

// Back moves the cursor one entry towards the oldest and returns the entry
// it lands on. At the oldest entry, or with no entries, nothing changes and
// ok is false.
func (h *History[T]) Back() (v T, ok bool) {
	if len(h.entries) == 0 || h.cursor == 0 {
		return v, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Forward is the mirror image of Back.
func (h *History[T]) Forward() (v T, ok bool) {
	if h.cursor >= len(h.entries)-1 {
		return v, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Current returns the entry under the cursor.
func (h *History[T]) Current() (v T, ok bool) {
	if len(h.entries) == 0 {
		return v, false
	}
	return h.entries[h.cursor], true
}

func (h *History[T]) Len() int {
	return len(h.entries)
}

// Cursor returns the cursor index, -1 when there are no entries.
func (h *History[T]) Cursor() int {
	if len(h.entries) == 0 {
		return -1
	}
	return h.cursor
}

// Entries returns a copy of the entries, oldest first.
func (h *History[T]) Entries() []T {
	out := make([]T, len(h.entries))
	copy(out, h.entries)
	return out
}
