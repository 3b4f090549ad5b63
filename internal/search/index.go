package search

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Entry is one (game id, title) pair of the search index.
type Entry struct {
	ID    uint
	Title string
}

// Index is an in-memory snapshot of all known titles. Readers always
// see a complete snapshot: Refresh builds a new slice and swaps the
// pointer in one step, it never mutates what a running match holds.
type Index struct {
	load    func(ctx context.Context) ([]Entry, error)
	entries atomic.Pointer[[]Entry]
}

// NewIndex wires an index to its loader. The index starts empty;
// callers trigger the first Refresh explicitly.
func NewIndex(load func(ctx context.Context) ([]Entry, error)) *Index {
	idx := &Index{load: load}
	empty := make([]Entry, 0)
	idx.entries.Store(&empty)
	return idx
}

// Refresh replaces the snapshot wholesale. On failure the previous
// snapshot stays in place.
func (i *Index) Refresh(ctx context.Context) error {
	entries, err := i.load(ctx)
	if err != nil {
		return fmt.Errorf("refreshing title index: %w", err)
	}
	i.entries.Store(&entries)
	return nil
}

// Entries returns the current snapshot. The returned slice must be
// treated as read-only.
func (i *Index) Entries() []Entry {
	return *i.entries.Load()
}
