package view

import (
	"context"
	"time"
)

// LiveSearch is search-as-you-type over a NotesView: every keystroke
// replaces the query, and the list is only re-fetched once typing pauses.
type LiveSearch struct {
	view     *NotesView
	debounce *Debouncer
	onResult func(State, error)
}

// NewLiveSearch reports each completed search to onResult.
func NewLiveSearch(v *NotesView, delay time.Duration, onResult func(State, error)) *LiveSearch {
	return &LiveSearch{view: v, debounce: NewDebouncer(delay), onResult: onResult}
}

// Type replaces the search text.
func (s *LiveSearch) Type(ctx context.Context, text string) {
	s.debounce.Call(func() {
		err := s.view.SetSearch(ctx, text)
		if s.onResult != nil {
			s.onResult(s.view.State(), err)
		}
	})
}

// Flush runs the pending search immediately and waits for it.
func (s *LiveSearch) Flush() {
	s.debounce.Flush()
}

// Close drops a pending search.
func (s *LiveSearch) Close() {
	s.debounce.Cancel()
}
