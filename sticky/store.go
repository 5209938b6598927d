// store.go implements Store, the set of sticky events in effect on a pad.

// Package sticky keeps track of persistent ("sticky") control state seen on
// a pad and replays it onto pads created or linked later.
package sticky

import (
	"context"
	"fmt"
	"strings"

	"github.com/xaionaro-go/streamidrouter/event"
	"github.com/xaionaro-go/xsync"
)

// Store holds at most one event per sticky key, ordered by
// event.Kind.StickyRank (and by establishment order within a rank).
type Store struct {
	locker xsync.Mutex
	events []event.Event
}

func NewStore() *Store {
	return &Store{}
}

// Set stores the event, superseding any event with the same sticky key.
// Non-sticky events are ignored and false is returned.
func (s *Store) Set(ctx context.Context, ev event.Event) bool {
	if !ev.IsSticky() {
		return false
	}
	s.locker.Do(ctx, func() {
		s.setLocked(ev.Clone())
	})
	return true
}

func (s *Store) setLocked(ev event.Event) {
	if ev.Kind == event.KindStreamStart {
		// a new stream is not at its end
		s.removeLocked(event.StickyKey{Kind: event.KindEOS})
	}

	key := ev.StickyKey()
	for idx := range s.events {
		if s.events[idx].StickyKey() == key {
			s.events[idx] = ev
			return
		}
	}

	rank := ev.Kind.StickyRank()
	insertAt := len(s.events)
	for idx, cur := range s.events {
		if cur.Kind.StickyRank() > rank {
			insertAt = idx
			break
		}
	}
	s.events = append(s.events, event.Event{})
	copy(s.events[insertAt+1:], s.events[insertAt:])
	s.events[insertAt] = ev
}

func (s *Store) removeLocked(key event.StickyKey) bool {
	for idx := range s.events {
		if s.events[idx].StickyKey() == key {
			s.events = append(s.events[:idx], s.events[idx+1:]...)
			return true
		}
	}
	return false
}

// Remove drops the events of the given kind (all names for custom sticky events).
func (s *Store) Remove(ctx context.Context, kinds ...event.Kind) {
	s.locker.Do(ctx, func() {
		filtered := s.events[:0]
		for _, ev := range s.events {
			drop := false
			for _, kind := range kinds {
				if ev.Kind == kind {
					drop = true
					break
				}
			}
			if !drop {
				filtered = append(filtered, ev)
			}
		}
		clear(s.events[len(filtered):])
		s.events = filtered
	})
}

// Get returns a copy of the event of the given kind, if any.
func (s *Store) Get(ctx context.Context, kind event.Kind) (event.Event, bool) {
	return xsync.DoR2(ctx, &s.locker, func() (event.Event, bool) {
		for _, ev := range s.events {
			if ev.Kind == kind {
				return ev.Clone(), true
			}
		}
		return event.Event{}, false
	})
}

// Events returns copies of all the stored events in replay order.
func (s *Store) Events(ctx context.Context) []event.Event {
	return xsync.DoR1(ctx, &s.locker, func() []event.Event {
		result := make([]event.Event, 0, len(s.events))
		for _, ev := range s.events {
			result = append(result, ev.Clone())
		}
		return result
	})
}

// ForEachSticky calls the callback for a copy of every stored event in replay
// order, until the callback returns false. The callback is called without
// the store being locked, so it may push into other pads (or even this one).
func (s *Store) ForEachSticky(
	ctx context.Context,
	callback func(event.Event) bool,
) {
	for _, ev := range s.Events(ctx) {
		if !callback(ev) {
			return
		}
	}
}

func (s *Store) Len(ctx context.Context) int {
	return xsync.DoR1(ctx, &s.locker, func() int {
		return len(s.events)
	})
}

func (s *Store) Clear(ctx context.Context) {
	s.locker.Do(ctx, func() {
		clear(s.events)
		s.events = s.events[:0]
	})
}

func (s *Store) String() string {
	ctx := context.TODO()
	var parts []string
	for _, ev := range s.Events(ctx) {
		parts = append(parts, ev.String())
	}
	return fmt.Sprintf("Sticky(%s)", strings.Join(parts, ", "))
}
