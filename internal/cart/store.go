// Package cart holds the shopper's in-progress selection for one session.
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
)

// Store is the cart of one session. Each mutation replaces the line set under
// the lock and then writes the whole snapshot through to the slot.
type Store struct {
	mu    sync.Mutex
	lines []Line
	slot  Slot
	log   *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func([]Line)
	nextSub int
}

// New returns an empty Store bound to slot. Call Rehydrate to load the persisted cart.
func New(slot Slot, log *slog.Logger) *Store {
	return &Store{
		lines: []Line{},
		slot:  slot,
		log:   log,
		subs:  map[int]func([]Line){},
	}
}

// Rehydrate replaces the in-memory cart with the persisted one. Malformed
// lines are dropped; an unreadable slot leaves the cart empty and is reported.
func (s *Store) Rehydrate(ctx context.Context) error {
	data, err := s.slot.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	lines := []Line{}
	if len(data) > 0 {
		decoded, dropped, err := decodeSnapshot(data)
		if err != nil {
			s.log.Warn("discarding unreadable cart", "err", err)
		} else {
			lines = decoded
			if dropped > 0 {
				s.log.Warn("dropped invalid cart lines", "dropped", dropped)
			}
		}
	}

	s.mu.Lock()
	s.lines = lines
	view := copyLines(lines)
	s.mu.Unlock()

	s.notify(view)
	return nil
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLines(s.lines)
}

// Snapshot returns the cart in its persisted shape.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Items: s.Items()}
}

// AddToCart increments the line for p by one kilogram, creating it if needed.
func (s *Store) AddToCart(ctx context.Context, p Product) {
	s.apply(ctx, func(lines []Line) []Line {
		for i := range lines {
			if lines[i].Product.ID == p.ID {
				lines[i].Quantity = lines[i].Quantity.Add(decimal.NewFromInt(1))
				return lines
			}
		}
		return append(lines, Line{Product: p, Quantity: decimal.NewFromInt(1)})
	})
}

// RemoveFromCart deletes the line for id. Missing ids are ignored.
func (s *Store) RemoveFromCart(ctx context.Context, id ProductID) {
	s.apply(ctx, func(lines []Line) []Line {
		return without(lines, id)
	})
}

// UpdateQuantity sets the quantity for id; q <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, id ProductID, q decimal.Decimal) {
	s.apply(ctx, func(lines []Line) []Line {
		if !q.IsPositive() {
			return without(lines, id)
		}
		for i := range lines {
			if lines[i].Product.ID == id {
				lines[i].Quantity = q
			}
		}
		return lines
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) {
	s.apply(ctx, func([]Line) []Line { return []Line{} })
}

// Subscribe registers fn to receive a copy of the lines after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func([]Line)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) apply(ctx context.Context, mutate func([]Line) []Line) {
	s.mu.Lock()
	next := mutate(copyLines(s.lines))
	s.lines = next
	view := copyLines(next)
	data, err := json.Marshal(Snapshot{Items: view})
	if err == nil {
		// still under the lock so writes land in mutation order
		err = s.slot.Save(ctx, data)
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("cart write-through failed", "err", err)
	}
	s.notify(view)
}

func (s *Store) notify(view []Line) {
	s.subMu.Lock()
	fns := make([]func([]Line), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(copyLines(view))
	}
}

func without(lines []Line, id ProductID) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.Product.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func copyLines(in []Line) []Line {
	out := make([]Line, len(in))
	copy(out, in)
	return out
}
