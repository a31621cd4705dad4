package game

import (
	"strings"
	"sync"

	"github.com/rs/xid"

	"github.com/ludoserver/ludoserver/internal/config"
)

// Registry is the games table: a sparse array of bounded capacity keyed
// by a short alphanumeric code, mirroring internal/session.Registry's
// shape (spec.md §9 "Global tables").
type Registry struct {
	mu      sync.Mutex
	slots   [config.MaxGames]*Game
	byCode  map[string]int
}

// NewRegistry returns an empty, fixed-capacity games table.
func NewRegistry() *Registry {
	return &Registry{byCode: make(map[string]int)}
}

// Create allocates a new game for creatorSessionIndex with a fresh,
// collision-free code. ok is false if the table is full.
func (r *Registry) Create(creatorSessionIndex int) (g *Game, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, s := range r.slots {
		if s == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false
	}

	code := r.freshCode()
	g = newGame(idx, code, creatorSessionIndex)
	r.slots[idx] = g
	r.byCode[code] = idx

	g.Lock()
	return g, true
}

// freshCode generates a short uppercase alphanumeric game code via xid,
// retrying on collision. Caller must hold r.mu.
//
// Slice the tail, not the head: xid's 12 raw bytes are timestamp(4) |
// machine(3) | pid(2) | counter(3), encoded left-to-right, so a
// leading-character prefix is dominated by the timestamp and stays
// identical for long stretches (every retry in this same loop would then
// mint the same candidate). The trailing characters decode the counter,
// which xid increments on every New() call, so they are what actually
// differs from one candidate to the next.
func (r *Registry) freshCode() string {
	for attempt := 0; attempt < config.TokenAssignRetry; attempt++ {
		candidate := strings.ToUpper(xid.New().String())
		if len(candidate) > config.GameCodeLen {
			candidate = candidate[len(candidate)-config.GameCodeLen:]
		}
		if _, taken := r.byCode[candidate]; !taken {
			return candidate
		}
	}
	return strings.ToUpper(xid.New().String())
}

// Lookup returns a locked handle for code, or false if no such game
// exists.
func (r *Registry) Lookup(code string) (*Game, bool) {
	r.mu.Lock()
	idx, ok := r.byCode[code]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	g := r.slots[idx]
	r.mu.Unlock()
	if g == nil {
		return nil, false
	}
	g.Lock()
	return g, true
}

// LookupByIndex returns a locked handle by stable index, or false.
func (r *Registry) LookupByIndex(i int) (*Game, bool) {
	if i < 0 || i >= len(r.slots) {
		return nil, false
	}
	r.mu.Lock()
	g := r.slots[i]
	r.mu.Unlock()
	if g == nil {
		return nil, false
	}
	g.Lock()
	return g, true
}

// Release unlocks a previously-locked handle.
func (r *Registry) Release(g *Game) {
	if g == nil {
		return
	}
	g.Unlock()
}

// Remove unlinks the slot and clears the code index. The caller must
// already hold g's lock; Remove does not release it.
func (r *Registry) Remove(g *Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots[g.Index] != g {
		return
	}
	delete(r.byCode, g.Code)
	r.slots[g.Index] = nil
}

// Indices returns the stable indices of every occupied slot, a snapshot
// used by the watchdog sweep.
func (r *Registry) Indices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.slots))
	for i, g := range r.slots {
		if g != nil {
			out = append(out, i)
		}
	}
	return out
}
