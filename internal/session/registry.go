package session

import (
	"net"
	"sync"

	"github.com/rs/xid"

	"github.com/ludoserver/ludoserver/internal/config"
	"github.com/ludoserver/ludoserver/internal/obs"
)

// AdmitResult reports the outcome of Registry.Admit.
type AdmitResult int

const (
	Admitted AdmitResult = iota
	AlreadyConnected
	TableFull
)

// Registry is the sessions table: a sparse array of bounded capacity,
// plus a reconnect-token index, both guarded by mu for structural changes
// (add/remove). Per-session field mutation is guarded by the session's
// own mutex, not this one — see spec.md §5 "Shared resources".
type Registry struct {
	mu       sync.Mutex
	slots    [config.MaxConcurrentClients]*Session
	byToken  map[string]int
}

// NewRegistry returns an empty, fixed-capacity registry.
func NewRegistry() *Registry {
	return &Registry{byToken: make(map[string]int)}
}

// Admit implements spec.md §4.3 Admit(addr): a no-op for an address that
// already has a session, SERVER_FULL signaling (left to the caller, which
// gets TableFull back) when the table has no room, and otherwise a fresh
// slot with a collision-free reconnect token.
func (r *Registry) Admit(addr *net.UDPAddr) (*Session, AdmitResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addrStr := addr.String()
	for _, s := range r.slots {
		if s == nil {
			continue
		}
		s.Lock()
		match := s.AddrString() == addrStr
		s.Unlock()
		if match {
			return nil, AlreadyConnected
		}
	}

	idx := -1
	for i, s := range r.slots {
		if s == nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, TableFull
	}

	token := r.freshToken()
	sess := newSession(idx, addr, token)
	r.slots[idx] = sess
	r.byToken[token] = idx

	sess.Lock()
	return sess, Admitted
}

// freshToken generates a short reconnect token via xid (SPEC_FULL.md §6),
// retrying on the vanishingly unlikely collision per spec.md's
// TokenAssignRetry bound. Caller must hold r.mu.
//
// xid's 12 raw bytes are timestamp(4) | machine(3) | pid(2) | counter(3),
// encoded left-to-right, so the *leading* characters of String() are
// derived from the timestamp and stay fixed for long stretches (multiple
// tokens minted in the same window would collide, and keep colliding
// across every retry). The trailing characters decode the counter, which
// the library increments on every New() call, so slicing the tail
// instead of the head is what actually varies per call.
func (r *Registry) freshToken() string {
	for attempt := 0; attempt < config.TokenAssignRetry; attempt++ {
		candidate := xid.New().String()
		if len(candidate) > config.ReconnectCodeLen {
			candidate = candidate[len(candidate)-config.ReconnectCodeLen:]
		}
		if _, taken := r.byToken[candidate]; !taken {
			return candidate
		}
	}
	obs.Warn("reconnect token generation exhausted %d retries, falling back to full xid", config.TokenAssignRetry)
	return xid.New().String()
}

// Lookup implements spec.md §4.3 Lookup(addr): a linear scan of occupied
// slots, returning a locked handle.
func (r *Registry) Lookup(addr *net.UDPAddr) (*Session, bool) {
	addrStr := addr.String()
	r.mu.Lock()
	slots := r.slots
	r.mu.Unlock()

	for _, s := range slots {
		if s == nil {
			continue
		}
		s.Lock()
		if s.AddrString() == addrStr {
			return s, true
		}
		s.Unlock()
	}
	return nil, false
}

// LookupByIndex implements spec.md §4.3 LookupByIndex(i): bounds-checked,
// returns a locked handle or false.
func (r *Registry) LookupByIndex(i int) (*Session, bool) {
	if i < 0 || i >= len(r.slots) {
		return nil, false
	}
	r.mu.Lock()
	s := r.slots[i]
	r.mu.Unlock()
	if s == nil {
		return nil, false
	}
	s.Lock()
	return s, true
}

// LookupByToken implements spec.md §4.3 LookupByToken(tok): returns the
// session's index, or -1, without locking (the caller follows up with
// LookupByIndex to obtain a locked handle).
func (r *Registry) LookupByToken(tok string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byToken[tok]
	if !ok {
		return -1
	}
	return idx
}

// Release unlocks a previously-locked handle. Releasing an already
// unlocked session is a benign warning per spec.md §4.3, not a panic —
// TryLock tells us whether s was actually held.
func (r *Registry) Release(s *Session) {
	if s == nil {
		return
	}
	if s.TryLock() {
		s.Unlock()
		obs.Warn("session %d released while already unlocked", s.Index)
		return
	}
	s.Unlock()
}

// Remove unlinks the slot and clears the token index. The caller must
// already hold s's lock (per spec.md §4.3); Remove does not release it —
// the slot is gone, so there is nothing left for the caller to unlock.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots[s.Index] != s {
		return
	}
	delete(r.byToken, s.ReconnectToken())
	r.slots[s.Index] = nil
}

// Count returns counts of active and inactive sessions for the metrics
// gauges the watchdog updates each sweep.
func (r *Registry) Count() (active, inactive int) {
	r.mu.Lock()
	slots := r.slots
	r.mu.Unlock()
	for _, s := range slots {
		if s == nil {
			continue
		}
		s.Lock()
		if s.Active() {
			active++
		} else {
			inactive++
		}
		s.Unlock()
	}
	return active, inactive
}

// Indices returns the stable indices of every occupied slot, a snapshot
// used by the watchdog sweep which must not hold r.mu while locking
// individual sessions.
func (r *Registry) Indices() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.slots))
	for i, s := range r.slots {
		if s != nil {
			out = append(out, i)
		}
	}
	return out
}
