// Package session owns client lifecycle: admission, address-keyed lookup,
// reconnect tokens, and inactivity/removal bookkeeping (spec.md §4.3).
// Grounded on the teacher's Server.Players registry
// (source/server/server.go) and core/systems/vehicle_system.go's
// id-indexed registry pattern, generalized into the explicit bounded
// Registry value spec.md's Design Notes ask for ("Global tables").
package session

import (
	"net"
	"sync"
	"time"

	"github.com/ludoserver/ludoserver/internal/reliability"
)

// NoGame is the sentinel GameIndex value for a session not in a game.
const NoGame = -1

// Session represents one player endpoint (spec.md §3 "Session").
// Every field below is protected by mu; callers obtain a Session only
// through Registry.Admit/Lookup/LookupByIndex, which return it locked.
type Session struct {
	Index int

	mu             sync.Mutex
	addr           *net.UDPAddr
	active         bool
	lastActivity   time.Time
	recvSeq        uint64
	queue          *reliability.SendQueue
	gameIndex      int
	reconnectToken string
}

func newSession(index int, addr *net.UDPAddr, token string) *Session {
	return &Session{
		Index:          index,
		addr:           addr,
		active:         true,
		lastActivity:   time.Now(),
		recvSeq:        1,
		queue:          reliability.NewSendQueue(),
		gameIndex:      NoGame,
		reconnectToken: token,
	}
}

// The accessors below assume the caller already holds the lock obtained
// via the Registry (not re-locked internally) — this mirrors the
// teacher's "lookup returns a locked handle" contract from spec.md §4.3.
// Call sites pair each Registry lookup with Registry.Release themselves.

func (s *Session) Addr() *net.UDPAddr     { return s.addr }
func (s *Session) AddrString() string     { return s.addr.String() }
func (s *Session) Active() bool           { return s.active }
func (s *Session) LastActivity() time.Time { return s.lastActivity }
func (s *Session) RecvSeq() uint64        { return s.recvSeq }
func (s *Session) GameIndex() int         { return s.gameIndex }
func (s *Session) ReconnectToken() string { return s.reconnectToken }
func (s *Session) Queue() *reliability.SendQueue { return s.queue }

func (s *Session) SetGameIndex(idx int)  { s.gameIndex = idx }
func (s *Session) Touch()                { s.lastActivity = time.Now() }
func (s *Session) AdvanceRecvSeq()       { s.recvSeq++ }
func (s *Session) MarkInactive()         { s.active = false; s.lastActivity = time.Now() }
func (s *Session) MarkActive()           { s.active = true; s.lastActivity = time.Now() }

// Rebind reassigns the transport address and resets both sequence
// counters to 1, and drains the send queue — the reconnect contract of
// spec.md §4.2.
func (s *Session) Rebind(addr *net.UDPAddr) {
	s.addr = addr
	s.recvSeq = 1
	s.queue.Reset()
	s.active = true
	s.lastActivity = time.Now()
}

// Lock/Unlock expose the session mutex to the Registry; application code
// should not call these directly.
func (s *Session) Lock()      { s.mu.Lock() }
func (s *Session) Unlock()    { s.mu.Unlock() }
func (s *Session) TryLock() bool { return s.mu.TryLock() }
