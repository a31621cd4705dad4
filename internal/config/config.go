// Package config holds the server's fixed protocol constants and the small
// set of values an operator can tune at runtime from the interactive
// console.
package config

import (
	"sync"
	"time"
)

// Protocol and timing constants.
const (
	AppToken = "LUDO"

	MaxConcurrentClients = 100
	MaxGames             = MaxConcurrentClients
	MaxDatagramSize      = 512

	MaxPacketAge = 500 * time.Millisecond

	MaxClientNoResponse = 30 * time.Second
	MaxClientTimeout    = 120 * time.Second

	GameCodeLen = 5

	GameMaxLobby      = 36000 * time.Second
	GameMaxPlay       = 45 * time.Second
	GameMaxPlayState  = 180 * time.Second
	ReconnectCodeLen  = 4
	TokenAssignRetry  = 100
	WatchdogInterval  = 1 * time.Second
	SenderSweepPeriod = 50 * time.Millisecond
	ReceiveTimeout    = 1 * time.Second
)

// Runtime holds the admin-adjustable die-roll override set by the
// console's force_roll command. Safe for concurrent use.
type Runtime struct {
	mu        sync.RWMutex
	forceRoll int // 0 means disabled; 1..6 pins the die
}

// NewRuntime returns a Runtime with the die-roll override disabled.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// SetForceRoll pins DIE_ROLL outcomes to n when n is in [1,6]; any other
// value (the console's documented "anything else disables" behavior)
// disables the override.
func (r *Runtime) SetForceRoll(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n >= 1 && n <= 6 {
		r.forceRoll = n
	} else {
		r.forceRoll = 0
	}
}

// ForceRoll returns the pinned value and whether the override is active.
func (r *Runtime) ForceRoll() (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.forceRoll == 0 {
		return 0, false
	}
	return r.forceRoll, true
}
