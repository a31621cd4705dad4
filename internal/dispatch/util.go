package dispatch

import (
	"strconv"

	"github.com/ludoserver/ludoserver/internal/game"
)

func parseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// broadcastToGame enqueues payload on every occupied slot's session
// except originIdx, locking and releasing each in turn. Callers invoke
// this while still holding the owning game's lock, acquiring sessions
// one at a time and releasing each before the next — the ordering the
// concurrency model requires to stay deadlock-free. Pass game.UnsetSlot
// for originIdx to address every occupied slot.
func (c *Coordinator) broadcastToGame(slots [4]int, originIdx int, payload string) {
	for _, idx := range slots {
		if idx == game.UnsetSlot || idx == originIdx {
			continue
		}
		s, ok := c.Sessions.LookupByIndex(idx)
		if !ok {
			continue
		}
		s.Queue().Enqueue(payload)
		c.Sessions.Release(s)
	}
}

// BroadcastToGame is the exported entry point internal/watchdog uses to
// reach the same broadcast helper from outside this package.
func (c *Coordinator) BroadcastToGame(slots [4]int, originIdx int, payload string) {
	c.broadcastToGame(slots, originIdx, payload)
}
