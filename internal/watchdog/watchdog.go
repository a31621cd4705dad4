// Package watchdog implements the periodic sweep that detects silent
// clients, expired reconnect grace windows, stalled running games, and
// abandoned lobbies. Grounded on the teacher's ticker-driven update loop
// in core/main.go, generalized from a single free-roam tick to three
// independent timeout sweeps.
package watchdog

import (
	"context"
	"time"

	"github.com/ludoserver/ludoserver/internal/config"
	"github.com/ludoserver/ludoserver/internal/dispatch"
	"github.com/ludoserver/ludoserver/internal/game"
	"github.com/ludoserver/ludoserver/internal/session"
	"github.com/ludoserver/ludoserver/internal/wire"
)

// Watchdog periodically sweeps sessions and games for timeout-driven
// transitions, decoupled from the datagram I/O contexts.
type Watchdog struct {
	coordinator *dispatch.Coordinator
	interval    time.Duration
}

// New returns a Watchdog sweeping at config.WatchdogInterval.
func New(coordinator *dispatch.Coordinator) *Watchdog {
	return &Watchdog{coordinator: coordinator, interval: config.WatchdogInterval}
}

// Run blocks, sweeping once per interval, until ctx is canceled — the
// cooperative shutdown mechanism shared with the receiver and sender
// contexts.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Watchdog) sweep() {
	w.sweepSessions()
	w.sweepGames()
	w.updateMetrics()
}

// sweepSessions marks silent active sessions inactive and removes
// sessions that have overstayed the reconnect grace window.
func (w *Watchdog) sweepSessions() {
	c := w.coordinator
	for _, idx := range c.Sessions.Indices() {
		s, ok := c.Sessions.LookupByIndex(idx)
		if !ok {
			continue
		}
		silentFor := time.Since(s.LastActivity())
		active := s.Active()
		gameIdx := s.GameIndex()

		switch {
		case active && silentFor > config.MaxClientNoResponse:
			s.MarkInactive()
			c.Sessions.Release(s)
			w.notifyTimeout(gameIdx, idx)

		case !active && silentFor > config.MaxClientTimeout:
			c.Sessions.Remove(s)
			c.Sessions.Release(s)
			w.leaveGameOnTimeout(gameIdx, idx)

		default:
			c.Sessions.Release(s)
		}
	}
}

// notifyTimeout implements the MarkInactive follow-on: broadcast
// CLIENT_TIMEOUT to the session's game and advance the turn if it was
// this player's move. Runs after the session lock is released,
// preserving the session-before-game ordering rule.
func (w *Watchdog) notifyTimeout(gameIdx, sessionIdx int) {
	if gameIdx == session.NoGame {
		return
	}
	c := w.coordinator
	g, ok := c.Games.LookupByIndex(gameIdx)
	if !ok {
		return
	}
	slot := g.SlotOf(sessionIdx)
	if slot == game.UnsetSlot {
		c.Games.Release(g)
		return
	}
	if g.Running && g.State.Playing == slot {
		g.AdvanceTurn(c.Sessions)
	}
	nextSlot := g.State.Playing
	turnClock := g.TurnClockRemaining()
	slots := g.Slots
	c.Games.Release(g)
	c.BroadcastToGame(slots, sessionIdx, wire.BuildClientTimeout(slot, nextSlot, turnClock))
}

// leaveGameOnTimeout runs leave_game semantics for a session removed
// after overstaying its reconnect grace window.
func (w *Watchdog) leaveGameOnTimeout(gameIdx, sessionIdx int) {
	if gameIdx == session.NoGame {
		return
	}
	c := w.coordinator
	g, ok := c.Games.LookupByIndex(gameIdx)
	if !ok {
		return
	}
	slot := g.SlotOf(sessionIdx)
	if slot == game.UnsetSlot {
		c.Games.Release(g)
		return
	}
	sole := g.Leave(slot, c.Sessions)
	if sole {
		c.Games.Remove(g)
		c.Games.Release(g)
		return
	}
	nextSlot := g.State.Playing
	turnClock := g.TurnClockRemaining()
	slots := g.Slots
	c.Games.Release(g)
	c.BroadcastToGame(slots, sessionIdx, wire.BuildClientLeftGame(slot, nextSlot, turnClock))
}

// sweepGames force-advances stalled running games and tears down lobbies
// that never started in time.
func (w *Watchdog) sweepGames() {
	c := w.coordinator
	for _, idx := range c.Games.Indices() {
		g, ok := c.Games.LookupByIndex(idx)
		if !ok {
			continue
		}

		if g.Running {
			if time.Since(g.LastActivity) > config.GameMaxPlayState {
				g.AdvanceTurn(c.Sessions)
				nextSlot := g.State.Playing
				turnClock := g.TurnClockRemaining()
				slots := g.Slots
				c.Games.Release(g)
				c.BroadcastToGame(slots, game.UnsetSlot, wire.BuildPlayingIndex(nextSlot, turnClock))
				continue
			}
			c.Games.Release(g)
			continue
		}

		if time.Since(g.CreatedAt) > config.GameMaxLobby {
			slots := g.Slots
			c.Games.Remove(g)
			c.Games.Release(g)
			c.BroadcastToGame(slots, game.UnsetSlot, wire.BuildGameNonexistent())
			continue
		}
		c.Games.Release(g)
	}
}

func (w *Watchdog) updateMetrics() {
	c := w.coordinator
	if c.Metrics == nil {
		return
	}
	active, inactive := c.Sessions.Count()
	c.Metrics.SessionsActive.Set(float64(active))
	c.Metrics.SessionsInactive.Set(float64(inactive))

	var running, lobby int
	for _, idx := range c.Games.Indices() {
		g, ok := c.Games.LookupByIndex(idx)
		if !ok {
			continue
		}
		if g.Running {
			running++
		} else {
			lobby++
		}
		c.Games.Release(g)
	}
	c.Metrics.GamesRunning.Set(float64(running))
	c.Metrics.GamesLobby.Set(float64(lobby))
}
