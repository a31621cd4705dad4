package dispatch

import (
	"github.com/ludoserver/ludoserver/internal/game"
	"github.com/ludoserver/ludoserver/internal/session"
	"github.com/ludoserver/ludoserver/internal/wire"
)

// reacquire re-locks the session at idx, or returns nil if it was
// removed while unlocked.
func (c *Coordinator) reacquire(idx int) *session.Session {
	s, ok := c.Sessions.LookupByIndex(idx)
	if !ok {
		return nil
	}
	return s
}

func (c *Coordinator) handleCreateGame(idx int) *session.Session {
	g, ok := c.Games.Create(idx)
	if !ok {
		return c.reacquire(idx)
	}
	code := g.Code
	gameIdx := g.Index
	lobbySecs := g.LobbyRemaining()
	c.Games.Release(g)

	s := c.reacquire(idx)
	if s == nil {
		return nil
	}
	s.SetGameIndex(gameIdx)
	s.Queue().Enqueue(wire.BuildGameCreated(code, lobbySecs))
	return s
}

func (c *Coordinator) handleJoinGame(idx int, frame wire.Frame) *session.Session {
	if len(frame.Args) == 0 {
		return c.reacquire(idx)
	}
	code := frame.Args[0]

	sess := c.reacquire(idx)
	if sess == nil {
		return nil
	}
	if sess.GameIndex() != session.NoGame {
		return sess
	}
	c.Sessions.Release(sess)

	g, ok := c.Games.Lookup(code)
	if !ok {
		s := c.reacquire(idx)
		if s != nil {
			s.Queue().Enqueue(wire.BuildGameNonexistent())
		}
		return s
	}
	if g.Running {
		c.Games.Release(g)
		s := c.reacquire(idx)
		if s != nil {
			s.Queue().Enqueue(wire.BuildGameRunning())
		}
		return s
	}
	slot, joined := g.Join(idx)
	if !joined {
		c.Games.Release(g)
		s := c.reacquire(idx)
		if s != nil {
			s.Queue().Enqueue(wire.BuildGameFull())
		}
		return s
	}
	snap := g.Snapshot(c.Sessions)
	gameIdx := g.Index
	c.broadcastToGame(g.Slots, idx, wire.BuildClientJoinedGame(slot))
	c.Games.Release(g)

	s := c.reacquire(idx)
	if s == nil {
		return nil
	}
	s.SetGameIndex(gameIdx)
	s.Queue().Enqueue(wire.BuildGameState(snap.Code, snap.Running, snap.SlotFlags, snap.Positions, snap.Playing, slot, snap.SecsRemaining, snap.Roll))
	return s
}

func (c *Coordinator) handleLeaveGame(idx int) *session.Session {
	sess := c.reacquire(idx)
	if sess == nil {
		return nil
	}
	gameIdx := sess.GameIndex()
	if gameIdx == session.NoGame {
		return sess
	}
	c.Sessions.Release(sess)

	g, ok := c.Games.LookupByIndex(gameIdx)
	if !ok {
		return c.reacquire(idx)
	}
	slot := g.SlotOf(idx)
	if slot == game.UnsetSlot {
		c.Games.Release(g)
		return c.reacquire(idx)
	}

	sole := g.Leave(slot, c.Sessions)
	if !sole {
		nextSlot := g.State.Playing
		turnClock := g.TurnClockRemaining()
		c.broadcastToGame(g.Slots, idx, wire.BuildClientLeftGame(slot, nextSlot, turnClock))
	} else {
		c.Games.Remove(g)
	}
	c.Games.Release(g)

	s := c.reacquire(idx)
	if s == nil {
		return nil
	}
	s.SetGameIndex(session.NoGame)
	s.Queue().Enqueue(wire.BuildGameLeft())
	return s
}

func (c *Coordinator) handleStartGame(idx int) *session.Session {
	sess := c.reacquire(idx)
	if sess == nil {
		return nil
	}
	gameIdx := sess.GameIndex()
	if gameIdx == session.NoGame {
		return sess
	}
	c.Sessions.Release(sess)

	g, ok := c.Games.LookupByIndex(gameIdx)
	if !ok {
		return c.reacquire(idx)
	}
	if g.Start() {
		firstSlot := g.State.Playing
		turnClock := g.TurnClockRemaining()
		c.broadcastToGame(g.Slots, game.UnsetSlot, wire.BuildGameStarted(firstSlot, turnClock))
	}
	c.Games.Release(g)
	return c.reacquire(idx)
}

func (c *Coordinator) handleDieRoll(idx int) *session.Session {
	sess := c.reacquire(idx)
	if sess == nil {
		return nil
	}
	gameIdx := sess.GameIndex()
	if gameIdx == session.NoGame {
		return sess
	}
	c.Sessions.Release(sess)

	g, ok := c.Games.LookupByIndex(gameIdx)
	if !ok {
		return c.reacquire(idx)
	}
	slot := g.SlotOf(idx)
	if !g.Running || slot == game.UnsetSlot || g.State.Playing != slot || g.State.PlayingRolled != -1 {
		return c.recoverFromBadCommand(g, slot, idx)
	}

	forced, hasForced := c.Runtime.ForceRoll()
	value, advanced := g.Roll(c.Sessions, forced, hasForced)
	c.broadcastToGame(g.Slots, game.UnsetSlot, wire.BuildRolledDie(value))
	if advanced {
		c.broadcastToGame(g.Slots, game.UnsetSlot, wire.BuildPlayingIndex(g.State.Playing, g.TurnClockRemaining()))
	}
	c.Games.Release(g)
	return c.reacquire(idx)
}

func (c *Coordinator) handleFigureMove(idx int, frame wire.Frame) *session.Session {
	if len(frame.Args) == 0 {
		return c.reacquire(idx)
	}
	fig, ok := parseInt(frame.Args[0])
	if !ok || fig < 0 || fig >= 16 {
		return c.reacquire(idx)
	}

	sess := c.reacquire(idx)
	if sess == nil {
		return nil
	}
	gameIdx := sess.GameIndex()
	if gameIdx == session.NoGame {
		return sess
	}
	c.Sessions.Release(sess)

	g, ok2 := c.Games.LookupByIndex(gameIdx)
	if !ok2 {
		return c.reacquire(idx)
	}
	slot := g.SlotOf(idx)
	valid := g.Running && slot != game.UnsetSlot && g.State.Playing == slot &&
		g.State.PlayingRolled != -1 && game.Owner(fig) == slot
	var dest int
	if valid {
		dest, valid = game.CandidateDestination(g.State, fig, g.State.PlayingRolled)
	}
	if !valid {
		return c.recoverFromBadCommand(g, slot, idx)
	}

	res := g.Move(c.Sessions, fig, dest)
	if res.Captured != game.NoFigure {
		c.broadcastToGame(g.Slots, game.UnsetSlot, wire.BuildFigureMoved(res.Captured, game.PocketSeat(res.Captured)))
	}
	c.broadcastToGame(g.Slots, game.UnsetSlot, wire.BuildFigureMoved(fig, res.Dest))

	if res.GameFinished {
		c.broadcastToGame(g.Slots, game.UnsetSlot, wire.BuildGameFinished(res.Positions))
		slotsCopy := g.Slots
		c.Games.Remove(g)
		c.Games.Release(g)
		for _, sidx := range slotsCopy {
			if sidx == game.UnsetSlot {
				continue
			}
			if s := c.reacquire(sidx); s != nil {
				s.SetGameIndex(session.NoGame)
				c.Sessions.Release(s)
			}
		}
		return c.reacquire(idx)
	}

	if res.TurnAdvanced {
		c.broadcastToGame(g.Slots, game.UnsetSlot, wire.BuildPlayingIndex(res.NextSlot, g.TurnClockRemaining()))
	}
	c.Games.Release(g)
	return c.reacquire(idx)
}

// recoverFromBadCommand implements the "Protocol violation" recovery
// policy: re-send GAME_STATE to the offending client. g is already
// locked and is released here.
func (c *Coordinator) recoverFromBadCommand(g *game.Game, slot, idx int) *session.Session {
	snap := g.Snapshot(c.Sessions)
	c.Games.Release(g)
	s := c.reacquire(idx)
	if s != nil {
		s.Queue().Enqueue(wire.BuildGameState(snap.Code, snap.Running, snap.SlotFlags, snap.Positions, snap.Playing, slot, snap.SecsRemaining, snap.Roll))
	}
	return s
}

func (c *Coordinator) handleMessage(idx int, frame wire.Frame) *session.Session {
	if len(frame.Args) == 0 {
		return c.reacquire(idx)
	}
	text := wire.Join(frame.Args...)

	sess := c.reacquire(idx)
	if sess == nil {
		return nil
	}
	gameIdx := sess.GameIndex()
	if gameIdx == session.NoGame {
		return sess
	}
	c.Sessions.Release(sess)

	g, ok := c.Games.LookupByIndex(gameIdx)
	if !ok {
		return c.reacquire(idx)
	}
	mySlot := g.SlotOf(idx)
	c.broadcastToGame(g.Slots, idx, wire.BuildMessageBroadcast(mySlot, text))
	c.Games.Release(g)
	return c.reacquire(idx)
}

func (c *Coordinator) handleClose(idx int) *session.Session {
	sess := c.reacquire(idx)
	if sess == nil {
		return nil
	}
	gameIdx := sess.GameIndex()
	c.Sessions.Release(sess)

	if gameIdx != session.NoGame {
		if g, ok := c.Games.LookupByIndex(gameIdx); ok {
			slot := g.SlotOf(idx)
			if slot != game.UnsetSlot {
				sole := g.Leave(slot, c.Sessions)
				if !sole {
					nextSlot := g.State.Playing
					turnClock := g.TurnClockRemaining()
					c.broadcastToGame(g.Slots, idx, wire.BuildClientLeftGame(slot, nextSlot, turnClock))
				} else {
					c.Games.Remove(g)
				}
			}
			c.Games.Release(g)
		}
	}

	sess = c.reacquire(idx)
	if sess == nil {
		return nil
	}
	c.Sessions.Remove(sess)
	return nil
}
