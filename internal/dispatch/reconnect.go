package dispatch

import (
	"net"

	"github.com/ludoserver/ludoserver/internal/session"
	"github.com/ludoserver/ludoserver/internal/wire"
)

// handleReconnect looks a session up by its reconnect token, rebinds its
// transport address, resets both sequence counters, drains the send
// queue, and — if the session was seated in a game — pushes the full
// game state back to it and notifies the other players.
func (c *Coordinator) handleReconnect(raddr *net.UDPAddr, frame wire.Frame) {
	if len(frame.Args) == 0 {
		return
	}
	token := frame.Args[0]
	idx := c.Sessions.LookupByToken(token)
	if idx == -1 {
		return
	}

	sess, ok := c.Sessions.LookupByIndex(idx)
	if !ok {
		return
	}
	sess.Rebind(raddr)
	// The RECONNECT frame itself is inbound seq 1; the next data frame is 2.
	sess.AdvanceRecvSeq()
	sess.Queue().Enqueue(wire.BuildAck(1))
	gameIdx := sess.GameIndex()
	c.Sessions.Release(sess)

	if gameIdx == session.NoGame {
		return
	}

	g, ok := c.Games.LookupByIndex(gameIdx)
	if !ok {
		return
	}
	slot := g.SlotOf(idx)
	snap := g.Snapshot(c.Sessions)
	c.broadcastToGame(g.Slots, idx, wire.BuildClientReconnect(slot))
	c.Games.Release(g)

	s := c.reacquire(idx)
	if s == nil {
		return
	}
	s.Queue().Enqueue(wire.BuildGameState(snap.Code, snap.Running, snap.SlotFlags, snap.Positions, snap.Playing, slot, snap.SecsRemaining, snap.Roll))
	c.Sessions.Release(s)
}
