// Package dispatch routes inbound frames to session/game handlers. It
// holds no state of its own beyond references to the session and game
// registries, the shared metrics, and the admin-tunable runtime —
// grounded on the teacher's Server.handleGamePacket switch in
// source/server/server.go, generalized from a fixed RPC-ID switch to a
// text-command switch over Ludo operations.
package dispatch

import (
	"net"

	"github.com/ludoserver/ludoserver/internal/config"
	"github.com/ludoserver/ludoserver/internal/game"
	"github.com/ludoserver/ludoserver/internal/obs"
	"github.com/ludoserver/ludoserver/internal/reliability"
	"github.com/ludoserver/ludoserver/internal/session"
	"github.com/ludoserver/ludoserver/internal/wire"
)

// UnreliableSender transmits a one-off datagram outside the stop-and-wait
// discipline (SERVER_FULL, SERVER_SHUTDOWN). internal/server supplies the
// concrete implementation bound to its socket.
type UnreliableSender func(addr *net.UDPAddr, payload string)

// Coordinator wires together the registries a handler needs. One
// Coordinator is shared by the receiver, the sender sweep (indirectly,
// via the queues it fills), and the watchdog.
type Coordinator struct {
	Sessions  *session.Registry
	Games     *game.Registry
	Metrics   *obs.Metrics
	Runtime   *config.Runtime
	SendRaw   UnreliableSender
}

// New constructs a Coordinator over the given registries.
func New(sessions *session.Registry, games *game.Registry, metrics *obs.Metrics, runtime *config.Runtime, sendRaw UnreliableSender) *Coordinator {
	return &Coordinator{Sessions: sessions, Games: games, Metrics: metrics, Runtime: runtime, SendRaw: sendRaw}
}

// HandleDatagram is the receiver's entry point: decode, admit-or-lookup,
// classify the inbound sequence, and route.
func (c *Coordinator) HandleDatagram(raddr *net.UDPAddr, raw []byte) {
	frame, ok := wire.Parse(raw, config.AppToken)
	if !ok {
		return
	}

	switch frame.Command {
	case wire.CmdConnect:
		c.handleConnect(raddr)
		return
	case wire.CmdReconnect:
		c.handleReconnect(raddr, frame)
		return
	}

	sess, ok := c.Sessions.Lookup(raddr)
	if !ok {
		return
	}

	// ACK frames sit outside the inbound data sequence: they are never
	// classified against RecvSeq and never advance it.
	if frame.Command == wire.CmdAck {
		c.handleAck(sess, frame)
		sess.Touch()
		c.Sessions.Release(sess)
		return
	}

	switch reliability.ClassifyInbound(frame.SeqID, sess.RecvSeq()) {
	case reliability.DuplicateAck:
		sess.Queue().Enqueue(wire.BuildAck(frame.SeqID))
		c.Sessions.Release(sess)
		return
	case reliability.DropFrame:
		c.Sessions.Release(sess)
		return
	}

	sess.Queue().Enqueue(wire.BuildAck(frame.SeqID))
	sess.Touch()
	final := c.route(sess, frame)
	if final != nil {
		final.AdvanceRecvSeq()
		c.Sessions.Release(final)
	}
}

// route dispatches to the per-command handler. Per the lock-ordering
// rule (session lock is never held while acquiring a game lock), it
// releases sess immediately and hands handlers only the stable index;
// each handler re-acquires the session as needed and returns the final
// locked handle (nil if the session was removed while unlocked).
func (c *Coordinator) route(sess *session.Session, frame wire.Frame) *session.Session {
	idx := sess.Index
	c.Sessions.Release(sess)

	switch frame.Command {
	case wire.CmdCreateGame:
		return c.handleCreateGame(idx)
	case wire.CmdJoinGame:
		return c.handleJoinGame(idx, frame)
	case wire.CmdLeaveGame:
		return c.handleLeaveGame(idx)
	case wire.CmdStartGame:
		return c.handleStartGame(idx)
	case wire.CmdDieRoll:
		return c.handleDieRoll(idx)
	case wire.CmdFigureMove:
		return c.handleFigureMove(idx, frame)
	case wire.CmdMessage:
		return c.handleMessage(idx, frame)
	case wire.CmdKeepalive:
		return c.reacquire(idx)
	case wire.CmdClose:
		return c.handleClose(idx)
	default:
		return c.reacquire(idx)
	}
}

func (c *Coordinator) handleConnect(raddr *net.UDPAddr) {
	sess, result := c.Sessions.Admit(raddr)
	switch result {
	case session.AlreadyConnected:
		return
	case session.TableFull:
		if c.SendRaw != nil {
			c.SendRaw(raddr, wire.BuildServerFull())
		}
		return
	}
	defer c.Sessions.Release(sess)
	// The CONNECT frame itself is inbound seq 1; the next data frame is 2.
	sess.AdvanceRecvSeq()
	sess.Queue().Enqueue(wire.BuildAck(1))
	sess.Queue().Enqueue(wire.BuildReconnectCode(sess.ReconnectToken()))
}

func (c *Coordinator) handleAck(sess *session.Session, frame wire.Frame) {
	if len(frame.Args) == 0 {
		return
	}
	ackSeq, ok := parseUint(frame.Args[0])
	if !ok {
		return
	}
	sess.Queue().PopIfAcked(ackSeq)
}
