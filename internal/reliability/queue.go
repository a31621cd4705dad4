// Package reliability implements the stop-and-wait delivery scheme of
// spec.md §4.2: a per-session outbound queue where only the head frame is
// ever in flight, plus the inbound sequence classification that drives
// duplicate-ACK replay. Grounded on the teacher's Session.SendQueue /
// RecoveryQueue / ACKQueue fields and Session.Update / HandleACK /
// HandleNACK methods in source/protocol/raknet.go, adapted from RakNet's
// multi-packet-per-datagram sliding window to the spec's strict
// one-frame-in-flight contract.
package reliability

import (
	"time"

	"github.com/ludoserver/ludoserver/internal/wire"
)

// OutboundFrame is one entry in a session's send queue (spec.md §3
// "Outbound frame"): a raw payload plus build-state.
type OutboundFrame struct {
	SeqID     uint64
	Payload   string
	built     bool
	bytes     []byte
	firstSent time.Time
}

// SendQueue is a strictly increasing, contiguous queue of outbound
// frames for one session. None of its methods lock anything: callers
// must hold the owning session's mutex, matching how the teacher's
// Session.Update/AddToQueue always run under Session.Mu.
type SendQueue struct {
	frames  []*OutboundFrame
	nextSeq uint64
}

// NewSendQueue returns an empty queue with the next sequence ID reset to
// 1, the state every admission/reconnect handshake puts a session in.
func NewSendQueue() *SendQueue {
	return &SendQueue{nextSeq: 1}
}

// Enqueue appends a payload, assigning it the next outbound sequence ID.
func (q *SendQueue) Enqueue(payload string) *OutboundFrame {
	f := &OutboundFrame{SeqID: q.nextSeq, Payload: payload}
	q.nextSeq++
	q.frames = append(q.frames, f)
	return f
}

// Head returns the frame currently eligible for transmission, or nil if
// the queue is empty.
func (q *SendQueue) Head() *OutboundFrame {
	if len(q.frames) == 0 {
		return nil
	}
	return q.frames[0]
}

// PopIfAcked removes the head if its sequence ID equals ackSeq. ACKs for
// any other (non-head) ID are ignored per spec.md §4.2.
func (q *SendQueue) PopIfAcked(ackSeq uint64) bool {
	h := q.Head()
	if h == nil || h.SeqID != ackSeq {
		return false
	}
	q.frames = q.frames[1:]
	return true
}

// Reset drains the queue and resets the outbound counter to 1, the
// reconnect-path behavior of spec.md §4.2 ("the send queue is drained;
// residual frames are discarded with their materialized payloads freed").
func (q *SendQueue) Reset() {
	q.frames = nil
	q.nextSeq = 1
}

// Materialize builds the head frame's wire bytes on first transmission
// and records the send timestamp; a head that was already built is
// returned unchanged (the caller decides whether to retransmit via
// ShouldRetransmit).
func (q *SendQueue) Materialize(token string, now time.Time) []byte {
	h := q.Head()
	if h == nil {
		return nil
	}
	if !h.built {
		h.bytes = wire.Materialize(token, h.SeqID, h.Payload)
		h.built = true
		h.firstSent = now
	}
	return h.bytes
}

// ShouldRetransmit reports whether the head has been sent before and its
// last-send timestamp has exceeded maxAge (spec.md's MAX_PACKET_AGE).
func (q *SendQueue) ShouldRetransmit(now time.Time, maxAge time.Duration) bool {
	h := q.Head()
	if h == nil || !h.built {
		return false
	}
	return now.Sub(h.firstSent) > maxAge
}

// Retransmit refreshes the head's send timestamp and returns its
// previously materialized bytes, for the sender sweep's "retransmit
// without advancing the queue" branch.
func (q *SendQueue) Retransmit(now time.Time) []byte {
	h := q.Head()
	if h == nil {
		return nil
	}
	h.firstSent = now
	return h.bytes
}

// Len reports the number of pending frames.
func (q *SendQueue) Len() int {
	return len(q.frames)
}

// Frames exposes the pending frames in order, read-only, for tests.
func (q *SendQueue) Frames() []*OutboundFrame {
	out := make([]*OutboundFrame, len(q.frames))
	copy(out, q.frames)
	return out
}
