package reliability

// InboundDecision classifies an inbound data frame's sequence ID against
// a session's expected next value (spec.md §4.2 "Inbound" paragraph).
type InboundDecision int

const (
	// RunAndAck: sequence matches; run the handler and ACK it.
	RunAndAck InboundDecision = iota
	// DuplicateAck: sequence is stale; re-emit the ACK, skip the handler.
	DuplicateAck
	// DropFrame: sequence is ahead of expected; drop and wait for the
	// client's own retransmit to eventually fill the gap.
	DropFrame
)

// ClassifyInbound implements the three-way branch of spec.md §4.2.
// Admission frames (CONNECT/RECONNECT) bypass this entirely per the
// handshake rule and are handled by the session manager directly.
func ClassifyInbound(seq, expected uint64) InboundDecision {
	switch {
	case seq == expected:
		return RunAndAck
	case seq < expected:
		return DuplicateAck
	default:
		return DropFrame
	}
}
