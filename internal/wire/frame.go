// Package wire implements the codec for the server's text wire protocol:
// semicolon-delimited frames of the form "<TOKEN>;<seq>;<command>;...".
// Generalized from the teacher's source/protocol/raknet.go BitStream
// reader/writer pair, which performed the same "validate, then slice
// fields off a cursor" job over binary RakNet frames.
package wire

import (
	"strconv"
	"strings"
)

// Frame is a parsed inbound client->server record.
type Frame struct {
	SeqID   uint64
	Command string
	Args    []string
}

// Parse validates the token and sequence ID and splits the remaining
// fields. It is side-effect-free, same contract as spec.md §4.1: a
// corrupted or token-mismatched frame yields ok=false and the caller
// drops it silently.
func Parse(raw []byte, token string) (Frame, bool) {
	fields := strings.Split(string(raw), ";")
	if len(fields) < 3 {
		return Frame{}, false
	}
	if fields[0] != token {
		return Frame{}, false
	}
	seq, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil || seq == 0 {
		return Frame{}, false
	}
	return Frame{
		SeqID:   seq,
		Command: fields[2],
		Args:    fields[3:],
	}, true
}

// Materialize prepends the token and sequence ID to a server->client
// payload, producing the bytes actually placed on the wire. This is the
// lazy-materialization step spec.md §4.2/§9 describes for the send queue.
func Materialize(token string, seq uint64, payload string) []byte {
	var b strings.Builder
	b.Grow(len(token) + len(payload) + 8)
	b.WriteString(token)
	b.WriteByte(';')
	b.WriteString(strconv.FormatUint(seq, 10))
	b.WriteByte(';')
	b.WriteString(payload)
	return []byte(b.String())
}

// Join assembles a payload string (no token/seq prefix) from a command
// name and its fields, the shape every Build* helper in frames.go uses.
func Join(parts ...string) string {
	return strings.Join(parts, ";")
}
