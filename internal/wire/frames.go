package wire

import "strconv"

// Build* functions assemble the payload half (no token/seq prefix) of
// each server->client message. Named and shaped after the teacher's
// source/protocol/rpc.go BuildXxxRPC functions, generalized from binary
// little-endian field packing to semicolon-joined text fields.

func i(n int) string    { return strconv.Itoa(n) }
func i64(n int64) string { return strconv.FormatInt(n, 10) }

func BuildAck(ackSeq uint64) string {
	return Join(MsgAck, strconv.FormatUint(ackSeq, 10))
}

func BuildReconnectCode(token string) string {
	return Join(MsgReconnectCode, token)
}

func BuildGameCreated(code string, lobbySecs int64) string {
	return Join(MsgGameCreated, code, i64(lobbySecs))
}

func BuildClientJoinedGame(slot int) string {
	return Join(MsgClientJoined, i(slot))
}

func BuildClientLeftGame(slot, nextSlot int, turnClockSecs int64) string {
	return Join(MsgClientLeft, i(slot), i(nextSlot), i64(turnClockSecs))
}

func BuildClientReconnect(slot int) string {
	return Join(MsgClientReconnect, i(slot))
}

func BuildClientTimeout(slot, nextSlot int, turnClockSecs int64) string {
	return Join(MsgClientTimeout, i(slot), i(nextSlot), i64(turnClockSecs))
}

func BuildGameStarted(firstSlot int, turnClockSecs int64) string {
	return Join(MsgGameStarted, i(firstSlot), i64(turnClockSecs))
}

func BuildRolledDie(value int) string {
	return Join(MsgRolledDie, i(value))
}

func BuildPlayingIndex(slot int, turnClockSecs int64) string {
	return Join(MsgPlayingIndex, i(slot), i64(turnClockSecs))
}

func BuildFigureMoved(figure, dest int) string {
	return Join(MsgFigureMoved, i(figure), i(dest))
}

func BuildGameFinished(pos [4]int) string {
	return Join(MsgGameFinished, i(pos[0]), i(pos[1]), i(pos[2]), i(pos[3]))
}

func BuildGameFull() string        { return MsgGameFull }
func BuildGameRunning() string     { return MsgGameRunning }
func BuildGameNonexistent() string { return MsgGameNonexistent }
func BuildGameLeft() string        { return MsgGameLeft }
func BuildServerFull() string      { return MsgServerFull }
func BuildServerShutdown() string  { return MsgServerShutdown }

func BuildMessageBroadcast(slot int, text string) string {
	return Join(MsgMessageBroadcast, i(slot), text)
}

// BuildGameState assembles the 26-field GAME_STATE snapshot of spec.md
// §4.4: code, state, four slot activity flags, 16 token positions,
// current turn slot, the recipient's own slot, seconds remaining before
// the current timeout, and the current roll.
func BuildGameState(code string, running bool, slotFlags [4]int, positions [16]int, playing, ownSlot int, secsRemaining int64, roll int) string {
	fields := make([]string, 0, 5+4+16)
	fields = append(fields, MsgGameState, code, stateString(running))
	for _, f := range slotFlags {
		fields = append(fields, i(f))
	}
	for _, p := range positions {
		fields = append(fields, i(p))
	}
	fields = append(fields, i(playing), i(ownSlot), i64(secsRemaining), i(roll))
	return Join(fields...)
}

func stateString(running bool) string {
	if running {
		return "1"
	}
	return "0"
}
