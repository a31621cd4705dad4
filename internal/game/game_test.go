package game

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ludoserver/ludoserver/internal/session"
)

func addr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: port}
}

func admitN(t *testing.T, sessions *session.Registry, n int) []*session.Session {
	t.Helper()
	out := make([]*session.Session, n)
	for i := 0; i < n; i++ {
		s, result := sessions.Admit(addr(4000 + i))
		require.Equal(t, session.Admitted, result)
		out[i] = s
		sessions.Release(s)
	}
	return out
}

func TestCreateAndJoinGame(t *testing.T) {
	games := NewRegistry()
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 2)

	g, ok := games.Create(ss[0].Index)
	require.True(t, ok)
	require.Equal(t, 1, g.PlayerCount)
	games.Release(g)

	g, ok = games.Lookup(g.Code)
	require.True(t, ok)
	slot, ok := g.Join(ss[1].Index)
	require.True(t, ok)
	require.Equal(t, 1, slot)
	require.Equal(t, 2, g.PlayerCount)
	games.Release(g)
}

func TestJoinFailsOnceRunning(t *testing.T) {
	games := NewRegistry()
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 2)

	g, _ := games.Create(ss[0].Index)
	g.Start()
	_, ok := g.Join(ss[1].Index)
	require.False(t, ok)
	games.Release(g)
}

func TestStartRefusesEmptyAndAllFinishedGames(t *testing.T) {
	g := newGame(0, "AAAAA", 0)
	g.PlayerCount = 0
	g.Slots[0] = UnsetSlot
	require.False(t, g.Start())

	g2 := newGame(0, "BBBBB", 0)
	RecordFinish(g2.State, 0)
	require.False(t, g2.Start())
}

func TestRollWithForcedValueAndRetainOnNoTrackToken(t *testing.T) {
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 1)
	g := newGame(0, "CCCCC", ss[0].Index)
	g.Start()

	value, advanced := g.Roll(sessions, 3, true)
	require.Equal(t, 3, value)
	require.False(t, advanced, "single-player game with no legal move and <3 attempts must retain the turn")
	require.Equal(t, 0, g.State.Playing)
}

func TestRollOfSixUnlocksAPocketMove(t *testing.T) {
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 1)
	g := newGame(0, "DDDDD", ss[0].Index)
	g.Start()

	value, advanced := g.Roll(sessions, 6, true)
	require.Equal(t, 6, value)
	require.False(t, advanced)
	require.True(t, HasAnyLegalMove(g.State, 0, 6))
}

func TestMoveCapturesOpponentAndEndsTurnOnNonSix(t *testing.T) {
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 2)
	g := newGame(0, "EEEEE", ss[0].Index)
	g.Join(ss[1].Index)
	g.Start()

	g.State.Figures[0] = 9
	g.State.Fields[PocketSeat(0)] = NoFigure
	g.State.Fields[9] = 0
	g.State.Figures[4] = 10
	g.State.Fields[PocketSeat(4)] = NoFigure
	g.State.Fields[10] = 4
	g.State.Playing = 0
	g.State.PlayingRolled = 1
	g.State.PlayingRolledTimes = 1

	dest, ok := CandidateDestination(g.State, 0, 1)
	require.True(t, ok)
	res := g.Move(sessions, 0, dest)
	require.Equal(t, 10, res.Dest)
	require.Equal(t, 4, res.Captured)
	require.False(t, res.GameFinished)
	require.True(t, res.TurnAdvanced, "a non-six roll always ends the turn")
	require.Equal(t, 1, res.NextSlot)
}

func TestMoveFinishesGameWhenOnlyOnePlayerRemains(t *testing.T) {
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 2)
	g := newGame(0, "FFFFF", ss[0].Index)
	g.Join(ss[1].Index)
	g.Start()

	RecordFinish(g.State, 1)
	for i := 0; i < 3; i++ {
		g.State.Figures[i] = HomeBase(0) + i
		g.State.Fields[HomeBase(0)+i] = i
	}
	g.State.Figures[3] = 35
	g.State.Fields[35] = 3
	g.State.Playing = 0
	g.State.PlayingRolled = 1

	dest := HomeBase(0) + 3
	res := g.Move(sessions, 3, dest)
	require.True(t, res.GameFinished)
	require.Equal(t, 0, res.Positions[1], "player 1 finished first")
	require.Equal(t, 1, res.Positions[0], "player 0 finishes second, with its last token home")
}

func TestLeaveReportsSoleOccupant(t *testing.T) {
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 1)
	g := newGame(0, "GGGGG", ss[0].Index)

	sole := g.Leave(0, sessions)
	require.True(t, sole)
}

func TestLeaveAdvancesTurnWhenLeaverHeldIt(t *testing.T) {
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 2)
	g := newGame(0, "HHHHH", ss[0].Index)
	g.Join(ss[1].Index)
	g.Start()
	g.State.Playing = 0

	sole := g.Leave(0, sessions)
	require.False(t, sole)
	require.Equal(t, 1, g.State.Playing)
}

func TestAdvanceTurnSkipsInactiveSessions(t *testing.T) {
	sessions := session.NewRegistry()
	ss := admitN(t, sessions, 3)
	g := newGame(0, "IIIII", ss[0].Index)
	g.Join(ss[1].Index)
	g.Join(ss[2].Index)
	g.Start()
	g.State.Playing = 0

	handle, ok := sessions.LookupByIndex(ss[1].Index)
	require.True(t, ok)
	handle.MarkInactive()
	sessions.Release(handle)

	g.AdvanceTurn(sessions)
	require.Equal(t, 2, g.State.Playing)
}
