package watchdog

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ludoserver/ludoserver/internal/config"
	"github.com/ludoserver/ludoserver/internal/dispatch"
	"github.com/ludoserver/ludoserver/internal/game"
	"github.com/ludoserver/ludoserver/internal/obs"
	"github.com/ludoserver/ludoserver/internal/session"
)

func addr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func TestSweepSessionsLeavesFreshSessionActive(t *testing.T) {
	sessions := session.NewRegistry()
	games := game.NewRegistry()
	c := dispatch.New(sessions, games, obs.NewMetrics(), config.NewRuntime(), nil)
	w := New(c)

	s, _ := sessions.Admit(addr(9000))
	sessions.Release(s)

	w.sweepSessions()
	handle, ok := sessions.LookupByIndex(s.Index)
	require.True(t, ok)
	require.True(t, handle.Active(), "a session silent for under MaxClientNoResponse must stay active")
	sessions.Release(handle)
}

func TestSweepGamesTearsDownExpiredLobby(t *testing.T) {
	sessions := session.NewRegistry()
	games := game.NewRegistry()
	c := dispatch.New(sessions, games, obs.NewMetrics(), config.NewRuntime(), nil)
	w := New(c)

	s, _ := sessions.Admit(addr(9100))
	sessions.Release(s)

	g, ok := games.Create(s.Index)
	require.True(t, ok)
	g.CreatedAt = time.Now().Add(-config.GameMaxLobby - time.Second)
	code := g.Code
	games.Release(g)

	w.sweepGames()
	_, stillExists := games.Lookup(code)
	require.False(t, stillExists)
}

func TestSweepGamesForceAdvancesStalledRunningGame(t *testing.T) {
	sessions := session.NewRegistry()
	games := game.NewRegistry()
	c := dispatch.New(sessions, games, obs.NewMetrics(), config.NewRuntime(), nil)
	w := New(c)

	sa, _ := sessions.Admit(addr(9200))
	sessions.Release(sa)
	sb, _ := sessions.Admit(addr(9201))
	sessions.Release(sb)

	g, _ := games.Create(sa.Index)
	g.Join(sb.Index)
	g.Start()
	g.State.Playing = 0
	g.LastActivity = time.Now().Add(-config.GameMaxPlayState - time.Second)
	idx := g.Index
	games.Release(g)

	w.sweepGames()

	handle, ok := games.LookupByIndex(idx)
	require.True(t, ok)
	require.Equal(t, 1, handle.State.Playing)
	games.Release(handle)
}

func TestUpdateMetricsReflectsCounts(t *testing.T) {
	sessions := session.NewRegistry()
	games := game.NewRegistry()
	metrics := obs.NewMetrics()
	c := dispatch.New(sessions, games, metrics, config.NewRuntime(), nil)
	w := New(c)

	s, _ := sessions.Admit(addr(9300))
	sessions.Release(s)
	g, _ := games.Create(s.Index)
	games.Release(g)

	w.updateMetrics()
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.SessionsActive))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.GamesLobby))
}
