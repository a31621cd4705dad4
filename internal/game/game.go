package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ludoserver/ludoserver/internal/config"
	"github.com/ludoserver/ludoserver/internal/session"
)

// Game is one match: lobby/running state machine plus the nested board
// State (spec.md §3 "Game"). Grounded on the teacher's freeroam gamemode
// registry shape, generalized from a sandbox of free-roaming players to
// a turn-serialized board game.
type Game struct {
	Index int
	Code  string

	mu           sync.Mutex
	Running      bool
	PlayerCount  int
	Slots        [4]int
	CreatedAt    time.Time
	LastActivity time.Time
	State        *State
}

func newGame(index int, code string, creatorSessionIndex int) *Game {
	g := &Game{
		Index:        index,
		Code:         code,
		Slots:        [4]int{UnsetSlot, UnsetSlot, UnsetSlot, UnsetSlot},
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		State:        NewState(),
	}
	g.Slots[0] = creatorSessionIndex
	g.PlayerCount = 1
	return g
}

func (g *Game) Lock()   { g.mu.Lock() }
func (g *Game) Unlock() { g.mu.Unlock() }

// SlotOf returns the slot holding sessionIndex, or UnsetSlot if none.
func (g *Game) SlotOf(sessionIndex int) int {
	for i, idx := range g.Slots {
		if idx == sessionIndex {
			return i
		}
	}
	return UnsetSlot
}

// Join implements spec.md §4.4 JOIN_GAME: succeeds only in lobby state
// with a free slot.
func (g *Game) Join(sessionIndex int) (slot int, ok bool) {
	if g.Running {
		return 0, false
	}
	for i, idx := range g.Slots {
		if idx == UnsetSlot {
			g.Slots[i] = sessionIndex
			g.PlayerCount++
			return i, true
		}
	}
	return 0, false
}

// Leave implements spec.md §4.4 LEAVE_GAME. It reports whether the
// leaver was the game's sole occupant (the caller tears the game down in
// that case); otherwise the leaver's tokens are reset to their pocket
// and, if they held the turn, it is advanced.
func (g *Game) Leave(slot int, sessions *session.Registry) (soleOccupant bool) {
	sole := g.PlayerCount <= 1
	g.Slots[slot] = UnsetSlot
	g.PlayerCount--
	if sole {
		return true
	}
	ResetPlayerTokens(g.State, slot)
	if g.State.Playing == slot {
		g.AdvanceTurn(sessions)
	}
	return false
}

// Start implements the lobby-to-running transition of spec.md §4.4: at
// least one player, and not every occupied slot already finished.
func (g *Game) Start() bool {
	if g.Running || g.PlayerCount < 1 {
		return false
	}
	allFinished := true
	first := UnsetSlot
	for slot, idx := range g.Slots {
		if idx == UnsetSlot {
			continue
		}
		if first == UnsetSlot {
			first = slot
		}
		if FinishPosition(g.State, slot) == -1 {
			allFinished = false
		}
	}
	if allFinished {
		return false
	}

	g.Running = true
	g.State.Playing = first
	if PlayerHasTrackToken(g.State, first) {
		g.State.PlayingRolledTimes = 3
	} else {
		g.State.PlayingRolledTimes = 0
	}
	g.State.PlayingRolled = -1
	g.State.TurnClock = time.Now()
	g.LastActivity = time.Now()
	return true
}

// AdvanceTurn implements spec.md §4.4 "set_game_playing": scan the three
// slots following the current one, skipping empty, finished, and
// inactive sessions. If none qualify the current player keeps the turn
// (a state that should not arise while more than one player remains).
func (g *Game) AdvanceTurn(sessions *session.Registry) {
	cur := g.State.Playing
	for step := 1; step <= 3; step++ {
		cand := (cur + step) % 4
		if !g.eligible(cand, sessions) {
			continue
		}
		g.State.Playing = cand
		if PlayerHasTrackToken(g.State, cand) {
			g.State.PlayingRolledTimes = 3
		} else {
			g.State.PlayingRolledTimes = 0
		}
		g.State.PlayingRolled = -1
		return
	}
}

func (g *Game) eligible(slot int, sessions *session.Registry) bool {
	idx := g.Slots[slot]
	if idx == UnsetSlot {
		return false
	}
	if FinishPosition(g.State, slot) != -1 {
		return false
	}
	s, ok := sessions.LookupByIndex(idx)
	if !ok {
		return false
	}
	active := s.Active()
	sessions.Release(s)
	return active
}

// Roll implements spec.md §4.4 "Roll". forced/hasForced carries the
// admin force_roll override. It reports the rolled value and whether the
// turn was advanced as a consequence (no legal move and the
// retain-turn exception does not apply).
func (g *Game) Roll(sessions *session.Registry, forced int, hasForced bool) (value int, advanced bool) {
	p := g.State.Playing
	if hasForced && forced >= 1 && forced <= 6 {
		value = forced
	} else {
		value = rand.Intn(6) + 1
	}
	g.State.PlayingRolled = value
	g.State.PlayingRolledTimes++

	if !HasAnyLegalMove(g.State, p, value) {
		retain := !PlayerHasTrackToken(g.State, p) && value != 6 && g.State.PlayingRolledTimes < 3
		if !retain {
			g.AdvanceTurn(sessions)
			advanced = true
		}
	}
	g.State.TurnClock = time.Now()
	return value, advanced
}

// MoveResult carries the observable consequences of Move for the caller
// to translate into FIGURE_MOVED / GAME_FINISHED / PLAYING_INDEX frames.
type MoveResult struct {
	Dest         int
	Captured     int
	GameFinished bool
	Positions    [4]int
	TurnAdvanced bool
	NextSlot     int
}

// Move implements spec.md §4.4 "Move (FIGURE_MOVE)". The caller has
// already validated that it is this session's turn, a roll is pending,
// and fig belongs to the current player; dest has already been computed
// via CandidateDestination.
func (g *Game) Move(sessions *session.Registry, fig, dest int) MoveResult {
	captured := ApplyMove(g.State, fig, dest)
	res := MoveResult{Dest: dest, Captured: captured}

	p := Owner(fig)
	if PlayerAllHome(g.State, p) {
		RecordFinish(g.State, p)
		unfinished := 0
		for slot, idx := range g.Slots {
			if idx == UnsetSlot {
				continue
			}
			if FinishPosition(g.State, slot) == -1 {
				unfinished++
			}
		}
		if unfinished <= 1 {
			if unfinished == 1 {
				for slot, idx := range g.Slots {
					if idx != UnsetSlot && FinishPosition(g.State, slot) == -1 {
						RecordFinish(g.State, slot)
					}
				}
			}
			res.GameFinished = true
			for slot := range res.Positions {
				res.Positions[slot] = FinishPosition(g.State, slot)
			}
			g.State.Playing = UnsetSlot
			g.LastActivity = time.Now()
			return res
		}
	}

	if g.State.PlayingRolled != 6 || PlayerHasTrackToken(g.State, p) || g.State.PlayingRolledTimes >= 3 {
		g.AdvanceTurn(sessions)
		res.TurnAdvanced = true
	}
	g.State.PlayingRolled = -1
	g.State.TurnClock = time.Now()
	g.LastActivity = time.Now()
	res.NextSlot = g.State.Playing
	return res
}

// SlotFlags reports each slot's GAME_STATE activity flag: 0 empty, 1
// active, 2 inactive.
func (g *Game) SlotFlags(sessions *session.Registry) [4]int {
	var flags [4]int
	for i, idx := range g.Slots {
		if idx == UnsetSlot {
			continue
		}
		s, ok := sessions.LookupByIndex(idx)
		if !ok {
			continue
		}
		if s.Active() {
			flags[i] = 1
		} else {
			flags[i] = 2
		}
		sessions.Release(s)
	}
	return flags
}

// TurnClockRemaining returns whole seconds left in the current turn
// clock window, floored at zero.
func (g *Game) TurnClockRemaining() int64 {
	remaining := config.GameMaxPlay - time.Since(g.State.TurnClock)
	if remaining < 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// LobbyRemaining returns whole seconds left before the lobby timeout.
func (g *Game) LobbyRemaining() int64 {
	remaining := config.GameMaxLobby - time.Since(g.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// PlayStateRemaining returns whole seconds left before the watchdog
// force-advances a stalled running game (spec.md §4.6).
func (g *Game) PlayStateRemaining() int64 {
	remaining := config.GameMaxPlayState - time.Since(g.LastActivity)
	if remaining < 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// Snapshot is the protocol-agnostic content of a GAME_STATE frame
// (spec.md §4.4); internal/wire turns it into wire bytes.
type Snapshot struct {
	Code          string
	Running       bool
	SlotFlags     [4]int
	Positions     [16]int
	Playing       int
	SecsRemaining int64
	Roll          int
}

func (g *Game) Snapshot(sessions *session.Registry) Snapshot {
	snap := Snapshot{
		Code:      g.Code,
		Running:   g.Running,
		SlotFlags: g.SlotFlags(sessions),
		Playing:   g.State.Playing,
		Roll:      g.State.PlayingRolled,
	}
	copy(snap.Positions[:], g.State.Figures[:])
	if g.Running {
		snap.SecsRemaining = g.TurnClockRemaining()
	} else {
		snap.SecsRemaining = g.LobbyRemaining()
	}
	return snap
}
