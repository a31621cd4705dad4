// Package game implements the board engine: lobby/running state machine,
// board geometry, die-roll rules, movement legality, capture, finishing,
// turn advancement (spec.md §4.4). Grounded on the teacher's
// core/gamemode/freeroam.go registry-of-entities-plus-broadcast shape,
// generalized from freeroam sandbox rules to Ludo board rules.
package game

// Board geometry constants (spec.md §4.4 "Board geometry (exact
// semantics)").
const (
	TrackSize      = 40
	HomeColumnSize = 4
	PocketSize     = 4
	FieldCount     = TrackSize + 4*HomeColumnSize + 4*PocketSize // 72

	NoFigure  = -1
	UnsetSlot = -1
)

// EntryField returns the track field where slot p's tokens enter the
// shared loop: 0, 10, 20, 30 for players 0..3.
func EntryField(p int) int { return p * 10 }

// HomeBase returns the first field of slot p's home column.
func HomeBase(p int) int { return TrackSize + p*HomeColumnSize }

// PocketBase returns the first field of slot p's start pocket.
func PocketBase(p int) int { return TrackSize + 4*HomeColumnSize + p*PocketSize }

// PocketSeat returns the fixed pocket seat for global figure index fig,
// spec.md's "56 + captured_index".
func PocketSeat(fig int) int { return TrackSize + 4*HomeColumnSize + fig }

// Owner returns the player slot (0..3) owning global figure index fig.
func Owner(fig int) int { return fig / 4 }

func onTrack(x int) bool  { return x >= 0 && x < TrackSize }
func inHome(x, p int) bool {
	hb := HomeBase(p)
	return x >= hb && x < hb+HomeColumnSize
}
func inPocket(x, p int) bool {
	pb := PocketBase(p)
	return x >= pb && x < pb+PocketSize
}
