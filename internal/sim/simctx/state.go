// Package simctx holds the client's simulation context: every piece of
// mutable state the session loop owns, passed explicitly to the executor,
// the inbound applier and the renderer.
package simctx

import (
	"sort"

	"bqclient/internal/sim/pathfind"
	"bqclient/internal/sim/world"
)

type Mode int

const (
	ModeManual Mode = iota
	ModeHunt
)

func (m Mode) String() string {
	if m == ModeHunt {
		return "hunt"
	}
	return "manual"
}

type State struct {
	Store    *world.ChunkStore
	Entities world.Entities
	Player   world.Player

	// Crack is the predicted committed break; nil when none is pending.
	Crack *world.Pos
	Path  pathfind.Path
	Mode  Mode

	BreakMode   bool
	Selected    uint8
	HasSelected bool

	Inventory     map[uint8]int
	OnlinePlayers []string
	RespawnPos    *world.Pos
}

func New(chunkSize int) *State {
	return &State{
		Store:     world.NewChunkStore(chunkSize),
		Inventory: map[uint8]int{},
	}
}

// Select toggles the selected inventory item; selecting the current item
// clears the selection.
func (s *State) Select(item uint8) {
	if s.HasSelected && s.Selected == item {
		s.HasSelected = false
		return
	}
	s.Selected = item
	s.HasSelected = true
}

func (s *State) Deselect() { s.HasSelected = false }

// InventoryItems returns the held item ids in ascending order.
func (s *State) InventoryItems() []uint8 {
	out := make([]uint8, 0, len(s.Inventory))
	for id := range s.Inventory {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetInventory replaces the inventory. A selection that is no longer held
// is cleared.
func (s *State) SetInventory(inv map[uint8]int) {
	s.Inventory = inv
	if s.HasSelected {
		if _, ok := inv[s.Selected]; !ok {
			s.HasSelected = false
		}
	}
}

// VisibleEntities is the draw list: the transient entities, then the local
// player and the predicted crack.
func (s *State) VisibleEntities() []world.Entity {
	out := append([]world.Entity(nil), s.Entities.All()...)
	out = append(out, world.Entity{
		Kind:     world.KindPlayer,
		Pos:      s.Player.Predicted,
		Username: s.Player.Username,
		Avatar:   s.Player.Avatar,
	})
	if s.Crack != nil {
		out = append(out, world.Entity{Kind: world.KindCrack, Pos: *s.Crack})
	}
	return out
}
