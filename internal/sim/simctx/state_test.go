package simctx

import (
	"testing"

	"bqclient/internal/sim/world"
)

func TestSelect_Toggles(t *testing.T) {
	s := New(16)
	s.Select(145)
	if !s.HasSelected || s.Selected != 145 {
		t.Fatalf("expected 145 selected")
	}
	s.Select(146)
	if !s.HasSelected || s.Selected != 146 {
		t.Fatalf("expected 146 selected")
	}
	s.Select(146)
	if s.HasSelected {
		t.Fatalf("expected selection cleared")
	}
}

func TestSetInventory_DropsStaleSelection(t *testing.T) {
	s := New(16)
	s.SetInventory(map[uint8]int{145: 1, 129: 4})
	s.Select(145)
	s.SetInventory(map[uint8]int{129: 4})
	if s.HasSelected {
		t.Fatalf("selection should clear when item is gone")
	}
	items := s.InventoryItems()
	if len(items) != 1 || items[0] != 129 {
		t.Fatalf("items=%v", items)
	}
}

func TestVisibleEntities_IncludesPlayerAndCrack(t *testing.T) {
	s := New(16)
	s.Entities.Add(world.Entity{Kind: world.KindEnemy, Pos: world.Pos{X: 3, Y: 3}})
	s.Player.Correct(world.Pos{X: 1, Y: 2})
	s.Crack = &world.Pos{X: 2, Y: 2}

	got := s.VisibleEntities()
	if len(got) != 3 {
		t.Fatalf("len=%d", len(got))
	}
	if got[1].Kind != world.KindPlayer || got[1].Pos != (world.Pos{X: 1, Y: 2}) {
		t.Fatalf("player=%+v", got[1])
	}
	if got[2].Kind != world.KindCrack {
		t.Fatalf("crack=%+v", got[2])
	}
	if s.Entities.Len() != 1 {
		t.Fatalf("visible list must not alias entity list")
	}
}
