package executor

import (
	"testing"

	"bqclient/internal/sim/pathfind"
)

func TestKeySet_HeldBeatsTaps(t *testing.T) {
	var k KeySet
	k.Tap(pathfind.West)
	k.Press(pathfind.East)
	if d, ok := k.Direction(); !ok || d != pathfind.East {
		t.Fatalf("got %v,%v want E", d, ok)
	}
	// Held keys are not consumed.
	if d, _ := k.Direction(); d != pathfind.East {
		t.Fatalf("got %v want E", d)
	}
	k.Release(pathfind.East)
	if d, ok := k.Direction(); !ok || d != pathfind.West {
		t.Fatalf("got %v,%v want W tap", d, ok)
	}
	if _, ok := k.Direction(); ok {
		t.Fatalf("tap should be consumed")
	}
}

func TestKeySet_TapBacklogBounded(t *testing.T) {
	var k KeySet
	for i := 0; i < 10; i++ {
		k.Tap(pathfind.South)
	}
	n := 0
	for {
		if _, ok := k.Direction(); !ok {
			break
		}
		n++
	}
	if n != maxTaps {
		t.Fatalf("consumed %d taps, want %d", n, maxTaps)
	}
}

func TestKeySet_TapsInOrder(t *testing.T) {
	var k KeySet
	k.Tap(pathfind.North)
	k.Tap(pathfind.West)
	first, _ := k.Direction()
	second, _ := k.Direction()
	if first != pathfind.North || second != pathfind.West {
		t.Fatalf("got %v then %v", first, second)
	}
}
