package executor

import "bqclient/internal/sim/pathfind"

// KeySource reports the manual direction for the current decision. It is
// only consulted while the input gate is open.
type KeySource interface {
	Direction() (pathfind.Dir, bool)
}

const maxTaps = 2

// Key priority when several are held: N, E, S, W.
var keyPriority = [4]pathfind.Dir{pathfind.North, pathfind.East, pathfind.South, pathfind.West}

// KeySet tracks held direction keys and one-shot taps. Front ends that see
// key releases use Press/Release; terminals, which only deliver presses,
// use Tap.
type KeySet struct {
	held [4]bool
	taps []pathfind.Dir
}

func (k *KeySet) Press(d pathfind.Dir)   { k.held[d&3] = true }
func (k *KeySet) Release(d pathfind.Dir) { k.held[d&3] = false }

// Tap queues a single move. Taps beyond maxTaps are dropped.
func (k *KeySet) Tap(d pathfind.Dir) {
	if len(k.taps) >= maxTaps {
		return
	}
	k.taps = append(k.taps, d&3)
}

func (k *KeySet) Reset() {
	k.held = [4]bool{}
	k.taps = k.taps[:0]
}

// Direction returns the highest priority held key, else consumes the oldest
// tap.
func (k *KeySet) Direction() (pathfind.Dir, bool) {
	for _, d := range keyPriority {
		if k.held[d] {
			return d, true
		}
	}
	if len(k.taps) == 0 {
		return 0, false
	}
	d := k.taps[0]
	k.taps = append(k.taps[:0], k.taps[1:]...)
	return d, true
}
