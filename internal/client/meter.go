package client

import "time"

type Stats struct {
	Ping        time.Duration
	TPS         int
	BytesPerSec int
}

// Meter derives the status line numbers: the interval between ticks and,
// over one-second windows, inbound frames and bytes.
type Meter struct {
	lastTick    time.Time
	windowStart time.Time
	msgs        int
	bytes       int
	cur         Stats
}

func (m *Meter) Tick(now time.Time) {
	if !m.lastTick.IsZero() {
		m.cur.Ping = now.Sub(m.lastTick)
	}
	m.lastTick = now
	m.roll(now)
}

func (m *Meter) Inbound(now time.Time, n int) {
	m.roll(now)
	m.msgs++
	m.bytes += n
}

func (m *Meter) roll(now time.Time) {
	if m.windowStart.IsZero() {
		m.windowStart = now
		return
	}
	if now.Sub(m.windowStart) >= time.Second {
		m.cur.TPS = m.msgs
		m.cur.BytesPerSec = m.bytes
		m.msgs = 0
		m.bytes = 0
		m.windowStart = now
	}
}

func (m *Meter) Stats() Stats { return m.cur }
