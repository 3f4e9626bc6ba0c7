// Package keybuffer implements a fixed-capacity sticky key-press buffer
// that survives long enough for the guest OS to poll it, modelling the
// way the real keyboard hardware latches a key across several video
// frames rather than for the exact duration of the physical press.
package keybuffer

const defaultCapacity = 8

type slot struct {
	code      byte
	pressTime int64
	released  bool
	used      bool
}

// Buffer is a sticky ring buffer of recently pressed keys.
type Buffer struct {
	slots    []slot
	sticky   int64 // sticky duration, in the same time unit as Update's argument
	now      int64
}

// New creates a Buffer with the given capacity (0 selects the default of
// 8) and sticky duration (e.g. microseconds; 33_300 for ~33.3ms).
func New(capacity int, stickyDuration int64) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{
		slots:  make([]slot, capacity),
		sticky: stickyDuration,
	}
}

// elapsedSince computes now-then using wrap-safe (mod 2^63, practically
// never wraps) subtraction so a counter that has been running a long time
// still compares correctly.
func elapsedSince(now, then int64) int64 {
	return now - then
}

// KeyDown inserts code if it is not already buffered, otherwise refreshes
// its press time so it stays the most recent key.
func (b *Buffer) KeyDown(code byte) {
	for i := range b.slots {
		if b.slots[i].used && b.slots[i].code == code {
			b.slots[i].pressTime = b.now
			b.slots[i].released = false
			return
		}
	}
	for i := range b.slots {
		if !b.slots[i].used {
			b.slots[i] = slot{code: code, pressTime: b.now, used: true}
			return
		}
	}
	// Buffer full: evict the oldest slot to make room, matching the
	// "sticky buffer" intent of always tracking the most recent keys.
	oldest := 0
	for i := 1; i < len(b.slots); i++ {
		if b.slots[i].pressTime < b.slots[oldest].pressTime {
			oldest = i
		}
	}
	b.slots[oldest] = slot{code: code, pressTime: b.now, used: true}
}

// KeyUp marks code released; it remains in the buffer until the sticky
// window elapses, per the device's "sticky" behavior.
func (b *Buffer) KeyUp(code byte) {
	for i := range b.slots {
		if b.slots[i].used && b.slots[i].code == code {
			b.slots[i].released = true
		}
	}
}

// Update advances the internal time counter by frameMicros and evicts any
// released key whose sticky window has elapsed.
func (b *Buffer) Update(frameMicros int64) {
	b.now += frameMicros
	for i := range b.slots {
		if b.slots[i].used && b.slots[i].released &&
			elapsedSince(b.now, b.slots[i].pressTime) >= b.sticky {
			b.slots[i] = slot{}
		}
	}
}

// MostRecentKey returns the code with the highest press time, or 0 if the
// buffer is empty.
func (b *Buffer) MostRecentKey() byte {
	var found bool
	var best slot
	for i := range b.slots {
		if !b.slots[i].used {
			continue
		}
		if !found || b.slots[i].pressTime > best.pressTime {
			best = b.slots[i]
			found = true
		}
	}
	if !found {
		return 0
	}
	return best.code
}
