// Package beeper implements a square-wave oscillator with a DC-offset
// filter, producing one audio sample per elapsed clock tick at whatever
// ratio the configured CPU and sound rates imply.
package beeper

const (
	scale         = 16
	dcWindow      = 512
)

// Beeper is a single square-wave channel. Construct with New.
type Beeper struct {
	period  int64 // tick_hz*scale/sound_hz, fixed-point reload value
	counter int64
	state   bool // current oscillator level (false=0, true=1)
	volume  float32

	dcBuf  [dcWindow]float32
	dcPos  int
	dcSum  float32
	dcFull bool
}

// New configures a beeper for the given CPU tick rate and sound sample
// rate (e.g. 1_750_000 and 44_100).
func New(tickHz, soundHz int, volume float32) *Beeper {
	b := &Beeper{volume: volume}
	b.period = int64(tickHz) * scale / int64(soundHz)
	b.counter = b.period
	return b
}

// Toggle flips the oscillator's current level; called by the CTC on a
// zero-count event wired to this channel.
func (b *Beeper) Toggle() {
	b.state = !b.state
}

// Reset reinitializes oscillator and DC-correction state without
// reallocating, for System.Reset().
func (b *Beeper) Reset() {
	b.counter = b.period
	b.state = false
	b.dcBuf = [dcWindow]float32{}
	b.dcPos = 0
	b.dcSum = 0
	b.dcFull = false
}

// rawLevel is the pre-DC-correction oscillator output, 0 or 1 scaled by
// volume.
func (b *Beeper) rawLevel() float32 {
	if b.state {
		return b.volume
	}
	return 0
}

// dcCorrect subtracts the sliding mean of the last dcWindow samples from
// v, removing the square wave's DC offset.
func (b *Beeper) dcCorrect(v float32) float32 {
	old := b.dcBuf[b.dcPos]
	b.dcBuf[b.dcPos] = v
	b.dcSum += v - old
	b.dcPos = (b.dcPos + 1) % dcWindow
	if b.dcPos == 0 {
		b.dcFull = true
	}
	n := dcWindow
	if !b.dcFull {
		n = b.dcPos
		if n == 0 {
			n = 1
		}
	}
	mean := b.dcSum / float32(n)
	return v - mean
}

// Tick advances the oscillator by one clock tick and reports whether a new
// audio sample became ready. When it reports true, the second return value
// is that sample.
func (b *Beeper) Tick() (bool, float32) {
	b.counter -= scale
	if b.counter > 0 {
		return false, 0
	}
	b.counter += b.period
	return true, b.dcCorrect(b.rawLevel())
}
