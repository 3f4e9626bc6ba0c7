// Package ctc implements the Z80 CTC (Counter/Timer Circuit): four
// independent channels, each configurable as a timer or an external-edge
// counter, each able to raise a vectored interrupt through a daisy chain
// and each (except channel 3) driving a zero-count output pin.
package ctc

import (
	"github.com/go-kc85/corechip/internal/daisychain"
	"github.com/go-kc85/corechip/internal/pins"
)

const (
	ctrlFollowsBit  = 1 << 6 // CONST_FOLLOWS: next I/O write is the time constant
	ctrlResetBit    = 1 << 1 // software reset, wait for trigger
	ctrlTimerMode   = 1 << 2 // 1 = timer, 0 = counter
	ctrlTriggerEdge = 1 << 3 // 1 = rising, 0 = falling
	ctrlPrescale256 = 1 << 5 // 1 = /256, 0 = /16
	ctrlInterrupt   = 1 << 7 // channel interrupt enable
	ctrlBit0        = 1 << 0 // 1 = control word, 0 = vector write (channel 0 only)
)

// Channel is one of the CTC's four counter/timer channels.
type Channel struct {
	Daisy daisychain.Chain

	index   int
	control byte
	vector  byte

	constant    byte
	downCounter byte

	prescaler     byte
	prescalerMask byte

	waitingForTrigger bool
	extTriggerLast    bool

	expectConstant bool
}

// CTC owns the four channels and their shared vector-base assignment.
type CTC struct {
	Ch [4]Channel
}

func New() *CTC {
	c := &CTC{}
	for i := range c.Ch {
		c.Ch[i].index = i
	}
	return c
}

func (ch *Channel) prescaleMaskFor(control byte) byte {
	if control&ctrlPrescale256 != 0 {
		return 0xFF
	}
	return 0x0F
}

// assignVectors derives channel 1..3's vectors from channel 0's base,
// per the CTC's documented vector-interrupt wiring.
func (c *CTC) assignVectors(base byte) {
	for i := range c.Ch {
		c.Ch[i].vector = (base &^ 0x06) | byte(i<<1)
	}
}

// IORQ decodes an I/O request addressed to this CTC. cs selects the
// channel (0..3). Returns updated pins with read data inserted when RD
// is active.
func (c *CTC) IORQ(p uint64) uint64 {
	if !pins.CTCCE(p) {
		return p
	}
	cs := pins.CTCCS(p)
	ch := &c.Ch[cs]

	if pins.RD(p) {
		return pins.SetData(p, ch.downCounter)
	}
	if !pins.WR(p) {
		return p
	}

	v := pins.GetData(p)

	if ch.expectConstant {
		ch.constant = v
		ch.expectConstant = false
		if ch.control&ctrlTimerMode == 0 || !ch.waitingForTrigger {
			ch.downCounter = ch.constant
		}
		return p
	}

	if v&ctrlBit0 != 0 {
		ch.control = v
		ch.prescalerMask = ch.prescaleMaskFor(v)
		if v&ctrlFollowsBit != 0 {
			ch.expectConstant = true
		}
		if v&ctrlResetBit != 0 {
			ch.waitingForTrigger = true
		}
		return p
	}

	// Vector write: only channel 0 receives it, and it assigns all four
	// channels' vectors.
	if cs == 0 {
		c.assignVectors(v)
	}
	return p
}

// activeEdge performs the CTC's "active edge" behavior: in counter mode
// it decrements the down-counter, firing counterZero on reaching zero and
// reporting whether a ZCTO pulse resulted; in timer mode while waiting for
// a trigger it clears the wait and loads the down-counter from the time
// constant (no output pulse on that transition).
func (ch *Channel) activeEdge() (zcto bool) {
	if ch.control&ctrlTimerMode == 0 {
		ch.downCounter--
		if ch.downCounter == 0 {
			return ch.counterZero()
		}
		return false
	}
	if ch.waitingForTrigger {
		ch.waitingForTrigger = false
		ch.downCounter = ch.constant
	}
	return false
}

// counterZero reloads the channel and raises its interrupt/output signals.
func (ch *Channel) counterZero() (zcto bool) {
	if ch.control&ctrlInterrupt != 0 {
		ch.Daisy.Raise(ch.vector)
	}
	ch.downCounter = ch.constant
	return ch.index <= 2
}

// Tick advances every channel by one clock tick.
// extTrigger supplies the external clock/trigger line level for this
// channel (e.g. channel 2's vertical-retrace pulse); callers that have no
// external line for a channel pass false.
func (c *CTC) Tick(extTrigger [4]bool) (zcto [4]bool) {
	for i := range c.Ch {
		ch := &c.Ch[i]
		if ch.control&ctrlTimerMode == 0 || ch.waitingForTrigger {
			edge := extTrigger[i] && !ch.extTriggerLast
			if ch.control&ctrlTriggerEdge == 0 {
				edge = !extTrigger[i] && ch.extTriggerLast
			}
			ch.extTriggerLast = extTrigger[i]
			if edge {
				zcto[i] = ch.activeEdge()
			}
			continue
		}

		ch.prescaler++
		if ch.prescaler&ch.prescalerMask == 0 {
			ch.downCounter--
			if ch.downCounter == 0 {
				zcto[i] = ch.counterZero()
			}
		}
	}
	return zcto
}

// Int drives the interrupt daisy chain for all four channels, in channel
// order (0 highest priority), returning the updated pins.
func (c *CTC) Int(p uint64) uint64 {
	for i := range c.Ch {
		p = c.Ch[i].Daisy.Tick(p)
	}
	return p
}
