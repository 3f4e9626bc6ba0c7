// Package pio implements the Z80 PIO (Parallel Input/Output) chip: two
// independent 8-bit ports, each configurable as Output, Input,
// Bidirectional, or Bit-Control mode, each able to raise a vectored
// interrupt. Bidirectional mode and amplitude-style signalling are out of
// scope per the system specification; everything else is modelled.
package pio

import (
	"github.com/go-kc85/corechip/internal/daisychain"
	"github.com/go-kc85/corechip/internal/pins"
)

type Mode int

const (
	ModeOutput Mode = iota
	ModeInput
	ModeBidirectional
	ModeBitControl
)

const (
	ctrlSetModeLow4     = 0x0F // xxxx1111
	ctrlSetIntCtrlLow4  = 0x07 // xxxx0111
	ctrlToggleIntEnLow4 = 0x03 // xxxx0011
	ctrlLowNibbleMask   = 0x0F

	intCtrlMaskFollows = 1 << 4
	intCtrlEnable      = 1 << 7
)

// Port is one of the PIO's two 8-bit ports.
type Port struct {
	Daisy daisychain.Chain

	inputLatch  byte
	outputLatch byte
	portPins    byte

	mode   Mode
	vector byte

	ioSelectMask byte
	intControl   byte // high nibble: AND/OR + HIGH/LOW select, MASK_FOLLOWS, EI
	intMask      byte

	expectIOSelect bool
	expectIntMask  bool
	bitctrlMatched bool

	resetSticky bool

	// OutCallback is invoked whenever new data is published to the port
	// pins (Output mode data write, or BitControl data write); InCallback
	// is polled on a data read in Input/Bidirectional mode to refresh the
	// input latch.
	OutCallback func(byte)
	InCallback  func() byte
}

// PIO owns the chip's two ports.
type PIO struct {
	A, B Port
}

func New() *PIO {
	p := &PIO{}
	p.A.resetSticky = true
	p.B.resetSticky = true
	return p
}

func (pt *Port) interruptEnabled() bool { return pt.intControl&intCtrlEnable != 0 }

func (pt *Port) publishOutput() {
	pt.portPins = (pt.portPins &^ pt.ioSelectMask) | (pt.outputLatch & pt.ioSelectMask)
	if pt.mode == ModeOutput {
		pt.portPins = pt.outputLatch
	}
	if pt.OutCallback != nil {
		pt.OutCallback(pt.portPins)
	}
}

func (pt *Port) controlWrite(v byte) {
	if pt.expectIOSelect {
		pt.ioSelectMask = v
		pt.expectIOSelect = false
		return
	}
	if pt.expectIntMask {
		pt.intMask = v
		pt.expectIntMask = false
		return
	}

	low := v & ctrlLowNibbleMask
	switch {
	case low == ctrlSetModeLow4:
		pt.mode = Mode(v >> 6)
		pt.resetSticky = false
		if pt.mode == ModeBitControl {
			pt.expectIOSelect = true
		}
		if pt.mode == ModeOutput {
			pt.publishOutput()
		}
	case low == ctrlSetIntCtrlLow4:
		pt.intControl = v & 0xF0
		pt.resetSticky = false
		if v&intCtrlMaskFollows != 0 {
			pt.expectIntMask = true
		}
		pt.Daisy = daisychain.Chain{}
	case low == ctrlToggleIntEnLow4:
		pt.intControl ^= intCtrlEnable
		pt.resetSticky = false
	case v&0x01 == 0:
		// Low bit clear: interrupt vector write, which also enables
		// interrupts on this port.
		pt.Daisy = daisychain.Chain{}
		pt.intControl |= intCtrlEnable
		pt.resetSticky = false
		pt.vectorWrite(v)
	}
}

// vector stores the interrupt vector this port supplies on acknowledge.
func (pt *Port) vectorWrite(v byte) { pt.vector = v }

// ResetSticky reports whether this port has not yet seen a control write
// since the last reset (the PIO's documented reset-sticky flag).
func (pt *Port) ResetSticky() bool { return pt.resetSticky }

func (pt *Port) dataWrite(v byte) {
	pt.outputLatch = v
	if pt.mode == ModeOutput || pt.mode == ModeBitControl {
		pt.publishOutput()
	}
}

func (pt *Port) dataRead() byte {
	if pt.mode == ModeInput || pt.mode == ModeBidirectional {
		if pt.InCallback != nil {
			pt.inputLatch = pt.InCallback()
		}
	}
	switch pt.mode {
	case ModeInput:
		return pt.inputLatch
	case ModeBidirectional:
		return (pt.inputLatch & pt.ioSelectMask) | (pt.outputLatch &^ pt.ioSelectMask)
	default:
		return (pt.inputLatch & ^pt.ioSelectMask) | (pt.outputLatch & pt.ioSelectMask)
	}
}

// WritePort presents external data to the port pins (simulating a device
// driving the bus) and, in BitControl mode, evaluates the interrupt match
// condition against the configured AND/OR, HIGH/LOW selector.
func (pt *Port) WritePort(data byte) {
	pt.inputLatch = data
	pt.portPins = (data & pt.ioSelectMask) | (pt.outputLatch &^ pt.ioSelectMask)
	if pt.mode != ModeBitControl {
		return
	}
	val := pt.portPins &^ pt.intMask

	andMode := pt.intControl&(1<<6) != 0
	activeHigh := pt.intControl&(1<<5) != 0

	var match bool
	if andMode {
		match = val == (pt.ioSelectMask &^ pt.intMask)
		if !activeHigh {
			match = val == 0
		}
	} else {
		if activeHigh {
			match = val != 0
		} else {
			match = val != (pt.ioSelectMask &^ pt.intMask)
		}
	}

	if match && !pt.bitctrlMatched && pt.interruptEnabled() {
		pt.Daisy.Raise(pt.vector)
	}
	pt.bitctrlMatched = match
}

// IORQ decodes an I/O request addressed to this PIO.
func (c *PIO) IORQ(p uint64) uint64 {
	if !pins.PIOCE(p) {
		return p
	}
	port := &c.A
	if pins.PIOBASEL(p) {
		port = &c.B
	}
	control := pins.PIOCDSEL(p)

	if pins.RD(p) {
		if control {
			return pins.SetData(p, c.controlRead())
		}
		return pins.SetData(p, port.dataRead())
	}
	if !pins.WR(p) {
		return p
	}

	v := pins.GetData(p)
	if control {
		port.controlWrite(v)
	} else {
		port.dataWrite(v)
	}
	return p
}

// controlRead returns the two ports' combined high-nibble interrupt
// control state.
func (c *PIO) controlRead() byte {
	return (c.A.intControl & 0xF0) | (c.B.intControl >> 4)
}

// Int drives the interrupt daisy chain for both ports, port A preceding
// port B, returning the updated pins.
func (c *PIO) Int(p uint64) uint64 {
	p = c.A.Daisy.Tick(p)
	p = c.B.Daisy.Tick(p)
	return p
}
