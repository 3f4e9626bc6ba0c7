// Package daisychain implements the per-device interrupt-request state
// machine used by the CTC and PIO: a serial priority chain where a
// device cannot interrupt while an upstream device is pending or being
// serviced, mirroring the Z80 peripheral daisy-chain wiring.
package daisychain

import "github.com/go-kc85/corechip/internal/pins"

// Chain is one device's slice of the interrupt daisy chain. The system
// integrator ticks each device's Chain in priority order (highest
// priority device first) once per machine cycle.
type Chain struct {
	needed    bool
	requested bool
	servicing bool
	vector    byte
}

// Raise marks this device as wanting to interrupt. It is latched as
// "needed" until the next Tick observes it.
func (c *Chain) Raise(vector byte) {
	c.needed = true
	c.vector = vector
}

// state reports whether this device has any active interrupt state
// (needed, requested, or servicing) — the three-bit OR the reference
// implementation's tick() should gate on (not the separate int_state
// field the source conflates with it by what the spec's Open Questions
// call a documented typo).
func (c *Chain) state() bool {
	return c.needed || c.requested || c.servicing
}

// Tick advances this device's slice of the chain by one machine cycle.
// pins carries IEIO (upstream interrupt-enable) in and out; this device
// ORs its own pending state into the INT pin and clears IEIO downstream
// while active.
func (c *Chain) Tick(p uint64) uint64 {
	if !pins.IEIO(p) {
		return p
	}

	if c.needed {
		c.requested = true
		c.needed = false
		p = pins.SetINT(p, true)
	}

	if pins.M1(p) && pins.IORQ(p) && c.requested {
		p = pins.SetData(p, c.vector)
		p = pins.SetINT(p, false)
		c.requested = false
		c.servicing = true
	}

	if pins.RETI(p) && c.servicing {
		c.servicing = false
	}

	if c.state() {
		p = pins.SetIEIO(p, false)
	}

	return p
}

// Requested reports whether this device currently has an interrupt
// pending acknowledgement.
func (c *Chain) Requested() bool { return c.requested }

// Servicing reports whether the CPU is currently inside this device's ISR.
func (c *Chain) Servicing() bool { return c.servicing }
