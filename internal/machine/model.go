// Package machine integrates the chip-level core (CPU, CTC, PIO, Memory,
// DaisyChain, Clock, KeyBuffer, Beeper) into one of the three KC85 model
// variants: memory-map policy, video decode, and keyboard/snapshot glue
// are all parameterized by Model.
package machine

import "github.com/go-kc85/corechip/internal/clock"

// Model selects which of the three machine variants System emulates.
// The three models share every chip implementation; only memory-map
// policy, video decode geometry, and a handful of snapshot constants
// differ between them.
type Model int

const (
	ModelKC852 Model = iota
	ModelKC853
	ModelKC854
)

// ParseModel maps the external model tag ("/2","/3","/4") onto a Model.
func ParseModel(tag string) (Model, bool) {
	switch tag {
	case "/2":
		return ModelKC852, true
	case "/3":
		return ModelKC853, true
	case "/4":
		return ModelKC854, true
	}
	return 0, false
}

func (m Model) String() string {
	switch m {
	case ModelKC852:
		return "/2"
	case ModelKC853:
		return "/3"
	case ModelKC854:
		return "/4"
	}
	return "?"
}

// Frequency returns the model's Z80 clock frequency in Hz.
func (m Model) Frequency() int {
	return clock.Frequency(m.String())
}

// hasBasicROM reports whether PIO-A bit 7 maps a C000 BASIC ROM on this
// model (/3 and /4 only).
func (m Model) hasBasicROM() bool { return m == ModelKC853 || m == ModelKC854 }

// isKC854 reports whether the richer /4 memory map and video layout apply.
func (m Model) isKC854() bool { return m == ModelKC854 }

// startAtPIOB is the synthetic PIO-B value the snapshot "start-at" routine
// writes for this model (KCC files with num_addr==3).
func (m Model) startAtPIOB() byte {
	if m == ModelKC854 {
		return 0xFF
	}
	return 0x9F
}
