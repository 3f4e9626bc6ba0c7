package pio

import (
	"testing"

	"github.com/go-kc85/corechip/internal/pins"
)

func ctrlWrite(p *PIO, portB bool, v byte) {
	var pw uint64
	pw = pins.SetPIOCE(pw, true)
	pw = pins.SetPIOBASEL(pw, portB)
	pw = pins.SetPIOCDSEL(pw, true)
	pw = pins.SetWR(pw, true)
	pw = pins.SetData(pw, v)
	p.IORQ(pw)
}

func dataWrite(p *PIO, portB bool, v byte) {
	var pw uint64
	pw = pins.SetPIOCE(pw, true)
	pw = pins.SetPIOBASEL(pw, portB)
	pw = pins.SetWR(pw, true)
	pw = pins.SetData(pw, v)
	p.IORQ(pw)
}

func dataRead(p *PIO, portB bool) byte {
	var pw uint64
	pw = pins.SetPIOCE(pw, true)
	pw = pins.SetPIOBASEL(pw, portB)
	pw = pins.SetRD(pw, true)
	pw = p.IORQ(pw)
	return pins.GetData(pw)
}

func TestOutputModePublishesImmediately(t *testing.T) {
	p := New()
	var published byte
	p.A.OutCallback = func(v byte) { published = v }
	ctrlWrite(p, false, 0x0F) // set mode: bits7-6=00 output, low4=1111
	dataWrite(p, false, 0x55)
	if published != 0x55 {
		t.Fatalf("published = %#x, want 0x55", published)
	}
}

func TestInputModeReadsCallback(t *testing.T) {
	p := New()
	p.A.InCallback = func() byte { return 0xAB }
	ctrlWrite(p, false, 0x4F) // mode bits 7-6 = 01 -> Input
	if got := dataRead(p, false); got != 0xAB {
		t.Fatalf("dataRead = %#x, want 0xAB", got)
	}
}

func TestResetStickyClearedOnFirstControlWrite(t *testing.T) {
	p := New()
	if !p.A.ResetSticky() {
		t.Fatalf("expected reset-sticky initially true")
	}
	ctrlWrite(p, false, 0x0F)
	if p.A.ResetSticky() {
		t.Fatalf("expected reset-sticky cleared after first control write")
	}
}

func TestVectorWriteEnablesInterrupts(t *testing.T) {
	p := New()
	ctrlWrite(p, false, 0x20) // low bit clear: vector write
	if !p.A.interruptEnabled() {
		t.Fatalf("expected vector write to enable interrupts")
	}
	if p.A.vector != 0x20 {
		t.Fatalf("vector = %#x, want 0x20", p.A.vector)
	}
}

func TestBitControlInterruptOnMatch(t *testing.T) {
	p := New()
	// Set mode = BitControl (bits7-6=11), low4=1111.
	ctrlWrite(p, false, 0xCF)
	// Next control word is io_select_mask.
	ctrlWrite(p, false, 0xFF)
	// Set interrupt control: low4=0111, AND mode (bit6=1), active high (bit5=1), EI implied via vector write next.
	ctrlWrite(p, false, 0x67)
	ctrlWrite(p, false, 0x30) // vector write, enables interrupts

	p.A.WritePort(0xFF) // all bits high -> AND+HIGH match
	var pw uint64
	pw = pins.SetIEIO(pw, true)
	pw = p.A.Daisy.Tick(pw)
	if !pins.INT(pw) {
		t.Fatalf("expected INT asserted after BitControl AND/HIGH match")
	}
}

func TestControlReadCombinesBothPorts(t *testing.T) {
	p := New()
	ctrlWrite(p, false, 0x20) // vector write enables interrupts on A
	got := p.controlRead()
	if got&0x80 == 0 {
		t.Fatalf("expected port A's EI bit reflected in control read: %#x", got)
	}
}
