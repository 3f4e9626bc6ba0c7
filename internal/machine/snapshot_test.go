package machine

import "testing"

func buildKCC(name string, numAddr byte, load, end, exec uint16, payload []byte) []byte {
	h := make([]byte, kccHeaderSize)
	copy(h[0:16], name)
	h[16] = numAddr
	h[17] = byte(load)
	h[18] = byte(load >> 8)
	h[19] = byte(end)
	h[20] = byte(end >> 8)
	h[21] = byte(exec)
	h[22] = byte(exec >> 8)
	return append(h, payload...)
}

func loadableSystem() *System {
	sys := newTestSystem(ModelKC852, nil)
	sys.pio.A.dataWrite(0x03) // RAM mapped and writable
	return sys
}

func TestLoadKCCWritesPayloadAndStarts(t *testing.T) {
	sys := loadableSystem()
	payload := []byte{0x11, 0x22, 0x33}
	data := buildKCC("TEST            ", 3, 0x2000, 0x2003, 0x2000, payload)

	if err := sys.Load(data); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, want := range payload {
		if got := sys.mem.R8(uint16(0x2000 + i)); got != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
	if pc := sys.cpu.GetPC(); pc != 0x2000 {
		t.Fatalf("PC = %#x, want 0x2000 after start-at", pc)
	}
}

func TestLoadKCCWithoutStartAtLeavesPCAlone(t *testing.T) {
	sys := loadableSystem()
	sys.cpu.SetPC(0x1234)
	data := buildKCC("TEST            ", 2, 0x2000, 0x2001, 0, []byte{0x99})

	if err := sys.Load(data); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pc := sys.cpu.GetPC(); pc != 0x1234 {
		t.Fatalf("PC = %#x, want unchanged 0x1234 (numAddr<=2)", pc)
	}
	if got := sys.mem.R8(0x2000); got != 0x99 {
		t.Fatalf("payload byte = %#x, want 0x99", got)
	}
}

func TestLoadRejectsShortHeader(t *testing.T) {
	sys := loadableSystem()
	if err := sys.Load(make([]byte, 10)); err != ErrWrongHeaderSize {
		t.Fatalf("err = %v, want ErrWrongHeaderSize", err)
	}
}

func TestLoadRejectsNumAddrTooBig(t *testing.T) {
	sys := loadableSystem()
	data := buildKCC("TEST            ", 4, 0x2000, 0x2001, 0x2000, []byte{0x00})
	if err := sys.Load(data); err != ErrNumAddrTooBig {
		t.Fatalf("err = %v, want ErrNumAddrTooBig", err)
	}
}

func TestLoadRejectsEndBeforeLoad(t *testing.T) {
	sys := loadableSystem()
	data := buildKCC("TEST            ", 3, 0x2000, 0x1000, 0x2000, nil)
	if err := sys.Load(data); err != ErrEndAddrBeforeLoadAddr {
		t.Fatalf("err = %v, want ErrEndAddrBeforeLoadAddr", err)
	}
}

func TestLoadRejectsExecOutOfRange(t *testing.T) {
	sys := loadableSystem()
	data := buildKCC("TEST            ", 3, 0x2000, 0x2010, 0x9000, make([]byte, 0x10))
	if err := sys.Load(data); err != ErrExecAddrOutOfRange {
		t.Fatalf("err = %v, want ErrExecAddrOutOfRange", err)
	}
}

func TestLoadRejectsTruncatedPayload(t *testing.T) {
	sys := loadableSystem()
	full := buildKCC("TEST            ", 3, 0x2000, 0x2010, 0x2000, make([]byte, 0x10))
	truncated := full[:len(full)-5]
	if err := sys.Load(truncated); err != ErrNotEnoughData {
		t.Fatalf("err = %v, want ErrNotEnoughData", err)
	}
}

func TestLoadRejectsOversizedSnapshot(t *testing.T) {
	sys := loadableSystem()
	if err := sys.Load(make([]byte, 64*1024+1)); err != ErrSnapshotTooLarge {
		t.Fatalf("err = %v, want ErrSnapshotTooLarge", err)
	}
}

func TestLoadTAPStripsLeadBytesAndStarts(t *testing.T) {
	sys := loadableSystem()
	payload := make([]byte, 130) // spans two 129-byte blocks
	for i := range payload {
		payload[i] = byte(i)
	}
	kcc := buildKCC("TAPE            ", 3, 0x3000, 0x3000+uint16(len(payload)), 0x3000, nil)

	tapBody := append(append([]byte{}, tapMagic...), 0x00) // magic + type byte
	tapBody = append(tapBody, kcc...)

	// Lay the payload out as 129-byte blocks, each prefixed with a
	// throwaway lead byte that stripTapLeadBytes must discard.
	for off := 0; off < len(payload); off += 128 {
		end := off + 128
		if end > len(payload) {
			end = len(payload)
		}
		tapBody = append(tapBody, 0xFF) // lead byte
		tapBody = append(tapBody, payload[off:end]...)
	}

	if err := sys.Load(tapBody); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, want := range payload {
		if got := sys.mem.R8(uint16(0x3000 + i)); got != want {
			t.Fatalf("byte %d = %#x, want %#x", i, got, want)
		}
	}
	if pc := sys.cpu.GetPC(); pc != 0x3000 {
		t.Fatalf("PC = %#x, want 0x3000 after TAP start-at", pc)
	}
}

func TestLoadTAPRejectsMissingMagic(t *testing.T) {
	sys := loadableSystem()
	if err := sys.Load([]byte("not a tape file")); err == nil {
		t.Fatalf("expected error for data without TAP magic or a valid KCC header")
	}
}

func TestStartAtClearsScratchRegion(t *testing.T) {
	sys := loadableSystem()
	sys.pio.A.dataWrite(0x07) // also map video RAM at 0x8000-0xBFFF
	sys.mem.W8(0xB200, 0xAA)
	sys.mem.W8(0xB6FF, 0xBB)
	sys.mem.W8(0xB7A0, 0xCC)

	sys.startAt(0x4000)

	if got := sys.mem.R8(0xB200); got != 0 {
		t.Fatalf("0xB200 = %#x, want cleared", got)
	}
	if got := sys.mem.R8(0xB6FF); got != 0 {
		t.Fatalf("0xB6FF = %#x, want cleared", got)
	}
	if got := sys.mem.R8(0xB7A0); got != 0 {
		t.Fatalf("0xB7A0 = %#x, want cleared", got)
	}
	if pc := sys.cpu.GetPC(); pc != 0x4000 {
		t.Fatalf("PC = %#x, want 0x4000", pc)
	}
}
