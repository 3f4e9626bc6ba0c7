package machine

import "testing"

func TestSaveStateRoundTrip(t *testing.T) {
	sys := newTestSystem(ModelKC853, nil)
	sys.pio.A.dataWrite(0x03)
	sys.cpu.SetPC(0x4321)
	sys.cpu.SetSP(0x8000)
	sys.mem.W8(0x1000, 0x77)
	sys.io84 = 0x01
	sys.blinkFlag = true

	data, err := sys.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	fresh := newTestSystem(ModelKC853, nil)
	if err := fresh.LoadState(data); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	if pc := fresh.cpu.GetPC(); pc != 0x4321 {
		t.Fatalf("PC = %#x, want 0x4321", pc)
	}
	if sp := fresh.cpu.GetSP(); sp != 0x8000 {
		t.Fatalf("SP = %#x, want 0x8000", sp)
	}
	if got := fresh.mem.R8(0x1000); got != 0x77 {
		t.Fatalf("mem[0x1000] = %#x, want 0x77", got)
	}
	if !fresh.blinkFlag {
		t.Fatalf("blinkFlag should be restored true")
	}
	if fresh.io84 != 0x01 {
		t.Fatalf("io84 = %#x, want 0x01", fresh.io84)
	}
}

func TestLoadStateRejectsBadMagic(t *testing.T) {
	sys := newTestSystem(ModelKC852, nil)
	if err := sys.LoadState([]byte("not a state file")); err != ErrStateBadMagic {
		t.Fatalf("err = %v, want ErrStateBadMagic", err)
	}
}

func TestLoadStateRejectsBadVersion(t *testing.T) {
	sys := newTestSystem(ModelKC852, nil)
	data, err := sys.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	data[4] = 0xFF // corrupt the version field right after the 4-byte magic
	if err := sys.LoadState(data); err != ErrStateBadVersion {
		t.Fatalf("err = %v, want ErrStateBadVersion", err)
	}
}
