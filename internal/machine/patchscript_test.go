package machine

import "testing"

func systemWithPatchScripts(scripts map[string][]byte) *System {
	pixels := make([]uint32, displayWidth*displayHeight)
	sys, err := New(Config{
		Model:        ModelKC852,
		Pixels:       pixels,
		SampleRate:   44_100,
		PatchScripts: scripts,
	})
	if err != nil {
		panic(err)
	}
	return sys
}

func nameBytes(s string) [16]byte {
	var n [16]byte
	copy(n[:], s)
	return n
}

func TestPatchScriptMemoryRoundTrip(t *testing.T) {
	sys := systemWithPatchScripts(map[string][]byte{
		"FIXUP": []byte(`mem_write(0x1000, mem_read(0x1001) + 1)`),
	})
	sys.pio.A.dataWrite(0x03)
	sys.mem.W8(0x1001, 0x41)

	sys.invokePatch(nameBytes("FIXUP"))

	if got := sys.mem.R8(0x1000); got != 0x42 {
		t.Fatalf("mem[0x1000] = %#x, want 0x42", got)
	}
}

func TestPatchScriptRegisterRoundTrip(t *testing.T) {
	sys := systemWithPatchScripts(map[string][]byte{
		"JUMPFIX": []byte(`reg_set("pc", reg_get("pc") + 1)`),
	})
	sys.cpu.SetPC(0x1000)

	sys.invokePatch(nameBytes("JUMPFIX"))

	if pc := sys.cpu.GetPC(); pc != 0x1001 {
		t.Fatalf("PC = %#x, want 0x1001", pc)
	}
}

func TestPatchScriptMissingNameIsNoOp(t *testing.T) {
	sys := systemWithPatchScripts(map[string][]byte{
		"OTHER": []byte(`reg_set("pc", 0x9999)`),
	})
	sys.cpu.SetPC(0x1000)

	sys.invokePatch(nameBytes("UNREGISTERED"))

	if pc := sys.cpu.GetPC(); pc != 0x1000 {
		t.Fatalf("PC = %#x, want unchanged 0x1000", pc)
	}
}

func TestPatchScriptEmptyRegistryIsNoOp(t *testing.T) {
	sys := systemWithPatchScripts(nil)
	sys.cpu.SetPC(0x2000)

	sys.invokePatch(nameBytes("ANYTHING"))

	if pc := sys.cpu.GetPC(); pc != 0x2000 {
		t.Fatalf("PC = %#x, want unchanged 0x2000", pc)
	}
}

func TestPatchScriptMalformedScriptDoesNotPanic(t *testing.T) {
	sys := systemWithPatchScripts(map[string][]byte{
		"BROKEN": []byte(`this is not valid lua (((`),
	})

	sys.invokePatch(nameBytes("BROKEN")) // must return normally, not panic
}

func TestTrimSnapshotNameStripsNulAndSpaces(t *testing.T) {
	name := nameBytes("GAME  ")
	if got := trimSnapshotName(name); got != "GAME" {
		t.Fatalf("trimSnapshotName = %q, want %q", got, "GAME")
	}
}
