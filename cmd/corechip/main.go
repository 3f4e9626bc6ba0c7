// Command corechip runs the KC85/2, /3 and /4 core as a standalone
// machine: an Ebiten window for video and keyboard, an Oto player for
// the beeper audio, or a headless terminal mode driven by golang.org/x/term
// for environments without a display.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/go-kc85/corechip/internal/machine"
)

func main() {
	model := flag.String("model", "/4", "machine model: /2, /3 or /4")
	caosPath := flag.String("caos", "", "path to the CAOS operating-system ROM image")
	basicPath := flag.String("basic", "", "path to the BASIC ROM image (/3 and /4 only)")
	caoscPath := flag.String("caosc", "", "path to the CAOS-C ROM image (/4 only)")
	snapshotPath := flag.String("snapshot", "", "a .KCC or .TAP snapshot to load at startup")
	headless := flag.String("headless", "", "run without a GUI, reading keystrokes from this terminal")
	slot8 := flag.String("slot8", "", "module to insert in the right slot (0x08): basic, ram64k, ram16k, texor")
	slot8ROM := flag.String("slot8-rom", "", "ROM image path for -slot8, if the module type needs one")
	slot12 := flag.String("slot12", "", "module to insert in the left slot (0x0C): basic, ram64k, ram16k, texor")
	slot12ROM := flag.String("slot12-rom", "", "ROM image path for -slot12, if the module type needs one")
	loadStatePath := flag.String("loadstate", "", "resume from a save-state file written by F5")
	stateFile := flag.String("statefile", "corechip.state", "path F5/F9 save and load save-states to/from")
	showVersion := flag.Bool("version", false, "print version and build info, then exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	m, ok := machine.ParseModel(*model)
	if !ok {
		fmt.Fprintf(os.Stderr, "corechip: unknown model %q (want /2, /3 or /4)\n", *model)
		os.Exit(1)
	}

	roms := map[string][]byte{}
	loadROM(roms, machine.ROMCAOS, *caosPath)
	loadROM(roms, machine.ROMBASIC, *basicPath)
	loadROM(roms, machine.ROMCAOSC, *caoscPath)

	video, err := newVideoOutput(*headless == "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "corechip: video init: %v\n", err)
		os.Exit(1)
	}
	audio, err := newAudioOutput(44_100)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corechip: audio init: %v\n", err)
		os.Exit(1)
	}

	sys, err := machine.New(machine.Config{
		Model:      m,
		Pixels:     video.pixels(),
		SampleSink: audio.pushSamples,
		SampleRate: 44_100,
		ROM:        roms,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "corechip: machine init: %v\n", err)
		os.Exit(1)
	}

	insertSlot(sys, "0x08", *slot8, *slot8ROM)
	insertSlot(sys, "0x0C", *slot12, *slot12ROM)

	if *snapshotPath != "" {
		data, err := os.ReadFile(*snapshotPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "corechip: reading snapshot: %v\n", err)
			os.Exit(1)
		}
		if err := sys.Load(data); err != nil {
			fmt.Fprintf(os.Stderr, "corechip: warning: loading snapshot: %v (continuing without it)\n", err)
		}
	}

	if *loadStatePath != "" {
		data, err := os.ReadFile(*loadStatePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "corechip: reading save-state: %v\n", err)
			os.Exit(1)
		}
		if err := sys.LoadState(data); err != nil {
			fmt.Fprintf(os.Stderr, "corechip: loading save-state: %v\n", err)
			os.Exit(1)
		}
	}

	audio.Start()
	defer audio.Close()

	if *headless != "" {
		runHeadless(sys, *headless)
		return
	}
	video.stateFile = *stateFile
	runWindowed(sys, video)
}

func printVersion() {
	fmt.Println("corechip - a cycle-accurate KC85/2, /3, /4 emulation core")
	fmt.Println("https://github.com/go-kc85/corechip")
	if bi, ok := debug.ReadBuildInfo(); ok {
		fmt.Println("module version:", bi.Main.Version)
		fmt.Println("go version:", bi.GoVersion)
	}
}

func loadROM(roms map[string][]byte, key, path string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corechip: reading %s ROM: %v\n", key, err)
		os.Exit(1)
	}
	roms[key] = data
}

func insertSlot(sys *machine.System, slotName, modType, romPath string) {
	if modType == "" {
		return
	}
	var addr byte
	switch slotName {
	case "0x08":
		addr = 0x08
	case "0x0C":
		addr = 0x0C
	}

	mt, ok := parseModuleType(modType)
	if !ok {
		fmt.Fprintf(os.Stderr, "corechip: unknown module type %q for slot %s\n", modType, slotName)
		os.Exit(1)
	}

	var rom []byte
	if romPath != "" {
		data, err := os.ReadFile(romPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "corechip: reading module ROM: %v\n", err)
			os.Exit(1)
		}
		rom = data
	}

	if err := sys.InsertModule(addr, mt, rom); err != nil {
		fmt.Fprintf(os.Stderr, "corechip: inserting module in slot %s: %v\n", slotName, err)
		os.Exit(1)
	}
}

func parseModuleType(name string) (machine.ModuleType, bool) {
	switch name {
	case "basic":
		return machine.ModuleBASIC, true
	case "ram64k":
		return machine.ModuleRAM64K, true
	case "ram16k":
		return machine.ModuleRAM16K, true
	case "texor":
		return machine.ModuleTexorFormAssembler, true
	}
	return 0, false
}
