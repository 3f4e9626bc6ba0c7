package machine

import (
	"github.com/go-kc85/corechip/internal/beeper"
	"github.com/go-kc85/corechip/internal/clock"
	"github.com/go-kc85/corechip/internal/ctc"
	"github.com/go-kc85/corechip/internal/keybuffer"
	"github.com/go-kc85/corechip/internal/memory"
	"github.com/go-kc85/corechip/internal/pins"
	"github.com/go-kc85/corechip/internal/pio"
	"github.com/go-kc85/corechip/internal/z80"
)

const sampleBatchSize = 128

// ROM image keys expected in Config.ROM, one per model-specific chip.
const (
	ROMCAOS  = "caos"  // E000, all models
	ROMBASIC = "basic" // C000, /3 and /4
	ROMCAOSC = "caosc" // C000 overlay, /4 only
)

// Config configures a System at construction. Only the ROM images the
// chosen Model actually maps need be present.
type Config struct {
	Model      Model
	Pixels     []uint32 // borrowed for the System's lifetime, row-major 320x256
	SampleSink func([]float32)
	SampleRate int
	Patch      func(name [16]byte)
	ROM        map[string][]byte
	// PatchScripts maps a trimmed snapshot name to Lua source applying
	// per-snapshot bugfixes via direct memory/register access, run in
	// addition to Patch on a successful Load.
	PatchScripts map[string][]byte
}

// System integrates the chip-level core into one runnable KC85 machine.
type System struct {
	model Model

	cpu   *z80.CPU
	mem   *memory.Bus
	ctc   *ctc.CTC
	pio   *pio.PIO
	clock *clock.Clock
	keys  *keybuffer.Buffer

	beeperL *beeper.Beeper
	beeperR *beeper.Beeper

	pixels    []uint32
	sampleSink func([]float32)
	sampleBuf  []float32

	patch      func(name [16]byte)
	roms       map[string][]byte
	luaScripts map[string][]byte

	mainRAM     []byte
	videoRAM    []byte    // /2, /3: 16 KB at 0x8000
	videoRAM854 [2][]byte // /4: two 32 KB banks (16 KB pixels + 16 KB colour)

	pioAOut byte
	pioBOut byte
	io84    byte
	io86    byte

	blinkFlag bool
	beamH     int
	beamV     int

	retiArmed bool

	expansion expansionState
	kp        keyPatchState
}

// New constructs a System for the given configuration.
func New(cfg Config) (*System, error) {
	s := &System{
		model:      cfg.Model,
		cpu:        z80.New(),
		mem:        memory.New(),
		ctc:        ctc.New(),
		pio:        pio.New(),
		clock:      clock.New(cfg.Model.Frequency()),
		keys:       keybuffer.New(0, 33_300),
		beeperL:    beeper.New(cfg.Model.Frequency(), cfg.SampleRate, 0.25),
		beeperR:    beeper.New(cfg.Model.Frequency(), cfg.SampleRate, 0.25),
		pixels:     cfg.Pixels,
		sampleSink: cfg.SampleSink,
		sampleBuf:  make([]float32, 0, sampleBatchSize),
		patch:      cfg.Patch,
		roms:       cfg.ROM,
		luaScripts: cfg.PatchScripts,
		mainRAM:    make([]byte, 0x4000),
	}

	if s.model.isKC854() {
		s.videoRAM854[0] = make([]byte, 0x8000)
		s.videoRAM854[1] = make([]byte, 0x8000)
	} else {
		s.videoRAM = make([]byte, 0x4000)
	}

	s.pio.A.OutCallback = func(v byte) {
		s.pioAOut = v
		s.updateMemoryMapping()
	}
	s.pio.B.OutCallback = func(v byte) {
		s.pioBOut = v
		s.updateMemoryMapping()
	}

	s.Reset()
	return s, nil
}

// Reset reinitializes chip state without discarding ROM images or the
// expansion configuration.
func (s *System) Reset() {
	s.cpu.Reset()
	s.ctc = ctc.New()
	s.pio = pio.New()
	s.pio.A.OutCallback = func(v byte) {
		s.pioAOut = v
		s.updateMemoryMapping()
	}
	s.pio.B.OutCallback = func(v byte) {
		s.pioBOut = v
		s.updateMemoryMapping()
	}
	s.beeperL.Reset()
	s.beeperR.Reset()
	s.pioAOut = 0
	s.pioBOut = 0
	s.io84 = 0
	s.io86 = 0
	s.blinkFlag = false
	s.beamH = 0
	s.beamV = 0
	s.retiArmed = false
	s.kp = keyPatchState{}
	s.updateMemoryMapping()
}

// Exec advances the emulator by approximately the given number of
// microseconds of emulated time, running whole instructions until the
// clock's tick budget for this call is exhausted.
func (s *System) Exec(microseconds int64) {
	budget := s.clock.TicksToRun(microseconds)
	executed := s.cpu.Exec(budget, s.tick)
	s.clock.TicksExecuted(executed, budget)
	s.keys.Update(microseconds)
	s.patchKeyboard()
}

// invokePatch runs both the host-supplied Patch callback and any Lua
// patch script registered for this snapshot's name.
func (s *System) invokePatch(name [16]byte) {
	if s.patch != nil {
		s.patch(name)
	}
	s.runPatchScript(name)
}

// KeyDown/KeyUp forward host key events to the keyboard buffer; they take
// effect on the next Exec call, per the documented frame boundary.
func (s *System) KeyDown(code byte) { s.keys.KeyDown(code) }
func (s *System) KeyUp(code byte)   { s.keys.KeyUp(code) }

// InsertModule wires a module into the given expansion slot and
// recomputes the memory map.
func (s *System) InsertModule(slotAddr byte, mt ModuleType, rom []byte) error {
	if err := s.expansion.insertModule(slotAddr, mt, rom); err != nil {
		return err
	}
	s.updateMemoryMapping()
	return nil
}

// RemoveModule frees the given expansion slot and recomputes the memory
// map.
func (s *System) RemoveModule(slotAddr byte) error {
	if err := s.expansion.removeModule(slotAddr); err != nil {
		return err
	}
	s.updateMemoryMapping()
	return nil
}

// tick is the CPU's bus-routing callback: one call per machine cycle.
// Within a call: memory/IO access, then the per-clock video/CTC/beeper
// loop, then the interrupt daisy-chain ripple (CTC before PIO).
func (s *System) tick(n int, p uint64) uint64 {
	if s.cpu.RetiPending() {
		s.retiArmed = true
	}

	addr := pins.GetAddr(p)
	switch {
	case pins.MREQ(p) && pins.RD(p):
		p = pins.SetData(p, s.mem.R8(addr))
	case pins.MREQ(p) && pins.WR(p):
		s.mem.W8(addr, pins.GetData(p))
	case pins.IORQ(p) && !pins.M1(p):
		p = s.ioAccess(p, addr)
	}

	for i := 0; i < n; i++ {
		s.tickOneClock()
	}

	dp := p
	dp = pins.SetIEIO(dp, true)
	if s.retiArmed && pins.M1(dp) && pins.MREQ(dp) && pins.RD(dp) {
		dp = pins.SetRETI(dp, true)
		s.retiArmed = false
	}
	dp = s.ctc.Int(dp)
	dp = s.pio.Int(dp)
	s.cpu.SetINTLine(pins.INT(dp))
	if pins.IORQ(p) && pins.M1(p) {
		p = pins.SetData(p, pins.GetData(dp))
	}

	return p
}

// ioAccess decodes the machine's on-board I/O address space: bits 4-7
// must read 0b1000 for any on-machine device; bit 3 selects PIO/CTC
// (further selected by bit 2) versus the expansion/bank-latch ports.
func (s *System) ioAccess(p uint64, addr uint16) uint64 {
	low := byte(addr)
	if low&0xF0 != 0x80 {
		return p
	}

	if low&0x08 != 0 {
		p = pins.SetPIOBASEL(p, low&0x01 != 0)
		p = pins.SetPIOCDSEL(p, low&0x02 != 0)
		p = pins.SetCTCCS(p, int(low&0x03))
		if low&0x04 != 0 {
			p = pins.SetCTCCE(p, true)
			p = s.ctc.IORQ(p)
		} else {
			p = pins.SetPIOCE(p, true)
			p = s.pio.IORQ(p)
		}
		return p
	}

	if !pins.WR(p) {
		return p
	}
	v := pins.GetData(p)
	switch low {
	case 0x80:
		slot := byte(addr >> 8)
		s.expansion.controlWrite(slot, v)
	case 0x84:
		s.io84 = v
	case 0x86:
		s.io86 = v
	default:
		return p
	}
	s.updateMemoryMapping()
	return p
}

func (e *expansionState) controlWrite(slotAddr, v byte) {
	if idx, ok := slotIndex(slotAddr); ok {
		e.slots[idx].controlWrite(v)
	}
}

// tickOneClock advances video, CTC, and both beepers by a single clock
// tick, flushing completed audio samples to the sink.
func (s *System) tickOneClock() {
	vsync := s.stepVideoOneTick()

	zcto := s.ctc.Tick([4]bool{false, false, vsync, false})
	if zcto[0] {
		s.beeperL.Toggle()
	}
	if zcto[1] {
		s.beeperR.Toggle()
	}
	if zcto[2] {
		s.blinkFlag = !s.blinkFlag
	}

	readyL, sampleL := s.beeperL.Tick()
	readyR, sampleR := s.beeperR.Tick()
	if readyL || readyR {
		s.sampleBuf = append(s.sampleBuf, sampleL+sampleR)
		if len(s.sampleBuf) >= sampleBatchSize {
			if s.sampleSink != nil {
				s.sampleSink(s.sampleBuf)
			}
			s.sampleBuf = s.sampleBuf[:0]
		}
	}
}

// updateMemoryMapping recomputes bank 0 (the base machine) and the
// per-slot expansion banks from the current latch values, per the
// documented memory-map policy.
func (s *System) updateMemoryMapping() {
	s.mem.UnmapBank(0)

	if s.pioAOut&0x02 != 0 {
		if s.pioAOut&0x08 != 0 {
			s.mem.MapROM(0, 0x0000, s.mainRAM)
		} else {
			s.mem.MapRAM(0, 0x0000, s.mainRAM)
		}
	}
	if s.pioAOut&0x01 != 0 {
		if rom := s.roms[ROMCAOS]; len(rom) > 0 {
			s.mem.MapROM(0, 0xE000, rom)
		}
	}
	if s.model.hasBasicROM() && s.pioAOut&0x80 != 0 {
		if rom := s.roms[ROMBASIC]; len(rom) > 0 {
			s.mem.MapROM(0, 0xC000, rom)
		}
	}

	if s.model.isKC854() {
		s.updateMemoryMapping854()
	} else if s.pioAOut&0x04 != 0 {
		s.mem.MapRAM(0, 0x8000, s.videoRAM)
	}

	for i := range s.expansion.slots {
		slot := &s.expansion.slots[i]
		bank := i + 1
		s.mem.UnmapBank(bank)
		if !slot.present || !slot.mapped() {
			continue
		}
		backing := slot.backing(&s.expansion)
		base := slot.baseAddr()
		if slot.writeOK() {
			s.mem.MapRAM(bank, base, backing)
		} else {
			s.mem.MapROM(bank, base, backing)
		}
	}
}

// updateMemoryMapping854 implements the richer /4 map: up to three RAM
// banks switched in at 0x4000/0x8000/0xC000, and the two-image-pair video
// RAM bank selected by io84/PIO-B latches rather than the /2-/3 single
// 16 KB window. The exact bit assignments beyond the documented display
// and CAOS-C selectors are this implementation's own simplification —
// see DESIGN.md.
func (s *System) updateMemoryMapping854() {
	if s.io86&0x01 != 0 {
		s.mem.MapRAM(0, 0x4000, s.mainRAM[:0x4000])
	}

	bank := s.displayedImagePair()
	if s.pioBOut&0x20 != 0 {
		s.mem.MapRAM(0, 0x8000, s.videoRAM854[bank][:0x4000])
	}

	if s.io86&0x80 != 0 {
		if rom := s.roms[ROMCAOSC]; len(rom) > 0 {
			s.mem.MapROM(0, 0xC000, rom)
			return
		}
	}
	if s.io86&0x02 != 0 {
		s.mem.MapRAM(0, 0xC000, s.videoRAM854[bank][0x4000:0x8000])
	}
}
