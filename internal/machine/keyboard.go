package machine

// Status-byte bits at (IX+0x8), matching the documented CAOS keyboard
// driver layout closely enough to drive the OS's own key-reading loop.
const (
	statusReady   byte = 1 << 0
	statusRepeat  byte = 1 << 1
	statusTimeout byte = 1 << 3
)

// keyPatchState tracks the repeat-timing state the patch routine needs
// across calls, since it runs once per host frame rather than once per
// keystroke.
type keyPatchState struct {
	lastKey             byte
	firstRepeatConsumed bool
}

// patchKeyboard writes the most recent KeyBuffer key directly into the
// emulated CAOS keyboard status cells, per spec §4.10.4. Runs once after
// each exec call, only while interrupts are enabled (iff1), matching the
// point in the OS's main loop where it is safe to observe new input.
func (s *System) patchKeyboard() {
	if !s.cpu.IFF1() {
		return
	}
	ix := s.cpu.GetIX()
	statusAddr := ix + 0x8
	codeAddr := ix + 0xD
	repeatAddr := ix + 0xA

	key := s.keys.MostRecentKey()
	switch {
	case key == 0:
		s.mem.W8(statusAddr, s.mem.R8(statusAddr)|statusTimeout)
		s.mem.W8(codeAddr, 0)
		s.kp.lastKey = 0
		s.kp.firstRepeatConsumed = false
		s.mem.W8(repeatAddr, 0)

	case key != s.kp.lastKey:
		s.mem.W8(codeAddr, key)
		s.mem.W8(statusAddr, (s.mem.R8(statusAddr)&^statusRepeat)|statusReady)
		s.mem.W8(repeatAddr, 0)
		s.kp.lastKey = key
		s.kp.firstRepeatConsumed = false

	default:
		rep := s.mem.R8(repeatAddr) + 1
		s.mem.W8(repeatAddr, rep)
		threshold := byte(8)
		if !s.kp.firstRepeatConsumed {
			threshold = 60
		}
		if rep >= threshold {
			s.mem.W8(statusAddr, s.mem.R8(statusAddr)|statusReady|statusRepeat)
			s.mem.W8(repeatAddr, 0)
			s.kp.firstRepeatConsumed = true
		}
	}
}
