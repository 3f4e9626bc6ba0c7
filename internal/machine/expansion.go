package machine

import (
	"errors"
	"fmt"
)

// ModuleType identifies one of the four expansion-module kinds this
// machine accepts, each with fixed addressing parameters.
type ModuleType int

const (
	ModuleBASIC ModuleType = iota
	ModuleRAM64K
	ModuleRAM16K
	ModuleTexorFormAssembler
)

type moduleSpec struct {
	idByte    byte
	writable  bool
	addrMask  byte
	sizeBytes int
	needsROM  bool
}

var moduleSpecs = map[ModuleType]moduleSpec{
	ModuleBASIC:              {idByte: 0xFC, writable: false, addrMask: 0xC0, sizeBytes: 16 * 1024, needsROM: true},
	ModuleRAM64K:              {idByte: 0xF6, writable: true, addrMask: 0xC0, sizeBytes: 64 * 1024, needsROM: false},
	ModuleRAM16K:              {idByte: 0xF4, writable: true, addrMask: 0xC0, sizeBytes: 16 * 1024, needsROM: false},
	ModuleTexorFormAssembler: {idByte: 0xFB, writable: false, addrMask: 0xE0, sizeBytes: 8 * 1024, needsROM: true},
}

// Module insertion errors, surfaced to the caller per the documented
// error kinds; none mutate System state before returning.
var (
	ErrInvalidSlotAddress              = errors.New("machine: invalid slot address")
	ErrModuleTypeExpectsROMImage       = errors.New("machine: module type expects a ROM image")
	ErrModuleTypeDoesNotExpectROMImage = errors.New("machine: module type does not expect a ROM image")
	ErrModuleROMImageSizeMismatch      = errors.New("machine: ROM image size does not match module type")
	ErrExpansionBufferFull             = errors.New("machine: expansion buffer is full")
)

// Slot holds one of the machine's two expansion-module sockets.
type Slot struct {
	present bool

	slotAddr byte // 0x08 (right) or 0x0C (left)
	control  byte
	offset   int // into the shared expansion buffer

	modType  ModuleType
	idByte   byte
	writable bool
	addrMask byte
	size     int
}

// expansionState owns the two slots and their shared backing buffer.
type expansionState struct {
	slots  [2]Slot
	buffer []byte
}

func slotIndex(slotAddr byte) (int, bool) {
	switch slotAddr {
	case 0x0C:
		return 0, true
	case 0x08:
		return 1, true
	}
	return 0, false
}

// insertModule allocates space in the shared expansion buffer and wires
// a module into the named slot, returning the error kinds documented in
// spec §7. On any error no state is mutated.
func (e *expansionState) insertModule(slotAddr byte, mt ModuleType, rom []byte) error {
	idx, ok := slotIndex(slotAddr)
	if !ok {
		return ErrInvalidSlotAddress
	}
	spec, ok := moduleSpecs[mt]
	if !ok {
		return fmt.Errorf("machine: unknown module type %d", mt)
	}
	if spec.needsROM && rom == nil {
		return ErrModuleTypeExpectsROMImage
	}
	if !spec.needsROM && rom != nil {
		return ErrModuleTypeDoesNotExpectROMImage
	}
	if rom != nil && len(rom) != spec.sizeBytes {
		return ErrModuleROMImageSizeMismatch
	}

	offset := len(e.buffer)
	if offset+spec.sizeBytes > e.expansionBudget() {
		return ErrExpansionBufferFull
	}

	backing := make([]byte, spec.sizeBytes)
	if rom != nil {
		copy(backing, rom)
	}
	e.buffer = append(e.buffer, backing...)

	e.slots[idx] = Slot{
		present:  true,
		slotAddr: slotAddr,
		offset:   offset,
		modType:  mt,
		idByte:   spec.idByte,
		writable: spec.writable,
		addrMask: spec.addrMask,
		size:     spec.sizeBytes,
	}
	return nil
}

// expansionBudget caps the shared expansion buffer at the sum of both
// slots' largest module (64 KB each) — generous enough for any legal
// combination without growing unbounded.
func (e *expansionState) expansionBudget() int { return 2 * 64 * 1024 }

// removeModule frees the named slot, compacting the backing buffer by
// sliding later allocations down and fixing up the remaining slot's
// offset if it came after the removed one.
func (e *expansionState) removeModule(slotAddr byte) error {
	idx, ok := slotIndex(slotAddr)
	if !ok {
		return ErrInvalidSlotAddress
	}
	s := &e.slots[idx]
	if !s.present {
		return nil
	}

	other := 1 - idx
	if e.slots[other].present && e.slots[other].offset > s.offset {
		e.slots[other].offset -= s.size
	}
	e.buffer = append(e.buffer[:s.offset], e.buffer[s.offset+s.size:]...)
	*s = Slot{}
	return nil
}

func (s *Slot) backing(e *expansionState) []byte {
	return e.buffer[s.offset : s.offset+s.size]
}

// controlWrite handles a write to this slot's control byte (port
// 0x80-routed expansion-control latch) by storing it; it returns nothing
// and does not itself recompute the memory map.
func (s *Slot) controlWrite(v byte) { s.control = v }

func (s *Slot) mapped() bool  { return s.present && s.control&0x01 != 0 }
func (s *Slot) writeOK() bool { return s.writable && s.control&0x02 != 0 }

func (s *Slot) baseAddr() uint16 {
	return uint16(s.control&s.addrMask) << 8
}
