package machine

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Snapshot load errors, per spec §7 — validation happens entirely before
// any memory write, so a rejected snapshot never mutates state.
var (
	ErrWrongHeaderSize      = errors.New("machine: snapshot header too short")
	ErrNumAddrTooBig        = errors.New("machine: snapshot num_addr > 3")
	ErrEndAddrBeforeLoadAddr = errors.New("machine: snapshot end address not after load address")
	ErrExecAddrOutOfRange   = errors.New("machine: snapshot exec address outside [load,end]")
	ErrNotEnoughData        = errors.New("machine: snapshot file shorter than the payload its header declares")
	ErrNoMagicNumber        = errors.New("machine: KC-TAPE magic number missing")
	ErrSnapshotTooLarge     = errors.New("machine: snapshot exceeds 64KB")
)

const kccHeaderSize = 128

var tapMagic = []byte("\xC3KC-TAPE by AF. ")

type kccHeader struct {
	name            [16]byte
	numAddr         byte
	load, end, exec uint16
}

func parseKCCHeader(b []byte) (kccHeader, error) {
	var h kccHeader
	if len(b) < kccHeaderSize {
		return h, ErrWrongHeaderSize
	}
	copy(h.name[:], b[0:16])
	h.numAddr = b[16]
	if h.numAddr > 3 {
		return h, ErrNumAddrTooBig
	}
	h.load = binary.LittleEndian.Uint16(b[17:19])
	h.end = binary.LittleEndian.Uint16(b[19:21])
	h.exec = binary.LittleEndian.Uint16(b[21:23])
	if h.end <= h.load {
		return h, ErrEndAddrBeforeLoadAddr
	}
	if h.numAddr > 2 && (h.exec < h.load || h.exec > h.end) {
		return h, ErrExecAddrOutOfRange
	}
	return h, nil
}

// Load parses a .KCC or .TAP snapshot (detected by the .TAP magic
// prefix) and applies it, per spec §4.10.5. On any validation error no
// memory is touched.
func (s *System) Load(data []byte) error {
	if len(data) > 64*1024 {
		return ErrSnapshotTooLarge
	}
	if bytes.HasPrefix(data, tapMagic) {
		return s.loadTAP(data)
	}
	return s.loadKCC(data)
}

func (s *System) loadKCC(data []byte) error {
	h, err := parseKCCHeader(data)
	if err != nil {
		return err
	}
	needed := int(h.end) - int(h.load)
	if len(data) < kccHeaderSize+needed {
		return ErrNotEnoughData
	}
	s.mem.WriteBytes(h.load, data[kccHeaderSize:kccHeaderSize+needed])
	if h.numAddr > 2 {
		s.startAt(h.exec)
	}
	s.invokePatch(h.name)
	return nil
}

// loadTAP strips the KC-TAPE container (16-byte magic, one type byte,
// then the embedded KCC header and 129-byte lead+data blocks) and
// delegates to the same load-and-start logic as a raw .KCC file.
func (s *System) loadTAP(data []byte) error {
	if len(data) < len(tapMagic)+1 {
		return ErrNoMagicNumber
	}
	rest := data[len(tapMagic)+1:]
	if len(rest) < kccHeaderSize {
		return ErrWrongHeaderSize
	}
	h, err := parseKCCHeader(rest)
	if err != nil {
		return err
	}
	payload := stripTapLeadBytes(rest[kccHeaderSize:])
	needed := int(h.end) - int(h.load)
	if len(payload) < needed {
		return ErrNotEnoughData
	}
	s.mem.WriteBytes(h.load, payload[:needed])
	if h.numAddr > 2 {
		s.startAt(h.exec)
	}
	s.invokePatch(h.name)
	return nil
}

// stripTapLeadBytes drops the one lead byte at the start of every
// 129-byte block, leaving the 128 data bytes from each.
func stripTapLeadBytes(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		n := len(b)
		if n > 129 {
			n = 129
		}
		block := b[:n]
		if len(block) > 1 {
			out = append(out, block[1:]...)
		}
		b = b[n:]
	}
	return out
}

// startAt implements the KCC "start-at" routine triggered by num_addr>2:
// reset CPU state, zero the documented scratch region, simulate a PIO-B
// write so the memory map matches a freshly booted machine, push a
// return-stub address, and jump to the snapshot's exec address.
func (s *System) startAt(exec uint16) {
	s.cpu.Reset()
	for addr := uint32(0xB200); addr != 0xB700; addr++ {
		s.mem.W8(uint16(addr), 0)
	}
	s.mem.W8(0xB7A0, 0)

	s.pioBOut = s.model.startAtPIOB()
	s.updateMemoryMapping()

	sp := s.cpu.GetSP() - 2
	s.mem.W16(sp, returnStubAddr)
	s.cpu.SetSP(sp)
	s.cpu.SetPC(exec)
}

// returnStubAddr is the CAOS warm-start reentry point snapshots return
// to; identical across models.
const returnStubAddr uint16 = 0xF003
