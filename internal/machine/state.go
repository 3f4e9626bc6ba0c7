package machine

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-kc85/corechip/internal/z80"
)

const (
	stateMagic   = "KC85"
	stateVersion = 1
)

// Save-state errors.
var (
	ErrStateBadMagic   = fmt.Errorf("machine: state file has the wrong magic number")
	ErrStateBadVersion = fmt.Errorf("machine: unsupported state file version")
)

// SaveState captures the full CPU register file and the currently
// resolved 64 KB address space, gzip-compressed, so a running session
// can be frozen and resumed exactly — distinct from Load, which only
// seeds memory from a cold-start program image.
func (s *System) SaveState() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(stateMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(stateVersion))
	binary.Write(&buf, binary.LittleEndian, byte(s.model))

	regs := s.cpu.Snapshot()
	binary.Write(&buf, binary.LittleEndian, regs)

	binary.Write(&buf, binary.LittleEndian, s.pioAOut)
	binary.Write(&buf, binary.LittleEndian, s.pioBOut)
	binary.Write(&buf, binary.LittleEndian, s.io84)
	binary.Write(&buf, binary.LittleEndian, s.io86)
	binary.Write(&buf, binary.LittleEndian, s.blinkFlag)

	mem := s.mem.Snapshot()
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(mem); err != nil {
		return nil, fmt.Errorf("machine: compressing state memory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("machine: closing state gzip writer: %w", err)
	}
	buf.Write(compressed.Bytes())

	return buf.Bytes(), nil
}

// LoadState restores a snapshot captured by SaveState, replacing the
// running register and I/O-latch state and rewriting the resolved
// address space through the currently mapped memory map.
func (s *System) LoadState(data []byte) error {
	r := bytes.NewReader(data)

	magic := make([]byte, len(stateMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != stateMagic {
		return ErrStateBadMagic
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil || version != stateVersion {
		return ErrStateBadVersion
	}

	var modelByte byte
	if err := binary.Read(r, binary.LittleEndian, &modelByte); err != nil {
		return fmt.Errorf("machine: reading state model: %w", err)
	}
	s.model = Model(modelByte)

	var regs z80.RegisterState
	if err := binary.Read(r, binary.LittleEndian, &regs); err != nil {
		return fmt.Errorf("machine: reading state registers: %w", err)
	}
	s.cpu.Restore(regs)

	if err := binary.Read(r, binary.LittleEndian, &s.pioAOut); err != nil {
		return fmt.Errorf("machine: reading state PIO-A: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &s.pioBOut); err != nil {
		return fmt.Errorf("machine: reading state PIO-B: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &s.io84); err != nil {
		return fmt.Errorf("machine: reading state io84: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &s.io86); err != nil {
		return fmt.Errorf("machine: reading state io86: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &s.blinkFlag); err != nil {
		return fmt.Errorf("machine: reading state blink flag: %w", err)
	}

	s.updateMemoryMapping()

	remaining := data[len(data)-r.Len():]
	gz, err := gzip.NewReader(bytes.NewReader(remaining))
	if err != nil {
		return fmt.Errorf("machine: opening state gzip reader: %w", err)
	}
	defer gz.Close()
	mem := make([]byte, 0x10000)
	if _, err := io.ReadFull(gz, mem); err != nil {
		return fmt.Errorf("machine: decompressing state memory: %w", err)
	}
	s.mem.WriteBytes(0, mem)

	return nil
}
