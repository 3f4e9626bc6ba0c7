package machine

import (
	"bytes"

	lua "github.com/yuin/gopher-lua"
)

// runPatchScript looks up the Lua source registered for name (trimmed at
// the first NUL or trailing space) and, if present, runs it in a fresh
// sandboxed state with the global functions mem_read, mem_write, reg_get
// and reg_set bound to this System, letting
// the script apply per-snapshot bugfixes by direct memory/register poke.
func (s *System) runPatchScript(name [16]byte) {
	if len(s.luaScripts) == 0 {
		return
	}
	key := trimSnapshotName(name)
	src, ok := s.luaScripts[key]
	if !ok {
		return
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.MathLibName, lua.OpenMath},
		{lua.StringLibName, lua.OpenString},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	L.SetGlobal("mem_read", L.NewFunction(func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		L.Push(lua.LNumber(s.mem.R8(addr)))
		return 1
	}))
	L.SetGlobal("mem_write", L.NewFunction(func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		v := byte(L.CheckInt(2))
		s.mem.W8(addr, v)
		return 0
	}))
	L.SetGlobal("reg_get", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(s.readRegister(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("reg_set", L.NewFunction(func(L *lua.LState) int {
		s.writeRegister(L.CheckString(1), uint16(L.CheckInt(2)))
		return 0
	}))

	// Best-effort: a faulty patch script must not crash the emulator.
	_ = L.DoString(string(src))
}

func trimSnapshotName(name [16]byte) string {
	n := bytes.IndexByte(name[:], 0)
	if n < 0 {
		n = len(name)
	}
	return string(bytes.TrimRight(name[:n], " "))
}

func (s *System) readRegister(name string) uint16 {
	switch name {
	case "pc":
		return s.cpu.GetPC()
	case "sp":
		return s.cpu.GetSP()
	case "ix":
		return s.cpu.GetIX()
	case "iy":
		return s.cpu.GetIY()
	}
	return 0
}

func (s *System) writeRegister(name string, v uint16) {
	switch name {
	case "pc":
		s.cpu.SetPC(v)
	case "sp":
		s.cpu.SetSP(v)
	}
}
