// Package pins implements the shared 64-bit pin-bus word the Z80 core and
// its peripheral chips (CTC, PIO, daisy chain) use to exchange address,
// data, and control-line state once per machine cycle.
//
// Bit layout (low to high):
//
//	 0..15  address (16 bits)
//	16..23  data (8 bits)
//	24..29  CPU control: M1, MREQ, IORQ, RD, WR, RFSH
//	30..33  CPU status: HALT, INT, NMI, RESET
//	34..36  wait-state count (0..7 extra T-cycles requested by the callback)
//	37..38  daisy chain: IEIO, RETI-decoded
//	39..42  CTC: CE, CS (2 bits), ZCTO
//	43..48  PIO: CE, BASEL, CDSEL, ARDY, BRDY, STROBE
//	49..56  PIO port A data
//	57..63  unused/reserved (7 bits) — kept free so no chip ever needs to
//	        share a bit position with another (see package invariant below).
//
// Invariant: no two chips read or write the same bit position. Pin bits
// are partitioned at compile time between the CPU, the daisy chain, the
// CTC, and the PIO; nothing here is dynamically allocated.
package pins

const (
	maskAddr = 0xFFFF
	maskData = 0xFF
	maskWait = 0x7

	shiftAddr = 0
	shiftData = 16

	bitM1    = 1 << 24
	bitMREQ  = 1 << 25
	bitIORQ  = 1 << 26
	bitRD    = 1 << 27
	bitWR    = 1 << 28
	bitRFSH  = 1 << 29
	bitHALT  = 1 << 30
	bitINT   = 1 << 31
	bitNMI   = 1 << 32
	bitRESET = 1 << 33

	shiftWait = 34

	bitIEIO = 1 << 37
	bitRETI = 1 << 38

	bitCTCCE   = 1 << 39
	shiftCTCCS = 40
	maskCTCCS  = 0x3
	bitCTCZCTO = 1 << 42

	bitPIOCE     = 1 << 43
	bitPIOBASEL  = 1 << 44
	bitPIOCDSEL  = 1 << 45
	bitPIOARDY   = 1 << 46
	bitPIOBRDY   = 1 << 47
	bitPIOSTROBE = 1 << 48

	shiftPIOPortA = 49
	maskPIOPortA  = 0xFF
)

// TickFunc is the machine-cycle callback signature the CPU invokes once per
// bus transaction. userdata is carried by closure capture in this port
// (Go has first-class closures, so the explicit userdata parameter from
// the reference C-shaped callback is unnecessary).
type TickFunc func(numTicks int, pinsIn uint64) (pinsOut uint64)

func GetAddr(p uint64) uint16 { return uint16((p >> shiftAddr) & maskAddr) }

func SetAddr(p uint64, addr uint16) uint64 {
	return (p &^ (maskAddr << shiftAddr)) | (uint64(addr) << shiftAddr)
}

func GetData(p uint64) byte { return byte((p >> shiftData) & maskData) }

func SetData(p uint64, data byte) uint64 {
	return (p &^ (maskData << shiftData)) | (uint64(data) << shiftData)
}

func SetAddrData(p uint64, addr uint16, data byte) uint64 {
	return SetData(SetAddr(p, addr), data)
}

func GetWait(p uint64) int { return int((p >> shiftWait) & maskWait) }

func SetWait(p uint64, n int) uint64 {
	if n < 0 {
		n = 0
	}
	if n > 7 {
		n = 7
	}
	return (p &^ (uint64(maskWait) << shiftWait)) | (uint64(n) << shiftWait)
}

func set(p uint64, bit uint64, v bool) uint64 {
	if v {
		return p | bit
	}
	return p &^ bit
}

func has(p uint64, bit uint64) bool { return p&bit != 0 }

func M1(p uint64) bool         { return has(p, bitM1) }
func SetM1(p uint64, v bool) uint64 { return set(p, bitM1, v) }

func MREQ(p uint64) bool            { return has(p, bitMREQ) }
func SetMREQ(p uint64, v bool) uint64 { return set(p, bitMREQ, v) }

func IORQ(p uint64) bool            { return has(p, bitIORQ) }
func SetIORQ(p uint64, v bool) uint64 { return set(p, bitIORQ, v) }

func RD(p uint64) bool            { return has(p, bitRD) }
func SetRD(p uint64, v bool) uint64 { return set(p, bitRD, v) }

func WR(p uint64) bool            { return has(p, bitWR) }
func SetWR(p uint64, v bool) uint64 { return set(p, bitWR, v) }

func RFSH(p uint64) bool            { return has(p, bitRFSH) }
func SetRFSH(p uint64, v bool) uint64 { return set(p, bitRFSH, v) }

func HALT(p uint64) bool            { return has(p, bitHALT) }
func SetHALT(p uint64, v bool) uint64 { return set(p, bitHALT, v) }

func INT(p uint64) bool            { return has(p, bitINT) }
func SetINT(p uint64, v bool) uint64 { return set(p, bitINT, v) }

func NMI(p uint64) bool            { return has(p, bitNMI) }
func SetNMI(p uint64, v bool) uint64 { return set(p, bitNMI, v) }

func RESET(p uint64) bool            { return has(p, bitRESET) }
func SetRESET(p uint64, v bool) uint64 { return set(p, bitRESET, v) }

func IEIO(p uint64) bool            { return has(p, bitIEIO) }
func SetIEIO(p uint64, v bool) uint64 { return set(p, bitIEIO, v) }

func RETI(p uint64) bool            { return has(p, bitRETI) }
func SetRETI(p uint64, v bool) uint64 { return set(p, bitRETI, v) }

func CTCCE(p uint64) bool            { return has(p, bitCTCCE) }
func SetCTCCE(p uint64, v bool) uint64 { return set(p, bitCTCCE, v) }

func CTCCS(p uint64) int { return int((p >> shiftCTCCS) & maskCTCCS) }

func SetCTCCS(p uint64, cs int) uint64 {
	return (p &^ (uint64(maskCTCCS) << shiftCTCCS)) | (uint64(cs&maskCTCCS) << shiftCTCCS)
}

func CTCZCTO(p uint64) bool            { return has(p, bitCTCZCTO) }
func SetCTCZCTO(p uint64, v bool) uint64 { return set(p, bitCTCZCTO, v) }

func PIOCE(p uint64) bool              { return has(p, bitPIOCE) }
func SetPIOCE(p uint64, v bool) uint64 { return set(p, bitPIOCE, v) }

func PIOBASEL(p uint64) bool              { return has(p, bitPIOBASEL) }
func SetPIOBASEL(p uint64, v bool) uint64 { return set(p, bitPIOBASEL, v) }

func PIOCDSEL(p uint64) bool              { return has(p, bitPIOCDSEL) }
func SetPIOCDSEL(p uint64, v bool) uint64 { return set(p, bitPIOCDSEL, v) }

func PIOARDY(p uint64) bool              { return has(p, bitPIOARDY) }
func SetPIOARDY(p uint64, v bool) uint64 { return set(p, bitPIOARDY, v) }

func PIOBRDY(p uint64) bool              { return has(p, bitPIOBRDY) }
func SetPIOBRDY(p uint64, v bool) uint64 { return set(p, bitPIOBRDY, v) }

func PIOSTROBE(p uint64) bool              { return has(p, bitPIOSTROBE) }
func SetPIOSTROBE(p uint64, v bool) uint64 { return set(p, bitPIOSTROBE, v) }

// PIOPortA and SetPIOPortA carry the PIO's port-A pins independently of the
// shared CPU data bus field, since writePort (external device simulation)
// can present data to a PIO port without that data ever crossing the CPU.
func PIOPortA(p uint64) byte { return byte((p >> shiftPIOPortA) & maskPIOPortA) }

func SetPIOPortA(p uint64, v byte) uint64 {
	return (p &^ (uint64(maskPIOPortA) << shiftPIOPortA)) | (uint64(v) << shiftPIOPortA)
}
