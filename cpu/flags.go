// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

const (
	FLAG_C = uint8(1 << 0) // Carry
	FLAG_Z = uint8(1 << 1) // Zero
	FLAG_N = uint8(1 << 2) // Negative (bit 7 of result)
	FLAG_V = uint8(1 << 3) // Overflow
)

func (cp *Cpu) setFlag(flag uint8, on bool) {
	if on {
		cp.Flags |= flag
	} else {
		cp.Flags &^= flag
	}
}

// Flag returns true if the flag bit is set.
func (cp *Cpu) Flag(flag uint8) bool {
	return cp.Flags&flag != 0
}

// setZN updates Zero and Negative from a data-producing result.
func (cp *Cpu) setZN(value uint8) {
	cp.setFlag(FLAG_Z, value == 0)
	cp.setFlag(FLAG_N, value&0x80 != 0)
}

// addFlags folds a 9-bit sum into C, Z, N, V and returns the 8-bit result.
// Overflow: operands share a sign and the result sign differs from it.
func (cp *Cpu) addFlags(sum uint16, a, b uint8) (result uint8) {
	result = uint8(sum)
	cp.setFlag(FLAG_C, sum&0x100 != 0)
	cp.setZN(result)
	cp.setFlag(FLAG_V, (a^b)&0x80 == 0 && (a^result)&0x80 != 0)
	return
}

// subFlags is addFlags for the two's-complement A+(~B)+1 sum. Carry here
// means "no borrow", and the overflow test requires the operand signs to
// differ rather than match.
func (cp *Cpu) subFlags(sum uint16, a, b uint8) (result uint8) {
	result = uint8(sum)
	cp.setFlag(FLAG_C, sum&0x100 != 0)
	cp.setZN(result)
	cp.setFlag(FLAG_V, (a^b)&0x80 != 0 && (a^result)&0x80 != 0)
	return
}
