package program

// Demo returns the built-in demo loop: each pass stores A to the
// output port at 0xff00, then exercises the ALU flags with ADD, XOR
// and SUB against B. After the first pass B stays at 10, so A settles
// into an oscillation rather than a count. The trailing HLT is never
// reached.
func Demo() *Program {
	return &Program{
		Data: []byte{
			0x10, 0x00, // LDA #$00
			0x11, 0x01, // LDB #$01
			// loop:
			0x13, 0x00, 0xff, // STA $ff00
			0x20,       // ADD B
			0x11, 0x0a, // LDB #$0a
			0x24,       // XOR B
			0x24,       // XOR B
			0x33, 0x0a, // LDX #$0a
			0x21,             // SUB B
			0x30, 0x04, 0x00, // JMP $0004
			0xff, // HLT
		},
	}
}
