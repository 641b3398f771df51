package mips

import "testing"

func TestLookupInstruction(t *testing.T) {
	tests := []struct {
		mnemonic string
		format   Format
		code     uint32
		found    bool
	}{
		{"add", FormatR, FunctADD, true},
		{"sub", FormatR, FunctSUB, true},
		{"slt", FormatR, FunctSLT, true},
		{"addi", FormatI, OpcodeADDI, true},
		{"lw", FormatI, OpcodeLW, true},
		{"sw", FormatI, OpcodeSW, true},
		{"beq", FormatI, OpcodeBEQ, true},
		{"bne", FormatI, OpcodeBNE, true},
		{"j", FormatJ, OpcodeJ, true},
		{"jal", FormatJ, OpcodeJAL, true},
		{"halt", 0, 0, false},
		{"ADD", 0, 0, false}, // case sensitive
	}
	for _, test := range tests {
		info, found := LookupInstruction(test.mnemonic)
		if found != test.found {
			t.Fatalf("LookupInstruction(%q): found = %v, want %v",
				test.mnemonic, found, test.found)
		}
		if !found {
			continue
		}
		if info.Format != test.format || info.Code != test.code {
			t.Fatalf("LookupInstruction(%q) = {%v %#x}, want {%v %#x}",
				test.mnemonic, info.Format, info.Code, test.format, test.code)
		}
	}
}

func TestLookupInstructionFlags(t *testing.T) {
	for _, mnemonic := range []string{"beq", "bne"} {
		info, _ := LookupInstruction(mnemonic)
		if !info.Branch {
			t.Fatalf("%q should be a branch", mnemonic)
		}
	}
	for _, mnemonic := range []string{"lw", "sw"} {
		info, _ := LookupInstruction(mnemonic)
		if !info.LoadStore {
			t.Fatalf("%q should be a load/store", mnemonic)
		}
	}
	info, _ := LookupInstruction("addi")
	if info.Branch || info.LoadStore {
		t.Fatal("addi should be a plain immediate instruction")
	}
}

func TestLookupRegister(t *testing.T) {
	tests := []struct {
		token string
		idx   uint32
		found bool
	}{
		{"$zero", 0, true},
		{"$at", 1, true},
		{"$v1", 3, true},
		{"$a2", 6, true},
		{"$t0", 8, true},
		{"$t7", 15, true},
		{"$s0", 16, true},
		{"$t8", 24, true},
		{"$gp", 28, true},
		{"$sp", 29, true},
		{"$fp", 30, true},
		{"$ra", 31, true},
		{"$0", 0, true},
		{"$31", 31, true},
		{"$9", 9, true},
		{"$32", 0, false},
		{"$t10", 0, false},
		{"zero", 0, false},
		{"$", 0, false},
		{"", 0, false},
	}
	for _, test := range tests {
		idx, found := LookupRegister(test.token)
		if found != test.found || idx != test.idx {
			t.Fatalf("LookupRegister(%q) = (%d, %v), want (%d, %v)",
				test.token, idx, found, test.idx, test.found)
		}
	}
}

func TestRegisterNameRoundTrip(t *testing.T) {
	for idx := uint32(0); idx < 32; idx++ {
		got, found := LookupRegister(RegisterName(idx))
		if !found || got != idx {
			t.Fatalf("RegisterName(%d) = %q does not look up to %d",
				idx, RegisterName(idx), idx)
		}
	}
}

func TestPackRRoundTrip(t *testing.T) {
	ci := PackR(OpcodeRType, 9, 10, 8, 0, FunctADD)
	if got := DecodeOpcode(ci); got != OpcodeRType {
		t.Fatalf("opcode = %#x", got)
	}
	if got := DecodeRS(ci); got != 9 {
		t.Fatalf("rs = %d", got)
	}
	if got := DecodeRT(ci); got != 10 {
		t.Fatalf("rt = %d", got)
	}
	if got := DecodeRD(ci); got != 8 {
		t.Fatalf("rd = %d", got)
	}
	if got := DecodeShamt(ci); got != 0 {
		t.Fatalf("shamt = %d", got)
	}
	if got := DecodeFunct(ci); got != FunctADD {
		t.Fatalf("funct = %#x", got)
	}
}

func TestPackIRoundTrip(t *testing.T) {
	tests := []struct {
		opcode uint32
		rs, rt uint32
		imm    int32
	}{
		{OpcodeADDI, 9, 8, 1000},
		{OpcodeADDI, 9, 8, -1},
		{OpcodeBEQ, 8, 0, 2},
		{OpcodeBNE, 8, 0, -3},
		{OpcodeLW, 29, 8, 0x7fff},
		{OpcodeSW, 29, 8, -0x8000},
	}
	for _, test := range tests {
		ci := PackI(test.opcode, test.rs, test.rt, uint32(test.imm)&0xffff)
		if got := DecodeOpcode(ci); got != test.opcode {
			t.Fatalf("opcode = %#x, want %#x", got, test.opcode)
		}
		if got := DecodeRS(ci); got != test.rs {
			t.Fatalf("rs = %d, want %d", got, test.rs)
		}
		if got := DecodeRT(ci); got != test.rt {
			t.Fatalf("rt = %d, want %d", got, test.rt)
		}
		if got := int32(DecodeImm16(ci)); got != test.imm {
			t.Fatalf("imm = %d, want %d", got, test.imm)
		}
	}
}

func TestPackJRoundTrip(t *testing.T) {
	ci := PackJ(OpcodeJAL, 0x00123456)
	if got := DecodeOpcode(ci); got != OpcodeJAL {
		t.Fatalf("opcode = %#x", got)
	}
	if got := DecodeTarget26(ci); got != 0x00123456 {
		t.Fatalf("target = %#x", got)
	}
}

func TestSignExtend16(t *testing.T) {
	tests := []struct {
		in, out uint32
	}{
		{0x0000, 0x0000_0000},
		{0x0001, 0x0000_0001},
		{0x7fff, 0x0000_7fff},
		{0x8000, 0xffff_8000},
		{0xffff, 0xffff_ffff},
	}
	for _, test := range tests {
		if got := SignExtend16(test.in); got != test.out {
			t.Fatalf("SignExtend16(%#x) = %#x, want %#x", test.in, got, test.out)
		}
	}
}

func TestFormatBinary(t *testing.T) {
	tests := []struct {
		value uint32
		width int
		want  string
	}{
		{3, 5, "00011"},
		{0, 1, "0"},
		{1, 1, "1"},
		{0xffff, 16, "1111111111111111"},
		{uint32(-2 & 0xffff), 16, "1111111111111110"},
		{0x012a_4020, 32, "00000001001010100100000000100000"},
	}
	for _, test := range tests {
		if got := FormatBinary(test.value, test.width); got != test.want {
			t.Fatalf("FormatBinary(%#x, %d) = %q, want %q",
				test.value, test.width, got, test.want)
		}
	}
}

func TestFormatBinaryPanicsOnBadWidth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	FormatBinary(0, 33)
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		ci   uint32
		want string
	}{
		{PackR(OpcodeRType, 9, 10, 8, 0, FunctADD), "add $t0, $t1, $t2"},
		{PackR(OpcodeRType, 9, 10, 8, 0, FunctSLT), "slt $t0, $t1, $t2"},
		{PackI(OpcodeADDI, 0, 8, 5), "addi $t0, $zero, 5"},
		{PackI(OpcodeBNE, 8, 0, uint32(-3 & 0xffff)), "bne $t0, $zero, -3"},
		{PackI(OpcodeLW, 29, 8, 16), "lw $t0, 16($sp)"},
		{PackJ(OpcodeJ, 0x1000 >> 2), "j 0x1000"},
	}
	for _, test := range tests {
		if got := Disassemble(test.ci); got != test.want {
			t.Fatalf("Disassemble(%#08x) = %q, want %q", test.ci, got, test.want)
		}
	}
}

func TestDisassembleUnknown(t *testing.T) {
	// opcode 0x3f is not part of the subset
	if got := Disassemble(0xfc00_0000); got != "<unknown instruction: 0xfc000000>" {
		t.Fatalf("got %q", got)
	}
}
