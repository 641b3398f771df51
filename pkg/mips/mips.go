// Package mips defines the subset of the MIPS-I instruction set shared
// by the assembler and the VM: instruction formats, opcode and function
// code tables, the register alias table, and the bit-level packing and
// unpacking of 32-bit instruction words.
//
// Instruction formats
//
// Each instruction is 32 bits wide. We have three instruction formats,
// with the most significant field first:
//
// 1. register format (R):
//
//     <Opcode:6><RS:5><RT:5><RD:5><Shamt:5><Funct:6>
//
// 2. immediate format (I):
//
//     <Opcode:6><RS:5><RT:5><Immediate:16>
//
// The immediate is a signed 16-bit two's complement value. For branch
// instructions it is a word displacement relative to the instruction
// that follows the branch.
//
// 3. jump format (J):
//
//     <Opcode:6><Target:26>
//
// The target is the word-aligned absolute address of the destination
// shifted right by two bits.
package mips

import "fmt"

// InstructionWidth is the width of one encoded instruction in bytes.
const InstructionWidth = 4

// Format is the encoding format of an instruction.
type Format int

// The three instruction formats.
const (
	FormatR = Format(iota)
	FormatI
	FormatJ
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatJ:
		return "J"
	default:
		return "?"
	}
}

// The following constants define the opcode field values. Register
// format instructions all share OpcodeRType and are distinguished by
// their function code.
const (
	OpcodeRType = uint32(0x00)
	OpcodeJ     = uint32(0x02)
	OpcodeJAL   = uint32(0x03)
	OpcodeBEQ   = uint32(0x04)
	OpcodeBNE   = uint32(0x05)
	OpcodeADDI  = uint32(0x08)
	OpcodeADDIU = uint32(0x09)
	OpcodeSLTI  = uint32(0x0a)
	OpcodeANDI  = uint32(0x0c)
	OpcodeORI   = uint32(0x0d)
	OpcodeLW    = uint32(0x23)
	OpcodeSW    = uint32(0x2b)
)

// The following constants define the function code values used by
// register format instructions.
const (
	FunctADD  = uint32(0x20)
	FunctADDU = uint32(0x21)
	FunctSUB  = uint32(0x22)
	FunctSUBU = uint32(0x23)
	FunctAND  = uint32(0x24)
	FunctOR   = uint32(0x25)
	FunctXOR  = uint32(0x26)
	FunctNOR  = uint32(0x27)
	FunctSLT  = uint32(0x2a)
	FunctSLTU = uint32(0x2b)
)

// InstructionInfo describes how a mnemonic is encoded. For register
// format instructions Code is the function code and the opcode field is
// OpcodeRType; otherwise Code is the opcode field itself.
type InstructionInfo struct {
	Format    Format
	Code      uint32
	Branch    bool // PC-relative immediate (beq, bne)
	LoadStore bool // accepts the imm($reg) operand form (lw, sw)
}

var instructionSet = map[string]InstructionInfo{
	"add":  {Format: FormatR, Code: FunctADD},
	"addu": {Format: FormatR, Code: FunctADDU},
	"sub":  {Format: FormatR, Code: FunctSUB},
	"subu": {Format: FormatR, Code: FunctSUBU},
	"and":  {Format: FormatR, Code: FunctAND},
	"or":   {Format: FormatR, Code: FunctOR},
	"xor":  {Format: FormatR, Code: FunctXOR},
	"nor":  {Format: FormatR, Code: FunctNOR},
	"slt":  {Format: FormatR, Code: FunctSLT},
	"sltu": {Format: FormatR, Code: FunctSLTU},

	"addi":  {Format: FormatI, Code: OpcodeADDI},
	"addiu": {Format: FormatI, Code: OpcodeADDIU},
	"andi":  {Format: FormatI, Code: OpcodeANDI},
	"ori":   {Format: FormatI, Code: OpcodeORI},
	"slti":  {Format: FormatI, Code: OpcodeSLTI},
	"beq":   {Format: FormatI, Code: OpcodeBEQ, Branch: true},
	"bne":   {Format: FormatI, Code: OpcodeBNE, Branch: true},
	"lw":    {Format: FormatI, Code: OpcodeLW, LoadStore: true},
	"sw":    {Format: FormatI, Code: OpcodeSW, LoadStore: true},

	"j":   {Format: FormatJ, Code: OpcodeJ},
	"jal": {Format: FormatJ, Code: OpcodeJAL},
}

// LookupInstruction maps a mnemonic to its encoding description. The
// lookup is case sensitive; mnemonics are lower case.
func LookupInstruction(mnemonic string) (InstructionInfo, bool) {
	info, found := instructionSet[mnemonic]
	return info, found
}

// registerNames maps the conventional register aliases to their 5-bit
// indexes as defined by the MIPS calling convention.
var registerNames = map[string]uint32{
	"$zero": 0, "$at": 1,
	"$v0": 2, "$v1": 3,
	"$a0": 4, "$a1": 5, "$a2": 6, "$a3": 7,
	"$t0": 8, "$t1": 9, "$t2": 10, "$t3": 11,
	"$t4": 12, "$t5": 13, "$t6": 14, "$t7": 15,
	"$s0": 16, "$s1": 17, "$s2": 18, "$s3": 19,
	"$s4": 20, "$s5": 21, "$s6": 22, "$s7": 23,
	"$t8": 24, "$t9": 25,
	"$k0": 26, "$k1": 27,
	"$gp": 28, "$sp": 29, "$fp": 30, "$ra": 31,
}

// canonicalNames is the reverse of registerNames, used by Disassemble.
var canonicalNames = [32]string{
	"$zero", "$at", "$v0", "$v1", "$a0", "$a1", "$a2", "$a3",
	"$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7",
	"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
	"$t8", "$t9", "$k0", "$k1", "$gp", "$sp", "$fp", "$ra",
}

// LookupRegister maps a register token to its 5-bit index. Both the
// conventional aliases ($t0, $sp, ...) and the plain numeric form
// ($0 through $31) are accepted.
func LookupRegister(token string) (uint32, bool) {
	if idx, found := registerNames[token]; found {
		return idx, true
	}
	if len(token) < 2 || len(token) > 3 || token[0] != '$' {
		return 0, false
	}
	var idx uint32
	for _, c := range token[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		idx = idx*10 + uint32(c-'0')
	}
	if idx > 31 {
		return 0, false
	}
	return idx, true
}

// RegisterName returns the conventional alias for a register index.
func RegisterName(idx uint32) string {
	return canonicalNames[idx&0b1_1111]
}

// PackR packs a register format instruction.
func PackR(opcode, rs, rt, rd, shamt, funct uint32) uint32 {
	var out uint32
	out |= (opcode & 0b11_1111) << 26
	out |= (rs & 0b1_1111) << 21
	out |= (rt & 0b1_1111) << 16
	out |= (rd & 0b1_1111) << 11
	out |= (shamt & 0b1_1111) << 6
	out |= funct & 0b11_1111
	return out
}

// PackI packs an immediate format instruction. The immediate must
// already be reduced to its 16-bit two's complement bit pattern.
func PackI(opcode, rs, rt, imm uint32) uint32 {
	var out uint32
	out |= (opcode & 0b11_1111) << 26
	out |= (rs & 0b1_1111) << 21
	out |= (rt & 0b1_1111) << 16
	out |= imm & 0xffff
	return out
}

// PackJ packs a jump format instruction. The target is the destination
// byte address already shifted right by two.
func PackJ(opcode, target uint32) uint32 {
	var out uint32
	out |= (opcode & 0b11_1111) << 26
	out |= target & 0x03ff_ffff
	return out
}

// DecodeOpcode decodes the opcode field of an instruction.
func DecodeOpcode(ci uint32) uint32 {
	return (ci >> 26) & 0b11_1111
}

// DecodeRS decodes the first source register of an instruction.
func DecodeRS(ci uint32) uint32 {
	return (ci >> 21) & 0b1_1111
}

// DecodeRT decodes the second source register of an instruction.
func DecodeRT(ci uint32) uint32 {
	return (ci >> 16) & 0b1_1111
}

// DecodeRD decodes the destination register of a register format
// instruction.
func DecodeRD(ci uint32) uint32 {
	return (ci >> 11) & 0b1_1111
}

// DecodeShamt decodes the shift amount field of a register format
// instruction.
func DecodeShamt(ci uint32) uint32 {
	return (ci >> 6) & 0b1_1111
}

// DecodeFunct decodes the function code of a register format
// instruction.
func DecodeFunct(ci uint32) uint32 {
	return ci & 0b11_1111
}

// DecodeImm16 decodes the sign-extended 16-bit immediate.
func DecodeImm16(ci uint32) uint32 {
	return SignExtend16(ci & 0xffff)
}

// DecodeTarget26 decodes the 26-bit jump target field.
func DecodeTarget26(ci uint32) uint32 {
	return ci & 0x03ff_ffff
}

// Decode decodes an instruction.
func Decode(ci uint32) (opcode, rs, rt, rd, shamt, funct, imm16, target26 uint32) {
	return DecodeOpcode(ci), DecodeRS(ci), DecodeRT(ci), DecodeRD(ci),
		DecodeShamt(ci), DecodeFunct(ci), DecodeImm16(ci), DecodeTarget26(ci)
}

// SignExtend16 extends the sign of a 16-bit two's complement value to
// the full 32-bit word.
func SignExtend16(v uint32) uint32 {
	if (v & 0x8000) != 0 {
		v |= 0xffff_0000
	}
	return v
}

// FormatBinary renders the low width bits of value as a fixed-length
// string of '0' and '1' characters, most significant bit first. E.g.,
// FormatBinary(3, 5) returns "00011". Negative values must already have
// been reduced to their two's complement bit pattern.
func FormatBinary(value uint32, width int) string {
	if width < 1 || width > 32 {
		panic("width value out of range")
	}
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = '0' + byte(value&1)
		value >>= 1
	}
	return string(buf)
}

// funcNames maps function codes back to their mnemonics.
var funcNames = map[uint32]string{
	FunctADD: "add", FunctADDU: "addu", FunctSUB: "sub", FunctSUBU: "subu",
	FunctAND: "and", FunctOR: "or", FunctXOR: "xor", FunctNOR: "nor",
	FunctSLT: "slt", FunctSLTU: "sltu",
}

// opNames maps non-R opcodes back to their mnemonics.
var opNames = map[uint32]string{
	OpcodeADDI: "addi", OpcodeADDIU: "addiu", OpcodeANDI: "andi",
	OpcodeORI: "ori", OpcodeSLTI: "slti", OpcodeBEQ: "beq",
	OpcodeBNE: "bne", OpcodeLW: "lw", OpcodeSW: "sw",
	OpcodeJ: "j", OpcodeJAL: "jal",
}

// Disassemble disassembles a single instruction and returns valid
// assembly code implementing such instruction.
func Disassemble(ci uint32) string {
	opcode, rs, rt, rd, shamt, funct, imm16, target26 := Decode(ci)
	switch opcode {
	case OpcodeRType:
		name, found := funcNames[funct]
		if !found {
			return fmt.Sprintf("<unknown instruction: %#08x>", ci)
		}
		if shamt != 0 {
			return fmt.Sprintf("%s %s, %s, %s, %d", name,
				RegisterName(rd), RegisterName(rs), RegisterName(rt), shamt)
		}
		return fmt.Sprintf("%s %s, %s, %s", name,
			RegisterName(rd), RegisterName(rs), RegisterName(rt))
	case OpcodeJ, OpcodeJAL:
		return fmt.Sprintf("%s 0x%x", opNames[opcode], target26<<2)
	case OpcodeLW, OpcodeSW:
		return fmt.Sprintf("%s %s, %d(%s)", opNames[opcode],
			RegisterName(rt), int32(imm16), RegisterName(rs))
	case OpcodeBEQ, OpcodeBNE:
		return fmt.Sprintf("%s %s, %s, %d", opNames[opcode],
			RegisterName(rs), RegisterName(rt), int32(imm16))
	default:
		name, found := opNames[opcode]
		if !found {
			return fmt.Sprintf("<unknown instruction: %#08x>", ci)
		}
		return fmt.Sprintf("%s %s, %s, %d", name,
			RegisterName(rt), RegisterName(rs), int32(imm16))
	}
}
