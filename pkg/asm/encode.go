package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/twopass/mips32/pkg/mips"
)

// errSkipLine signals that a line carries no instruction (blank,
// comment-only, or label-only) and produces no output word.
var errSkipLine = errors.New("asm: no instruction on this line")

// tokenize strips the trailing comment and splits a source line into
// tokens delimited by whitespace and commas.
func tokenize(line string) []string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// labelName returns the label defined by the first token of a line, if
// any. A definition is a token ending with a colon.
func labelName(token string) (string, bool) {
	if len(token) > 1 && strings.HasSuffix(token, ":") {
		return strings.TrimSuffix(token, ":"), true
	}
	return "", false
}

// resolveRegister maps a register token to its 5-bit index.
func resolveRegister(token string, line int) (uint32, error) {
	idx, found := mips.LookupRegister(token)
	if !found {
		return 0, fmt.Errorf("%w %q on line %d", ErrUnknownRegister, token, line)
	}
	return idx, nil
}

// resolveLiteral resolves a token that is either a numeric literal or
// a label name into its value.
func resolveLiteral(token string, table *LabelTable, line int) (int64, error) {
	value, err := strconv.ParseInt(token, 0, 64)
	if err == nil {
		return value, nil
	}
	addr, found := table.Find(token)
	if !found {
		return 0, fmt.Errorf("%w %q on line %d", ErrUnresolvedLabel, token, line)
	}
	return int64(addr), nil
}

// castImm16 validates that a literal fits the 16-bit immediate field
// and reduces it to its two's complement bit pattern. Both signed and
// unsigned 16-bit interpretations are accepted, matching what the field
// can represent.
func castImm16(value int64, line int) (uint32, error) {
	if value < -0x8000 || value > 0xffff {
		return 0, fmt.Errorf("%w: %d does not fit 16 bits on line %d",
			ErrOutOfRange, value, line)
	}
	return uint32(value) & 0xffff, nil
}

// castDisp16 validates a branch displacement, which is always signed.
func castDisp16(value int64, line int) (uint32, error) {
	if value < -0x8000 || value > 0x7fff {
		return 0, fmt.Errorf("%w: displacement %d does not fit 16 bits on line %d",
			ErrOutOfRange, value, line)
	}
	return uint32(value) & 0xffff, nil
}

// encodeRegister encodes a register format instruction. The operand
// order is destination, source, source2, plus an optional shift amount
// that defaults to zero.
func encodeRegister(info mips.InstructionInfo, operands []string, line int) (uint32, error) {
	if len(operands) != 3 && len(operands) != 4 {
		return 0, fmt.Errorf("%w: want 3 registers on line %d", ErrBadOperands, line)
	}
	rd, err := resolveRegister(operands[0], line)
	if err != nil {
		return 0, err
	}
	rs, err := resolveRegister(operands[1], line)
	if err != nil {
		return 0, err
	}
	rt, err := resolveRegister(operands[2], line)
	if err != nil {
		return 0, err
	}
	var shamt uint32
	if len(operands) == 4 {
		value, err := strconv.ParseInt(operands[3], 0, 64)
		if err != nil || value < 0 || value > 31 {
			return 0, fmt.Errorf("%w: shift amount %q on line %d",
				ErrOutOfRange, operands[3], line)
		}
		shamt = uint32(value)
	}
	return mips.PackR(mips.OpcodeRType, rs, rt, rd, shamt, info.Code), nil
}

// splitMemOperand splits the conventional imm($reg) load/store operand
// form into its displacement and base register parts.
func splitMemOperand(operand string) (string, string, bool) {
	open := strings.IndexByte(operand, '(')
	close := strings.IndexByte(operand, ')')
	if open < 0 || close <= open {
		return "", "", false
	}
	return operand[:open], operand[open+1 : close], true
}

// encodeImmediate encodes an immediate format instruction. Branches
// resolve their label operand to a signed word displacement relative to
// the instruction after the branch; everything else takes the literal
// (or label address) directly.
func encodeImmediate(info mips.InstructionInfo, operands []string, line int,
	pc uint32, table *LabelTable) (uint32, error) {
	if info.LoadStore && len(operands) == 2 {
		// lw $rt, imm($rs)
		literal, base, ok := splitMemOperand(operands[1])
		if !ok {
			return 0, fmt.Errorf("%w: want imm($reg) on line %d", ErrBadOperands, line)
		}
		if literal == "" {
			literal = "0"
		}
		operands = []string{operands[0], base, literal}
	}
	if len(operands) != 3 {
		return 0, fmt.Errorf("%w: want 2 registers and an immediate on line %d",
			ErrBadOperands, line)
	}
	if info.Branch {
		// beq $rs, $rt, label
		rs, err := resolveRegister(operands[0], line)
		if err != nil {
			return 0, err
		}
		rt, err := resolveRegister(operands[1], line)
		if err != nil {
			return 0, err
		}
		displacement, err := strconv.ParseInt(operands[2], 0, 64)
		if err != nil {
			target, found := table.Find(operands[2])
			if !found {
				return 0, fmt.Errorf("%w %q on line %d",
					ErrUnresolvedLabel, operands[2], line)
			}
			displacement = (int64(target) - int64(pc+mips.InstructionWidth)) /
				mips.InstructionWidth
		}
		imm, err := castDisp16(displacement, line)
		if err != nil {
			return 0, err
		}
		return mips.PackI(info.Code, rs, rt, imm), nil
	}
	// addi $rt, $rs, imm
	rt, err := resolveRegister(operands[0], line)
	if err != nil {
		return 0, err
	}
	rs, err := resolveRegister(operands[1], line)
	if err != nil {
		return 0, err
	}
	value, err := resolveLiteral(operands[2], table, line)
	if err != nil {
		return 0, err
	}
	imm, err := castImm16(value, line)
	if err != nil {
		return 0, err
	}
	return mips.PackI(info.Code, rs, rt, imm), nil
}

// encodeJump encodes a jump format instruction. The single operand is a
// label (or an absolute byte address); the target field drops the low
// two bits of the word-aligned address.
func encodeJump(info mips.InstructionInfo, operands []string, line int,
	table *LabelTable) (uint32, error) {
	if len(operands) != 1 {
		return 0, fmt.Errorf("%w: want a single target on line %d", ErrBadOperands, line)
	}
	addr, err := resolveLiteral(operands[0], table, line)
	if err != nil {
		return 0, err
	}
	if addr < 0 || addr >= (1<<28) {
		return 0, fmt.Errorf("%w: target address %d does not fit 26 bits on line %d",
			ErrOutOfRange, addr, line)
	}
	return mips.PackJ(info.Code, uint32(addr)>>2), nil
}

// encodeLine encodes the instruction on a single source line, if any.
// It returns errSkipLine for lines that carry no instruction.
func encodeLine(text string, line int, pc uint32, table *LabelTable) (uint32, error) {
	tokens := tokenize(text)
	if len(tokens) > 0 {
		if _, ok := labelName(tokens[0]); ok {
			tokens = tokens[1:]
		}
	}
	if len(tokens) == 0 {
		return 0, errSkipLine
	}
	info, found := mips.LookupInstruction(strings.ToLower(tokens[0]))
	if !found {
		return 0, fmt.Errorf("%w %q on line %d", ErrUnknownMnemonic, tokens[0], line)
	}
	operands := tokens[1:]
	switch info.Format {
	case mips.FormatR:
		return encodeRegister(info, operands, line)
	case mips.FormatI:
		return encodeImmediate(info, operands, line, pc, table)
	default:
		return encodeJump(info, operands, line, table)
	}
}
