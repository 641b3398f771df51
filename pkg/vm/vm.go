// Package vm contains a small MIPS virtual machine.
//
// The VM executes the instruction subset produced by the asm package;
// see the documentation of the mips package for the instruction set and
// the encoding formats. There are no branch delay slots: branches and
// jumps take effect immediately.
//
// Bytecode format
//
// Instructions are serialized one per line, each either a fixed-width
// string of 32 '0'/'1' characters (the assembler's native output) or a
// number with a 0x prefix. An optional comment may follow a '#'. For
// example:
//
//     00000001001010100100000000100000   # add $t0, $t1, $t2
//
// Program text is loaded starting at address 0. Fetching past the end
// of the loaded program halts the processor, so a program that simply
// runs off its last instruction terminates cleanly.
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/twopass/mips32/pkg/mips"
)

// MemorySize is the memory size in 32-bit-wide words. Addresses are
// byte addresses and must be word aligned.
const MemorySize = 1 << 20

// NumRegisters is the number of general purpose registers. Register 0
// is always zero and its value cannot be changed.
const NumRegisters = 32

// VM is a virtual machine instance. The virtual machine is not
// goroutine safe; a single goroutine should manage it.
type VM struct {
	GPR    [NumRegisters]uint32 // general purpose registers
	M      [MemorySize]uint32   // memory
	PC     uint32               // program counter, a byte address
	Loaded uint32               // byte length of the loaded program
}

// The following errors may be returned.
var (
	// ErrHalted indicates that the VM has run off the loaded program.
	ErrHalted = errors.New("vm: halted")

	// ErrSIGSEGV indicates an out of bounds or unaligned access.
	ErrSIGSEGV = errors.New("vm: segmentation fault")

	// ErrUnknownInstruction indicates an instruction the VM cannot decode.
	ErrUnknownInstruction = errors.New("vm: unknown instruction")
)

// Memory accesses the word at the given byte address.
func (vm *VM) Memory(addr uint32) (*uint32, error) {
	if addr%mips.InstructionWidth != 0 {
		return nil, fmt.Errorf("%w: unaligned address %#x", ErrSIGSEGV, addr)
	}
	off := addr / mips.InstructionWidth
	if off >= MemorySize {
		return nil, fmt.Errorf("%w: address %#x above physical memory", ErrSIGSEGV, addr)
	}
	return &vm.M[off], nil
}

// Fetch fetches the next instruction, returns it, and advances the
// vm.PC program counter past it.
func (vm *VM) Fetch() (uint32, error) {
	if vm.PC >= vm.Loaded {
		return 0, ErrHalted
	}
	ci, err := vm.Memory(vm.PC)
	if err != nil {
		return 0, err
	}
	vm.PC += mips.InstructionWidth
	return *ci, nil
}

// String generates a string representation of the VM state.
func (vm *VM) String() string {
	return fmt.Sprintf("{PC:%d GPR:%+v}", vm.PC, vm.GPR)
}

// Execute executes the current instruction ci, fetched by Fetch. This
// function returns an error when a fault has occurred. Arithmetic
// overflow does not trap: add/addi behave like their unsigned variants.
func (vm *VM) Execute(ci uint32) error {
	opcode, rs, rt, rd, _, funct, imm16, target26 := mips.Decode(ci)
	// guarantee that $zero stays zero
	defer func() {
		vm.GPR[0] = 0
	}()
	switch opcode {
	case mips.OpcodeRType:
		switch funct {
		case mips.FunctADD, mips.FunctADDU:
			vm.GPR[rd] = vm.GPR[rs] + vm.GPR[rt]
		case mips.FunctSUB, mips.FunctSUBU:
			vm.GPR[rd] = vm.GPR[rs] - vm.GPR[rt]
		case mips.FunctAND:
			vm.GPR[rd] = vm.GPR[rs] & vm.GPR[rt]
		case mips.FunctOR:
			vm.GPR[rd] = vm.GPR[rs] | vm.GPR[rt]
		case mips.FunctXOR:
			vm.GPR[rd] = vm.GPR[rs] ^ vm.GPR[rt]
		case mips.FunctNOR:
			vm.GPR[rd] = ^(vm.GPR[rs] | vm.GPR[rt])
		case mips.FunctSLT:
			vm.GPR[rd] = 0
			if int32(vm.GPR[rs]) < int32(vm.GPR[rt]) {
				vm.GPR[rd] = 1
			}
		case mips.FunctSLTU:
			vm.GPR[rd] = 0
			if vm.GPR[rs] < vm.GPR[rt] {
				vm.GPR[rd] = 1
			}
		default:
			return fmt.Errorf("%w: %#08x", ErrUnknownInstruction, ci)
		}
	case mips.OpcodeADDI, mips.OpcodeADDIU:
		vm.GPR[rt] = vm.GPR[rs] + imm16
	case mips.OpcodeANDI:
		vm.GPR[rt] = vm.GPR[rs] & (ci & 0xffff)
	case mips.OpcodeORI:
		vm.GPR[rt] = vm.GPR[rs] | (ci & 0xffff)
	case mips.OpcodeSLTI:
		vm.GPR[rt] = 0
		if int32(vm.GPR[rs]) < int32(imm16) {
			vm.GPR[rt] = 1
		}
	case mips.OpcodeBEQ:
		if vm.GPR[rs] == vm.GPR[rt] {
			vm.PC += imm16 << 2
		}
	case mips.OpcodeBNE:
		if vm.GPR[rs] != vm.GPR[rt] {
			vm.PC += imm16 << 2
		}
	case mips.OpcodeLW, mips.OpcodeSW:
		mptr, err := vm.Memory(vm.GPR[rs] + imm16)
		if err != nil {
			return err
		}
		if opcode == mips.OpcodeSW {
			*mptr = vm.GPR[rt]
		} else {
			vm.GPR[rt] = *mptr
		}
	case mips.OpcodeJ:
		vm.PC = target26 << 2
	case mips.OpcodeJAL:
		vm.GPR[31] = vm.PC
		vm.PC = target26 << 2
	default:
		return fmt.Errorf("%w: %#08x", ErrUnknownInstruction, ci)
	}
	return nil
}

// binaryWord matches the assembler's native output line.
func binaryWord(line string) bool {
	return len(line) == 32 && strings.Trim(line, "01") == ""
}

// LoadBytecode loads bytecode from the specified io.Reader and returns
// a virtual machine instance for running such bytecode.
func LoadBytecode(r io.Reader) (*VM, error) {
	vm := new(VM)
	scanner := bufio.NewScanner(r)
	var addr uint32
	for scanner.Scan() {
		line := scanner.Text()
		if index := strings.Index(line, "#"); index >= 0 {
			line = line[:index]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var value uint64
		var err error
		if binaryWord(line) {
			value, err = strconv.ParseUint(line, 2, 32)
		} else {
			value, err = strconv.ParseUint(line, 0, 32)
		}
		if err != nil {
			return nil, err
		}
		vm.M[addr] = uint32(value)
		addr++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	vm.Loaded = addr * mips.InstructionWidth
	return vm, nil
}
