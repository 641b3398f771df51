// Package asm contains the two-pass MIPS assembler.
//
// Pass 1 scans the input once, tracking the program counter and
// recording every label definition in a LabelTable. Pass 2 rescans the
// same input and encodes each instruction into a 32-bit word, resolving
// address operands through the completed table. Forward references are
// therefore free: by the time pass 2 runs, every label is known.
//
// See the documentation of the mips package for the instruction set
// and the encoding formats.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/twopass/mips32/pkg/mips"
)

// Reporter receives one diagnostic per recoverable per-line condition.
// The line number refers to the input, starting from 1. A nil Reporter
// discards diagnostics.
type Reporter func(line int, err error)

func notify(report Reporter, line int, err error) {
	if report != nil {
		report(line, err)
	}
}

// InstructionOrError contains either an assembled instruction or the
// error that occurred while assembling the corresponding source line.
type InstructionOrError struct {
	Instruction uint32
	Err         error
	Lineno      int
}

// Binary renders the instruction as 32 '0'/'1' characters, most
// significant bit first, or returns the error.
func (ioe InstructionOrError) Binary() (string, error) {
	if ioe.Err != nil {
		return "", ioe.Err
	}
	return mips.FormatBinary(ioe.Instruction, 32), nil
}

// Pass1 scans the input and builds the label table. A label definition
// is a first token ending with a colon; its address is the current
// program counter. Every instruction-bearing line advances the counter
// by the instruction width; blank and comment-only lines do not.
// Duplicate definitions are reported through report and skipped.
func Pass1(r io.Reader, report Reporter) (*LabelTable, error) {
	table := NewLabelTable()
	scanner := bufio.NewScanner(r)
	var pc uint32
	var line int
	for scanner.Scan() {
		line++
		tokens := tokenize(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		if name, ok := labelName(tokens[0]); ok {
			if err := table.Add(name, pc); err != nil {
				if Fatal(err) {
					return nil, err
				}
				notify(report, line, fmt.Errorf("%w on line %d", err, line))
			}
			tokens = tokens[1:]
		}
		if len(tokens) > 0 {
			pc += mips.InstructionWidth
		}
	}
	return table, scanner.Err()
}

// encodeAll drives pass 2: it rescans the input with the same program
// counter rule as pass 1 and hands each instruction-bearing line to
// emit, either as an encoded word or as a per-line error.
func encodeAll(r io.Reader, table *LabelTable, emit func(line int, word uint32, err error)) error {
	if table == nil {
		return ErrNoTable
	}
	scanner := bufio.NewScanner(r)
	var pc uint32
	var line int
	for scanner.Scan() {
		line++
		word, err := encodeLine(scanner.Text(), line, pc, table)
		if errors.Is(err, errSkipLine) {
			continue
		}
		pc += mips.InstructionWidth
		emit(line, word, err)
	}
	return scanner.Err()
}

// Pass2 rescans the input and writes one encoded instruction per line
// to out, in source order, as fixed-width '0'/'1' text. Lines that fail
// to encode are reported through report and produce no output line.
// The table is read-only during this pass.
func Pass2(r io.Reader, table *LabelTable, out io.Writer, report Reporter) error {
	var werr error
	err := encodeAll(r, table, func(line int, word uint32, err error) {
		if err != nil {
			notify(report, line, err)
			return
		}
		if werr == nil {
			_, werr = fmt.Fprintln(out, mips.FormatBinary(word, 32))
		}
	})
	if err != nil {
		return err
	}
	return werr
}

// Assemble runs the whole session: pass 1, rewind, pass 2. It returns
// the completed label table so the caller can inspect it. Recoverable
// per-line conditions go to report; only fatal conditions (a missing
// table, I/O failure) are returned.
func Assemble(rs io.ReadSeeker, out io.Writer, report Reporter) (*LabelTable, error) {
	table, err := Pass1(rs, report)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return table, Pass2(rs, table, out, report)
}

// StartAssembler starts the assembler in a background goroutine and
// returns a sequence of InstructionOrError, one per instruction line,
// in source order. Recoverable errors appear inline in the sequence.
func StartAssembler(rs io.ReadSeeker) <-chan InstructionOrError {
	out := make(chan InstructionOrError)
	go AssemblerAsync(rs, out)
	return out
}

// AssemblerAsync runs the assembler. It reads the input twice, seeking
// back to the start between the passes, and writes InstructionOrError
// on the output channel.
func AssemblerAsync(rs io.ReadSeeker, out chan<- InstructionOrError) {
	defer close(out)
	table, err := Pass1(rs, func(line int, err error) {
		out <- InstructionOrError{Err: err, Lineno: line}
	})
	if err != nil {
		out <- InstructionOrError{Err: err}
		return
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		out <- InstructionOrError{Err: err}
		return
	}
	err = encodeAll(rs, table, func(line int, word uint32, err error) {
		out <- InstructionOrError{Instruction: word, Err: err, Lineno: line}
	})
	if err != nil {
		out <- InstructionOrError{Err: err}
	}
}
