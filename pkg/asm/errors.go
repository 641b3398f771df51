package asm

import "errors"

// The following errors may be returned by the assembler. ErrNoTable is
// fatal: the session cannot continue without a label table. All other
// errors are per-line conditions; the caller reports them and continues
// with the next line.
var (
	// ErrNoTable indicates that no label table exists.
	ErrNoTable = errors.New("asm: no label table exists")

	// ErrDuplicateLabel indicates that a label was defined twice. The
	// table keeps the first definition.
	ErrDuplicateLabel = errors.New("asm: duplicate label")

	// ErrUnknownMnemonic indicates a mnemonic outside the supported
	// instruction set.
	ErrUnknownMnemonic = errors.New("asm: unknown mnemonic")

	// ErrUnknownRegister indicates an unrecognized register token.
	ErrUnknownRegister = errors.New("asm: unknown register")

	// ErrUnresolvedLabel indicates a reference to a label that was
	// never defined.
	ErrUnresolvedLabel = errors.New("asm: unresolved label")

	// ErrOutOfRange indicates an immediate or displacement that does
	// not fit its instruction field.
	ErrOutOfRange = errors.New("asm: value out of range")

	// ErrBadOperands indicates a malformed operand list.
	ErrBadOperands = errors.New("asm: malformed operands")
)

// Fatal reports whether err aborts the whole assembly session rather
// than just the offending line.
func Fatal(err error) bool {
	return errors.Is(err, ErrNoTable)
}
