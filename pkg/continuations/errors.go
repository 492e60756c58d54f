package continuations

import (
	"errors"
	"fmt"

	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

// Sentinel errors the driver raises. Use errors.Is against these; the
// concrete *ProgramValidationError / *OracleDivergenceError carry the
// diagnostic detail and wrap the matching sentinel via Unwrap.
var (
	// ErrProgramValidation is raised by SanityCheck when the Main machine
	// is missing bootloader-specific instructions or its register set
	// does not match RegisterNames.
	ErrProgramValidation = errors.New("continuations: program validation failed")

	// ErrOracleDivergence is raised by Driver.Run when a chunk's
	// re-executed trace disagrees with the full-trace oracle.
	ErrOracleDivergence = errors.New("continuations: chunk trace diverges from full trace")

	// ErrMissingFirstRow is raised when a trace never reaches the
	// bootloader's expected program counter value.
	ErrMissingFirstRow = errors.New("continuations: trace never reaches the expected program counter")
)

// ProgramValidationError reports why SanityCheck failed: either one or more
// missing bootloader instructions, or a register-set mismatch. For a
// mismatch the fields hold both full sets (sorted) and Error() reports their
// symmetric difference.
type ProgramValidationError struct {
	MissingInstructions []string
	ExpectedRegisters   []string
	ActualRegisters     []string
}

func (e *ProgramValidationError) Error() string {
	if len(e.MissingInstructions) > 0 {
		return fmt.Sprintf(
			"continuations: Main machine is missing bootloader-specific instructions %v (did you set with_bootloader = true?)",
			e.MissingInstructions,
		)
	}
	expected := newStringSet(e.ExpectedRegisters)
	actual := newStringSet(e.ActualRegisters)
	var missing, unexpected []string
	for _, name := range e.ExpectedRegisters {
		if !actual.has(name) {
			missing = append(missing, name)
		}
	}
	for _, name := range e.ActualRegisters {
		if !expected.has(name) {
			unexpected = append(unexpected, name)
		}
	}
	return fmt.Sprintf(
		"continuations: Main machine register set does not match expected: missing %v, unexpected %v",
		missing, unexpected,
	)
}

func (e *ProgramValidationError) Unwrap() error { return ErrProgramValidation }

// OracleDivergenceError reports the exact point a chunk's re-executed trace
// first disagreed with the full-trace oracle.
type OracleDivergenceError struct {
	Register   string
	ChunkRow   int
	FullRow    int
	ChunkValue zkfield.Element
	FullValue  zkfield.Element
}

func (e *OracleDivergenceError) Error() string {
	return fmt.Sprintf(
		"continuations: chunk trace differs from full trace at register %s: chunk row %d (%v) != full-trace row %d (%v)",
		e.Register, e.ChunkRow, e.ChunkValue, e.FullRow, e.FullValue,
	)
}

func (e *OracleDivergenceError) Unwrap() error { return ErrOracleDivergence }
