package continuations

import (
	"sort"

	"github.com/zkvmtools/continuations-go/pkg/bootloader"
)

// Program is the analyzed-program capability SanityCheck and the Chunking
// Driver depend on. It abstracts AnalysisASMFile/machine access: which
// instructions and registers the compiled Main machine exposes, and its
// declared machine degree (which fixes num_rows).
type Program interface {
	// MainInstructionNames lists every instruction the Main machine exposes.
	MainInstructionNames() []string
	// MainRegisterNames lists the Main machine's PC and writable,
	// non-x0 registers, qualified with "main.".
	MainRegisterNames() []string
	// Degree returns the Main machine's declared degree (a power of two
	// row count upper-bounding its constraint degree).
	Degree() uint64
}

// SanityCheck validates that program exposes every
// bootloader.BootloaderSpecificInstructionNames entry and that its
// qualified register set matches bootloader.RegisterNames exactly. It
// returns a *ProgramValidationError (wrapping ErrProgramValidation) on any
// mismatch rather than panicking.
func SanityCheck(program Program) error {
	instructions := newStringSet(program.MainInstructionNames())

	var missing []string
	for _, want := range bootloader.BootloaderSpecificInstructionNames {
		if !instructions.has(want) {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return &ProgramValidationError{MissingInstructions: missing}
	}

	actual := newStringSet(program.MainRegisterNames())
	expected := newStringSet(bootloader.RegisterNames)
	if !actual.equal(expected) {
		return &ProgramValidationError{
			ExpectedRegisters: expected.sorted(),
			ActualRegisters:   actual.sorted(),
		}
	}

	return nil
}

type stringSet map[string]struct{}

func newStringSet(names []string) stringSet {
	s := make(stringSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s stringSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s stringSet) equal(other stringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.has(name) {
			return false
		}
	}
	return true
}

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
