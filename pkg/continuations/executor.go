package continuations

import (
	"github.com/zkvmtools/continuations-go/pkg/bootloader"
	"github.com/zkvmtools/continuations-go/pkg/exectrace"
	"github.com/zkvmtools/continuations-go/pkg/pagemerkle"
	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

// Executor is the injected execution capability: re-architected from a
// single concrete executor into an interface so the Chunking Driver depends
// only on this contract, which in turn enables test doubles (an executor
// that returns a deliberately mutated trace to exercise oracle-divergence
// handling).
//
// inputs maps public-input channel index to its input vector (Driver.Run
// passes the caller's map through unchanged); bootInput is the chunk's assembled
// bootloader input; maxRows bounds the number of trace rows the executor
// may produce. Execute returns the row-oriented trace and the set of
// memory writes performed ("memory-snapshot update").
type Executor interface {
	Execute(program Program, inputs map[uint64][]zkfield.Element, bootInput bootloader.Input, maxRows int) (*exectrace.ExecutionTrace, []pagemerkle.AddressValue, error)
}

// unboundedRows stands in for "no row budget" (Rust's usize::MAX) in the
// full-trace reference run.
const unboundedRows = int(^uint(0) >> 1)

// RunFullTrace runs executor once end-to-end with the neutral bootloader
// input (no paged-in memory) to obtain the oracle register trace and the
// ordered memory-access log every chunk is validated against. The executor
// treats never-written memory as zero, so the produced register sequence
// is still the canonical one even though no real memory was paged in.
//
// It returns the transposed trace, the access log, and the row at which
// "real" execution begins (the first row whose main.pc equals
// bootloader.DefaultPC) — rows before it belong to an initial dispatch
// preamble and are not attributed to any chunk.
func RunFullTrace(executor Executor, program Program, inputs map[uint64][]zkfield.Element) (exectrace.ColumnTrace, []exectrace.MemoryAccess, int, error) {
	tree := newPageTree()
	neutralInput := bootloader.DefaultInput(tree)

	trace, _, err := executor.Execute(program, inputs, neutralInput, unboundedRows)
	if err != nil {
		return nil, nil, 0, err
	}

	cols := exectrace.Transpose(trace, "main.")
	pcCol := cols["main.pc"]
	defaultPC := zkfield.FromUint64(uint64(bootloader.DefaultPC))

	for i, v := range pcCol {
		if v.Equal(defaultPC) {
			return cols, trace.Mem, i, nil
		}
	}

	return nil, nil, 0, ErrMissingFirstRow
}
