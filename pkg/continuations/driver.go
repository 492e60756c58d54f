package continuations

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/zkvmtools/continuations-go/config"
	"github.com/zkvmtools/continuations-go/pkg/bootloader"
	"github.com/zkvmtools/continuations-go/pkg/exectrace"
	"github.com/zkvmtools/continuations-go/pkg/pagemerkle"
	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

func newPageTree() *pagemerkle.MerkleTree {
	return pagemerkle.New(
		config.MerkleDepth,
		config.PageWidthElements,
		bootloader.PageSizeBytesLog,
		pagemerkle.Poseidon2Hasher{PageWidth: config.PageWidthElements},
	)
}

// Driver is the Chunking Driver: the main loop that determines each chunk's
// accessed pages from the full-trace memory-access log, assembles its
// bootloader input, re-executes the chunk, validates it against the full
// trace, and hands off register/Merkle state to the next chunk.
//
// Its only mutable state across iterations is the page Merkle tree, the
// current register snapshot, the proven-trace row counter, and the
// chunk index — a pure, single-threaded, synchronous state machine.
type Driver struct {
	Executor Executor
	Program  Program

	// Log is the driver's logging facade. Informational progress — chunk
	// index, accessed-page count, rows proven — is emitted through it.
	// The zero value is zerolog.Nop(), so a Driver is usable without any
	// logging setup.
	Log zerolog.Logger
}

// NewDriver builds a Driver with logging disabled by default.
func NewDriver(executor Executor, program Program) *Driver {
	return &Driver{Executor: executor, Program: program, Log: zerolog.Nop()}
}

// Run validates the program, runs the full-trace reference oracle, and then
// drives the chunking loop to completion, returning the ordered sequence of
// per-chunk bootloader inputs. Any fatal condition (program validation,
// executor oracle divergence, a missing first execution row, or an executor
// error) aborts the driver and returns a non-nil error; there is no retry.
func (d *Driver) Run(inputs map[uint64][]zkfield.Element) ([]bootloader.Input, error) {
	if err := SanityCheck(d.Program); err != nil {
		return nil, err
	}

	d.Log.Info().Msg("initializing page merkle tree")
	tree := newPageTree()

	d.Log.Info().Msg("executing full-trace reference run")
	fullTrace, memAccesses, firstRow, err := RunFullTrace(d.Executor, d.Program, inputs)
	if err != nil {
		return nil, err
	}
	d.Log.Info().Int("first_real_execution_row", firstRow).Msg("located first real execution row")

	numRows := int(d.Program.Degree()) - 2
	registerValues := bootloader.DefaultRegisterValues()
	provenTrace := firstRow
	chunkIndex := 0
	var allBootloaderInputs []bootloader.Input

	for {
		d.Log.Info().Int("chunk_index", chunkIndex).Msg("running chunk")

		accessedPages := accessedPagesForChunk(memAccesses, provenTrace, numRows)
		d.Log.Debug().
			Int("chunk_index", chunkIndex).
			Int("accessed_pages", len(accessedPages)).
			Msg("derived accessed pages")

		bootInput := bootloader.Assemble(registerValues, tree, accessedPages)
		allBootloaderInputs = append(allBootloaderInputs, bootInput)

		chunkTrace, writes, err := d.Executor.Execute(d.Program, inputs, bootInput, numRows)
		if err != nil {
			return nil, fmt.Errorf("continuations: execute chunk %d: %w", chunkIndex, err)
		}
		chunkCols := exectrace.Transpose(chunkTrace, "main.")

		tree.Update(writes)

		pcCol := chunkCols["main.pc"]
		start, ok := findValue(pcCol, bootInput[bootloader.PCIndex])
		if !ok {
			return nil, fmt.Errorf("continuations: chunk %d: %w", chunkIndex, ErrMissingFirstRow)
		}
		d.Log.Debug().Int("chunk_index", chunkIndex).Int("bootloader_rows", start).Msg("bootloader prefix consumed")

		if err := validateChunk(chunkCols, fullTrace, start, provenTrace); err != nil {
			return nil, err
		}

		chunkLen := len(pcCol)
		if chunkLen < numRows {
			d.Log.Info().Int("chunk_index", chunkIndex).Msg("done")
			break
		}

		// Minus one: the last row of this chunk is repeated as the first
		// row of the next chunk, to preserve continuity.
		newRows := numRows - start - 1
		provenTrace += newRows
		d.Log.Info().Int("chunk_index", chunkIndex).Int("new_rows", newRows).Msg("proved rows")

		registerValues = lastRowRegisters(chunkCols)
		chunkIndex++
	}

	return allBootloaderInputs, nil
}

// accessedPagesForChunk binary-searches the (idx-sorted) memory-access log
// for the first entry at or after provenTrace, then scans forward while
// idx stays below provenTrace+numRows, collecting touched page indices into
// an ascending, deduplicated slice. This overapproximates the chunk's real
// page set — the in-chunk bootloader consumes some rows itself and shifts
// the true boundary earlier — but overapproximation is safe.
func accessedPagesForChunk(log []exectrace.MemoryAccess, provenTrace, numRows int) []pagemerkle.PageIndex {
	start := sort.Search(len(log), func(i int) bool { return log[i].Idx >= uint64(provenTrace) })

	seen := make(map[pagemerkle.PageIndex]struct{})
	limit := uint64(provenTrace + numRows)
	for _, access := range log[start:] {
		if access.Idx >= limit {
			break
		}
		seen[access.Address>>bootloader.PageSizeBytesLog] = struct{}{}
	}

	pages := make([]pagemerkle.PageIndex, 0, len(seen))
	for idx := range seen {
		pages = append(pages, idx)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i] < pages[j] })
	return pages
}

func findValue(col []zkfield.Element, want zkfield.Element) (int, bool) {
	for i, v := range col {
		if v.Equal(want) {
			return i, true
		}
	}
	return 0, false
}

// validateChunk asserts that, from row start onward, the chunk's trace
// agrees register-by-register with the full trace from row provenTrace
// onward. The first mismatch is reported as an *OracleDivergenceError.
func validateChunk(chunkCols, fullTrace exectrace.ColumnTrace, start, provenTrace int) error {
	chunkLen := len(chunkCols["main.pc"])

	for i := 0; i < chunkLen-start; i++ {
		chunkRow := start + i
		fullRow := provenTrace + i

		for _, reg := range bootloader.RegisterNames {
			chunkVal := chunkCols[reg][chunkRow]
			fullVal := fullTrace[reg][fullRow]
			if !chunkVal.Equal(fullVal) {
				return &OracleDivergenceError{
					Register:   reg,
					ChunkRow:   chunkRow,
					FullRow:    fullRow,
					ChunkValue: chunkVal,
					FullValue:  fullVal,
				}
			}
		}
	}

	return nil
}

func lastRowRegisters(cols exectrace.ColumnTrace) bootloader.RegisterSnapshot {
	snap := make(bootloader.RegisterSnapshot, len(bootloader.RegisterNames))
	for i, reg := range bootloader.RegisterNames {
		col := cols[reg]
		snap[i] = col[len(col)-1]
	}
	return snap
}
