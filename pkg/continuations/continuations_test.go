package continuations

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zkvmtools/continuations-go/pkg/bootloader"
	"github.com/zkvmtools/continuations-go/pkg/exectrace"
	"github.com/zkvmtools/continuations-go/pkg/pagemerkle"
	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

// --- test doubles -----------------------------------------------------

type fakeProgram struct {
	instructions []string
	registers    []string
	degree       uint64
}

func validProgram(degree uint64) *fakeProgram {
	return &fakeProgram{
		instructions: append([]string{}, bootloader.BootloaderSpecificInstructionNames...),
		registers:    append([]string{}, bootloader.RegisterNames...),
		degree:       degree,
	}
}

func (p *fakeProgram) MainInstructionNames() []string { return p.instructions }
func (p *fakeProgram) MainRegisterNames() []string     { return p.registers }
func (p *fakeProgram) Degree() uint64                  { return p.degree }

func regMap() map[string]int {
	m := make(map[string]int, len(bootloader.RegisterNames))
	for i, name := range bootloader.RegisterNames {
		m[strings.TrimPrefix(name, "main.")] = i
	}
	return m
}

func makeRow(pc uint64) []zkfield.Element {
	row := make([]zkfield.Element, len(bootloader.RegisterNames))
	row[bootloader.PCIndex] = zkfield.FromUint64(pc)
	for i := 1; i < len(row); i++ {
		row[i] = zkfield.Zero()
	}
	return row
}

// fakeExecutor simulates a program whose "real" execution rows carry pc
// values 0..totalRealRows-1 in order. The full-trace call produces a
// preambleLen-row dispatch prefix (pc = sentinelPC) followed by the real
// rows. Each chunk call produces bootloaderRows dispatch rows, then
// continues the real sequence from an internally tracked cursor — the
// cursor is left on the last emitted value so the next call repeats it,
// mirroring the driver's own continuity contract.
type fakeExecutor struct {
	totalRealRows  int
	preambleLen    int
	sentinelPC     uint64
	bootloaderRows int
	memAccesses    []exectrace.MemoryAccess
	chunkWrites    map[int][]pagemerkle.AddressValue
	corruptAtChunk int // -1 disables

	cursor       uint64
	chunkCallIdx int
}

func newFakeExecutor(totalRealRows, preambleLen, bootloaderRows int) *fakeExecutor {
	return &fakeExecutor{
		totalRealRows:  totalRealRows,
		preambleLen:    preambleLen,
		sentinelPC:     999999,
		bootloaderRows: bootloaderRows,
		corruptAtChunk: -1,
	}
}

func (f *fakeExecutor) Execute(program Program, inputs map[uint64][]zkfield.Element, bootInput bootloader.Input, maxRows int) (*exectrace.ExecutionTrace, []pagemerkle.AddressValue, error) {
	if maxRows == unboundedRows {
		rows := make([][]zkfield.Element, 0, f.preambleLen+f.totalRealRows)
		for i := 0; i < f.preambleLen; i++ {
			rows = append(rows, makeRow(f.sentinelPC))
		}
		for i := 0; i < f.totalRealRows; i++ {
			rows = append(rows, makeRow(uint64(i)))
		}
		return &exectrace.ExecutionTrace{RegMap: regMap(), Rows: rows, Mem: f.memAccesses}, nil, nil
	}

	idx := f.chunkCallIdx
	f.chunkCallIdx++

	rows := make([][]zkfield.Element, 0, maxRows)
	for i := 0; i < f.bootloaderRows; i++ {
		rows = append(rows, makeRow(f.sentinelPC))
	}

	startCursor := f.cursor
	remaining := maxRows - f.bootloaderRows
	produced := 0
	for produced < remaining && startCursor+uint64(produced) < uint64(f.totalRealRows) {
		rows = append(rows, makeRow(startCursor+uint64(produced)))
		produced++
	}

	// Corrupt the row just after the bootloader-prefix boundary, not the
	// boundary row itself — that row's value is what Driver.Run searches
	// for to locate "start", so corrupting it would surface
	// ErrMissingFirstRow instead of the oracle divergence this is meant to
	// exercise.
	if f.corruptAtChunk == idx && len(rows) > f.bootloaderRows+1 {
		rows[f.bootloaderRows+1][bootloader.PCIndex] = zkfield.FromUint64(13131313)
	}

	if produced > 0 {
		f.cursor = startCursor + uint64(produced) - 1
	}

	trace := &exectrace.ExecutionTrace{RegMap: regMap(), Rows: rows}
	return trace, f.chunkWrites[idx], nil
}

// --- SanityCheck (PSC) — S5, S6 ----------------------------------------

func TestSanityCheckSucceedsForWellFormedProgram(t *testing.T) {
	require.NoError(t, SanityCheck(validProgram(16)))
}

func TestSanityCheckMissingBootloaderInstruction(t *testing.T) {
	program := validProgram(16)
	program.instructions = program.instructions[1:] // drop one

	err := SanityCheck(program)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrProgramValidation)

	var pve *ProgramValidationError
	require.ErrorAs(t, err, &pve)
	require.NotEmpty(t, pve.MissingInstructions)
}

func TestSanityCheckRegisterSetMismatch(t *testing.T) {
	program := validProgram(16)
	program.registers[len(program.registers)-1] = "main.renamed"

	err := SanityCheck(program)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrProgramValidation)

	var pve *ProgramValidationError
	require.ErrorAs(t, err, &pve)
	require.Empty(t, pve.MissingInstructions)
	require.NotEqual(t, pve.ExpectedRegisters, pve.ActualRegisters)
}

// --- Driver.Run — S1, S2, S3, S4 ----------------------------------------

func TestDriverRunEmptyAccessSingleChunk(t *testing.T) {
	executor := newFakeExecutor(5 /* totalRealRows */, 2 /* preamble */, 2 /* bootloaderRows */)
	driver := NewDriver(executor, validProgram(20)) // numRows = 18, comfortably finishes chunk 0

	inputs := map[uint64][]zkfield.Element{0: {}}
	allInputs, err := driver.Run(inputs)
	require.NoError(t, err)
	require.Len(t, allInputs, 1)

	pageCountIdx := len(bootloader.RegisterNames) + config_hashWidth()
	count, ok := allInputs[0][pageCountIdx].(zkfield.BigInt).ToUint64Bounded()
	require.True(t, ok)
	require.EqualValues(t, 0, count)
}

func TestDriverRunSinglePageChunk(t *testing.T) {
	executor := newFakeExecutor(5, 2, 2)
	executor.memAccesses = []exectrace.MemoryAccess{
		{Idx: 2, Address: 0}, // row 2 is first real execution row (pc==DefaultPC==0)
	}
	executor.chunkWrites = map[int][]pagemerkle.AddressValue{
		0: {{Address: 0, Value: zkfield.FromUint64(7)}},
	}

	driver := NewDriver(executor, validProgram(20))
	allInputs, err := driver.Run(map[uint64][]zkfield.Element{0: {}})
	require.NoError(t, err)
	require.Len(t, allInputs, 1)

	pageCountIdx := len(bootloader.RegisterNames) + config_hashWidth()
	count, _ := allInputs[0][pageCountIdx].(zkfield.BigInt).ToUint64Bounded()
	require.EqualValues(t, 1, count, "the memory access at row 2 falls inside chunk 0's window")
}

func TestDriverRunTwoChunksHandoff(t *testing.T) {
	// degree=16 => numRows = 16 - 2 = 14; bootloaderRows=3;
	// totalRealRows=20 forces a second chunk.
	executor := newFakeExecutor(20, 2, 3)
	driver := NewDriver(executor, validProgram(16))

	allInputs, err := driver.Run(map[uint64][]zkfield.Element{0: {}})
	require.NoError(t, err)
	require.Len(t, allInputs, 2)

	regLen := len(bootloader.RegisterNames)
	chunk0PC, _ := allInputs[0][bootloader.PCIndex].(zkfield.BigInt).ToUint64Bounded()
	chunk1PC, _ := allInputs[1][bootloader.PCIndex].(zkfield.BigInt).ToUint64Bounded()
	require.EqualValues(t, 0, chunk0PC, "chunk 0 starts from the default register snapshot")
	require.NotEqual(t, chunk0PC, chunk1PC, "chunk 1's register snapshot is handed off from chunk 0's last row")

	// Root continuity: chunk 1's embedded root must equal the root after
	// chunk 0's memory-snapshot update (here: none, so both empty-tree roots).
	hashWidth := config_hashWidth()
	chunk0Root := allInputs[0][regLen : regLen+hashWidth]
	chunk1Root := allInputs[1][regLen : regLen+hashWidth]
	require.Equal(t, chunk0Root, chunk1Root)
}

func TestDriverRunOracleDivergenceAborts(t *testing.T) {
	executor := newFakeExecutor(5, 2, 2)
	executor.corruptAtChunk = 0

	driver := NewDriver(executor, validProgram(20))
	_, err := driver.Run(map[uint64][]zkfield.Element{0: {}})

	require.Error(t, err)
	require.ErrorIs(t, err, ErrOracleDivergence)

	var ode *OracleDivergenceError
	require.True(t, errors.As(err, &ode))
	require.Equal(t, "main.pc", ode.Register)
}

func config_hashWidth() int {
	return 1 // matches config.HashWidth / the default Poseidon2Hasher's single-element Hash
}
