// Package exectrace reshapes an executor's row-oriented execution trace
// into the column-oriented form the chunking driver validates against: a
// mapping from qualified register name to its sequence of values in row
// order.
package exectrace

import "github.com/zkvmtools/continuations-go/pkg/zkfield"

// MemoryAccess records one memory access observed during an executor run:
// Idx is the trace row it occurred on, Address is the word address
// touched. A full trace's access log is ordered by Idx ascending.
type MemoryAccess struct {
	Idx     uint64
	Address uint64
}

// ExecutionTrace is the row-oriented output of one executor run. RegMap
// maps a register name to its column index within each row of Rows; Mem is
// the ordered memory-access log for that run.
type ExecutionTrace struct {
	RegMap map[string]int
	Rows   [][]zkfield.Element
	Mem    []MemoryAccess
}

// ColumnTrace maps a qualified register name (e.g. "main.pc") to its column
// of values in row order.
type ColumnTrace map[string][]zkfield.Element

// Transpose reshapes a row-oriented ExecutionTrace into a ColumnTrace,
// prefixing every register name with machinePrefix (e.g. "main.").
func Transpose(trace *ExecutionTrace, machinePrefix string) ColumnTrace {
	cols := make(ColumnTrace, len(trace.RegMap))
	for name, idx := range trace.RegMap {
		col := make([]zkfield.Element, len(trace.Rows))
		for i, row := range trace.Rows {
			col[i] = row[idx]
		}
		cols[machinePrefix+name] = col
	}
	return cols
}
