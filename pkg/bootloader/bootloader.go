// Package bootloader assembles the per-chunk BootloaderInput vector: a
// register snapshot, the current page Merkle root, and the proofs for every
// page the upcoming chunk will touch. The wire layout is a cross-boundary
// contract — it must match whatever in-circuit bootloader materializes
// registers and paged-in memory at the start of a chunk.
package bootloader

import (
	"fmt"

	"github.com/zkvmtools/continuations-go/config"
	"github.com/zkvmtools/continuations-go/pkg/pagemerkle"
	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

// PageSizeBytesLog is the base-2 logarithm of the memory page size; an
// address's page index is addr >> PageSizeBytesLog. Re-exported from config
// because it is part of the bootloader's cross-boundary contract, not just
// an internal Merkle-tree detail.
const PageSizeBytesLog = config.PageSizeBytesLog

// PCIndex is the position of the program-counter register within
// RegisterNames, a RegisterSnapshot, and the register section of a
// BootloaderInput.
const PCIndex = 0

// DefaultPC is the program-counter value the first row of "real" execution
// carries, once the bootloader's own dispatch preamble has run.
const DefaultPC = 0

// RegisterNames is the canonical, "main."-qualified register set, in the
// order every RegisterSnapshot and BootloaderInput register section
// follows. RegisterNames[PCIndex] must name the PC register. A real
// deployment keeps this in lockstep with the compiled program's register
// file; it is exported as a var (not a const) so a caller can override it
// to match a different machine.
var RegisterNames = defaultRegisterNames()

func defaultRegisterNames() []string {
	names := make([]string, 0, 32)
	names = append(names, "main.pc")
	for i := 1; i <= 31; i++ {
		names = append(names, fmt.Sprintf("main.x%d", i))
	}
	return names
}

// BootloaderSpecificInstructionNames are the instructions the Main machine
// must expose for the bootloader to materialize registers and paged-in
// memory at the start of a chunk. Their absence means the program was
// compiled without bootloader support.
var BootloaderSpecificInstructionNames = []string{
	"load_bootloader_input",
	"jump_to_operation",
	"reset",
}

// RegisterSnapshot is an ordered vector of field elements, one per entry of
// RegisterNames.
type RegisterSnapshot []zkfield.Element

// DefaultRegisterValues is the all-zero snapshot chunk 0 starts from.
func DefaultRegisterValues() RegisterSnapshot {
	snap := make(RegisterSnapshot, len(RegisterNames))
	for i := range snap {
		snap[i] = zkfield.Zero()
	}
	return snap
}

// Input is the flattened wire-format vector handed to a chunk:
//
//	[ R[0..|RegisterNames|), H[0..|hash|), n,
//	  { page_index_k, page_k[0..page_width), proof_k[0..depth*|hash|) } for k in 0..n ]
//
// with pages sorted by ascending page index.
type Input []zkfield.Element

// DefaultInput is the neutral bootloader input used by the full-trace
// reference run: the default register snapshot, the tree's current (empty)
// root, and zero accessed pages.
func DefaultInput(tree *pagemerkle.MerkleTree) Input {
	return Assemble(DefaultRegisterValues(), tree, nil)
}

// Assemble builds one chunk's Input from a register snapshot, the page
// Merkle tree, and the accessed page indices (which must already be sorted
// ascending — the driver is responsible for that ordering, since Go map
// iteration order is not stable and the wire format must be deterministic).
func Assemble(registers RegisterSnapshot, tree *pagemerkle.MerkleTree, pages []pagemerkle.PageIndex) Input {
	root := tree.RootHash()

	input := make(Input, 0, len(registers)+len(root)+1)
	input = append(input, registers...)
	input = append(input, root...)
	input = append(input, zkfield.FromUint64(uint64(len(pages))))

	for _, idx := range pages {
		page, proof := tree.Get(idx)
		input = append(input, zkfield.FromUint64(idx))
		input = append(input, page...)
		for _, sibling := range proof.Siblings {
			input = append(input, sibling...)
		}
	}

	return input
}
