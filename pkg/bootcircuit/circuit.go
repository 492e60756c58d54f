// Package bootcircuit is a minimal gnark circuit proving that one memory
// page is included, at a given index, under a page Merkle root — the
// in-circuit counterpart of pkg/pagemerkle.Verify. Its hash family
// (Poseidon2) and leaf convention (domain-tagged, real leaf = 1) must match
// pkg/pagemerkle.Poseidon2Hasher exactly, or no real page Merkle proof
// would ever satisfy it.
package bootcircuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/zkvmtools/continuations-go/config"
)

const domainTagReal = 1

// PageInclusionCircuit proves that Page hashes, as a domain-tagged
// Poseidon2 leaf, to a node included under RootHash at PageIndex. Rather
// than taking per-level left/right directions as a separate witness, it
// derives them from PageIndex itself by binary decomposition: bit i of
// PageIndex selects whether the proven node is the left or right child at
// level i, the same relationship pkg/pagemerkle uses to walk a page index
// up to the root (halving the index at each level).
type PageInclusionCircuit struct {
	// Publics.
	RootHash  frontend.Variable `gnark:"rootHash,public"`
	PageIndex frontend.Variable `gnark:"pageIndex,public"`

	// Privates.
	Page     [config.PageWidthElements]frontend.Variable `gnark:"page"`
	Siblings [config.MerkleDepth]frontend.Variable       `gnark:"siblings"`
}

// Define hashes Page into a leaf and folds in each level's sibling,
// choosing left/right order from the corresponding bit of PageIndex, then
// asserts the recomputed root equals RootHash.
func (circuit *PageInclusionCircuit) Define(api frontend.API) error {
	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return err
	}

	leafHasher := hash.NewMerkleDamgardHasher(api, p, 0)
	leafHasher.Write(frontend.Variable(domainTagReal))
	leafHasher.Write(circuit.Page[:]...)
	current := leafHasher.Sum()

	indexBits := api.ToBinary(circuit.PageIndex, config.MerkleDepth)

	for level := 0; level < config.MerkleDepth; level++ {
		sibling := circuit.Siblings[level]
		bit := indexBits[level] // 0: current is the left child, sibling on the right

		compressHasher := hash.NewMerkleDamgardHasher(api, p, 0)
		left := api.Select(bit, sibling, current)
		right := api.Select(bit, current, sibling)
		compressHasher.Write(left, right)
		current = compressHasher.Sum()
	}

	api.AssertIsEqual(current, circuit.RootHash)
	return nil
}
