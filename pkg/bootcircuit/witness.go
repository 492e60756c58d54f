package bootcircuit

import (
	"github.com/consensys/gnark/frontend"

	"github.com/zkvmtools/continuations-go/pkg/pagemerkle"
	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

// BuildAssignment derives a PageInclusionCircuit assignment for one page
// from a page Merkle tree and the page's index, the same pair of inputs
// (*pagemerkle.MerkleTree).Get itself takes.
func BuildAssignment(tree *pagemerkle.MerkleTree, pageIndex pagemerkle.PageIndex) PageInclusionCircuit {
	page, proof := tree.Get(pageIndex)

	var assignment PageInclusionCircuit
	assignment.RootHash = elementVar(tree.RootHash()[0])
	assignment.PageIndex = pageIndex

	for i, e := range page {
		assignment.Page[i] = elementVar(e)
	}
	for i := 0; i < tree.Depth(); i++ {
		assignment.Siblings[i] = elementVar(proof.Siblings[i][0])
	}

	return assignment
}

func elementVar(e zkfield.Element) frontend.Variable {
	b, ok := e.(zkfield.BigInt)
	if !ok {
		panic("bootcircuit: expected a zkfield.BigInt element")
	}
	return b.BigInt()
}
