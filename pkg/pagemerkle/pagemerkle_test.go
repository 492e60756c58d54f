package pagemerkle

import (
	"testing"

	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

const testPageWidth = 4
const testPageShift = 2 // 1<<2 == testPageWidth

func newTestTree(depth int) *MerkleTree {
	return New(depth, testPageWidth, testPageShift, Poseidon2Hasher{PageWidth: testPageWidth})
}

func TestEmptyTreeRootIsZeroHash(t *testing.T) {
	tree := newTestTree(4)
	hasher := Poseidon2Hasher{PageWidth: testPageWidth}

	want := hasher.ZeroHash()
	for i := 0; i < tree.Depth(); i++ {
		want = hasher.Compress(want, want)
	}

	if !hashEqual(tree.RootHash(), want) {
		t.Fatalf("empty tree root = %v, want %v", tree.RootHash(), want)
	}
}

func TestGetUnwrittenPageIsZero(t *testing.T) {
	tree := newTestTree(4)
	page, proof := tree.Get(7)

	for i, e := range page {
		if !e.Equal(Zero()) {
			t.Fatalf("page[%d] = %v, want zero", i, e)
		}
	}
	if len(proof.Siblings) != tree.Depth() {
		t.Fatalf("proof length = %d, want %d", len(proof.Siblings), tree.Depth())
	}
}

func TestUpdateChangesRootAndRoundTrips(t *testing.T) {
	tests := []struct {
		name    string
		writes  []AddressValue
		pageIdx PageIndex
	}{
		{
			name:    "single word in page 0",
			writes:  []AddressValue{{Address: 0, Value: zkFromInt(42)}},
			pageIdx: 0,
		},
		{
			name: "two words same page",
			writes: []AddressValue{
				{Address: 4, Value: zkFromInt(1)},
				{Address: 5, Value: zkFromInt(2)},
			},
			pageIdx: 1,
		},
		{
			name:    "high page index",
			writes:  []AddressValue{{Address: 100 << testPageShift, Value: zkFromInt(9)}},
			pageIdx: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := newTestTree(10)
			emptyRoot := tree.RootHash()

			tree.Update(tc.writes)

			if hashEqual(tree.RootHash(), emptyRoot) {
				t.Fatalf("root did not change after update")
			}

			page, proof := tree.Get(tc.pageIdx)
			hasher := Poseidon2Hasher{PageWidth: testPageWidth}
			leaf := hasher.HashPage(page)
			if !Verify(hasher, leaf, proof, tree.RootHash()) {
				t.Fatalf("proof for page %d did not verify against root", tc.pageIdx)
			}
		})
	}
}

func TestUpdateLastWriteWinsWithinOneCall(t *testing.T) {
	tree := newTestTree(4)
	tree.Update([]AddressValue{
		{Address: 0, Value: zkFromInt(1)},
		{Address: 0, Value: zkFromInt(2)},
	})

	page, _ := tree.Get(0)
	if !page[0].Equal(zkFromInt(2)) {
		t.Fatalf("page[0] = %v, want 2 (last write should win)", page[0])
	}
}

func TestUpdateOnlyRehashesTouchedPages(t *testing.T) {
	tree := newTestTree(6)
	tree.Update([]AddressValue{{Address: 0, Value: zkFromInt(1)}})
	rootAfterFirst := tree.RootHash()

	_, proofUntouched := tree.Get(50)
	hasher := Poseidon2Hasher{PageWidth: testPageWidth}
	untouchedLeaf := hasher.ZeroHash()
	if !Verify(hasher, untouchedLeaf, proofUntouched, rootAfterFirst) {
		t.Fatalf("untouched page 50 should still verify against the zero leaf")
	}
}

func TestOutOfRangePageIndexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range page index")
		}
	}()
	tree := newTestTree(2) // capacity = 4 pages
	tree.Get(100)
}

func zkFromInt(v uint64) Element {
	return zkfield.FromUint64(v)
}
