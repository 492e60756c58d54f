// Package pagemerkle implements a sparse, fixed-depth Merkle tree over a
// paged address space. Pages that have never been written resolve to a
// precomputed zero-subtree hash; only touched pages are stored, and updates
// are address-granular rather than whole-page replacements.
package pagemerkle

import (
	"fmt"

	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

// Element is the scalar type pages and hashes are built from.
type Element = zkfield.Element

// Zero returns the additive identity of the underlying field.
func Zero() Element { return zkfield.Zero() }

// PageIndex addresses a page within the committed address space.
type PageIndex = uint64

// Page is the fixed-width content of one memory page.
type Page []Element

// Hash is a tuple of field elements — the Merkle tree's compression output.
// A width of 1 suffices for a single Poseidon2 digest; wider tuples let a
// caller plug in a sponge hasher with a larger output arity.
type Hash []Element

// AddressValue is a single memory write: Address is a word address
// (PageIndex = Address >> pageShift, offset = Address & (pageWidth-1)),
// Value is the new contents of that word.
type AddressValue struct {
	Address uint64
	Value   Element
}

// Proof is a fixed-depth Merkle inclusion proof. Siblings[i] is the sibling
// hash at level i; Directions[i] is 0 when the proven node is the left
// child (sibling on the right) and 1 when it is the right child (sibling
// on the left).
type Proof struct {
	Siblings   []Hash
	Directions []int
}

// Hasher compresses two child hashes into a parent and hashes a page's
// contents into a leaf. It is an injected dependency: PMT depends only on
// its arity and output width, never on a specific hash function.
type Hasher interface {
	Compress(left, right Hash) Hash
	HashPage(page Page) Hash
	ZeroHash() Hash
}

// MerkleTree is a sparse, fixed-depth Merkle tree over memory pages. Pages
// that have never been written resolve to a precomputed zero-subtree hash;
// only touched pages are stored.
type MerkleTree struct {
	depth      int
	pageWidth  int
	pageShift  uint
	hasher     Hasher
	pages      map[PageIndex]Page
	levels     []map[PageIndex]Hash
	zeroHashes []Hash
}

// New creates an empty tree of the given depth (covering up to 2^depth
// pages), with pages of pageWidth elements addressed by word addresses
// whose low pageShift bits select the in-page offset (pageWidth must equal
// 1<<pageShift).
func New(depth, pageWidth int, pageShift uint, hasher Hasher) *MerkleTree {
	if pageWidth != 1<<pageShift {
		panic(fmt.Sprintf("pagemerkle: pageWidth %d does not match pageShift %d", pageWidth, pageShift))
	}

	zeroHashes := make([]Hash, depth+1)
	zeroHashes[0] = hasher.ZeroHash()
	for i := 1; i <= depth; i++ {
		zeroHashes[i] = hasher.Compress(zeroHashes[i-1], zeroHashes[i-1])
	}

	levels := make([]map[PageIndex]Hash, depth+1)
	for i := range levels {
		levels[i] = make(map[PageIndex]Hash)
	}

	return &MerkleTree{
		depth:      depth,
		pageWidth:  pageWidth,
		pageShift:  pageShift,
		hasher:     hasher,
		pages:      make(map[PageIndex]Page),
		levels:     levels,
		zeroHashes: zeroHashes,
	}
}

// Depth returns the tree's fixed depth.
func (t *MerkleTree) Depth() int { return t.depth }

func (t *MerkleTree) checkRange(idx PageIndex) {
	if t.depth < 63 && idx >= uint64(1)<<uint(t.depth) {
		panic(fmt.Sprintf("pagemerkle: page index %d out of range for depth %d", idx, t.depth))
	}
}

func (t *MerkleTree) zeroPage() Page {
	page := make(Page, t.pageWidth)
	for i := range page {
		page[i] = Zero()
	}
	return page
}

// Get returns the current contents of a page (all-zero if it has never
// been updated) together with its Merkle inclusion proof against the
// current root. The proof has exactly Depth() entries.
func (t *MerkleTree) Get(idx PageIndex) (Page, Proof) {
	t.checkRange(idx)
	page, ok := t.pages[idx]
	if !ok {
		page = t.zeroPage()
	}
	return page, t.proofFor(idx)
}

// Update groups writes by page, applies them, and rehashes every affected
// node along each affected path. Within a single call, the final content at
// an address reflects the last write to it.
func (t *MerkleTree) Update(writes []AddressValue) {
	touched := make(map[PageIndex]struct{})
	for _, w := range writes {
		pageIdx := w.Address >> t.pageShift
		offset := int(w.Address & (uint64(t.pageWidth) - 1))
		t.checkRange(pageIdx)

		page, ok := t.pages[pageIdx]
		if !ok {
			page = t.zeroPage()
		}
		page[offset] = w.Value
		t.pages[pageIdx] = page
		touched[pageIdx] = struct{}{}
	}

	for idx := range touched {
		t.recompute(idx)
	}
}

func (t *MerkleTree) recompute(idx PageIndex) {
	t.levels[0][idx] = t.hasher.HashPage(t.pages[idx])

	cur := idx
	for lvl := 0; lvl < t.depth; lvl++ {
		parent := cur / 2
		left := t.nodeAt(lvl, parent*2)
		right := t.nodeAt(lvl, parent*2+1)
		t.levels[lvl+1][parent] = t.hasher.Compress(left, right)
		cur = parent
	}
}

func (t *MerkleTree) nodeAt(lvl int, idx PageIndex) Hash {
	if h, ok := t.levels[lvl][idx]; ok {
		return h
	}
	return t.zeroHashes[lvl]
}

func (t *MerkleTree) proofFor(idx PageIndex) Proof {
	siblings := make([]Hash, t.depth)
	directions := make([]int, t.depth)

	cur := idx
	for lvl := 0; lvl < t.depth; lvl++ {
		var sibIdx PageIndex
		if cur%2 == 0 {
			sibIdx = cur + 1
			directions[lvl] = 0
		} else {
			sibIdx = cur - 1
			directions[lvl] = 1
		}
		siblings[lvl] = t.nodeAt(lvl, sibIdx)
		cur /= 2
	}

	return Proof{Siblings: siblings, Directions: directions}
}

// RootHash returns the tree's current root commitment. Cheap: it is the
// cached level-depth entry, or the precomputed zero hash if nothing has
// been written yet.
func (t *MerkleTree) RootHash() Hash {
	return t.nodeAt(t.depth, 0)
}

// Verify checks a Merkle inclusion proof for a leaf hash against a root,
// using the same Hasher the tree that produced the proof was built with.
func Verify(hasher Hasher, leaf Hash, proof Proof, root Hash) bool {
	cur := leaf
	for i, sib := range proof.Siblings {
		if proof.Directions[i] == 0 {
			cur = hasher.Compress(cur, sib)
		} else {
			cur = hasher.Compress(sib, cur)
		}
	}
	return hashEqual(cur, root)
}

func hashEqual(a, b Hash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
