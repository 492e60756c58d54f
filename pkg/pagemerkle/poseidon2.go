package pagemerkle

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/zkvmtools/continuations-go/pkg/zkfield"
)

// Domain tags for leaf hashing: a real leaf and the zero padding leaf hash
// differently even when a real page happens to be all-zero.
const (
	domainTagReal    = 1
	domainTagPadding = 0
)

// Poseidon2Hasher hashes pages and tree nodes with Poseidon2 over the BN254
// scalar field, producing a single-element Hash. PageWidth fixes how many
// elements are read (and zero-padded) per page, matching
// config.PageWidthElements; the single-element output matches
// config.HashWidth.
type Poseidon2Hasher struct {
	PageWidth int
}

func (h Poseidon2Hasher) ZeroHash() Hash {
	return Hash{hashTaggedPage(domainTagPadding, nil, h.PageWidth)}
}

func (h Poseidon2Hasher) HashPage(page Page) Hash {
	return Hash{hashTaggedPage(domainTagReal, page, h.PageWidth)}
}

func (h Poseidon2Hasher) Compress(left, right Hash) Hash {
	hh := poseidon2.NewMerkleDamgardHasher()
	writeElement(hh, left[0])
	writeElement(hh, right[0])
	return Hash{zkfield.FromBigInt(new(big.Int).SetBytes(hh.Sum(nil)))}
}

func hashTaggedPage(tag int, page Page, width int) zkfield.Element {
	hh := poseidon2.NewMerkleDamgardHasher()

	var tagFr fr.Element
	tagFr.SetInt64(int64(tag))
	tb := tagFr.Bytes()
	hh.Write(tb[:])

	for i := 0; i < width; i++ {
		if i < len(page) {
			writeElement(hh, page[i])
			continue
		}
		var zero fr.Element
		zb := zero.Bytes()
		hh.Write(zb[:])
	}

	return zkfield.FromBigInt(new(big.Int).SetBytes(hh.Sum(nil)))
}

func writeElement(hh interface{ Write([]byte) (int, error) }, e Element) {
	b, ok := e.(zkfield.BigInt)
	if !ok {
		panic("pagemerkle: Poseidon2Hasher requires zkfield.BigInt elements")
	}
	raw := b.Bytes32()
	hh.Write(raw[:])
}
