// Package zkfield provides the scalar field abstraction the chunking core
// depends on. Values are *big.Int reduced modulo the BN254 scalar field,
// wrapped behind a small Element interface so pagemerkle, bootloader, and
// exectrace never import a field backend themselves.
package zkfield

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Element is an opaque scalar with equality and a total order, matching the
// FieldElement contract external callers (the executor, the prover) are
// expected to satisfy.
type Element interface {
	Equal(other Element) bool
	Cmp(other Element) int
}

// BigInt is the default Element implementation, backed by the BN254 scalar
// field that the Poseidon2 hasher operates over.
type BigInt struct {
	v *big.Int
}

// Zero returns the additive identity.
func Zero() BigInt {
	return BigInt{v: new(big.Int)}
}

// FromUint64 builds a canonical field element from a small integer.
func FromUint64(v uint64) BigInt {
	return FromBigInt(new(big.Int).SetUint64(v))
}

// FromBigInt reduces v modulo the BN254 scalar field and wraps the result.
func FromBigInt(v *big.Int) BigInt {
	var e fr.Element
	e.SetBigInt(v)
	out := new(big.Int)
	e.BigInt(out)
	return BigInt{v: out}
}

func (b BigInt) Equal(other Element) bool {
	o, ok := other.(BigInt)
	if !ok {
		return false
	}
	return b.v.Cmp(o.v) == 0
}

func (b BigInt) Cmp(other Element) int {
	o, ok := other.(BigInt)
	if !ok {
		panic("zkfield: Cmp across incompatible Element implementations")
	}
	return b.v.Cmp(o.v)
}

// ToUint64Bounded returns (v, true) when the element's canonical
// representative fits in a uint64, or (0, false) otherwise. It reads small
// values (e.g. a program counter or a page count) back out of field
// elements.
func (b BigInt) ToUint64Bounded() (uint64, bool) {
	if !b.v.IsUint64() {
		return 0, false
	}
	return b.v.Uint64(), true
}

// BigInt returns the element's canonical big.Int representative.
func (b BigInt) BigInt() *big.Int {
	return new(big.Int).Set(b.v)
}

// Bytes32 returns the element's canonical 32-byte big-endian encoding,
// matching fr.Element.Bytes() so a zero value always hashes as 32 zero
// bytes rather than big.Int.Bytes()'s empty slice.
func (b BigInt) Bytes32() [32]byte {
	var e fr.Element
	e.SetBigInt(b.v)
	return e.Bytes()
}

func (b BigInt) String() string {
	return b.v.String()
}
