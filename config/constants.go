// Package config holds the small set of named constants that must stay in
// sync across the chunking core and its external collaborators (the
// executor, the compiled program, the bootloader circuit).
package config

const (
	// PageSizeBytesLog is the base-2 logarithm of a memory page's
	// addressable width: PageWidthElements == 1<<PageSizeBytesLog. A
	// byte/word address's page index is addr >> PageSizeBytesLog.
	PageSizeBytesLog = 3

	// PageWidthElements is the number of field elements a single memory
	// page holds.
	PageWidthElements = 1 << PageSizeBytesLog

	// MerkleDepth is the fixed depth of the page Merkle tree: it commits
	// to up to 2^MerkleDepth pages.
	MerkleDepth = 20

	// HashWidth is the number of field elements in a single Merkle hash
	// tuple. 1 suffices for a Poseidon2 digest.
	HashWidth = 1
)
