// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var (
	// ErrNoLeaves is returned when a merkle tree is requested for an
	// empty leaf sequence.
	ErrNoLeaves = errors.New("cannot build merkle tree with no leaves")

	// ErrIndexOutOfRange is returned when an inclusion proof is requested
	// for a leaf index that does not correspond to an included
	// transaction.  The error is fatal to that single query only; the
	// tree itself remains valid.
	ErrIndexOutOfRange = errors.New("leaf index out of range")
)

// LeafHash computes the merkle leaf digest for a transaction identifier: a
// single SHA-256 over the raw identifier bytes, not their hex text form.
func LeafHash(txid *chainhash.Hash) chainhash.Hash {
	return chainhash.HashH(txid[:])
}

// HashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation.  This is a helper
// function used to aid in the generation of a merkle tree.
func HashMerkleBranches(left, right *chainhash.Hash) *chainhash.Hash {
	// Concatenate the left and right nodes.
	var hash [chainhash.HashSize * 2]byte
	copy(hash[:chainhash.HashSize], left[:])
	copy(hash[chainhash.HashSize:], right[:])

	newHash := chainhash.HashH(hash[:])
	return &newHash
}

// BuildMerkleTreeStore builds a merkle tree from a sequence of leaf digests
// and returns it as the full level-by-level structure: element 0 is the leaf
// level in order, each subsequent level is formed by hashing concatenated
// pairs from the level below left to right, and the final level holds the
// single root.
//
// An unpaired final node at any level is paired with itself.  This rule
// applies at every level including the first, so a single-leaf tree produces
// H(leaf || leaf) as its root rather than the leaf itself.
func BuildMerkleTreeStore(leaves []chainhash.Hash) ([][]chainhash.Hash, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}

	levels := [][]chainhash.Hash{leaves}
	for len(levels[len(levels)-1]) > 1 || len(levels) == 1 {
		level := levels[len(levels)-1]
		next := make([]chainhash.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := &level[i]

			// When there is no right node, duplicate the left.
			right := left
			if i+1 < len(level) {
				right = &level[i+1]
			}
			next = append(next, *HashMerkleBranches(left, right))
		}
		levels = append(levels, next)
	}

	return levels, nil
}

// MerkleRoot computes the merkle root committing to the given leaf sequence.
func MerkleRoot(leaves []chainhash.Hash) (chainhash.Hash, error) {
	levels, err := BuildMerkleTreeStore(leaves)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return levels[len(levels)-1][0], nil
}

// ProofStep is one level of an inclusion proof: the sibling digest combined
// with the running hash at that level, whether the running hash was the left
// operand, and whether the sibling was a self-duplicate rather than a true
// sibling.
type ProofStep struct {
	// Hash is the sibling digest at this level.
	Hash chainhash.Hash

	// Left indicates the running hash is the left operand of the
	// concatenation, i.e. the sibling is concatenated on the right.
	Left bool

	// Duplicate indicates the sibling is a self-duplicate: the running
	// hash was the unpaired final node of an odd-length level and was
	// paired with itself.
	Duplicate bool
}

// MerkleProof derives the authentication path for the leaf at the given
// index from a tree store previously built by BuildMerkleTreeStore.  The
// steps are ordered from the leaf level up to, but not including, the root.
// It fails with ErrIndexOutOfRange if the index does not fall within the
// leaf level.
func MerkleProof(levels [][]chainhash.Hash, leafIndex int) ([]ProofStep, error) {
	if len(levels) == 0 {
		return nil, ErrNoLeaves
	}
	if leafIndex < 0 || leafIndex >= len(levels[0]) {
		return nil, ErrIndexOutOfRange
	}

	steps := make([]ProofStep, 0, len(levels)-1)
	index := leafIndex
	for _, level := range levels[:len(levels)-1] {
		// The unpaired final node of an odd-length level is its own
		// sibling.
		if index == len(level)-1 && len(level)%2 == 1 {
			steps = append(steps, ProofStep{
				Hash:      level[index],
				Left:      true,
				Duplicate: true,
			})
		} else {
			sibling := index ^ 1
			steps = append(steps, ProofStep{
				Hash: level[sibling],
				Left: index%2 == 0,
			})
		}
		index /= 2
	}

	return steps, nil
}

// VerifyMerkleProof recombines a leaf digest with the proof steps using the
// same concatenate-then-hash rule and reports whether the result reproduces
// the expected root.
func VerifyMerkleProof(leaf chainhash.Hash, steps []ProofStep,
	root *chainhash.Hash) bool {

	current := leaf
	for _, step := range steps {
		if step.Left {
			current = *HashMerkleBranches(&current, &step.Hash)
		} else {
			current = *HashMerkleBranches(&step.Hash, &current)
		}
	}
	return current.IsEqual(root)
}
