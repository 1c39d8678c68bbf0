// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HashToBig converts a chainhash.Hash into a big.Int that can be used to
// perform math comparisons against a proof-of-work target.  The hash bytes
// are interpreted as a big-endian unsigned integer as is; no byte reversal
// takes place in this protocol variant.
func HashToBig(hash *chainhash.Hash) *big.Int {
	return new(big.Int).SetBytes(hash[:])
}

// CompactToBig converts a compact representation of a whole number N to a
// big integer.  The representation is similar to IEEE754 floating point
// numbers: the most significant 8 bits are the unsigned base 256 exponent
// and the least significant 24 bits are the mantissa, giving
//
//	N = mantissa * 256^(exponent-3)
//
// The encoding is rejected when the mantissa is zero or the exponent falls
// outside [3, 34], which are the only forms a 256-bit target can take.
func CompactToBig(compact uint32) (*big.Int, error) {
	exponent := uint(compact >> 24)
	mantissa := compact & 0x00ffffff
	if mantissa == 0 {
		return nil, fmt.Errorf("compact target %08x has zero mantissa",
			compact)
	}
	if exponent < 3 || exponent > 34 {
		return nil, fmt.Errorf("compact target %08x has exponent %d "+
			"outside [3, 34]", compact, exponent)
	}

	bn := big.NewInt(int64(mantissa))
	return bn.Lsh(bn, 8*(exponent-3)), nil
}
