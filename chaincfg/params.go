// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Params defines the parameters the block assembly pipeline operates under.
// All of the values are supplied as configuration rather than derived: the
// previous block hash and proof-of-work target come from whoever hands out
// the assignment, not from any chain state.
type Params struct {
	// Name defines a human-readable identifier for these parameters.
	Name string

	// PrevBlock is the hash the assembled header must reference as its
	// previous block.
	PrevBlock chainhash.Hash

	// PowLimitBits is the proof-of-work target in compact representation.
	PowLimitBits uint32

	// PowLimit is the decoded proof-of-work target.  A header is valid
	// only if its digest, interpreted as a big-endian unsigned integer,
	// does not exceed this value.
	PowLimit *big.Int

	// MinTimestamp and MaxTimestamp bound the header timestamp as Unix
	// seconds.  Both bounds are exclusive: a valid header carries a
	// timestamp strictly between the two.
	MinTimestamp uint32
	MaxTimestamp uint32

	// MinVersion is the lowest header version the mining stage is allowed
	// to produce.  Valid headers carry a version strictly greater than 1.
	MinVersion int32

	// MaxBlockWeight is the block space budget available to the selection
	// stage, in weight units.
	MaxBlockWeight int64
}

// MainPoolParams defines the parameters for the standard candidate pool.
var MainPoolParams = Params{
	Name:           "mainpool",
	PrevBlock:      newHashFromStr("00000000d1145790a8694403d4063f323d499e655c83426834d4ce2f8dd4a2ee"),
	PowLimitBits:   0x207fffff,
	PowLimit:       compactToBig(0x207fffff),
	MinTimestamp:   1230999305,
	MaxTimestamp:   1231723825,
	MinVersion:     4,
	MaxBlockWeight: 4000000,
}

// newHashFromStr converts the passed big-endian hex string into a
// chainhash.Hash.  Unlike chainhash.NewHashFromStr, no byte reversal is
// performed since this protocol variant is big-endian throughout.  It panics
// on invalid input, so it must only be called with hard-coded parameter
// constants.
func newHashFromStr(hexStr string) chainhash.Hash {
	raw, err := hex.DecodeString(hexStr)
	if err != nil || len(raw) != chainhash.HashSize {
		panic("invalid hash in params: " + hexStr)
	}

	var hash chainhash.Hash
	copy(hash[:], raw)
	return hash
}

// compactToBig decodes a compact target representation into a big integer,
// panicking on the malformed encodings the compact format cannot represent.
// Callers outside package initialization should use blockchain.CompactToBig,
// which reports the error instead.
func compactToBig(compact uint32) *big.Int {
	exponent := uint(compact >> 24)
	mantissa := compact & 0x00ffffff
	if mantissa == 0 || exponent < 3 || exponent > 34 {
		panic("invalid compact target in params")
	}

	bn := big.NewInt(int64(mantissa))
	return bn.Lsh(bn, 8*(exponent-3))
}
