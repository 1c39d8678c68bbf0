// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// TestCompactToBig tests compact target decoding, including the rejected
// encodings.
func TestCompactToBig(t *testing.T) {
	// 0x207fffff is the easy target used by the standard pool params.
	got, err := CompactToBig(0x207fffff)
	require.NoError(t, err)
	want := new(big.Int).Lsh(big.NewInt(0x7fffff), 8*(0x20-3))
	require.Zero(t, got.Cmp(want))

	// Smallest legal exponent has no shift.
	got, err = CompactToBig(0x03000001)
	require.NoError(t, err)
	require.Zero(t, got.Cmp(big.NewInt(1)))

	_, err = CompactToBig(0x20000000)
	require.ErrorContains(t, err, "zero mantissa")
	_, err = CompactToBig(0x01ffffff)
	require.ErrorContains(t, err, "exponent")
	_, err = CompactToBig(0x40ffffff)
	require.ErrorContains(t, err, "exponent")
}

// TestHashToBig ensures digests compare as big-endian unsigned integers with
// no byte reversal.
func TestHashToBig(t *testing.T) {
	var hash chainhash.Hash
	hash[0] = 0x01
	hash[31] = 0xff

	want := new(big.Int).SetBytes(hash[:])
	require.Zero(t, HashToBig(&hash).Cmp(want))

	// A digest with leading zero bytes is a small integer.
	var small chainhash.Hash
	small[31] = 0x2a
	require.Zero(t, HashToBig(&small).Cmp(big.NewInt(42)))
}
