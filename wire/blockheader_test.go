// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
)

// mainPoolPrevBlock is the previous block hash the standard pool parameters
// reference, in big-endian byte order.
var mainPoolPrevBlock = chainhash.Hash{
	0x00, 0x00, 0x00, 0x00, 0xd1, 0x14, 0x57, 0x90,
	0xa8, 0x69, 0x44, 0x03, 0xd4, 0x06, 0x3f, 0x32,
	0x3d, 0x49, 0x9e, 0x65, 0x5c, 0x83, 0x42, 0x68,
	0x34, 0xd4, 0xce, 0x2f, 0x8d, 0xd4, 0xa2, 0xee,
}

// TestBlockHeader tests the BlockHeader API.
func TestBlockHeader(t *testing.T) {
	hash := mainPoolPrevBlock
	merkleHash := chainhash.HashH([]byte("merkle"))
	timestamp := uint32(1231000000)
	nonce := uint64(0xdeadbeef01020304)

	bh := NewBlockHeader(4, &hash, &merkleHash, timestamp, nonce)

	// Ensure we get the same data back out.
	if !bh.PrevBlock.IsEqual(&hash) {
		t.Errorf("NewBlockHeader: wrong prev hash - got %v, want %v",
			spew.Sprint(bh.PrevBlock), spew.Sprint(hash))
	}
	if !bh.MerkleRoot.IsEqual(&merkleHash) {
		t.Errorf("NewBlockHeader: wrong merkle root - got %v, want %v",
			spew.Sprint(bh.MerkleRoot), spew.Sprint(merkleHash))
	}
	if bh.Version != 4 {
		t.Errorf("NewBlockHeader: wrong version - got %v, want 4",
			bh.Version)
	}
	if bh.Timestamp != timestamp {
		t.Errorf("NewBlockHeader: wrong timestamp - got %v, want %v",
			bh.Timestamp, timestamp)
	}
	if bh.Nonce != nonce {
		t.Errorf("NewBlockHeader: wrong nonce - got %v, want %v",
			bh.Nonce, nonce)
	}
}

// TestBlockHeaderSerialize tests that a header serializes to exactly 80 bytes
// with every field laid out big-endian at its fixed offset, and that the
// serialization round-trips.
func TestBlockHeaderSerialize(t *testing.T) {
	merkleHash := chainhash.HashH([]byte("merkle"))
	bh := BlockHeader{
		Version:    4,
		PrevBlock:  mainPoolPrevBlock,
		MerkleRoot: merkleHash,
		Timestamp:  1231000000,
		Nonce:      77,
	}

	var buf bytes.Buffer
	if err := bh.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	serialized := buf.Bytes()
	if len(serialized) != MaxBlockHeaderPayload {
		t.Fatalf("Serialize: wrong length - got %d, want %d",
			len(serialized), MaxBlockHeaderPayload)
	}

	// Check the field layout byte-for-byte.
	if got := int32(binary.BigEndian.Uint32(serialized[0:4])); got != bh.Version {
		t.Errorf("wrong version field - got %d, want %d", got, bh.Version)
	}
	if !bytes.Equal(serialized[4:36], bh.PrevBlock[:]) {
		t.Errorf("wrong prev block field - got %s",
			hex.EncodeToString(serialized[4:36]))
	}
	if !bytes.Equal(serialized[36:68], bh.MerkleRoot[:]) {
		t.Errorf("wrong merkle root field - got %s",
			hex.EncodeToString(serialized[36:68]))
	}
	if got := binary.BigEndian.Uint32(serialized[68:72]); got != bh.Timestamp {
		t.Errorf("wrong timestamp field - got %d, want %d", got,
			bh.Timestamp)
	}
	if got := binary.BigEndian.Uint64(serialized[72:80]); got != bh.Nonce {
		t.Errorf("wrong nonce field - got %d, want %d", got, bh.Nonce)
	}

	// Deserialize and ensure the result matches the original.
	var decoded BlockHeader
	if err := decoded.Deserialize(bytes.NewReader(serialized)); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(decoded, bh) {
		t.Errorf("Deserialize: headers differ - got %v, want %v",
			spew.Sdump(&decoded), spew.Sdump(&bh))
	}

	// Bytes must agree with Serialize.
	b, err := bh.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if !bytes.Equal(b, serialized) {
		t.Errorf("Bytes: mismatch with Serialize output")
	}
}

// TestBlockHash verifies the header hash is a single SHA-256 of the 80-byte
// serialization.
func TestBlockHash(t *testing.T) {
	bh := BlockHeader{
		Version:    4,
		PrevBlock:  mainPoolPrevBlock,
		MerkleRoot: chainhash.HashH([]byte("merkle")),
		Timestamp:  1231000000,
		Nonce:      12345,
	}

	serialized, err := bh.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	want := chainhash.HashH(serialized)
	got := bh.BlockHash()
	if !got.IsEqual(&want) {
		t.Errorf("BlockHash: got %v, want %v", got, want)
	}

	// Deserialize of a short buffer must fail.
	var decoded BlockHeader
	if err := decoded.Deserialize(bytes.NewReader(serialized[:79])); err == nil {
		t.Errorf("Deserialize: expected error on short header")
	}
}
