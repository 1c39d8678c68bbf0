// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MaxBlockHeaderPayload is the number of bytes a block header occupies on the
// wire.  Version 4 bytes + PrevBlock 32 bytes + MerkleRoot 32 bytes +
// Timestamp 4 bytes + Nonce 8 bytes.
// --> Total 80 bytes.
const MaxBlockHeaderPayload = 16 + (chainhash.HashSize * 2)

// BlockHeader defines information about a block.  All integer fields are
// serialized big-endian and the header hash is a single SHA-256 of the
// serialization; this deliberately differs from the Bitcoin wire format
// (little-endian fields, double SHA-256) and must not be "corrected".
type BlockHeader struct {
	// Version of the block.  Valid headers carry a version greater
	// than 1.
	Version int32

	// Hash of the previous block in the block chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Time the block was created, as Unix seconds.
	Timestamp uint32

	// Nonce searched over by the mining stage.
	Nonce uint64
}

// blockHeaderLen is a constant that represents the number of bytes for a
// block header.
const blockHeaderLen = 80

// BlockHash computes the block identifier hash for the given block header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	// Encode the header and hash everything.  Ignore the error returns
	// since there is no way the encode could fail except being out of
	// memory which would cause a run-time panic.
	buf := bytes.NewBuffer(make([]byte, 0, MaxBlockHeaderPayload))
	_ = writeBlockHeader(buf, h)

	return chainhash.HashH(buf.Bytes())
}

// Deserialize decodes a block header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// FromBytes deserializes a block header byte slice.
func (h *BlockHeader) FromBytes(b []byte) error {
	r := bytes.NewReader(b)
	return h.Deserialize(r)
}

// Serialize encodes a block header to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Bytes returns a byte slice containing the serialized contents of the block
// header.
func (h *BlockHeader) Bytes() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, MaxBlockHeaderPayload))
	err := h.Serialize(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewBlockHeader returns a new BlockHeader using the provided version,
// previous block hash, merkle root hash, timestamp, and nonce.
func NewBlockHeader(version int32, prevHash *chainhash.Hash,
	merkleRootHash *chainhash.Hash, timestamp uint32,
	nonce uint64) *BlockHeader {

	return &BlockHeader{
		Version:    version,
		PrevBlock:  *prevHash,
		MerkleRoot: *merkleRootHash,
		Timestamp:  timestamp,
		Nonce:      nonce,
	}
}

// readBlockHeader reads a block header from r.
func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	var buf [blockHeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}

	bh.Version = int32(binary.BigEndian.Uint32(buf[0:4]))
	copy(bh.PrevBlock[:], buf[4:36])
	copy(bh.MerkleRoot[:], buf[36:68])
	bh.Timestamp = binary.BigEndian.Uint32(buf[68:72])
	bh.Nonce = binary.BigEndian.Uint64(buf[72:80])
	return nil
}

// writeBlockHeader writes a block header to w.
func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	var buf [blockHeaderLen]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(bh.Version))
	copy(buf[4:36], bh.PrevBlock[:])
	copy(buf[36:68], bh.MerkleRoot[:])
	binary.BigEndian.PutUint32(buf[68:72], bh.Timestamp)
	binary.BigEndian.PutUint64(buf[72:80], bh.Nonce)

	_, err := w.Write(buf[:])
	return err
}
