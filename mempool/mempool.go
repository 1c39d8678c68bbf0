// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TxDesc is a descriptor about a transaction in the candidate pool.  The
// record is abstract: only the identifier, fee, weight, and immediate-parent
// references participate in block assembly.
type TxDesc struct {
	// TxID is the unique identifier of the transaction.
	TxID chainhash.Hash

	// Fee is the total fee the transaction pays, in abstract currency
	// units.
	Fee int64

	// Weight is the block space the transaction consumes, in weight
	// units.
	Weight int64

	// Parents holds the identifiers of the transaction's immediate
	// parents within the pool.  It may be empty.
	Parents []chainhash.Hash
}

// TxIDFromString parses a big-endian hex transaction identifier.  Note that
// chainhash.NewHashFromStr is deliberately not used here since it reverses
// the byte order; identifiers in this protocol variant are displayed and
// stored big-endian.
func TxIDFromString(s string) (chainhash.Hash, error) {
	var txid chainhash.Hash
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != chainhash.HashSize*2 {
		return txid, fmt.Errorf("txid must be %d hex chars, got %d",
			chainhash.HashSize*2, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return txid, fmt.Errorf("txid is not valid hex: %q", s)
	}
	copy(txid[:], raw)
	return txid, nil
}

// TxIDString renders a transaction identifier as big-endian hex, the display
// form used by pool files and solution files.
func TxIDString(txid *chainhash.Hash) string {
	return hex.EncodeToString(txid[:])
}

// ParseRecord parses a single pool record of the form
//
//	txid,fee,weight,parent_txid1;parent_txid2;...
//
// The parents column is optional and blank parent entries are ignored.
func ParseRecord(line string) (*TxDesc, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return nil, fmt.Errorf("expected at least 3 columns, got %d",
			len(fields))
	}

	txid, err := TxIDFromString(fields[0])
	if err != nil {
		return nil, err
	}

	fee, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed fee %q", fields[1])
	}
	if fee < 0 {
		return nil, fmt.Errorf("negative fee %d", fee)
	}

	weight, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed weight %q", fields[2])
	}
	if weight <= 0 {
		return nil, fmt.Errorf("non-positive weight %d", weight)
	}

	var parents []chainhash.Hash
	if len(fields) >= 4 {
		for _, p := range strings.Split(fields[3], ";") {
			if strings.TrimSpace(p) == "" {
				continue
			}
			parent, err := TxIDFromString(p)
			if err != nil {
				return nil, fmt.Errorf("malformed parent: %v", err)
			}
			parents = append(parents, parent)
		}
	}

	return &TxDesc{
		TxID:    txid,
		Fee:     fee,
		Weight:  weight,
		Parents: parents,
	}, nil
}

// ReadDescs reads a pool description, one record per line, skipping blank
// lines.  Errors identify the offending 1-based line number.  A duplicate
// identifier is an error since identifiers are unique within the pool.
func ReadDescs(r io.Reader) ([]*TxDesc, error) {
	var descs []*TxDesc
	seen := make(map[chainhash.Hash]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		desc, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", lineNum, err)
		}
		if _, ok := seen[desc.TxID]; ok {
			return nil, fmt.Errorf("line %d: duplicate txid %s",
				lineNum, TxIDString(&desc.TxID))
		}
		seen[desc.TxID] = struct{}{}
		descs = append(descs, desc)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(descs) == 0 {
		return nil, fmt.Errorf("empty pool description")
	}

	log.Debugf("Loaded %d pool transactions", len(descs))
	return descs, nil
}

// ReadDescsFile reads a pool description from the file at path.
func ReadDescsFile(path string) ([]*TxDesc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadDescs(f)
}

// ReadTxIDList reads an ordered list of big-endian hex transaction
// identifiers, one per line, skipping blank lines.
func ReadTxIDList(r io.Reader) ([]chainhash.Hash, error) {
	var txids []chainhash.Hash

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		txid, err := TxIDFromString(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", lineNum, err)
		}
		txids = append(txids, txid)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(txids) == 0 {
		return nil, fmt.Errorf("empty txid list")
	}

	return txids, nil
}

// ReadTxIDListFile reads an ordered txid list from the file at path.
func ReadTxIDListFile(path string) ([]chainhash.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadTxIDList(f)
}
