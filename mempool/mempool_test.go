// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testTxIDA = "4c50e3dad7f98bceb6441f96b23748dea84fbdb7cedd603441e6ea4a574d04a6"
	testTxIDB = "49ff8cccf1ca12179e9ae7a4760f550b5a18401b27e1e057604e27c3e10c08fb"
	testTxIDC = "9d1e1e8f1276a4cf2203dda4a90858bd4fcd6badd3da95299da9e2e0659a71d3"
)

// TestParseRecord tests the accept/reject behavior of pool record parsing.
func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
		fee     int64
		weight  int64
		parents int
	}{{
		name:    "no parents, no parents column",
		line:    testTxIDA + ",100,250",
		fee:     100,
		weight:  250,
		parents: 0,
	}, {
		name:    "no parents, empty parents column",
		line:    testTxIDA + ",100,250,",
		fee:     100,
		weight:  250,
		parents: 0,
	}, {
		name:    "two parents",
		line:    testTxIDA + ",5,50," + testTxIDB + ";" + testTxIDC,
		fee:     5,
		weight:  50,
		parents: 2,
	}, {
		name:    "blank parent entries ignored",
		line:    testTxIDA + ",5,50,;" + testTxIDB + ";",
		fee:     5,
		weight:  50,
		parents: 1,
	}, {
		name:    "uppercase txid accepted",
		line:    strings.ToUpper(testTxIDA) + ",1,1",
		fee:     1,
		weight:  1,
		parents: 0,
	}, {
		name:    "zero fee accepted",
		line:    testTxIDA + ",0,10",
		fee:     0,
		weight:  10,
		parents: 0,
	}, {
		name:    "missing columns",
		line:    testTxIDA + ",100",
		wantErr: true,
	}, {
		name:    "short txid",
		line:    "abcd,100,250",
		wantErr: true,
	}, {
		name:    "non-hex txid",
		line:    strings.Repeat("zz", 32) + ",100,250",
		wantErr: true,
	}, {
		name:    "negative fee",
		line:    testTxIDA + ",-1,250",
		wantErr: true,
	}, {
		name:    "zero weight",
		line:    testTxIDA + ",100,0",
		wantErr: true,
	}, {
		name:    "malformed weight",
		line:    testTxIDA + ",100,heavy",
		wantErr: true,
	}, {
		name:    "malformed parent",
		line:    testTxIDA + ",100,250,nothex",
		wantErr: true,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			desc, err := ParseRecord(test.line)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.fee, desc.Fee)
			require.Equal(t, test.weight, desc.Weight)
			require.Len(t, desc.Parents, test.parents)
		})
	}
}

// TestReadDescs tests whole-pool reading, including duplicate rejection and
// line number reporting.
func TestReadDescs(t *testing.T) {
	pool := testTxIDA + ",100,250\n" +
		"\n" +
		testTxIDB + ",50,200," + testTxIDA + "\n"

	descs, err := ReadDescs(strings.NewReader(pool))
	require.NoError(t, err)
	require.Len(t, descs, 2)
	require.Equal(t, testTxIDA, TxIDString(&descs[0].TxID))
	require.Equal(t, testTxIDA, TxIDString(&descs[1].Parents[0]))

	// Duplicate txid.
	dup := testTxIDA + ",100,250\n" + testTxIDA + ",1,1\n"
	_, err = ReadDescs(strings.NewReader(dup))
	require.ErrorContains(t, err, "duplicate")

	// Empty input.
	_, err = ReadDescs(strings.NewReader("\n\n"))
	require.ErrorContains(t, err, "empty")

	// Malformed line is reported with its line number.
	bad := testTxIDA + ",100,250\nnot-a-record\n"
	_, err = ReadDescs(strings.NewReader(bad))
	require.ErrorContains(t, err, "line 2")
}

// TestTxIDRoundTrip ensures identifiers parse and render in big-endian order
// without any byte reversal.
func TestTxIDRoundTrip(t *testing.T) {
	txid, err := TxIDFromString(testTxIDA)
	require.NoError(t, err)

	// Leading bytes of the string must be the leading bytes of the hash.
	require.Equal(t, byte(0x4c), txid[0])
	require.Equal(t, byte(0xa6), txid[31])
	require.Equal(t, testTxIDA, TxIDString(&txid))
}

// TestReadTxIDList tests the ordered txid list reader used by the commitment
// stage input.
func TestReadTxIDList(t *testing.T) {
	in := testTxIDA + "\n" + testTxIDB + "\n\n" + testTxIDC + "\n"
	txids, err := ReadTxIDList(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, txids, 3)
	require.Equal(t, testTxIDB, TxIDString(&txids[1]))

	_, err = ReadTxIDList(strings.NewReader("xyz\n"))
	require.Error(t, err)

	_, err = ReadTxIDList(strings.NewReader(""))
	require.ErrorContains(t, err, "empty")
}
