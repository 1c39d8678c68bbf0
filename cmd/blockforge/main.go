// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// blockforge assembles a single block from a candidate transaction pool: it
// selects a fee-maximizing dependency-valid subset under the weight budget,
// commits the selection to a merkle root with an inclusion proof for the
// required transaction, and searches for a header satisfying the
// proof-of-work target.  Each stage writes its solution file only after it
// fully succeeds.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btclog"

	"github.com/blockforge/blockforge/blockchain"
	"github.com/blockforge/blockforge/chaincfg"
	"github.com/blockforge/blockforge/mempool"
	"github.com/blockforge/blockforge/mempool/txgraph"
	"github.com/blockforge/blockforge/mining"
	"github.com/blockforge/blockforge/mining/cpuminer"
	"github.com/blockforge/blockforge/wire"
)

// version is the release version of the utility.
const version = "0.2.0"

var (
	cfg *config
	log btclog.Logger
)

// setupLogging configures the logging backend and fans a logger out to each
// subsystem at the configured level.
func setupLogging(level string) {
	backendLog := btclog.NewBackend(os.Stderr)
	logLevel, _ := btclog.LevelFromString(level)

	log = backendLog.Logger("FORG")
	log.SetLevel(logLevel)

	mempoolLog := backendLog.Logger("MPOL")
	mempoolLog.SetLevel(logLevel)
	mempool.UseLogger(mempoolLog)

	miningLog := backendLog.Logger("MINR")
	miningLog.SetLevel(logLevel)
	mining.UseLogger(miningLog)

	minerLog := backendLog.Logger("CPUM")
	minerLog.SetLevel(logLevel)
	cpuminer.UseLogger(minerLog)
}

// writeLines writes the given lines to a file in the output directory.  The
// file is only created once the producing stage has fully succeeded, so a
// fatal stage error never leaves partial output behind.
func writeLines(name string, lines []string) error {
	if err := os.MkdirAll(cfg.OutDir, 0700); err != nil {
		return err
	}

	path := filepath.Join(cfg.OutDir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Infof("Wrote %s (%d lines)", path, len(lines))
	return nil
}

// selectBlock runs the selection stage: pool file in, ordered txid list out.
func selectBlock(params *chaincfg.Params,
	required chainhash.Hash) ([]chainhash.Hash, error) {

	descs, err := mempool.ReadDescsFile(cfg.Mempool)
	if err != nil {
		return nil, fmt.Errorf("malformed pool input: %v", err)
	}

	g, err := txgraph.New(descs)
	if err != nil {
		return nil, fmt.Errorf("malformed pool input: %v", err)
	}

	maxWeight := params.MaxBlockWeight
	if cfg.MaxWeight > 0 {
		maxWeight = cfg.MaxWeight
	}

	template, err := mining.NewBlockTemplate(g, required, maxWeight)
	if err != nil {
		return nil, err
	}
	if err := mining.CheckTemplateSanity(g, template, required,
		maxWeight); err != nil {

		return nil, fmt.Errorf("selected block fails sanity check: %v",
			err)
	}
	log.Infof("Selected %d transactions (fees %d, weight %d/%d)",
		len(template.TxIDs), template.Fees, template.Weight, maxWeight)

	lines := make([]string, len(template.TxIDs))
	for i := range template.TxIDs {
		lines[i] = mempool.TxIDString(&template.TxIDs[i])
	}
	if err := writeLines("block.txt", lines); err != nil {
		return nil, err
	}

	return template.TxIDs, nil
}

// commitBlock runs the commitment stage: ordered txids in, merkle root and
// inclusion proof for the required transaction out.  It returns the root for
// the mining stage.
func commitBlock(txids []chainhash.Hash,
	required chainhash.Hash) (chainhash.Hash, error) {

	leaves := make([]chainhash.Hash, len(txids))
	leafIndex := -1
	for i := range txids {
		leaves[i] = blockchain.LeafHash(&txids[i])
		if txids[i].IsEqual(&required) {
			leafIndex = i
		}
	}
	if leafIndex == -1 {
		return chainhash.Hash{}, fmt.Errorf("required txid %s is not "+
			"in the committed block", mempool.TxIDString(&required))
	}

	levels, err := blockchain.BuildMerkleTreeStore(leaves)
	if err != nil {
		return chainhash.Hash{}, err
	}
	root := levels[len(levels)-1][0]

	steps, err := blockchain.MerkleProof(levels, leafIndex)
	if err != nil {
		return chainhash.Hash{}, err
	}

	// Cross-check the proof before writing anything.
	if !blockchain.VerifyMerkleProof(leaves[leafIndex], steps, &root) {
		return chainhash.Hash{}, fmt.Errorf("inclusion proof for leaf "+
			"%d does not reproduce the root", leafIndex)
	}
	log.Infof("Committed %d transactions (root %s, proof length %d)",
		len(txids), hex.EncodeToString(root[:]), len(steps))

	lines := make([]string, 0, len(steps)+1)
	lines = append(lines, hex.EncodeToString(root[:]))
	for _, step := range steps {
		lines = append(lines, hex.EncodeToString(step.Hash[:]))
	}
	if err := writeLines("merkleproof.txt", lines); err != nil {
		return chainhash.Hash{}, err
	}

	return root, nil
}

// mineBlock runs the mining stage: merkle root in, solved 80-byte header
// out.
func mineBlock(params *chaincfg.Params, merkleRoot chainhash.Hash) error {
	header := wire.BlockHeader{
		Version:    params.MinVersion,
		PrevBlock:  params.PrevBlock,
		MerkleRoot: merkleRoot,
	}

	miner := cpuminer.New(&cpuminer.Config{
		Params:     params,
		NumWorkers: cfg.Workers,
	})
	solved, ok := miner.Solve(header, nil)
	if !ok {
		return fmt.Errorf("search space exhausted after %d hashes; "+
			"widen the timestamp window or raise the target",
			miner.HashesCompleted())
	}

	serialized, err := solved.Bytes()
	if err != nil {
		return err
	}

	return writeLines("header.txt", []string{
		hex.EncodeToString(serialized),
	})
}

// realMain is the real main function for the utility.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func realMain() error {
	tcfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg

	if cfg.ShowVer {
		fmt.Printf("blockforge version %s\n", version)
		return nil
	}

	setupLogging(cfg.DebugLevel)

	params := &chaincfg.MainPoolParams
	required, err := mempool.TxIDFromString(cfg.Required)
	if err != nil {
		return fmt.Errorf("invalid required txid: %v", err)
	}

	// Stage 1: selection.
	txids, err := selectBlock(params, required)
	if err != nil {
		return fmt.Errorf("selection: %v", err)
	}

	// Stage 2: commitment.  An explicit txlist overrides the selection
	// output so a previously graded block can be recommitted.
	if cfg.TxList != "" {
		txids, err = mempool.ReadTxIDListFile(cfg.TxList)
		if err != nil {
			return fmt.Errorf("commitment: malformed txid list: %v",
				err)
		}
	}
	root, err := commitBlock(txids, required)
	if err != nil {
		return fmt.Errorf("commitment: %v", err)
	}

	// Stage 3: mining.
	if err := mineBlock(params, root); err != nil {
		return fmt.Errorf("mining: %v", err)
	}

	return nil
}

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Work around defer not working after os.Exit()
	if err := realMain(); err != nil {
		if log != nil {
			log.Error(err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
