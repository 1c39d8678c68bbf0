// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cpuminer

import (
	"math/big"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/blockforge/blockforge/blockchain"
	"github.com/blockforge/blockforge/chaincfg"
	"github.com/blockforge/blockforge/wire"
)

const (
	// defaultNoncesPerTimestamp is the number of nonce values tried for a
	// single timestamp before the search advances to the next timestamp.
	// The nonce field is 64 bits wide, so exhausting it is not feasible;
	// the per-timestamp budget keeps both degrees of freedom moving.
	defaultNoncesPerTimestamp = 1 << 24

	// supersededCheckInterval is the number of hash attempts a worker
	// performs between checks of the shared result slot.  Cancellation is
	// cooperative: workers finish their current hash and observe the
	// signal between attempts, they are never preempted.
	supersededCheckInterval = 1 << 12
)

// defaultNumWorkers is the default number of workers to use for mining and
// is based on the number of processor cores.  This helps ensure the system
// stays reasonably responsive under heavy load.
var defaultNumWorkers = runtime.NumCPU()

// Config is a descriptor containing the cpu miner configuration.
type Config struct {
	// Params identifies the parameters the miner searches under: the
	// proof-of-work target, the timestamp window, and the previous block
	// hash the header must carry.
	Params *chaincfg.Params

	// NumWorkers is the number of goroutines the nonce space is
	// partitioned across.  Zero or negative selects a default based on
	// the number of processor cores.
	NumWorkers int

	// NoncesPerTimestamp overrides the per-timestamp nonce budget.  Zero
	// selects the default.
	NoncesPerTimestamp uint64
}

// Miner provides facilities for solving a block header using the CPU in a
// concurrency-safe manner: it searches timestamp/nonce combinations until
// the header's hash satisfies the configured target.
type Miner struct {
	cfg             Config
	numWorkers      int
	noncesPerTstamp uint64
	hashesCompleted uint64 // atomic
}

// New returns a new instance of a CPU miner for the provided configuration.
func New(cfg *Config) *Miner {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}
	noncesPerTstamp := cfg.NoncesPerTimestamp
	if noncesPerTstamp == 0 {
		noncesPerTstamp = defaultNoncesPerTimestamp
	}

	return &Miner{
		cfg:             *cfg,
		numWorkers:      numWorkers,
		noncesPerTstamp: noncesPerTstamp,
	}
}

// HashesCompleted returns the total number of header hashes performed so
// far across all workers and rounds.
func (m *Miner) HashesCompleted() uint64 {
	return atomic.LoadUint64(&m.hashesCompleted)
}

// solution is the shared single "found" slot for one timestamp round.  The
// nonce space is partitioned into disjoint ascending ranges, so the hit
// owned by the lowest range start is also the lowest satisfying nonce; the
// slot only ever moves toward lower range starts, which both makes the
// first writer effectively win and keeps the reported result deterministic
// for any worker count.
type solution struct {
	mu         sync.Mutex
	found      bool
	rangeStart uint64
	header     wire.BlockHeader
}

// report records a satisfying header found by the worker owning the given
// range start, unless a lower range has already reported.
func (s *solution) report(rangeStart uint64, header *wire.BlockHeader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.found || rangeStart < s.rangeStart {
		s.found = true
		s.rangeStart = rangeStart
		s.header = *header
	}
}

// supersedes returns whether a worker owning the given range start may stop
// searching: once a lower range has reported, no hit from this range can
// improve on it.  The lowest-range worker with a hit is therefore never cut
// off before finding it, which is what makes the round deterministic.
func (s *solution) supersedes(rangeStart uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.found && s.rangeStart < rangeStart
}

// solveRange scans the half-open nonce range [start, end) for the given
// header candidate, reporting the first satisfying header into sol.  It
// returns early when the external quit channel fires or when a lower range
// has already reported.
func (m *Miner) solveRange(header wire.BlockHeader, start, end uint64,
	target *big.Int, sol *solution, quit chan struct{}) {

	var hashesCompleted uint64
	defer func() {
		atomic.AddUint64(&m.hashesCompleted, hashesCompleted)
	}()

	for nonce := start; nonce < end; nonce++ {
		select {
		case <-quit:
			return
		default:
			// Non-blocking select to fall through
		}

		if hashesCompleted%supersededCheckInterval == 0 &&
			sol.supersedes(start) {

			return
		}

		header.Nonce = nonce
		hash := header.BlockHash()
		hashesCompleted++

		if blockchain.HashToBig(&hash).Cmp(target) <= 0 {
			sol.report(start, &header)
			return
		}
	}
}

// solveTimestamp runs one worker round over the nonce budget for a single
// timestamp and returns the solved header, if any.
func (m *Miner) solveTimestamp(header wire.BlockHeader,
	quit chan struct{}) (wire.BlockHeader, bool) {

	span := m.noncesPerTstamp / uint64(m.numWorkers)
	if span == 0 {
		span = 1
	}

	var (
		sol solution
		wg  sync.WaitGroup
	)
	for i := 0; i < m.numWorkers; i++ {
		start := uint64(i) * span
		end := start + span
		if i == m.numWorkers-1 {
			end = m.noncesPerTstamp
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end uint64) {
			defer wg.Done()
			m.solveRange(header, start, end, m.cfg.Params.PowLimit,
				&sol, quit)
		}(start, end)
	}
	wg.Wait()

	sol.mu.Lock()
	defer sol.mu.Unlock()
	return sol.header, sol.found
}

// Solve attempts to find a timestamp and nonce which make the passed header
// hash to a value less than or equal to the configured target.  The version,
// previous block, and merkle root fields of the header are used as given;
// the timestamp and nonce fields are overwritten by the search.
//
// Timestamps are tried in ascending order across the configured window
// (both bounds exclusive) and within each timestamp the nonce budget is
// partitioned across the worker goroutines, so the returned header carries
// the lowest satisfying timestamp and, for that timestamp, the lowest
// satisfying nonce the budget covers.
//
// The boolean return reports whether a satisfying header was found before
// the search space was exhausted or the quit channel fired.  An exhausted
// window is not an error: the target, window, and nonce budget are operator
// supplied tuning knobs.
func (m *Miner) Solve(header wire.BlockHeader,
	quit chan struct{}) (wire.BlockHeader, bool) {

	params := m.cfg.Params
	log.Debugf("Searching for a solution below target %064x with %d "+
		"workers", params.PowLimit, m.numWorkers)

	for tstamp := params.MinTimestamp + 1; tstamp < params.MaxTimestamp; tstamp++ {
		select {
		case <-quit:
			return header, false
		default:
		}

		header.Timestamp = tstamp
		solved, ok := m.solveTimestamp(header, quit)
		if ok {
			hash := solved.BlockHash()
			log.Infof("Solved header at timestamp %d nonce %d "+
				"(hash %064x)", solved.Timestamp, solved.Nonce,
				blockchain.HashToBig(&hash))
			return solved, true
		}
	}

	log.Warnf("Exhausted timestamp window [%d, %d] without a solution; "+
		"the target and nonce budget are tuning knobs",
		params.MinTimestamp+1, params.MaxTimestamp-1)
	return header, false
}
