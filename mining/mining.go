// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"bytes"
	"container/heap"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockforge/blockforge/mempool"
	"github.com/blockforge/blockforge/mempool/txgraph"
)

// txPrioItem houses a transaction along with the ancestor-package values
// used to prioritize it for inclusion in a block.  The package is the
// transaction together with all of its not-yet-included ancestors; a
// transaction can only be admitted if its whole package fits.
type txPrioItem struct {
	txid chainhash.Hash

	// packageFee and packageWeight are the totals for the package as of
	// the time the item was pushed.  Admitting other transactions can
	// shrink a package, so the values are revalidated on pop and stale
	// items are requeued with fresh totals.
	packageFee    int64
	packageWeight int64

	// density is the ancestor-cost-adjusted fee density the queue orders
	// by: packageFee / packageWeight.
	density float64
}

// txPriorityQueue implements a priority queue of txPrioItem elements ordered
// by fee density.
type txPriorityQueue struct {
	items []*txPrioItem
}

// Len returns the number of items in the priority queue.  It is part of the
// heap.Interface implementation.
func (pq *txPriorityQueue) Len() int {
	return len(pq.items)
}

// Less returns whether the item in the priority queue with index i should
// sort before the item with index j.  Higher density sorts first; identifier
// order breaks ties so the selection is reproducible regardless of map
// iteration order.  It is part of the heap.Interface implementation.
func (pq *txPriorityQueue) Less(i, j int) bool {
	if pq.items[i].density != pq.items[j].density {
		return pq.items[i].density > pq.items[j].density
	}
	return bytes.Compare(pq.items[i].txid[:], pq.items[j].txid[:]) < 0
}

// Swap swaps the items at the passed indices.  It is part of the
// heap.Interface implementation.
func (pq *txPriorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// Push pushes the passed item onto the priority queue.  It is part of the
// heap.Interface implementation.
func (pq *txPriorityQueue) Push(x interface{}) {
	pq.items = append(pq.items, x.(*txPrioItem))
}

// Pop removes the highest priority item from the queue.  It is part of the
// heap.Interface implementation.
func (pq *txPriorityQueue) Pop() interface{} {
	n := len(pq.items)
	item := pq.items[n-1]
	pq.items[n-1] = nil
	pq.items = pq.items[:n-1]
	return item
}

// newTxPriorityQueue returns a new transaction priority queue that reserves
// the passed amount of space for the elements.
func newTxPriorityQueue(reserve int) *txPriorityQueue {
	return &txPriorityQueue{
		items: make([]*txPrioItem, 0, reserve),
	}
}

// BlockTemplate houses a block that has been generated from the candidate
// pool: the ordered transaction identifiers together with the fee and weight
// totals.
type BlockTemplate struct {
	// TxIDs is the ordered sequence of transactions making up the block.
	// Every transaction's in-pool parents appear at strictly earlier
	// positions.
	TxIDs []chainhash.Hash

	// Fees is the total fee paid by the block transactions.
	Fees int64

	// Weight is the total block space consumed by the block transactions.
	Weight int64
}

// templateState tracks the partially assembled block during selection.
type templateState struct {
	graph    *txgraph.Graph
	included map[chainhash.Hash]struct{}
	order    []chainhash.Hash
	fees     int64
	weight   int64
}

// packageStats returns the fee and weight totals of the given transaction's
// ancestor package, counting only members that have not been admitted yet.
// A zero weight means the transaction and its whole chain are already in the
// block.
func (s *templateState) packageStats(txid chainhash.Hash) (int64, int64) {
	var fee, weight int64

	closure, _ := s.graph.Ancestors(txid)
	for ancestor := range closure {
		if _, ok := s.included[ancestor]; ok {
			continue
		}
		node, _ := s.graph.Node(ancestor)
		fee += node.Desc.Fee
		weight += node.Desc.Weight
	}
	if _, ok := s.included[txid]; !ok {
		node, _ := s.graph.Node(txid)
		fee += node.Desc.Fee
		weight += node.Desc.Weight
	}
	return fee, weight
}

// admitChain appends the given transaction and any not-yet-included
// ancestors to the block, parents strictly before children.  Incomparable
// ancestors are admitted in identifier order so the output is reproducible.
// The caller is responsible for ensuring the package fits the budget.
func (s *templateState) admitChain(txid chainhash.Hash) {
	if _, ok := s.included[txid]; ok {
		return
	}

	node, _ := s.graph.Node(txid)
	parentIDs := make([]chainhash.Hash, 0, len(node.Parents))
	for parentID := range node.Parents {
		parentIDs = append(parentIDs, parentID)
	}
	sort.Slice(parentIDs, func(i, j int) bool {
		return bytes.Compare(parentIDs[i][:], parentIDs[j][:]) < 0
	})
	for _, parentID := range parentIDs {
		s.admitChain(parentID)
	}

	s.included[txid] = struct{}{}
	s.order = append(s.order, txid)
	s.fees += node.Desc.Fee
	s.weight += node.Desc.Weight
}

// NewBlockTemplate selects and orders a fee-maximizing subset of the pool
// subject to the weight budget, ancestor precedence, and inclusion of the
// mandatory transaction.
//
// The mandatory transaction and its full ancestor chain are admitted first;
// if that chain alone exceeds the budget no valid block exists and a
// RuleError with code ErrMandatoryTooHeavy is returned.  The remaining
// budget is then filled greedily: candidates are prioritized by
// ancestor-package fee density and a candidate is admitted, whole chain at
// once, only when the chain fits the remaining budget.  Insertion order
// already places parents before children, so the resulting sequence is a
// valid linearization without a separate sort.
//
// Selection is a weight-constrained maximum-weight-closure problem and the
// greedy pass is a heuristic, not an exact optimizer.
func NewBlockTemplate(g *txgraph.Graph, mandatory chainhash.Hash,
	maxWeight int64) (*BlockTemplate, error) {

	if _, ok := g.Node(mandatory); !ok {
		str := fmt.Sprintf("mandatory transaction %s is not in the "+
			"pool", mempool.TxIDString(&mandatory))
		return nil, ruleError(ErrMandatoryNotFound, str)
	}

	s := &templateState{
		graph:    g,
		included: make(map[chainhash.Hash]struct{}, g.Len()),
	}

	// Force-include the mandatory chain before anything else.
	chainFee, chainWeight := s.packageStats(mandatory)
	if chainWeight > maxWeight {
		str := fmt.Sprintf("mandatory transaction %s has an ancestor "+
			"chain of weight %d which alone exceeds the budget %d",
			mempool.TxIDString(&mandatory), chainWeight, maxWeight)
		return nil, ruleError(ErrMandatoryTooHeavy, str)
	}
	s.admitChain(mandatory)
	log.Debugf("Admitted mandatory chain: %d transactions, fee %d, "+
		"weight %d", len(s.order), chainFee, chainWeight)

	// Prioritize the remainder of the pool by ancestor-package fee
	// density.
	priorityQueue := newTxPriorityQueue(g.Len())
	for txid := range g.Nodes() {
		fee, weight := s.packageStats(txid)
		if weight == 0 {
			continue
		}
		heap.Push(priorityQueue, &txPrioItem{
			txid:          txid,
			packageFee:    fee,
			packageWeight: weight,
			density:       float64(fee) / float64(weight),
		})
	}

	// Greedily admit the densest remaining package that fits.  Admitting
	// a chain can make other queued packages cheaper, so items whose
	// totals are out of date are requeued at their fresh density rather
	// than acted on.
	for priorityQueue.Len() > 0 {
		item := heap.Pop(priorityQueue).(*txPrioItem)

		fee, weight := s.packageStats(item.txid)
		if weight == 0 {
			// Already admitted as part of another chain.
			continue
		}
		if fee != item.packageFee || weight != item.packageWeight {
			heap.Push(priorityQueue, &txPrioItem{
				txid:          item.txid,
				packageFee:    fee,
				packageWeight: weight,
				density:       float64(fee) / float64(weight),
			})
			continue
		}

		if s.weight+weight > maxWeight {
			log.Tracef("Skipping tx %s: chain weight %d exceeds "+
				"remaining budget %d",
				mempool.TxIDString(&item.txid), weight,
				maxWeight-s.weight)
			continue
		}

		s.admitChain(item.txid)
	}

	log.Debugf("Created new block template (%d transactions, %d fees, "+
		"%d weight)", len(s.order), s.fees, s.weight)

	return &BlockTemplate{
		TxIDs:  s.order,
		Fees:   s.fees,
		Weight: s.weight,
	}, nil
}

// CheckTemplateSanity performs the full set of validity checks on an
// assembled block: weight within budget, ancestor precedence, no duplicate
// entries, non-emptiness, and presence of the mandatory transaction.  It
// returns the first violation found, or nil for a valid block.
func CheckTemplateSanity(g *txgraph.Graph, template *BlockTemplate,
	mandatory chainhash.Hash, maxWeight int64) error {

	if len(template.TxIDs) == 0 {
		return fmt.Errorf("block is empty")
	}

	position := make(map[chainhash.Hash]int, len(template.TxIDs))
	var weight int64
	for i, txid := range template.TxIDs {
		if _, ok := position[txid]; ok {
			return fmt.Errorf("duplicate transaction %s",
				mempool.TxIDString(&txid))
		}
		position[txid] = i

		node, ok := g.Node(txid)
		if !ok {
			return fmt.Errorf("transaction %s is not in the pool",
				mempool.TxIDString(&txid))
		}
		weight += node.Desc.Weight

		for parentID := range node.Parents {
			pos, ok := position[parentID]
			if !ok {
				return fmt.Errorf("parent %s of %s is not in "+
					"the block",
					mempool.TxIDString(&parentID),
					mempool.TxIDString(&txid))
			}
			if pos >= i {
				return fmt.Errorf("parent %s of %s appears "+
					"at position %d which is not earlier "+
					"than %d",
					mempool.TxIDString(&parentID),
					mempool.TxIDString(&txid), pos, i)
			}
		}
	}

	if weight > maxWeight {
		return fmt.Errorf("total weight %d exceeds budget %d", weight,
			maxWeight)
	}
	if _, ok := position[mandatory]; !ok {
		return fmt.Errorf("mandatory transaction %s is not in the "+
			"block", mempool.TxIDString(&mandatory))
	}

	return nil
}
