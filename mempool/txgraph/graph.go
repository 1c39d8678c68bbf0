// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txgraph models the candidate pool as a directed acyclic graph of
// transactions with child to parent edges.  The graph is built once from a
// set of pool records and is read-only afterward, so no locking is required
// by consumers.
package txgraph

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockforge/blockforge/mempool"
)

var (
	// ErrParentNotFound is returned when a record references a parent
	// that is never defined as a node in the pool.
	ErrParentNotFound = errors.New("parent not found in pool")

	// ErrCycleDetected is returned when a transaction ancestors itself,
	// directly or transitively.
	ErrCycleDetected = errors.New("cycle detected in graph")

	// ErrNodeNotFound is returned when a node is not found in the graph.
	ErrNodeNotFound = errors.New("node not found in graph")
)

// GraphNode is a transaction within the ancestor graph along with its
// resolved direct parents.
type GraphNode struct {
	// Desc is the pool record the node was built from.
	Desc *mempool.TxDesc

	// Parents maps to the nodes this transaction directly depends on.
	// Using a map enables O(1) parent existence checks during traversal.
	Parents map[chainhash.Hash]*GraphNode
}

// Graph is an ancestor graph over a candidate pool.  Nodes are kept in a map
// keyed by identifier rather than as a pointer web so that diamond-shaped
// sharing of ancestors is naturally represented without confusing it with a
// true cycle.
type Graph struct {
	// nodes stores all transactions in the pool keyed by identifier.
	nodes map[chainhash.Hash]*GraphNode

	// ancestors memoizes the full ancestor closure of every node.  The
	// closures are computed eagerly when the graph is built, which both
	// validates acyclicity up front and keeps the graph read-only for
	// the selection stage.
	ancestors map[chainhash.Hash]map[chainhash.Hash]struct{}
}

// New builds the ancestor graph for the given pool records.  It fails with
// ErrParentNotFound if any record references an undefined parent and with
// ErrCycleDetected if any transaction transitively ancestors itself.
func New(descs []*mempool.TxDesc) (*Graph, error) {
	g := &Graph{
		nodes:     make(map[chainhash.Hash]*GraphNode, len(descs)),
		ancestors: make(map[chainhash.Hash]map[chainhash.Hash]struct{}, len(descs)),
	}

	for _, desc := range descs {
		g.nodes[desc.TxID] = &GraphNode{
			Desc:    desc,
			Parents: make(map[chainhash.Hash]*GraphNode, len(desc.Parents)),
		}
	}

	// Resolve parent references now that every node exists.
	for _, desc := range descs {
		node := g.nodes[desc.TxID]
		for _, parentID := range desc.Parents {
			parent, ok := g.nodes[parentID]
			if !ok {
				return nil, fmt.Errorf("%w: %s referenced by %s",
					ErrParentNotFound,
					mempool.TxIDString(&parentID),
					mempool.TxIDString(&desc.TxID))
			}
			node.Parents[parentID] = parent
		}
	}

	// Compute every closure eagerly.  The traversal doubles as cycle
	// detection via the recursion stack check in closureFor.
	onStack := make(map[chainhash.Hash]struct{})
	for txid := range g.nodes {
		if _, err := g.closureFor(txid, onStack); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// closureFor returns the memoized ancestor closure of txid, computing it by
// depth-first traversal on first use.  onStack tracks the current recursion
// stack: revisiting a node that is still on the stack means the parent
// relation loops back on itself, which is invalid input rather than diamond
// sharing.
func (g *Graph) closureFor(txid chainhash.Hash,
	onStack map[chainhash.Hash]struct{}) (map[chainhash.Hash]struct{}, error) {

	if closure, ok := g.ancestors[txid]; ok {
		return closure, nil
	}
	if _, ok := onStack[txid]; ok {
		return nil, fmt.Errorf("%w: involving %s", ErrCycleDetected,
			mempool.TxIDString(&txid))
	}

	onStack[txid] = struct{}{}
	defer delete(onStack, txid)

	node := g.nodes[txid]
	closure := make(map[chainhash.Hash]struct{}, len(node.Parents))
	for parentID := range node.Parents {
		closure[parentID] = struct{}{}
		parentClosure, err := g.closureFor(parentID, onStack)
		if err != nil {
			return nil, err
		}
		for ancestor := range parentClosure {
			closure[ancestor] = struct{}{}
		}
	}

	g.ancestors[txid] = closure
	return closure, nil
}

// Node returns the graph node for the given identifier.
func (g *Graph) Node(txid chainhash.Hash) (*GraphNode, bool) {
	node, ok := g.nodes[txid]
	return node, ok
}

// Ancestors returns the full ancestor closure of the given transaction as a
// set of identifiers.  The returned map is shared and must not be mutated.
func (g *Graph) Ancestors(txid chainhash.Hash) (map[chainhash.Hash]struct{}, error) {
	closure, ok := g.ancestors[txid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound,
			mempool.TxIDString(&txid))
	}
	return closure, nil
}

// Nodes returns all nodes in the graph.  Iteration order is not specified.
func (g *Graph) Nodes() map[chainhash.Hash]*GraphNode {
	return g.nodes
}

// Len returns the number of transactions in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}
