// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package merkle builds binary keccak256 commitments whose sibling pairs are hashed in sorted
// order, so a proof carries no left/right flags.
package merkle

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

var (
	ErrEmpty         = errors.New("merkle: no leaves")
	ErrDuplicateLeaf = errors.New("merkle: duplicate leaf")
	ErrUnknownLeaf   = errors.New("merkle: leaf not in tree")
)

// HashPair hashes two nodes in byte order.
func HashPair(a, b ecm.Bytes32) ecm.Bytes32 {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return ecm.Keccak256(a[:], b[:])
}

// Verify reports whether proof authenticates leaf against root.
func Verify(proof []ecm.Bytes32, root, leaf ecm.Bytes32) bool {
	return ProcessProof(proof, leaf) == root
}

// ProcessProof folds proof into leaf and returns the reconstructed root.
func ProcessProof(proof []ecm.Bytes32, leaf ecm.Bytes32) ecm.Bytes32 {
	node := leaf
	for _, sibling := range proof {
		node = HashPair(node, sibling)
	}
	return node
}

// Tree keeps every layer so proofs can be produced for any leaf.
// layers[0] holds the sorted leaves, the last layer holds the root.
type Tree struct {
	layers [][]ecm.Bytes32
	index  map[ecm.Bytes32]int
}

// New builds the tree. The root does not depend on the order of leaves.
func New(leaves []ecm.Bytes32) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmpty
	}
	sorted := make([]ecm.Bytes32, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	index := make(map[ecm.Bytes32]int, len(sorted))
	for i, l := range sorted {
		if _, dup := index[l]; dup {
			return nil, errors.Wrapf(ErrDuplicateLeaf, "%v", l)
		}
		index[l] = i
	}

	layers := [][]ecm.Bytes32{sorted}
	for layer := sorted; len(layer) > 1; {
		next := make([]ecm.Bytes32, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				// odd node moves up unchanged
				next = append(next, layer[i])
				continue
			}
			next = append(next, HashPair(layer[i], layer[i+1]))
		}
		layers = append(layers, next)
		layer = next
	}
	return &Tree{layers: layers, index: index}, nil
}

func (t *Tree) Root() ecm.Bytes32 {
	return t.layers[len(t.layers)-1][0]
}

func (t *Tree) Len() int {
	return len(t.layers[0])
}

// Proof returns the sibling path of leaf.
func (t *Tree) Proof(leaf ecm.Bytes32) ([]ecm.Bytes32, error) {
	i, ok := t.index[leaf]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLeaf, "%v", leaf)
	}
	var proof []ecm.Bytes32
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := i ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		i /= 2
	}
	return proof, nil
}
