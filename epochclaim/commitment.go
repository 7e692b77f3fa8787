// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochclaim

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/merkle"
)

// Entry is one off-chain computed entitlement.
type Entry struct {
	Claimant ecm.Address  `json:"claimant" yaml:"claimant"`
	Amount   *uint256.Int `json:"amount" yaml:"amount"`
}

// Commitment is everything needed to publish a batch and to claim from it.
type Commitment struct {
	BatchID uint64                        `json:"batchId"`
	Token   ecm.Address                   `json:"token"`
	Root    ecm.Bytes32                   `json:"root"`
	Total   *uint256.Int                  `json:"total"`
	Proofs  map[ecm.Address][]ecm.Bytes32 `json:"proofs"`
}

// Commit builds the merkle commitment of entries for batchID. Each claimant may appear once.
func Commit(leaf LeafEncoder, token ecm.Address, batchID uint64, entries []Entry) (*Commitment, error) {
	if leaf == nil {
		leaf = DefaultLeaf
	}
	var (
		total  = ecm.Zero()
		leaves = make([]ecm.Bytes32, 0, len(entries))
		seen   = make(map[ecm.Address]ecm.Bytes32, len(entries))
		err    error
	)
	for _, e := range entries {
		if e.Amount == nil || e.Amount.IsZero() {
			return nil, errors.Errorf("entry %v: zero amount", e.Claimant)
		}
		if _, dup := seen[e.Claimant]; dup {
			return nil, errors.Errorf("entry %v: duplicate claimant", e.Claimant)
		}
		if total, err = ecm.Add(total, e.Amount); err != nil {
			return nil, errors.Wrap(err, "total")
		}
		l := leaf(e.Claimant, token, e.Amount, batchID)
		seen[e.Claimant] = l
		leaves = append(leaves, l)
	}
	tree, err := merkle.New(leaves)
	if err != nil {
		return nil, err
	}
	proofs := make(map[ecm.Address][]ecm.Bytes32, len(seen))
	for claimant, l := range seen {
		if proofs[claimant], err = tree.Proof(l); err != nil {
			return nil, err
		}
	}
	return &Commitment{
		BatchID: batchID,
		Token:   token,
		Root:    tree.Root(),
		Total:   total,
		Proofs:  proofs,
	}, nil
}

// Commit builds a commitment with the leaf encoding of this ledger.
func (l *Ledger) Commit(token ecm.Address, batchID uint64, entries []Entry) (*Commitment, error) {
	return Commit(l.leaf, token, batchID, entries)
}
