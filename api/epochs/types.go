// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"github.com/holiman/uint256"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
)

type Batch struct {
	Namespace     string       `json:"namespace"`
	ID            uint64       `json:"id"`
	Root          ecm.Bytes32  `json:"root"`
	Token         ecm.Address  `json:"token"`
	TotalAmount   *uint256.Int `json:"totalAmount"`
	ClaimedAmount *uint256.Int `json:"claimedAmount"`
	Funded        bool         `json:"funded"`
	CreatedAt     uint64       `json:"createdAt"`
	Expiry        uint64       `json:"expiry"`
	Swept         bool         `json:"swept"`
}

func convertBatch(namespace string, b *epochclaim.Batch) *Batch {
	return &Batch{
		Namespace:     namespace,
		ID:            b.ID,
		Root:          b.Root,
		Token:         b.Token,
		TotalAmount:   b.TotalAmount,
		ClaimedAmount: b.ClaimedAmount,
		Funded:        b.Funded,
		CreatedAt:     b.CreatedAt,
		Expiry:        b.Expiry,
		Swept:         b.Swept,
	}
}

type Claimed struct {
	Claimant ecm.Address `json:"claimant"`
	Claimed  bool        `json:"claimed"`
}
