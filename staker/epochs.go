// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
)

// PublishRewardBatch publishes a reward batch computed off-ledger, paid in the sale token.
// A non-zero funder first moves total into the batch holder; otherwise the holder must already
// cover it.
func (e *Engine) PublishRewardBatch(id uint64, funder ecm.Address, total *uint256.Int, root ecm.Bytes32, expiry, now uint64) (*epochclaim.Batch, error) {
	var batch *epochclaim.Batch
	err := e.atomic("publish_reward_batch", func() error {
		if !funder.IsZero() && total != nil {
			if err := e.tokens.Transfer(e.cfg.SaleToken, funder, e.rewards.Holder(), total); err != nil {
				return errors.Wrap(err, "failed to fund batch")
			}
		}
		var err error
		batch, err = e.rewards.Publish(id, e.cfg.SaleToken, total, root, expiry, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (e *Engine) ClaimRewardBatch(id uint64, claimant ecm.Address, amount *uint256.Int, proof []ecm.Bytes32, now uint64) error {
	return e.atomic("claim_reward_batch", func() error {
		return e.rewards.Claim(id, claimant, e.cfg.SaleToken, amount, proof, now)
	})
}

func (e *Engine) SweepRewardBatch(id uint64, to ecm.Address, now uint64) (*uint256.Int, error) {
	var swept *uint256.Int
	err := e.atomic("sweep_reward_batch", func() error {
		var err error
		swept, err = e.rewards.SweepExpired(id, to, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}
