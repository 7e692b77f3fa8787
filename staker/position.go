// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

// settle touches the pool and moves the reward earned since the last checkpoint into
// PendingRewards. RewardDebt is left to the caller.
func (e *Engine) settle(p *Pool, pos *Position, now uint64) error {
	if err := e.touch(p, now); err != nil {
		return err
	}
	acc, err := accumulated(pos.Staked, p.AccRewardPerShare)
	if err != nil {
		return err
	}
	if acc.Gt(pos.RewardDebt) {
		if pos.PendingRewards, err = ecm.Add(pos.PendingRewards, new(uint256.Int).Sub(acc, pos.RewardDebt)); err != nil {
			return errors.Wrap(err, "pending rewards")
		}
	}
	return nil
}

// stake adds amount to the position and restarts its lock.
func (e *Engine) stake(p *Pool, pos *Position, amount *uint256.Int, duration uint64, now uint64) error {
	if pos.Staked.IsZero() && !pos.HasStaked {
		pos.HasStaked = true
		pos.FirstStakeTime = now
		p.UniqueStakers++
	}
	if !pos.Staked.IsZero() {
		if err := e.settle(p, pos, now); err != nil {
			return err
		}
	} else if err := e.touch(p, now); err != nil {
		return err
	}

	var err error
	if pos.Staked, err = ecm.Add(pos.Staked, amount); err != nil {
		return errors.Wrap(err, "staked")
	}
	if p.TotalStaked, err = ecm.Add(p.TotalStaked, amount); err != nil {
		return errors.Wrap(err, "total staked")
	}
	pos.StakeStart = now
	pos.StakeDuration = duration
	if pos.RewardDebt, err = accumulated(pos.Staked, p.AccRewardPerShare); err != nil {
		return err
	}

	if pos.TotalStaked, err = ecm.Add(pos.TotalStaked, amount); err != nil {
		return errors.Wrap(err, "position total staked")
	}
	pos.LastActionTime = now
	if p.LifetimeStaked, err = ecm.Add(p.LifetimeStaked, amount); err != nil {
		return errors.Wrap(err, "lifetime staked")
	}
	if p.TotalStaked.Gt(p.PeakStaked) {
		p.PeakStaked = p.TotalStaked.Clone()
	}
	return nil
}

// claimable is Staked*acc/PRECISION - RewardDebt + PendingRewards against the checkpoint acc.
func claimable(pos *Position, acc *uint256.Int) (*uint256.Int, error) {
	a, err := accumulated(pos.Staked, acc)
	if err != nil {
		return nil, err
	}
	return ecm.Add(ecm.SaturatingSub(a, pos.RewardDebt), pos.PendingRewards)
}
