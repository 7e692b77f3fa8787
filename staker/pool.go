// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/emission"
)

// accumulated is staked*acc/PRECISION, rounded down.
func accumulated(staked, acc *uint256.Int) (*uint256.Int, error) {
	v, err := ecm.MulDiv(staked, acc, ecm.Precision)
	if err != nil {
		return nil, errors.Wrap(err, "accumulated reward")
	}
	return v, nil
}

// touch brings the reward checkpoint of p up to now. It must run before anything reads or
// writes AccRewardPerShare, and calling it again at the same now changes nothing.
func (e *Engine) touch(p *Pool, now uint64) error {
	if now <= p.LastRewardTime {
		return nil
	}
	if p.TotalStaked.IsZero() {
		p.LastRewardTime = now
		return nil
	}
	accrued, err := emission.Advance(&p.Schedule, p.LastRewardTime, now)
	if err != nil {
		return errors.Wrap(err, "emission")
	}
	if remaining := p.RemainingRewards(); accrued.Gt(remaining) {
		accrued = remaining
		p.Schedule.Stop()
		p.Exhausted = true
		logger.Info("reward budget exhausted", "pool", p.ID, "accrued", p.TotalRewardsAccrued)
	}
	if !accrued.IsZero() {
		if p.TotalRewardsAccrued, err = ecm.Add(p.TotalRewardsAccrued, accrued); err != nil {
			return errors.Wrap(err, "total rewards accrued")
		}
		inc, err := ecm.MulDiv(accrued, ecm.Precision, p.TotalStaked)
		if err != nil {
			return errors.Wrap(err, "reward per share")
		}
		if p.AccRewardPerShare, err = ecm.Add(p.AccRewardPerShare, inc); err != nil {
			return errors.Wrap(err, "reward per share")
		}
	}
	p.LastRewardTime = now
	return nil
}

// previewAccRewardPerShare is what touch would set AccRewardPerShare to at now, without
// mutating p. It also returns the schedule and the budget left at now.
func previewAccRewardPerShare(p *Pool, now uint64) (*uint256.Int, *emission.Schedule, *uint256.Int, error) {
	sched := p.Schedule.Copy()
	remaining := p.RemainingRewards()
	if now <= p.LastRewardTime || p.TotalStaked.IsZero() {
		return p.AccRewardPerShare.Clone(), sched, remaining, nil
	}
	accrued, index, err := emission.Compute(sched, p.LastRewardTime, now)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "emission")
	}
	sched.BucketIndex = index
	if accrued.Gt(remaining) {
		accrued = remaining
		sched.Stop()
	}
	remaining = new(uint256.Int).Sub(remaining, accrued)
	inc, err := ecm.MulDiv(accrued, ecm.Precision, p.TotalStaked)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "reward per share")
	}
	acc, err := ecm.Add(p.AccRewardPerShare, inc)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "reward per share")
	}
	return acc, sched, remaining, nil
}

// payOrVest pays up to amount of reward to beneficiary, clamped to what is left of the budget.
// Pools that vest by default route the payment through the escrow; an escrow failure fails the
// whole operation.
func (e *Engine) payOrVest(p *Pool, beneficiary ecm.Address, amount *uint256.Int, now uint64) (*uint256.Int, bool, error) {
	paid := ecm.Min(amount, ecm.SaturatingSub(p.AllocatedForRewards, p.RewardsPaid))
	if paid.IsZero() {
		return paid, false, nil
	}
	var err error
	if p.RewardsPaid, err = ecm.Add(p.RewardsPaid, paid); err != nil {
		return nil, false, errors.Wrap(err, "rewards paid")
	}

	if p.VestRewardsByDefault && e.collab.Escrow != nil {
		escrow := e.collab.Escrow
		if err := e.tokens.Transfer(e.cfg.SaleToken, e.cfg.Account, escrow.Holder(), paid); err != nil {
			return nil, false, errors.Wrap(err, "failed to fund escrow")
		}
		id, err := escrow.CreateVesting(beneficiary, paid, now, p.VestingDuration, e.cfg.SaleToken, p.ID)
		if err != nil {
			return nil, false, errors.Wrap(err, "vesting escrow")
		}
		metricRewardsPaid().AddWithLabel(gaugeValue(paid), map[string]string{"pool": poolLabel(p.ID), "route": "vested"})
		e.events.Emit("RewardsVested", now, "pool", p.ID, "user", beneficiary, "amount", paid.Clone(), "schedule", id)
		return paid, true, nil
	}
	if err := e.tokens.Transfer(e.cfg.SaleToken, e.cfg.Account, beneficiary, paid); err != nil {
		return nil, false, errors.Wrap(err, "failed to pay reward")
	}
	metricRewardsPaid().AddWithLabel(gaugeValue(paid), map[string]string{"pool": poolLabel(p.ID), "route": "direct"})
	return paid, false, nil
}
