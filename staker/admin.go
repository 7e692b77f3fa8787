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

func validateDurations(durations []uint64, maxDuration uint64) error {
	if len(durations) == 0 {
		return ErrInvalidDurations
	}
	for _, d := range durations {
		if d == 0 || d > maxDuration {
			return errors.WithMessagef(ErrInvalidDurations, "duration %d", d)
		}
	}
	return nil
}

func validatePenalty(bps uint64, receiver ecm.Address) error {
	if bps > ecm.BpsDenominator {
		return ErrInvalidBps
	}
	if bps > 0 && receiver.IsZero() {
		return ErrZeroAddress
	}
	return nil
}

func (e *Engine) validateVestingRule(duration uint64, byDefault bool) error {
	if byDefault && (duration == 0 || e.collab.Escrow == nil) {
		return ErrInvalidVestingRule
	}
	return nil
}

// CreatePool registers an active pool with no inventory and a zero rate schedule.
func (e *Engine) CreatePool(params PoolParams, now uint64) (uint64, error) {
	var id uint64
	err := e.atomic("create_pool", func() error {
		if err := validateDurations(params.AllowedDurations, params.MaxDuration); err != nil {
			return err
		}
		if err := validatePenalty(params.PenaltyBps, params.PenaltyReceiver); err != nil {
			return err
		}
		if err := e.validateVestingRule(params.VestingDuration, params.VestRewardsByDefault); err != nil {
			return err
		}
		var err error
		if id, err = e.storage.nextPoolID(); err != nil {
			return err
		}
		p := &Pool{
			ID:                   id,
			Active:               true,
			CreatedAt:            now,
			LastRewardTime:       now,
			Schedule:             *emission.NewContinuous(ecm.Zero()),
			AllowedDurations:     append([]uint64{}, params.AllowedDurations...),
			MaxDuration:          params.MaxDuration,
			PenaltyBps:           params.PenaltyBps,
			PenaltyReceiver:      params.PenaltyReceiver,
			VestingDuration:      params.VestingDuration,
			VestRewardsByDefault: params.VestRewardsByDefault,
		}
		p.normalize()
		if err := e.savePool(p); err != nil {
			return err
		}
		e.events.Emit("PoolCreated", now, "pool", id)
		logger.Info("pool created", "pool", id)
		return nil
	})
	return id, err
}

// updatePool runs fn on pool id after bringing its checkpoint to now, then saves it.
func (e *Engine) updatePool(op string, id uint64, now uint64, fn func(p *Pool) error) error {
	return e.atomic(op, func() error {
		p, err := e.storage.getPool(id)
		if err != nil {
			return err
		}
		if err := e.touch(p, now); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		return e.savePool(p)
	})
}

func (e *Engine) SetPoolActive(id uint64, active bool, now uint64) error {
	return e.updatePool("set_pool_active", id, now, func(p *Pool) error {
		p.Active = active
		e.events.Emit("PoolActiveSet", now, "pool", id, "active", active)
		return nil
	})
}

// AddSaleAllocation moves amount of the sale token from funder into the inventory of the pool.
func (e *Engine) AddSaleAllocation(id uint64, funder ecm.Address, amount *uint256.Int, now uint64) error {
	return e.updatePool("add_sale_allocation", id, now, func(p *Pool) error {
		if amount == nil || amount.IsZero() {
			return ErrZeroAmount
		}
		if err := e.tokens.Transfer(e.cfg.SaleToken, funder, e.cfg.Account, amount); err != nil {
			return errors.Wrap(err, "failed to pull allocation")
		}
		var err error
		if p.AllocatedForSale, err = ecm.Add(p.AllocatedForSale, amount); err != nil {
			return errors.Wrap(err, "allocated for sale")
		}
		e.events.Emit("SaleAllocationAdded", now, "pool", id, "amount", amount.Clone())
		return nil
	})
}

// AddRewardAllocation tops up the reward budget. It does not restart a schedule that stopped
// because the budget ran out; configuring a new schedule does.
func (e *Engine) AddRewardAllocation(id uint64, funder ecm.Address, amount *uint256.Int, now uint64) error {
	return e.updatePool("add_reward_allocation", id, now, func(p *Pool) error {
		if amount == nil || amount.IsZero() {
			return ErrZeroAmount
		}
		if err := e.tokens.Transfer(e.cfg.SaleToken, funder, e.cfg.Account, amount); err != nil {
			return errors.Wrap(err, "failed to pull allocation")
		}
		var err error
		if p.AllocatedForRewards, err = ecm.Add(p.AllocatedForRewards, amount); err != nil {
			return errors.Wrap(err, "allocated for rewards")
		}
		e.events.Emit("RewardAllocationAdded", now, "pool", id, "amount", amount.Clone())
		return nil
	})
}

// SetContinuousRate switches the pool to a constant per-second emission.
func (e *Engine) SetContinuousRate(id uint64, rate *uint256.Int, now uint64) error {
	return e.updatePool("set_schedule", id, now, func(p *Pool) error {
		if rate == nil {
			return ErrInvalidSchedule
		}
		p.Schedule = *emission.NewContinuous(rate)
		p.Exhausted = false
		e.events.Emit("ScheduleSet", now, "pool", id, "strategy", emission.Continuous, "rate", rate.Clone())
		return nil
	})
}

// SetMonthlySchedule configures 30 day buckets opening at start, or at now when start is zero.
func (e *Engine) SetMonthlySchedule(id uint64, amounts []*uint256.Int, start, now uint64) error {
	return e.setBucketed(id, emission.Monthly, amounts, start, now)
}

// SetWeeklySchedule configures 7 day buckets opening at start, or at now when start is zero.
func (e *Engine) SetWeeklySchedule(id uint64, amounts []*uint256.Int, start, now uint64) error {
	return e.setBucketed(id, emission.Weekly, amounts, start, now)
}

func (e *Engine) setBucketed(id uint64, strategy emission.Strategy, amounts []*uint256.Int, start, now uint64) error {
	return e.updatePool("set_schedule", id, now, func(p *Pool) error {
		if start == 0 {
			start = now
		}
		sched := emission.NewBucketed(strategy, amounts, start)
		if err := sched.Validate(); err != nil {
			return errors.WithMessage(ErrInvalidSchedule, err.Error())
		}
		total, err := sched.Total()
		if err != nil {
			return errors.WithMessage(ErrInvalidSchedule, err.Error())
		}
		if total.Gt(p.RemainingRewards()) {
			return errors.WithMessagef(ErrScheduleOverBudget, "schedule %v, budget left %v", total, p.RemainingRewards())
		}
		p.Schedule = *sched
		p.Exhausted = false
		e.events.Emit("ScheduleSet", now, "pool", id, "strategy", strategy, "buckets", len(amounts), "total", total)
		return nil
	})
}

func (e *Engine) SetAllowedDurations(id uint64, durations []uint64, maxDuration uint64, now uint64) error {
	return e.updatePool("set_durations", id, now, func(p *Pool) error {
		if err := validateDurations(durations, maxDuration); err != nil {
			return err
		}
		p.AllowedDurations = append([]uint64{}, durations...)
		p.MaxDuration = maxDuration
		e.events.Emit("DurationsSet", now, "pool", id, "durations", p.AllowedDurations, "max", maxDuration)
		return nil
	})
}

func (e *Engine) SetPenalty(id uint64, bps uint64, receiver ecm.Address, now uint64) error {
	return e.updatePool("set_penalty", id, now, func(p *Pool) error {
		if err := validatePenalty(bps, receiver); err != nil {
			return err
		}
		p.PenaltyBps = bps
		p.PenaltyReceiver = receiver
		e.events.Emit("PenaltySet", now, "pool", id, "bps", bps, "receiver", receiver)
		return nil
	})
}

func (e *Engine) SetVestingRule(id uint64, duration uint64, byDefault bool, now uint64) error {
	return e.updatePool("set_vesting", id, now, func(p *Pool) error {
		if err := e.validateVestingRule(duration, byDefault); err != nil {
			return err
		}
		p.VestingDuration = duration
		p.VestRewardsByDefault = byDefault
		e.events.Emit("VestingRuleSet", now, "pool", id, "duration", duration, "byDefault", byDefault)
		return nil
	})
}
