// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package service

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/amm"
	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/staker"
)

// LiquidityPool is where reported liquidity deposits end up in the token ledger.
var LiquidityPool = epochclaim.HolderAddress("amm-liquidity")

func (s *Service) Mint(tok, to ecm.Address, amount *uint256.Int) error {
	return s.mutate("mint", func(uint64) error {
		return s.tokens.Mint(tok, to, amount)
	})
}

func (s *Service) CreatePool(params staker.PoolParams) (id uint64, err error) {
	err = s.mutate("create_pool", func(now uint64) (err error) {
		id, err = s.engine.CreatePool(params, now)
		return
	})
	return
}

func (s *Service) SetPoolActive(id uint64, active bool) error {
	return s.mutate("set_pool_active", func(now uint64) error {
		return s.engine.SetPoolActive(id, active, now)
	})
}

func (s *Service) AddSaleAllocation(id uint64, funder ecm.Address, amount *uint256.Int) error {
	return s.mutate("add_sale_allocation", func(now uint64) error {
		return s.engine.AddSaleAllocation(id, funder, amount, now)
	})
}

func (s *Service) AddRewardAllocation(id uint64, funder ecm.Address, amount *uint256.Int) error {
	return s.mutate("add_reward_allocation", func(now uint64) error {
		return s.engine.AddRewardAllocation(id, funder, amount, now)
	})
}

func (s *Service) SetContinuousRate(id uint64, rate *uint256.Int) error {
	return s.mutate("set_schedule", func(now uint64) error {
		return s.engine.SetContinuousRate(id, rate, now)
	})
}

func (s *Service) SetMonthlySchedule(id uint64, amounts []*uint256.Int, start uint64) error {
	return s.mutate("set_schedule", func(now uint64) error {
		return s.engine.SetMonthlySchedule(id, amounts, start, now)
	})
}

func (s *Service) SetWeeklySchedule(id uint64, amounts []*uint256.Int, start uint64) error {
	return s.mutate("set_schedule", func(now uint64) error {
		return s.engine.SetWeeklySchedule(id, amounts, start, now)
	})
}

func (s *Service) SetAllowedDurations(id uint64, durations []uint64, maxDuration uint64) error {
	return s.mutate("set_durations", func(now uint64) error {
		return s.engine.SetAllowedDurations(id, durations, maxDuration, now)
	})
}

func (s *Service) SetPenalty(id uint64, bps uint64, receiver ecm.Address) error {
	return s.mutate("set_penalty", func(now uint64) error {
		return s.engine.SetPenalty(id, bps, receiver, now)
	})
}

func (s *Service) SetVestingRule(id uint64, duration uint64, byDefault bool) error {
	return s.mutate("set_vesting", func(now uint64) error {
		return s.engine.SetVestingRule(id, duration, byDefault, now)
	})
}

func (s *Service) AddLiquidityManager(manager ecm.Address) error {
	return s.mutate("add_liquidity_manager", func(now uint64) error {
		return s.engine.AddLiquidityManager(manager, now)
	})
}

func (s *Service) RemoveLiquidityManager(manager ecm.Address) error {
	return s.mutate("remove_liquidity_manager", func(now uint64) error {
		return s.engine.RemoveLiquidityManager(manager, now)
	})
}

func (s *Service) BuyAndStake(id uint64, buyer ecm.Address, maxPayIn *uint256.Int, duration uint64, ref *staker.Referral) (p *staker.Purchase, err error) {
	err = s.mutate("buy_and_stake", func(now uint64) (err error) {
		p, err = s.engine.BuyAndStake(id, buyer, maxPayIn, duration, ref, now)
		return
	})
	return
}

func (s *Service) BuyAndStakeExactOut(id uint64, buyer ecm.Address, amount, maxPayIn *uint256.Int, duration uint64, ref *staker.Referral) (p *staker.Purchase, err error) {
	err = s.mutate("buy_and_stake_exact_out", func(now uint64) (err error) {
		p, err = s.engine.BuyAndStakeExactOut(id, buyer, amount, maxPayIn, duration, ref, now)
		return
	})
	return
}

func (s *Service) StakeOwnedTokens(id uint64, user ecm.Address, amount *uint256.Int, duration uint64) error {
	return s.mutate("stake", func(now uint64) error {
		return s.engine.StakeOwnedTokens(id, user, amount, duration, now)
	})
}

func (s *Service) Unstake(id uint64, user ecm.Address) (res *staker.Unstaked, err error) {
	err = s.mutate("unstake", func(now uint64) (err error) {
		res, err = s.engine.Unstake(id, user, now)
		return
	})
	return
}

func (s *Service) ClaimRewards(id uint64, user ecm.Address) (paid *uint256.Int, err error) {
	err = s.mutate("claim", func(now uint64) (err error) {
		paid, err = s.engine.ClaimRewards(id, user, now)
		return
	})
	return
}

func (s *Service) TransferToLiquidity(id uint64, manager ecm.Address, paymentAmount, ecmAmount *uint256.Int) error {
	return s.mutate("transfer_to_liquidity", func(now uint64) error {
		return s.engine.TransferToLiquidity(id, manager, paymentAmount, ecmAmount, now)
	})
}

// RecordLiquidityDeposit moves what the manager deposited into the AMM and deepens its reserves.
func (s *Service) RecordLiquidityDeposit(id uint64, manager ecm.Address, paymentUsed, ecmUsed *uint256.Int) error {
	cfg := s.engine.Config()
	return s.mutate("record_liquidity_deposit", func(now uint64) error {
		if err := s.engine.RecordLiquidityDeposit(id, manager, paymentUsed, ecmUsed, now); err != nil {
			return err
		}
		paymentUsed, ecmUsed := ecm.Clone(paymentUsed), ecm.Clone(ecmUsed)
		if err := s.tokens.Transfer(cfg.PaymentToken, manager, LiquidityPool, paymentUsed); err != nil {
			return errors.Wrap(err, "deposit payment")
		}
		if err := s.tokens.Transfer(cfg.SaleToken, manager, LiquidityPool, ecmUsed); err != nil {
			return errors.Wrap(err, "deposit sale token")
		}
		// last: reserves live outside the journal
		return s.pricer.Deposit(cfg.PaymentToken, paymentUsed, ecmUsed)
	})
}

// Swap trades in of tokenIn against the AMM. The output is paid from LiquidityPool, which must
// hold it.
func (s *Service) Swap(trader, tokenIn ecm.Address, in *uint256.Int) (out *uint256.Int, err error) {
	cfg := s.engine.Config()
	tokenOut := cfg.SaleToken
	if tokenIn == cfg.SaleToken {
		tokenOut = cfg.PaymentToken
	}
	err = s.mutate("swap", func(uint64) error {
		if in == nil {
			return amm.ErrInsufficientInput
		}
		rIn, rOut, err := s.pricer.ReservesFor(tokenIn)
		if err != nil {
			return err
		}
		if out, err = amm.AmountOut(in, rIn, rOut); err != nil {
			return err
		}
		if err := s.tokens.Transfer(tokenIn, trader, LiquidityPool, in); err != nil {
			return errors.Wrap(err, "swap input")
		}
		if err := s.tokens.Transfer(tokenOut, LiquidityPool, trader, out); err != nil {
			return errors.Wrap(err, "swap output")
		}
		_, err = s.pricer.Swap(tokenIn, in)
		return err
	})
	return
}

// SetReserves overrides the AMM reserves, ordered as (payment, sale token).
func (s *Service) SetReserves(payment, sale *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pricer.SetReserves(payment, sale)
}

func (s *Service) PublishRewardBatch(id uint64, funder ecm.Address, total *uint256.Int, root ecm.Bytes32, expiry uint64) (b *epochclaim.Batch, err error) {
	err = s.mutate("publish_reward_batch", func(now uint64) (err error) {
		b, err = s.engine.PublishRewardBatch(id, funder, total, root, expiry, now)
		return
	})
	return
}

func (s *Service) ClaimRewardBatch(id uint64, claimant ecm.Address, amount *uint256.Int, proof []ecm.Bytes32) error {
	return s.mutate("claim_reward_batch", func(now uint64) error {
		return s.engine.ClaimRewardBatch(id, claimant, amount, proof, now)
	})
}

func (s *Service) SweepRewardBatch(id uint64, to ecm.Address) (swept *uint256.Int, err error) {
	err = s.mutate("sweep_reward_batch", func(now uint64) (err error) {
		swept, err = s.engine.SweepRewardBatch(id, to, now)
		return
	})
	return
}

// PublishCommissionBatch publishes multi-level commissions, paid in the sale token. A non-zero
// funder first moves total into the commission holder.
func (s *Service) PublishCommissionBatch(id uint64, funder ecm.Address, total *uint256.Int, root ecm.Bytes32, expiry uint64) (b *epochclaim.Batch, err error) {
	ledger := s.refs.Commissions()
	err = s.mutate("publish_commission_batch", func(now uint64) (err error) {
		if !funder.IsZero() && total != nil {
			if err := s.tokens.Transfer(s.engine.Config().SaleToken, funder, ledger.Holder(), total); err != nil {
				return errors.Wrap(err, "failed to fund batch")
			}
		}
		b, err = ledger.Publish(id, s.engine.Config().SaleToken, total, root, expiry, now)
		return
	})
	return
}

func (s *Service) ClaimCommissionBatch(id uint64, claimant ecm.Address, amount *uint256.Int, proof []ecm.Bytes32) error {
	return s.mutate("claim_commission_batch", func(now uint64) error {
		return s.refs.Commissions().Claim(id, claimant, s.engine.Config().SaleToken, amount, proof, now)
	})
}

func (s *Service) SweepCommissionBatch(id uint64, to ecm.Address) (swept *uint256.Int, err error) {
	err = s.mutate("sweep_commission_batch", func(now uint64) (err error) {
		swept, err = s.refs.Commissions().SweepExpired(id, to, now)
		return
	})
	return
}

func (s *Service) WithdrawDirectCommission(referrer ecm.Address) (paid *uint256.Int, err error) {
	err = s.mutate("withdraw_direct", func(now uint64) (err error) {
		paid, err = s.refs.WithdrawDirect(referrer, now)
		return
	})
	return
}

func (s *Service) RevokeVoucher(id ecm.Bytes32) error {
	return s.mutate("revoke_voucher", func(now uint64) error {
		return s.vouchers.Revoke(id, now)
	})
}

func (s *Service) ReleaseVested(scheduleID uint64, caller ecm.Address) (released *uint256.Int, err error) {
	err = s.mutate("release_vested", func(now uint64) (err error) {
		released, err = s.escrow.Claim(scheduleID, caller, now)
		return
	})
	return
}
