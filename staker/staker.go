// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker is the sale and staking ledger: pools sell the sale token against an AMM price,
// lock what was bought, and stream rewards to stakers through a reward-per-share checkpoint.
package staker

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/amm"
	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/log"
	"github.com/ecmfinance/ecm-ledger/reverts"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
)

// RewardNamespace is the namespace of reward claim batches.
const RewardNamespace = "reward-epochs"

var (
	logger = log.WithContext("pkg", "staker")

	// DefaultMinPurchase is the smallest amount that can be bought or staked at once.
	DefaultMinPurchase = ecm.Units(1)
)

var (
	ErrZeroAddress           = reverts.New(reverts.Config, "zero address")
	ErrZeroAmount            = reverts.New(reverts.Config, "zero amount")
	ErrInvalidBps            = reverts.New(reverts.Config, "penalty bps out of range")
	ErrInvalidDurations      = reverts.New(reverts.Config, "invalid lock durations")
	ErrInvalidSchedule       = reverts.New(reverts.Config, "invalid emission schedule")
	ErrScheduleOverBudget    = reverts.New(reverts.Config, "schedule exceeds reward budget")
	ErrInvalidVestingRule    = reverts.New(reverts.Config, "invalid vesting rule")
	ErrPoolNotFound          = reverts.New(reverts.Validation, "pool not found")
	ErrPoolInactive          = reverts.New(reverts.Validation, "pool inactive")
	ErrDurationNotAllowed    = reverts.New(reverts.Validation, "duration not allowed")
	ErrBelowMinimum          = reverts.New(reverts.Validation, "below minimum purchase")
	ErrInsufficientInventory = reverts.New(reverts.Validation, "insufficient inventory")
	ErrSlippage              = reverts.New(reverts.Validation, "slippage exceeded")
	ErrNothingStaked         = reverts.New(reverts.Validation, "nothing staked")
	ErrReferralsDisabled     = reverts.New(reverts.Validation, "referrals not configured")
	ErrNotLiquidityManager   = reverts.New(reverts.Validation, "not a liquidity manager")
	ErrExceedsAvailable      = reverts.New(reverts.Validation, "amount exceeds available funds")
	ErrExceedsTransferred    = reverts.New(reverts.Validation, "deposit exceeds transferred amount")
)

// Config names the tokens and the account of the engine.
type Config struct {
	// Account custodies sale inventory, staked principal, the reward budget and sale proceeds.
	Account      ecm.Address  `yaml:"account"`
	SaleToken    ecm.Address  `yaml:"saleToken"`
	PaymentToken ecm.Address  `yaml:"paymentToken"`
	MinPurchase  *uint256.Int `yaml:"minPurchase"`
}

// Collaborators are the external components the engine calls. Unset ones disable the feature.
type Collaborators struct {
	Pricer    Pricer
	Vouchers  VoucherVerifier
	Escrow    VestingEscrow
	Referrals ReferralLinks
}

// Engine orchestrates buy, stake, unstake and claim over the pools and positions registries.
type Engine struct {
	cfg     Config
	st      *state.State
	tokens  *token.Ledger
	events  *event.Log
	storage *storage
	rewards *epochclaim.Ledger
	collab  Collaborators

	dirty map[uint64]*uint256.Int // total staked of pools saved by the running operation
}

func New(st *state.State, tokens *token.Ledger, events *event.Log, cfg Config, collab Collaborators) *Engine {
	if cfg.MinPurchase == nil {
		cfg.MinPurchase = DefaultMinPurchase
	}
	return &Engine{
		cfg:     cfg,
		st:      st,
		tokens:  tokens,
		events:  events,
		storage: newStorage(st),
		rewards: epochclaim.New(st, tokens, events, RewardNamespace, nil),
		collab:  collab,
		dirty:   make(map[uint64]*uint256.Int),
	}
}

func (e *Engine) Config() Config { return e.cfg }

// Rewards is the claim ledger of off-chain computed reward batches.
func (e *Engine) Rewards() *epochclaim.Ledger { return e.rewards }

// atomic runs fn as one all-or-nothing operation: on error every state write and every
// event emitted by fn is discarded.
func (e *Engine) atomic(op string, fn func() error) error {
	start := time.Now()
	checkpoint := e.st.NewCheckpoint()
	mark := e.events.Len()
	clear(e.dirty)

	err := fn()
	metricOpDuration().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"op": op})
	if err != nil {
		e.st.RevertTo(checkpoint)
		e.events.Truncate(mark)
		result := "error"
		if reverts.IsRevertErr(err) {
			result = "revert"
		}
		metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
		logger.Debug("operation reverted", "op", op, "err", err)
		return err
	}
	for id, staked := range e.dirty {
		metricTotalStaked().SetWithLabel(gaugeValue(staked), map[string]string{"pool": poolLabel(id)})
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	return nil
}

func (e *Engine) savePool(p *Pool) error {
	if err := e.storage.setPool(p); err != nil {
		return err
	}
	e.dirty[p.ID] = p.TotalStaked.Clone()
	return nil
}

// activePool loads a pool that accepts new stakes for duration.
func (e *Engine) activePool(poolID uint64, duration uint64) (*Pool, error) {
	p, err := e.storage.getPool(poolID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrPoolInactive
	}
	if !p.IsAllowedDuration(duration) {
		return nil, ErrDurationNotAllowed
	}
	return p, nil
}

// reserves returns the AMM reserves ordered as (payment, sale token).
func (e *Engine) reserves() (*uint256.Int, *uint256.Int, error) {
	if e.collab.Pricer == nil {
		return nil, nil, errors.New("no pricer configured")
	}
	a, b, tokenA, err := e.collab.Pricer.GetReserves()
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get reserves")
	}
	switch tokenA {
	case e.cfg.PaymentToken:
		return a, b, nil
	case e.cfg.SaleToken:
		return b, a, nil
	}
	return nil, nil, errors.Errorf("pricer quotes unknown token %v", tokenA)
}

// Purchase is the outcome of a buy.
type Purchase struct {
	Bought     *uint256.Int `json:"bought"`
	PaidIn     *uint256.Int `json:"paidIn"`
	Commission *uint256.Int `json:"commission"`
}

// BuyAndStake spends at most maxPayIn of the payment token and locks everything it buys for duration.
func (e *Engine) BuyAndStake(poolID uint64, buyer ecm.Address, maxPayIn *uint256.Int, duration uint64, ref *Referral, now uint64) (*Purchase, error) {
	var purchase *Purchase
	err := e.atomic("buy_and_stake", func() error {
		p, err := e.activePool(poolID, duration)
		if err != nil {
			return err
		}
		if err := e.touch(p, now); err != nil {
			return err
		}
		if maxPayIn == nil || maxPayIn.IsZero() {
			return ErrBelowMinimum
		}
		rIn, rOut, err := e.reserves()
		if err != nil {
			return err
		}
		out, err := amm.AmountOut(maxPayIn, rIn, rOut)
		if err != nil {
			return errors.Wrap(err, "quote")
		}
		purchase, err = e.buyAndStake(p, buyer, out, maxPayIn, rIn, rOut, duration, ref, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// BuyAndStakeExactOut buys exactly amount of the sale token, paying at most maxPayIn.
func (e *Engine) BuyAndStakeExactOut(
	poolID uint64,
	buyer ecm.Address,
	amount, maxPayIn *uint256.Int,
	duration uint64,
	ref *Referral,
	now uint64,
) (*Purchase, error) {
	var purchase *Purchase
	err := e.atomic("buy_and_stake_exact_out", func() error {
		p, err := e.activePool(poolID, duration)
		if err != nil {
			return err
		}
		if err := e.touch(p, now); err != nil {
			return err
		}
		if amount == nil || maxPayIn == nil {
			return ErrBelowMinimum
		}
		rIn, rOut, err := e.reserves()
		if err != nil {
			return err
		}
		purchase, err = e.buyAndStake(p, buyer, amount, maxPayIn, rIn, rOut, duration, ref, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

func (e *Engine) buyAndStake(
	p *Pool,
	buyer ecm.Address,
	out, maxPayIn, rIn, rOut *uint256.Int,
	duration uint64,
	ref *Referral,
	now uint64,
) (*Purchase, error) {
	if out.Lt(e.cfg.MinPurchase) {
		return nil, ErrBelowMinimum
	}
	if out.Gt(p.SaleInventory()) {
		return nil, ErrInsufficientInventory
	}
	payIn, err := amm.AmountIn(out, rIn, rOut)
	if err != nil {
		return nil, errors.Wrap(err, "quote")
	}
	if payIn.Gt(maxPayIn) {
		return nil, errors.WithMessagef(ErrSlippage, "needs %v, max %v", payIn, maxPayIn)
	}

	if err := e.tokens.Transfer(e.cfg.PaymentToken, buyer, e.cfg.Account, payIn); err != nil {
		return nil, errors.Wrap(err, "failed to pull payment")
	}
	if p.Sold, err = ecm.Add(p.Sold, out); err != nil {
		return nil, errors.Wrap(err, "sold")
	}
	if p.PaymentCollected, err = ecm.Add(p.PaymentCollected, payIn); err != nil {
		return nil, errors.Wrap(err, "payment collected")
	}

	commission, err := e.applyReferral(p, buyer, out, ref, now)
	if err != nil {
		return nil, err
	}

	pos, err := e.storage.getPosition(p.ID, buyer)
	if err != nil {
		return nil, err
	}
	if err := e.stake(p, pos, out, duration, now); err != nil {
		return nil, err
	}
	if err := e.savePool(p); err != nil {
		return nil, err
	}
	if err := e.storage.setPosition(p.ID, buyer, pos); err != nil {
		return nil, err
	}
	e.events.Emit("BoughtAndStaked", now,
		"pool", p.ID, "user", buyer, "bought", out.Clone(), "paidIn", payIn.Clone(), "duration", duration)
	return &Purchase{Bought: out.Clone(), PaidIn: payIn, Commission: commission}, nil
}

// applyReferral redeems the voucher, links the buyer and records the direct commission.
func (e *Engine) applyReferral(p *Pool, buyer ecm.Address, staked *uint256.Int, ref *Referral, now uint64) (*uint256.Int, error) {
	if ref == nil {
		return ecm.Zero(), nil
	}
	if e.collab.Vouchers == nil || e.collab.Referrals == nil {
		return nil, ErrReferralsDisabled
	}
	res, err := e.collab.Vouchers.VerifyAndConsume(&ref.Voucher, ref.Signature, buyer, now)
	if err != nil {
		return nil, errors.Wrap(err, "voucher")
	}
	if err := e.collab.Referrals.Link(buyer, res.Referrer, now); err != nil {
		return nil, errors.Wrap(err, "referral link")
	}
	commission, err := e.collab.Referrals.RecordDirectCommission(buyer, res.Referrer, p.ID, staked, res.DirectBps, res.TransferImmediately, now)
	if err != nil {
		return nil, errors.Wrap(err, "direct commission")
	}
	return commission, nil
}

// StakeOwnedTokens locks sale tokens the user already holds.
func (e *Engine) StakeOwnedTokens(poolID uint64, user ecm.Address, amount *uint256.Int, duration uint64, now uint64) error {
	return e.atomic("stake", func() error {
		p, err := e.activePool(poolID, duration)
		if err != nil {
			return err
		}
		if err := e.touch(p, now); err != nil {
			return err
		}
		if amount == nil || amount.Lt(e.cfg.MinPurchase) {
			return ErrBelowMinimum
		}
		if err := e.tokens.Transfer(e.cfg.SaleToken, user, e.cfg.Account, amount); err != nil {
			return errors.Wrap(err, "failed to pull stake")
		}
		pos, err := e.storage.getPosition(poolID, user)
		if err != nil {
			return err
		}
		if err := e.stake(p, pos, amount, duration, now); err != nil {
			return err
		}
		if err := e.savePool(p); err != nil {
			return err
		}
		if err := e.storage.setPosition(poolID, user, pos); err != nil {
			return err
		}
		e.events.Emit("Staked", now, "pool", poolID, "user", user, "amount", amount.Clone(), "duration", duration)
		return nil
	})
}

// Unstaked is the outcome of an unstake.
type Unstaked struct {
	Principal *uint256.Int `json:"principal"`
	Penalty   *uint256.Int `json:"penalty"`
	Reward    *uint256.Int `json:"reward"`
	Vested    bool         `json:"vested"`
}

// Unstake returns the whole principal of user, minus the penalty if the lock has not matured,
// and pays the settled reward. A depleted reward budget reduces the reward, never the principal.
func (e *Engine) Unstake(poolID uint64, user ecm.Address, now uint64) (*Unstaked, error) {
	var result *Unstaked
	err := e.atomic("unstake", func() error {
		p, err := e.storage.getPool(poolID)
		if err != nil {
			return err
		}
		pos, err := e.storage.getPosition(poolID, user)
		if err != nil {
			return err
		}
		if pos.Staked.IsZero() {
			return ErrNothingStaked
		}
		if err := e.settle(p, pos, now); err != nil {
			return err
		}

		staked := pos.Staked
		penalty := ecm.Zero()
		if !pos.Matured(now) {
			if penalty, err = ecm.Bps(staked, p.PenaltyBps); err != nil {
				return errors.Wrap(err, "penalty")
			}
		}
		principal := new(uint256.Int).Sub(staked, penalty)
		reward := pos.PendingRewards

		pos.Staked = ecm.Zero()
		pos.RewardDebt = ecm.Zero()
		pos.PendingRewards = ecm.Zero()
		pos.StakeStart = 0
		pos.StakeDuration = 0
		pos.LastActionTime = now
		if p.TotalStaked, err = ecm.Sub(p.TotalStaked, staked); err != nil {
			return errors.Wrap(err, "total staked")
		}
		if p.LifetimeUnstaked, err = ecm.Add(p.LifetimeUnstaked, staked); err != nil {
			return errors.Wrap(err, "lifetime unstaked")
		}
		if p.PenaltiesCollected, err = ecm.Add(p.PenaltiesCollected, penalty); err != nil {
			return errors.Wrap(err, "penalties")
		}
		if pos.TotalUnstaked, err = ecm.Add(pos.TotalUnstaked, staked); err != nil {
			return errors.Wrap(err, "position unstaked")
		}
		if pos.TotalPenalized, err = ecm.Add(pos.TotalPenalized, penalty); err != nil {
			return errors.Wrap(err, "position penalized")
		}

		if err := e.tokens.Transfer(e.cfg.SaleToken, e.cfg.Account, p.PenaltyReceiver, penalty); err != nil {
			return errors.Wrap(err, "failed to pay penalty")
		}
		if err := e.tokens.Transfer(e.cfg.SaleToken, e.cfg.Account, user, principal); err != nil {
			return errors.Wrap(err, "failed to return principal")
		}
		paid, vested, err := e.payOrVest(p, user, reward, now)
		if err != nil {
			return err
		}
		if pos.TotalClaimed, err = ecm.Add(pos.TotalClaimed, paid); err != nil {
			return errors.Wrap(err, "position claimed")
		}

		if err := e.savePool(p); err != nil {
			return err
		}
		if err := e.storage.setPosition(poolID, user, pos); err != nil {
			return err
		}
		if penalty.IsZero() {
			e.events.Emit("Unstaked", now, "pool", poolID, "user", user, "principal", principal, "reward", paid)
		} else {
			e.events.Emit("EarlyUnstaked", now,
				"pool", poolID, "user", user, "principal", principal, "penalty", penalty, "reward", paid)
		}
		result = &Unstaked{Principal: principal, Penalty: penalty, Reward: paid, Vested: vested}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClaimRewards pays the settled reward of user. Nothing to claim is not an error.
func (e *Engine) ClaimRewards(poolID uint64, user ecm.Address, now uint64) (*uint256.Int, error) {
	paid := ecm.Zero()
	err := e.atomic("claim", func() error {
		p, err := e.storage.getPool(poolID)
		if err != nil {
			return err
		}
		pos, err := e.storage.getPosition(poolID, user)
		if err != nil {
			return err
		}
		if err := e.settle(p, pos, now); err != nil {
			return err
		}
		if pos.PendingRewards.IsZero() {
			// the touch still has to be persisted
			return e.savePool(p)
		}
		if pos.RewardDebt, err = accumulated(pos.Staked, p.AccRewardPerShare); err != nil {
			return err
		}
		pending := pos.PendingRewards
		pos.PendingRewards = ecm.Zero()
		pos.LastActionTime = now

		var vested bool
		if paid, vested, err = e.payOrVest(p, user, pending, now); err != nil {
			return err
		}
		if pos.TotalClaimed, err = ecm.Add(pos.TotalClaimed, paid); err != nil {
			return errors.Wrap(err, "position claimed")
		}
		if err := e.savePool(p); err != nil {
			return err
		}
		if err := e.storage.setPosition(poolID, user, pos); err != nil {
			return err
		}
		if !paid.IsZero() {
			e.events.Emit("RewardsClaimed", now, "pool", poolID, "user", user, "amount", paid.Clone(), "vested", vested)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}
