// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/amm"
	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/emission"
)

// Pool returns a snapshot of pool id as last written.
func (e *Engine) Pool(id uint64) (*Pool, error) {
	return e.storage.getPool(id)
}

// Pools returns every pool in creation order.
func (e *Engine) Pools() ([]*Pool, error) {
	n, err := e.storage.poolCount.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool count")
	}
	pools := make([]*Pool, 0, n)
	for id := uint64(1); id <= n; id++ {
		p, err := e.storage.getPool(id)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, nil
}

func (e *Engine) Position(poolID uint64, user ecm.Address) (*Position, error) {
	if _, err := e.storage.getPool(poolID); err != nil {
		return nil, err
	}
	return e.storage.getPosition(poolID, user)
}

// PoolInfo is a pool with its derived figures brought forward to a point in time.
type PoolInfo struct {
	*Pool
	SaleInventory            *uint256.Int      `json:"saleInventory"`
	RemainingRewards         *uint256.Int      `json:"remainingRewards"`
	ProjectedRewardPerShare  *uint256.Int      `json:"projectedRewardPerShare"`
	ProjectedSchedule        emission.Schedule `json:"projectedSchedule"`
	ProjectedRemainingReward *uint256.Int      `json:"projectedRemainingReward"`
}

func (e *Engine) PoolInfo(id uint64, now uint64) (*PoolInfo, error) {
	p, err := e.storage.getPool(id)
	if err != nil {
		return nil, err
	}
	acc, sched, remaining, err := previewAccRewardPerShare(p, now)
	if err != nil {
		return nil, err
	}
	return &PoolInfo{
		Pool:                     p,
		SaleInventory:            p.SaleInventory(),
		RemainingRewards:         p.RemainingRewards(),
		ProjectedRewardPerShare:  acc,
		ProjectedSchedule:        *sched,
		ProjectedRemainingReward: remaining,
	}, nil
}

// PendingRewards is what user could claim at now. Nothing is written.
func (e *Engine) PendingRewards(poolID uint64, user ecm.Address, now uint64) (*uint256.Int, error) {
	p, err := e.storage.getPool(poolID)
	if err != nil {
		return nil, err
	}
	pos, err := e.storage.getPosition(poolID, user)
	if err != nil {
		return nil, err
	}
	acc, _, _, err := previewAccRewardPerShare(p, now)
	if err != nil {
		return nil, err
	}
	return claimable(pos, acc)
}

// UserInfo is a position with its pending reward at a point in time.
type UserInfo struct {
	Position   *Position    `json:"position"`
	Pending    *uint256.Int `json:"pending"`
	Matured    bool         `json:"matured"`
	UnlockTime uint64       `json:"unlockTime"`
}

func (e *Engine) UserInfo(poolID uint64, user ecm.Address, now uint64) (*UserInfo, error) {
	pos, err := e.Position(poolID, user)
	if err != nil {
		return nil, err
	}
	pending, err := e.PendingRewards(poolID, user, now)
	if err != nil {
		return nil, err
	}
	return &UserInfo{
		Position:   pos,
		Pending:    pending,
		Matured:    pos.Staked.IsZero() || pos.Matured(now),
		UnlockTime: pos.UnlockTime(),
	}, nil
}

// ProjectRewards estimates the reward a new stake of amount would earn over duration starting
// at now, assuming nobody else joins or leaves. The estimate is clamped to the budget.
func (e *Engine) ProjectRewards(poolID uint64, amount *uint256.Int, duration, now uint64) (*uint256.Int, error) {
	if amount == nil || amount.IsZero() || duration == 0 {
		return ecm.Zero(), nil
	}
	p, err := e.storage.getPool(poolID)
	if err != nil {
		return nil, err
	}
	_, sched, remaining, err := previewAccRewardPerShare(p, now)
	if err != nil {
		return nil, err
	}
	accrued, err := emission.Preview(sched, now, now+duration)
	if err != nil {
		return nil, errors.Wrap(err, "emission")
	}
	accrued = ecm.Min(accrued, remaining)
	staked, err := ecm.Add(p.TotalStaked, amount)
	if err != nil {
		return nil, errors.Wrap(err, "total staked")
	}
	return ecm.MulDiv(accrued, amount, staked)
}

// Quote is a read-only price estimate against the current reserves. Price is the payment paid
// per whole sale token, scaled to ecm.Precision.
type Quote struct {
	AmountOut *uint256.Int `json:"amountOut"`
	AmountIn  *uint256.Int `json:"amountIn"`
	Price     *uint256.Int `json:"price"`
	Available bool         `json:"available"`
}

// QuoteBuyExactIn estimates what payIn buys and what that exact amount would cost.
func (e *Engine) QuoteBuyExactIn(poolID uint64, payIn *uint256.Int) (*Quote, error) {
	if payIn == nil || payIn.IsZero() {
		return nil, ErrZeroAmount
	}
	p, err := e.storage.getPool(poolID)
	if err != nil {
		return nil, err
	}
	rIn, rOut, err := e.reserves()
	if err != nil {
		return nil, err
	}
	out, err := amm.AmountOut(payIn, rIn, rOut)
	if err != nil {
		return nil, err
	}
	return e.quote(p, out, rIn, rOut)
}

// QuoteBuyExactOut estimates the payment needed to buy exactly out.
func (e *Engine) QuoteBuyExactOut(poolID uint64, out *uint256.Int) (*Quote, error) {
	if out == nil || out.IsZero() {
		return nil, ErrZeroAmount
	}
	p, err := e.storage.getPool(poolID)
	if err != nil {
		return nil, err
	}
	rIn, rOut, err := e.reserves()
	if err != nil {
		return nil, err
	}
	return e.quote(p, out, rIn, rOut)
}

func (e *Engine) quote(p *Pool, out, rIn, rOut *uint256.Int) (*Quote, error) {
	in, err := amm.AmountIn(out, rIn, rOut)
	if err != nil {
		return nil, err
	}
	normalized, err := ecm.ToPrecision(in, ecm.PaymentDecimals)
	if err != nil {
		return nil, err
	}
	price, err := ecm.MulDiv(normalized, ecm.Precision, out)
	if err != nil {
		return nil, errors.Wrap(err, "price")
	}
	return &Quote{
		AmountOut: out.Clone(),
		AmountIn:  in,
		Price:     price,
		Available: !out.Lt(e.cfg.MinPurchase) && !out.Gt(p.SaleInventory()),
	}, nil
}

// Analytics is the lifetime activity of a pool.
type Analytics struct {
	PoolID                    uint64       `json:"poolId"`
	PeakStaked                *uint256.Int `json:"peakStaked"`
	UniqueStakers             uint64       `json:"uniqueStakers"`
	LifetimeStaked            *uint256.Int `json:"lifetimeStaked"`
	LifetimeUnstaked          *uint256.Int `json:"lifetimeUnstaked"`
	PenaltiesCollected        *uint256.Int `json:"penaltiesCollected"`
	PaymentCollected          *uint256.Int `json:"paymentCollected"`
	RewardsPaid               *uint256.Int `json:"rewardsPaid"`
	ECMToLiquidity            *uint256.Int `json:"ecmToLiquidity"`
	LiquidityPaymentOut       *uint256.Int `json:"liquidityPaymentOut"`
	LiquidityPaymentDeposited *uint256.Int `json:"liquidityPaymentDeposited"`
	LiquidityECMDeposited     *uint256.Int `json:"liquidityEcmDeposited"`
	SoldBps                   uint64       `json:"soldBps"` // share of the sale allocation sold
}

func (e *Engine) Analytics(poolID uint64) (*Analytics, error) {
	p, err := e.storage.getPool(poolID)
	if err != nil {
		return nil, err
	}
	var soldBps uint64
	if !p.AllocatedForSale.IsZero() {
		v, err := ecm.MulDiv(p.Sold, uint256.NewInt(ecm.BpsDenominator), p.AllocatedForSale)
		if err != nil {
			return nil, err
		}
		soldBps = v.Uint64()
	}
	return &Analytics{
		PoolID:                    p.ID,
		PeakStaked:                p.PeakStaked,
		UniqueStakers:             p.UniqueStakers,
		LifetimeStaked:            p.LifetimeStaked,
		LifetimeUnstaked:          p.LifetimeUnstaked,
		PenaltiesCollected:        p.PenaltiesCollected,
		PaymentCollected:          p.PaymentCollected,
		RewardsPaid:               p.RewardsPaid,
		ECMToLiquidity:            p.ECMToLiquidity,
		LiquidityPaymentOut:       p.LiquidityPaymentOut,
		LiquidityPaymentDeposited: p.LiquidityPaymentDeposited,
		LiquidityECMDeposited:     p.LiquidityECMDeposited,
		SoldBps:                   soldBps,
	}, nil
}
