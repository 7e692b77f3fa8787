// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"slices"

	"github.com/holiman/uint256"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/emission"
	"github.com/ecmfinance/ecm-ledger/voucher"
)

// Pool is one sale and staking market.
type Pool struct {
	ID        uint64 `json:"id"`
	Active    bool   `json:"active"`
	CreatedAt uint64 `json:"createdAt"`

	AllocatedForSale *uint256.Int `json:"allocatedForSale"`
	Sold             *uint256.Int `json:"sold"`

	AllocatedForRewards *uint256.Int `json:"allocatedForRewards"`
	TotalRewardsAccrued *uint256.Int `json:"totalRewardsAccrued"`
	RewardsPaid         *uint256.Int `json:"rewardsPaid"`

	AccRewardPerShare *uint256.Int `json:"accRewardPerShare"` // scaled by ecm.Precision
	LastRewardTime    uint64       `json:"lastRewardTime"`
	TotalStaked       *uint256.Int `json:"totalStaked"`

	Schedule  emission.Schedule `json:"schedule"`
	Exhausted bool              `json:"exhausted"`

	AllowedDurations     []uint64    `json:"allowedDurations"`
	MaxDuration          uint64      `json:"maxDuration"`
	PenaltyBps           uint64      `json:"penaltyBps"`
	PenaltyReceiver      ecm.Address `json:"penaltyReceiver"`
	VestingDuration      uint64      `json:"vestingDuration"`
	VestRewardsByDefault bool        `json:"vestRewardsByDefault"`

	PeakStaked                *uint256.Int `json:"peakStaked"`
	UniqueStakers             uint64       `json:"uniqueStakers"`
	LifetimeStaked            *uint256.Int `json:"lifetimeStaked"`
	LifetimeUnstaked          *uint256.Int `json:"lifetimeUnstaked"`
	PenaltiesCollected        *uint256.Int `json:"penaltiesCollected"`
	PaymentCollected          *uint256.Int `json:"paymentCollected"`
	ECMToLiquidity            *uint256.Int `json:"ecmToLiquidity"`
	LiquidityPaymentOut       *uint256.Int `json:"liquidityPaymentOut"`
	LiquidityPaymentDeposited *uint256.Int `json:"liquidityPaymentDeposited"`
	LiquidityECMDeposited     *uint256.Int `json:"liquidityEcmDeposited"`
}

// Exists reports whether the decoded record was ever created.
func (p *Pool) Exists() bool {
	return p.ID != 0
}

// normalize replaces nil amounts, as left by decoding a fresh record, with zero.
func (p *Pool) normalize() {
	for _, v := range []**uint256.Int{
		&p.AllocatedForSale, &p.Sold,
		&p.AllocatedForRewards, &p.TotalRewardsAccrued, &p.RewardsPaid,
		&p.AccRewardPerShare, &p.TotalStaked,
		&p.PeakStaked, &p.LifetimeStaked, &p.LifetimeUnstaked, &p.PenaltiesCollected,
		&p.PaymentCollected, &p.ECMToLiquidity, &p.LiquidityPaymentOut,
		&p.LiquidityPaymentDeposited, &p.LiquidityECMDeposited,
		&p.Schedule.RatePerSecond,
	} {
		if *v == nil {
			*v = ecm.Zero()
		}
	}
}

// IsAllowedDuration reports whether duration is a valid lock period of the pool.
func (p *Pool) IsAllowedDuration(duration uint64) bool {
	return duration <= p.MaxDuration && slices.Contains(p.AllowedDurations, duration)
}

// SaleInventory is what is left to sell.
func (p *Pool) SaleInventory() *uint256.Int {
	return ecm.SaturatingSub(ecm.SaturatingSub(p.AllocatedForSale, p.Sold), p.ECMToLiquidity)
}

// RemainingRewards is the part of the reward budget not accrued yet.
func (p *Pool) RemainingRewards() *uint256.Int {
	return ecm.SaturatingSub(p.AllocatedForRewards, p.TotalRewardsAccrued)
}

// Position is the stake of one user in one pool.
type Position struct {
	Staked         *uint256.Int `json:"staked"`
	StakeStart     uint64       `json:"stakeStart"`
	StakeDuration  uint64       `json:"stakeDuration"`
	RewardDebt     *uint256.Int `json:"rewardDebt"`
	PendingRewards *uint256.Int `json:"pendingRewards"`

	HasStaked      bool         `json:"hasStaked"`
	TotalStaked    *uint256.Int `json:"totalStaked"`
	TotalUnstaked  *uint256.Int `json:"totalUnstaked"`
	TotalClaimed   *uint256.Int `json:"totalClaimed"`
	TotalPenalized *uint256.Int `json:"totalPenalized"`
	FirstStakeTime uint64       `json:"firstStakeTime"`
	LastActionTime uint64       `json:"lastActionTime"`
}

func (p *Position) normalize() {
	for _, v := range []**uint256.Int{
		&p.Staked, &p.RewardDebt, &p.PendingRewards,
		&p.TotalStaked, &p.TotalUnstaked, &p.TotalClaimed, &p.TotalPenalized,
	} {
		if *v == nil {
			*v = ecm.Zero()
		}
	}
}

// UnlockTime is when the position matures.
func (p *Position) UnlockTime() uint64 {
	return p.StakeStart + p.StakeDuration
}

// Matured reports whether the position can be unstaked without penalty.
func (p *Position) Matured(now uint64) bool {
	return now >= p.UnlockTime()
}

// PoolParams configures a new pool.
type PoolParams struct {
	AllowedDurations     []uint64    `yaml:"allowedDurations"`
	MaxDuration          uint64      `yaml:"maxDuration"`
	PenaltyBps           uint64      `yaml:"penaltyBps"`
	PenaltyReceiver      ecm.Address `yaml:"penaltyReceiver"`
	VestingDuration      uint64      `yaml:"vestingDuration"`
	VestRewardsByDefault bool        `yaml:"vestRewardsByDefault"`
}

// Referral is an optional signed voucher attached to a purchase.
type Referral struct {
	Voucher   voucher.Input `yaml:"voucher"`
	Signature []byte        `yaml:"signature"`
}

// Pricer exposes the reserves of the AMM the sale is priced against.
type Pricer interface {
	GetReserves() (reserveA, reserveB *uint256.Int, tokenA ecm.Address, err error)
}

// VoucherVerifier checks a referral voucher and counts one use of it.
type VoucherVerifier interface {
	VerifyAndConsume(in *voucher.Input, sig []byte, redeemer ecm.Address, now uint64) (*voucher.Result, error)
}

// VestingEscrow locks rewards and releases them linearly. Tokens are moved to Holder before
// CreateVesting is called.
type VestingEscrow interface {
	Holder() ecm.Address
	CreateVesting(beneficiary ecm.Address, amount *uint256.Int, start, duration uint64, token ecm.Address, poolID uint64) (uint64, error)
}

// ReferralLinks records who referred a buyer and the commissions earned by it.
type ReferralLinks interface {
	Link(buyer, referrer ecm.Address, now uint64) error
	RecordDirectCommission(
		buyer, referrer ecm.Address,
		poolID uint64,
		staked *uint256.Int,
		bps uint64,
		transferImmediately bool,
		now uint64,
	) (*uint256.Int, error)
}
