// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/emission"
	"github.com/ecmfinance/ecm-ledger/reverts"
)

func TestCreatePoolValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	valid := PoolParams{AllowedDurations: []uint64{month}, MaxDuration: month}

	tests := []struct {
		name   string
		modify func(p *PoolParams)
		want   error
	}{
		{"no durations", func(p *PoolParams) { p.AllowedDurations = nil }, ErrInvalidDurations},
		{"zero duration", func(p *PoolParams) { p.AllowedDurations = []uint64{0} }, ErrInvalidDurations},
		{"above max", func(p *PoolParams) { p.MaxDuration = month - 1 }, ErrInvalidDurations},
		{"bps", func(p *PoolParams) { p.PenaltyBps = 10_001; p.PenaltyReceiver = treasury }, ErrInvalidBps},
		{"receiver", func(p *PoolParams) { p.PenaltyBps = 100 }, ErrZeroAddress},
		{"vesting", func(p *PoolParams) { p.VestRewardsByDefault = true }, ErrInvalidVestingRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.modify(&params)
			_, err := env.engine.CreatePool(params, start)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, reverts.Config, reverts.KindOf(err))
		})
	}

	pools, err := env.engine.Pools()
	require.NoError(t, err)
	assert.Empty(t, pools)

	id, err := env.engine.CreatePool(valid, start)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	id, err = env.engine.CreatePool(valid, start)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	pools, err = env.engine.Pools()
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.True(t, pools[0].Active)
	assert.Equal(t, emission.Continuous, pools[1].Schedule.Strategy)
}

func TestSetters(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createPool(t)

	assert.ErrorIs(t, env.engine.SetPoolActive(id+1, false, start), ErrPoolNotFound)
	assert.ErrorIs(t, env.engine.SetAllowedDurations(id, []uint64{2 * month}, month, start), ErrInvalidDurations)
	require.NoError(t, env.engine.SetAllowedDurations(id, []uint64{7 * 24 * 3600}, month, start))
	assert.ErrorIs(t, env.engine.SetPenalty(id, 500, ecm.Address{}, start), ErrZeroAddress)
	require.NoError(t, env.engine.SetPenalty(id, 0, ecm.Address{}, start))
	assert.ErrorIs(t, env.engine.SetVestingRule(id, 0, true, start), ErrInvalidVestingRule)
	require.NoError(t, env.engine.SetVestingRule(id, 0, false, start))
	assert.ErrorIs(t, env.engine.AddSaleAllocation(id, owner, ecm.Zero(), start), ErrZeroAmount)
	assert.ErrorIs(t, env.engine.SetContinuousRate(id, nil, start), ErrInvalidSchedule)

	require.NoError(t, env.engine.AddRewardAllocation(id, owner, uint256.NewInt(1_000_000), start))
	assert.ErrorIs(t, env.engine.SetMonthlySchedule(id, nil, 0, start), ErrInvalidSchedule)
	assert.ErrorIs(t, env.engine.SetMonthlySchedule(id, []*uint256.Int{uint256.NewInt(1), ecm.Zero()}, 0, start), ErrInvalidSchedule)
	tooMany := make([]*uint256.Int, emission.MaxBuckets+1)
	for i := range tooMany {
		tooMany[i] = uint256.NewInt(1)
	}
	assert.ErrorIs(t, env.engine.SetWeeklySchedule(id, tooMany, 0, start), ErrInvalidSchedule)
	require.NoError(t, env.engine.SetWeeklySchedule(id, tooMany[:emission.MaxBuckets], 0, start))

	p, err := env.engine.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7 * 24 * 3600}, p.AllowedDurations)
	assert.Zero(t, p.PenaltyBps)
	assert.Equal(t, emission.Weekly, p.Schedule.Strategy)
	assert.Equal(t, start, p.Schedule.BucketsStart)
	assert.Equal(t, uint64(1_000_000), p.AllocatedForRewards.Uint64())
	assert.Equal(t, uint64(1_000_000), env.balance(t, saleToken, account).Uint64())
}

func TestLiquidity(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createPool(t)
	require.NoError(t, env.engine.AddSaleAllocation(id, owner, ecm.Units(100_000), start))
	purchase, err := env.engine.BuyAndStake(id, alice, ecm.PaymentUnits(1000), month, nil, start)
	require.NoError(t, err)

	err = env.engine.TransferToLiquidity(id, carol, ecm.PaymentUnits(100), ecm.Zero(), start)
	assert.ErrorIs(t, err, ErrNotLiquidityManager)

	assert.ErrorIs(t, env.engine.AddLiquidityManager(ecm.Address{}, start), ErrZeroAddress)
	require.NoError(t, env.engine.AddLiquidityManager(carol, start))
	ok, err := env.engine.IsLiquidityManager(carol)
	require.NoError(t, err)
	assert.True(t, ok)

	err = env.engine.TransferToLiquidity(id, carol, ecm.PaymentUnits(1001), ecm.Zero(), start)
	assert.ErrorIs(t, err, ErrExceedsAvailable)
	inventory := new(uint256.Int).Sub(ecm.Units(100_000), purchase.Bought)
	err = env.engine.TransferToLiquidity(id, carol, ecm.Zero(), new(uint256.Int).AddUint64(inventory, 1), start)
	assert.ErrorIs(t, err, ErrExceedsAvailable)
	assert.ErrorIs(t, env.engine.TransferToLiquidity(id, carol, nil, nil, start), ErrZeroAmount)

	carolUSDT := env.balance(t, usdt, carol)
	require.NoError(t, env.engine.TransferToLiquidity(id, carol, ecm.PaymentUnits(600), ecm.Units(1000), start+1))
	assert.Equal(t, new(uint256.Int).Add(carolUSDT, ecm.PaymentUnits(600)), env.balance(t, usdt, carol))

	p, err := env.engine.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Sub(inventory, ecm.Units(1000)), p.SaleInventory())

	err = env.engine.RecordLiquidityDeposit(id, carol, ecm.PaymentUnits(601), ecm.Zero(), start+2)
	assert.ErrorIs(t, err, ErrExceedsTransferred)
	err = env.engine.RecordLiquidityDeposit(id, carol, ecm.Zero(), ecm.Units(1001), start+2)
	assert.ErrorIs(t, err, ErrExceedsTransferred)
	require.NoError(t, env.engine.RecordLiquidityDeposit(id, carol, ecm.PaymentUnits(600), ecm.Units(900), start+2))

	a, err := env.engine.Analytics(id)
	require.NoError(t, err)
	assert.Equal(t, ecm.PaymentUnits(600), a.LiquidityPaymentDeposited)
	assert.Equal(t, ecm.Units(900), a.LiquidityECMDeposited)
	assert.Equal(t, ecm.Units(1000), a.ECMToLiquidity)
	assert.Equal(t, uint64(996), a.SoldBps)

	require.NoError(t, env.engine.RemoveLiquidityManager(carol, start+3))
	err = env.engine.RecordLiquidityDeposit(id, carol, ecm.Zero(), ecm.Units(1), start+3)
	assert.ErrorIs(t, err, ErrNotLiquidityManager)
}

func TestQuote(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createPool(t)
	require.NoError(t, env.engine.AddSaleAllocation(id, owner, ecm.Units(100_000), start))

	q, err := env.engine.QuoteBuyExactIn(id, ecm.PaymentUnits(1000))
	require.NoError(t, err)
	assert.Equal(t, "9960069810399032164931", q.AmountOut.Dec())
	assert.Equal(t, ecm.PaymentUnits(1000), q.AmountIn)
	assert.True(t, q.Available)
	// a little over 0.1 payment token per sale token after fee and price impact
	assert.Equal(t, "100400", new(uint256.Int).Div(q.Price, uint256.NewInt(1e12)).Dec())

	q, err = env.engine.QuoteBuyExactOut(id, ecm.Units(200_000))
	require.NoError(t, err)
	assert.False(t, q.Available)

	_, err = env.engine.QuoteBuyExactIn(id, ecm.Zero())
	assert.ErrorIs(t, err, ErrZeroAmount)
}
