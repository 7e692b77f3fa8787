// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/vesting"
)

// rewardPool creates a pool with a raw reward budget and a continuous rate, at start.
func (env *testEnv) rewardPool(t *testing.T, budget, rate uint64) uint64 {
	id := env.createPool(t)
	require.NoError(t, env.engine.AddRewardAllocation(id, owner, uint256.NewInt(budget), start))
	require.NoError(t, env.engine.SetContinuousRate(id, uint256.NewInt(rate), start))
	return id
}

func TestRewardPerShareScenario(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 1_000_000, 10)

	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(900), month, start))
	require.NoError(t, env.engine.StakeOwnedTokens(id, bob, uint256.NewInt(100), month, start))

	info, err := env.engine.PoolInfo(id, start+100)
	require.NoError(t, err)
	assert.Equal(t, ecm.Precision, info.ProjectedRewardPerShare)

	pending, err := env.engine.PendingRewards(id, bob, start+100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pending.Uint64())
	pending, err = env.engine.PendingRewards(id, alice, start+100)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), pending.Uint64())

	bobBefore := env.balance(t, saleToken, bob)
	paid, err := env.engine.ClaimRewards(id, bob, start+100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), paid.Uint64())
	assert.Equal(t, new(uint256.Int).AddUint64(bobBefore, 100), env.balance(t, saleToken, bob))

	p, err := env.engine.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, ecm.Precision, p.AccRewardPerShare)
	assert.Equal(t, uint64(1000), p.TotalRewardsAccrued.Uint64())
	assert.Equal(t, uint64(100), p.RewardsPaid.Uint64())

	// claiming again at the same time pays nothing
	paid, err = env.engine.ClaimRewards(id, bob, start+100)
	require.NoError(t, err)
	assert.True(t, paid.IsZero())
}

func TestTouchIsIdempotent(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 1_000_000, 7)
	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(333), month, start))

	p, err := env.engine.storage.getPool(id)
	require.NoError(t, err)
	render := func() string {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		return string(data)
	}

	require.NoError(t, env.engine.touch(p, start+50))
	first := render()
	require.NoError(t, env.engine.touch(p, start+50))
	assert.Equal(t, first, render())
	require.NoError(t, env.engine.touch(p, start+10))
	assert.Equal(t, first, render(), "going back in time changes nothing")
}

func TestNothingAccruesWhileEmpty(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 1_000_000, 10)

	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(100), month, start+500))
	p, err := env.engine.Pool(id)
	require.NoError(t, err)
	assert.True(t, p.TotalRewardsAccrued.IsZero())
	assert.True(t, p.AccRewardPerShare.IsZero())
	assert.Equal(t, start+500, p.LastRewardTime)

	pending, err := env.engine.PendingRewards(id, alice, start+510)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pending.Uint64())
}

func TestBudgetExhaustion(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 500, 10)
	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(100), month, start))

	paid, err := env.engine.ClaimRewards(id, alice, start+100)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), paid.Uint64())

	p, err := env.engine.Pool(id)
	require.NoError(t, err)
	assert.True(t, p.Exhausted)
	assert.True(t, p.Schedule.Finished())
	assert.Equal(t, p.AllocatedForRewards, p.TotalRewardsAccrued)

	// a top-up alone does not restart emission
	require.NoError(t, env.engine.AddRewardAllocation(id, owner, uint256.NewInt(1000), start+200))
	pending, err := env.engine.PendingRewards(id, alice, start+300)
	require.NoError(t, err)
	assert.True(t, pending.IsZero())

	require.NoError(t, env.engine.SetContinuousRate(id, uint256.NewInt(10), start+300))
	p, err = env.engine.Pool(id)
	require.NoError(t, err)
	assert.False(t, p.Exhausted)
	pending, err = env.engine.PendingRewards(id, alice, start+310)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pending.Uint64())

	// principal is always returned even when the budget cannot cover the reward
	res, err := env.engine.Unstake(id, alice, start+month+10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), res.Principal.Uint64())
	assert.Equal(t, uint64(1000), res.Reward.Uint64())
}

func TestMonthlySchedule(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.createPool(t)
	require.NoError(t, env.engine.AddRewardAllocation(id, owner, uint256.NewInt(10*month), start))

	perMonth := uint256.NewInt(month) // one token per second
	require.NoError(t, env.engine.SetMonthlySchedule(id, []*uint256.Int{perMonth, perMonth}, 0, start))
	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(100), 3*month, start))

	pending, err := env.engine.PendingRewards(id, alice, start+month+month/2)
	require.NoError(t, err)
	assert.Equal(t, month+month/2, pending.Uint64())

	pending, err = env.engine.PendingRewards(id, alice, start+5*month)
	require.NoError(t, err)
	assert.Equal(t, 2*month, pending.Uint64(), "nothing accrues past the last bucket")

	_, err = env.engine.ClaimRewards(id, alice, start+month+month/2)
	require.NoError(t, err)
	p, err := env.engine.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p.Schedule.BucketIndex)
}

func TestWeeklyScheduleOverBudget(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.createPool(t)
	require.NoError(t, env.engine.AddRewardAllocation(id, owner, uint256.NewInt(1000), start))

	err := env.engine.SetWeeklySchedule(id, []*uint256.Int{uint256.NewInt(600), uint256.NewInt(401)}, 0, start)
	assert.ErrorIs(t, err, ErrScheduleOverBudget)
	require.NoError(t, env.engine.SetWeeklySchedule(id, []*uint256.Int{uint256.NewInt(600), uint256.NewInt(400)}, start+10, start))

	p, err := env.engine.Pool(id)
	require.NoError(t, err)
	assert.Equal(t, start+10, p.Schedule.BucketsStart)
	assert.Len(t, p.Schedule.Buckets, 2)
}

func TestProjectRewards(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 1_000_000, 10)
	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(900), month, start))

	projected, err := env.engine.ProjectRewards(id, uint256.NewInt(100), 100, start)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), projected.Uint64())

	small := newTestEnv(t, uint256.NewInt(1))
	id = small.rewardPool(t, 50, 10)
	require.NoError(t, small.engine.StakeOwnedTokens(id, alice, uint256.NewInt(900), month, start))
	projected, err = small.engine.ProjectRewards(id, uint256.NewInt(100), 100, start)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), projected.Uint64())
}

func TestVestedRewards(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 1_000_000, 10)
	require.NoError(t, env.engine.SetVestingRule(id, 1000, true, start))
	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(100), month, start))
	env.events.Drain()

	before := env.balance(t, saleToken, alice)
	paid, err := env.engine.ClaimRewards(id, alice, start+100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), paid.Uint64())
	assert.Equal(t, before, env.balance(t, saleToken, alice))
	assert.Equal(t, uint64(1000), env.balance(t, saleToken, vesting.Holder).Uint64())
	assert.Contains(t, eventNames(env.events.Drain()), "RewardsVested")

	schedules, err := env.escrow.SchedulesOf(alice)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, uint64(1000), schedules[0].Total.Uint64())
	assert.Equal(t, start+100, schedules[0].Start)
}

type failingEscrow struct{}

func (failingEscrow) Holder() ecm.Address { return vesting.Holder }

func (failingEscrow) CreateVesting(ecm.Address, *uint256.Int, uint64, uint64, ecm.Address, uint64) (uint64, error) {
	return 0, errors.New("escrow paused")
}

func TestEscrowFailureAbortsOperation(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 1_000_000, 10)
	require.NoError(t, env.engine.SetVestingRule(id, 1000, true, start))
	require.NoError(t, env.engine.StakeOwnedTokens(id, alice, uint256.NewInt(100), month, start))
	env.engine.collab.Escrow = failingEscrow{}

	before := env.snapshot(t, id, alice)
	_, err := env.engine.ClaimRewards(id, alice, start+100)
	assert.ErrorContains(t, err, "escrow paused")
	_, err = env.engine.Unstake(id, alice, start+100)
	assert.ErrorContains(t, err, "escrow paused")

	assert.Equal(t, before, env.snapshot(t, id, alice))
	assert.True(t, env.balance(t, saleToken, vesting.Holder).IsZero())
}

// TestRewardConservation drives random activity against a small budget and checks after every
// step that nothing is paid or owed beyond what was accrued, and nothing accrues beyond budget.
func TestRewardConservation(t *testing.T) {
	env := newTestEnv(t, uint256.NewInt(1))
	id := env.rewardPool(t, 50_000, 13)
	users := []ecm.Address{alice, bob, carol}
	rng := rand.New(rand.NewPCG(7, 11))

	now := start
	for step := range 400 {
		now += rng.Uint64N(300)
		user := users[rng.IntN(len(users))]
		switch rng.IntN(4) {
		case 0, 1:
			amount := uint256.NewInt(1 + rng.Uint64N(5000))
			require.NoError(t, env.engine.StakeOwnedTokens(id, user, amount, month, now), "step %d", step)
		case 2:
			_, err := env.engine.ClaimRewards(id, user, now)
			require.NoError(t, err, "step %d", step)
		case 3:
			if _, err := env.engine.Unstake(id, user, now); err != nil {
				require.ErrorIs(t, err, ErrNothingStaked, "step %d", step)
			}
		}

		info, err := env.engine.PoolInfo(id, now)
		require.NoError(t, err)
		p := info.Pool
		require.False(t, p.TotalRewardsAccrued.Gt(p.AllocatedForRewards), "step %d", step)
		require.False(t, p.RewardsPaid.Gt(p.TotalRewardsAccrued), "step %d", step)

		owed := new(uint256.Int).Set(p.RewardsPaid)
		staked := ecm.Zero()
		for _, u := range users {
			pending, err := env.engine.PendingRewards(id, u, now)
			require.NoError(t, err)
			owed.Add(owed, pending)
			pos, err := env.engine.Position(id, u)
			require.NoError(t, err)
			staked.Add(staked, pos.Staked)
		}
		accrued := ecm.SaturatingSub(p.AllocatedForRewards, info.ProjectedRemainingReward)
		require.False(t, owed.Gt(accrued), "step %d: owed %v, accrued %v", step, owed, accrued)
		require.Equal(t, staked, p.TotalStaked, "step %d", step)

		// the account always covers staked principal and the unpaid budget
		need := new(uint256.Int).Add(p.TotalStaked, ecm.SaturatingSub(p.AllocatedForRewards, p.RewardsPaid))
		require.False(t, need.Gt(env.balance(t, saleToken, account)), "step %d", step)
	}
}

func TestRewardBatches(t *testing.T) {
	env := newTestEnv(t, nil)
	entries := []epochclaim.Entry{
		{Claimant: alice, Amount: uint256.NewInt(100)},
		{Claimant: bob, Amount: uint256.NewInt(100)},
		{Claimant: carol, Amount: uint256.NewInt(100)},
	}
	c, err := env.engine.Rewards().Commit(saleToken, 1, entries)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), c.Total.Uint64())

	_, err = env.engine.PublishRewardBatch(1, ecm.Address{}, c.Total, c.Root, 0, start)
	assert.ErrorIs(t, err, epochclaim.ErrUnderfunded)

	batch, err := env.engine.PublishRewardBatch(1, owner, c.Total, c.Root, 0, start)
	require.NoError(t, err)
	assert.True(t, batch.Funded)

	holder := env.engine.Rewards().Holder()
	for _, e := range entries {
		before := env.balance(t, saleToken, e.Claimant)
		require.NoError(t, env.engine.ClaimRewardBatch(1, e.Claimant, e.Amount, c.Proofs[e.Claimant], start+1))
		assert.Equal(t, new(uint256.Int).Add(before, e.Amount), env.balance(t, saleToken, e.Claimant))

		err := env.engine.ClaimRewardBatch(1, e.Claimant, e.Amount, c.Proofs[e.Claimant], start+2)
		assert.ErrorIs(t, err, epochclaim.ErrAlreadyClaimed)
	}
	assert.True(t, env.balance(t, saleToken, holder).IsZero())

	batch, err = env.engine.Rewards().Batch(1)
	require.NoError(t, err)
	assert.Equal(t, batch.TotalAmount, batch.ClaimedAmount)

	_, err = env.engine.SweepRewardBatch(1, treasury, start+3)
	assert.ErrorIs(t, err, epochclaim.ErrNotExpired)
}
