// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/emission"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/genesis"
	"github.com/ecmfinance/ecm-ledger/staker"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
)

const doc = `
launchTime: 1700000000
accounts:
  - address: "0x00000000000000000000000000000000000f0000"
    token: sale
    balance: "1000000000000000000000000"
  - address: "0x00000000000000000000000000000000000a11ce"
    token: payment
    balance: "0x3b9aca00"
liquidityManagers:
  - "0x00000000000000000000000000000000000001a0"
pools:
  - allowedDurations: [2592000, 7776000]
    maxDuration: 31536000
    penaltyBps: 2500
    penaltyReceiver: "0x0000000000000000000000000000000000000bad"
    funder: "0x00000000000000000000000000000000000f0000"
    saleAllocation: "500000000000000000000000"
    rewardAllocation: "100000000000000000000000"
    schedule:
      strategy: monthly
      buckets: ["50000000000000000000000", "50000000000000000000000"]
  - allowedDurations: [604800]
    maxDuration: 604800
    inactive: true
`

var (
	saleToken = ecm.BytesToAddress([]byte("ecm"))
	usdt      = ecm.BytesToAddress([]byte("usdt"))
	account   = ecm.BytesToAddress([]byte("staker"))
)

func TestParseAndApply(t *testing.T) {
	g, err := genesis.Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, uint64(1700000000), g.LaunchTime)
	require.Len(t, g.Pools, 2)
	assert.Equal(t, emission.Monthly, g.Pools[0].Schedule.Strategy)
	assert.Equal(t, []uint64{2592000, 7776000}, g.Pools[0].AllowedDurations)

	st := state.New(nil)
	tokens := token.New(st)
	engine := staker.New(st, tokens, event.NewLog(), staker.Config{
		Account:      account,
		SaleToken:    saleToken,
		PaymentToken: usdt,
	}, staker.Collaborators{})
	require.NoError(t, g.Apply(engine, tokens, g.LaunchTime))

	alice := ecm.MustParseAddress("0x00000000000000000000000000000000000a11ce")
	bal, err := tokens.BalanceOf(usdt, alice)
	require.NoError(t, err)
	assert.Equal(t, ecm.PaymentUnits(1000), bal)

	held, err := tokens.BalanceOf(saleToken, account)
	require.NoError(t, err)
	assert.Equal(t, ecm.Units(600_000), held)

	pools, err := engine.Pools()
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.True(t, pools[0].Active)
	assert.Equal(t, g.LaunchTime, pools[0].Schedule.BucketsStart)
	assert.Len(t, pools[0].Schedule.Buckets, 2)
	assert.False(t, pools[1].Active)

	ok, err := engine.IsLiquidityManager(ecm.MustParseAddress("0x00000000000000000000000000000000000001a0"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplyRejectsBadPool(t *testing.T) {
	g, err := genesis.Parse([]byte(`
pools:
  - allowedDurations: [100]
    maxDuration: 10
`))
	require.NoError(t, err)

	st := state.New(nil)
	tokens := token.New(st)
	engine := staker.New(st, tokens, event.NewLog(), staker.Config{SaleToken: saleToken}, staker.Collaborators{})
	err = g.Apply(engine, tokens, 1)
	assert.ErrorIs(t, err, staker.ErrInvalidDurations)
	assert.ErrorContains(t, err, "pool 0")
}

func TestParseRejectsUnknownStrategy(t *testing.T) {
	_, err := genesis.Parse([]byte("pools:\n  - schedule:\n      strategy: hourly\n"))
	assert.Error(t, err)
}
