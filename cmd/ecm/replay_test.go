// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/lvldb"
	"github.com/ecmfinance/ecm-ledger/service"
)

var (
	alice  = ecm.MustParseAddress("0x00000000000000000000000000000000000a11ce")
	bob    = ecm.MustParseAddress("0x0000000000000000000000000000000000000b0b")
	funder = ecm.MustParseAddress("0x00000000000000000000000000000000000f0000")
)

func newTestReplayer(t *testing.T) *replayer {
	cfg, err := loadConfig(filepath.Join("testdata", "ledger.yaml"))
	require.NoError(t, err)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Unix(int64(cfg.Genesis.LaunchTime), 0))
	svc := service.New(db, clock, cfg.Ledger)
	t.Cleanup(svc.Close)
	require.NoError(t, svc.Init(&cfg.Genesis))
	return newReplayer(svc, clock, cfg.Ledger)
}

func TestReplayScenario(t *testing.T) {
	r := newTestReplayer(t)
	sc, err := loadScenario(filepath.Join("testdata", "scenario.yaml"))
	require.NoError(t, err)
	require.Len(t, sc.Users, 2)

	require.NoError(t, r.run(sc))

	bal, err := r.svc.Balance(r.cfg.SaleToken, bob)
	require.NoError(t, err)
	assert.Equal(t, ecm.Units(7), bal)

	info, err := r.svc.UserInfo(1, alice)
	require.NoError(t, err)
	assert.True(t, info.Position.Staked.IsZero())
	assert.True(t, info.Position.TotalPenalized.IsZero(), "unstaked after the lock matured")

	a, err := r.svc.Analytics(1)
	require.NoError(t, err)
	assert.Equal(t, ecm.PaymentUnits(500), a.LiquidityPaymentDeposited)

	var out bytes.Buffer
	require.NoError(t, r.dump(&out, sc.Users))
	assert.Contains(t, out.String(), "pool 1\n")
	assert.Contains(t, out.String(), "pool 1 user "+alice.String())
	assert.NotContains(t, out.String(), "user "+bob.String())
}

func TestReplayExpectations(t *testing.T) {
	tests := []struct {
		name string
		step step
		err  string
	}{
		{"unknown op", step{Op: "mintAll"}, `unknown op "mintAll"`},
		{"expected failure did not happen", step{Op: "mint", User: bob, Amount: ecm.Units(1), Expect: "zero"}, `expected error "zero"`},
		{"other failure", step{Op: "unstake", Pool: 1, User: bob, Expect: "pool inactive"}, "got nothing staked"},
		{"unexpected failure", step{Op: "unstake", Pool: 1, User: bob}, "step 0 (unstake): nothing staked"},
		{"claim from unknown batch", step{Op: "claimRewardBatch", ID: 9, User: bob}, "not published by this scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReplayer(t)
			err := r.run(&scenario{Steps: []step{tt.step}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestReplayAdvancesClock(t *testing.T) {
	r := newTestReplayer(t)
	start := r.clock.Now()
	require.NoError(t, r.run(&scenario{Steps: []step{
		{Op: "mint", User: alice, Token: "sale", Amount: ecm.Units(10)},
		{After: 60, Op: "stake", Pool: 1, User: alice, Amount: ecm.Units(10), Duration: 2592000},
		{After: 40, Op: "claim", Pool: 1, User: alice},
	}}))
	assert.Equal(t, 100*time.Second, r.clock.Since(start))

	bal, err := r.svc.Balance(r.cfg.SaleToken, alice)
	require.NoError(t, err)
	assert.Equal(t, ecm.Units(40), bal, "only staker for 40 seconds at 1 ECM/s")
}

func TestLoadConfig(t *testing.T) {
	_, err := loadConfig("")
	assert.ErrorContains(t, err, "missing --config")

	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  account: \"0x00000000000000000000000000000000000000a1\"\n"), 0o600))
	_, err = loadConfig(path)
	assert.ErrorContains(t, err, "required")

	cfg, err := loadConfig(filepath.Join("testdata", "ledger.yaml"))
	require.NoError(t, err)
	assert.Equal(t, funder, cfg.Genesis.Pools[0].Funder)
	assert.Equal(t, ecm.PaymentUnits(1_000_000), cfg.Ledger.PaymentReserve)
}
