// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testledger builds an in-memory ledger service seeded with one funded pool.
package testledger

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/emission"
	"github.com/ecmfinance/ecm-ledger/genesis"
	"github.com/ecmfinance/ecm-ledger/lvldb"
	"github.com/ecmfinance/ecm-ledger/service"
	"github.com/ecmfinance/ecm-ledger/staker"
)

// LaunchTime is where the fake clock starts.
const LaunchTime = 1_700_000_000

var (
	Account      = ecm.BytesToAddress([]byte("staker"))
	SaleToken    = ecm.BytesToAddress([]byte("ecm"))
	PaymentToken = ecm.BytesToAddress([]byte("usdt"))
	Owner        = ecm.BytesToAddress([]byte("owner"))
	Treasury     = ecm.BytesToAddress([]byte("treasury"))
	Alice        = ecm.BytesToAddress([]byte("alice"))
	Bob          = ecm.BytesToAddress([]byte("bob"))
	Manager      = ecm.BytesToAddress([]byte("manager"))

	Month = emission.MonthPeriod
)

// Ledger is a service over a memory database driven by a fake clock.
type Ledger struct {
	*service.Service
	DB    *lvldb.LevelDB
	Clock clockwork.FakeClock
}

func Config() service.Config {
	return service.Config{
		Config: staker.Config{
			Account:      Account,
			SaleToken:    SaleToken,
			PaymentToken: PaymentToken,
		},
		PaymentReserve: ecm.PaymentUnits(1_000_000),
		SaleReserve:    ecm.Units(10_000_000),
	}
}

// Genesis funds Alice and Bob and creates pool 1: rate 1 ECM/s, one and three month locks,
// 25% penalty.
func Genesis() *genesis.Genesis {
	return &genesis.Genesis{
		LaunchTime: LaunchTime,
		Accounts: []genesis.Account{
			{Address: Owner, Token: "sale", Balance: ecm.Units(10_000_000)},
			{Address: Alice, Token: "payment", Balance: ecm.PaymentUnits(100_000)},
			{Address: Alice, Token: "sale", Balance: ecm.Units(1000)},
			{Address: Bob, Token: "payment", Balance: ecm.PaymentUnits(100_000)},
		},
		LiquidityManagers: []ecm.Address{Manager},
		Pools: []genesis.Pool{{
			PoolParams: staker.PoolParams{
				AllowedDurations: []uint64{Month, 3 * Month},
				MaxDuration:      12 * Month,
				PenaltyBps:       2500,
				PenaltyReceiver:  Treasury,
			},
			Funder:           Owner,
			SaleAllocation:   ecm.Units(1_000_000),
			RewardAllocation: ecm.Units(1_000_000),
			Schedule:         &genesis.Schedule{Strategy: emission.Continuous, Rate: ecm.Units(1)},
		}},
	}
}

// New returns a Ledger initialized from Genesis. Close it when done.
func New() (*Ledger, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	clock := clockwork.NewFakeClockAt(time.Unix(LaunchTime, 0))
	svc := service.New(db, clock, Config())
	if err := svc.Init(Genesis()); err != nil {
		svc.Close()
		return nil, errors.Wrap(err, "init ledger")
	}
	return &Ledger{Service: svc, DB: db, Clock: clock}, nil
}
