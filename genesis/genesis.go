// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the initial ledger: funded accounts, liquidity managers and pools
// with their allocations and emission schedules.
package genesis

import (
	"os"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/emission"
	"github.com/ecmfinance/ecm-ledger/staker"
	"github.com/ecmfinance/ecm-ledger/token"
)

// Genesis is the user supplied initial ledger.
type Genesis struct {
	LaunchTime        uint64        `yaml:"launchTime"`
	Accounts          []Account     `yaml:"accounts"`
	LiquidityManagers []ecm.Address `yaml:"liquidityManagers"`
	Pools             []Pool        `yaml:"pools"`
}

// Account is a minted balance. Token is an address or one of "sale" and "payment".
type Account struct {
	Address ecm.Address  `yaml:"address"`
	Token   string       `yaml:"token"`
	Balance *uint256.Int `yaml:"balance"`
}

type Pool struct {
	staker.PoolParams `yaml:",inline"`

	Funder           ecm.Address  `yaml:"funder"`
	SaleAllocation   *uint256.Int `yaml:"saleAllocation"`
	RewardAllocation *uint256.Int `yaml:"rewardAllocation"`
	Schedule         *Schedule    `yaml:"schedule"`
	Inactive         bool         `yaml:"inactive"`
}

// Schedule is either a continuous rate or a list of monthly or weekly buckets.
type Schedule struct {
	Strategy emission.Strategy `yaml:"strategy"`
	Rate     *uint256.Int      `yaml:"rate"`
	Buckets  []*uint256.Int    `yaml:"buckets"`
	Start    uint64            `yaml:"start"`
}

// Load reads a YAML genesis file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	return Parse(data)
}

func Parse(data []byte) (*Genesis, error) {
	var g Genesis
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	return &g, nil
}

func resolveToken(cfg staker.Config, s string) (ecm.Address, error) {
	switch s {
	case "sale", "":
		return cfg.SaleToken, nil
	case "payment":
		return cfg.PaymentToken, nil
	}
	return ecm.ParseAddress(s)
}

// Apply mints the accounts and creates the pools through engine, at now. Callers run it inside
// a single atomic section.
func (g *Genesis) Apply(engine *staker.Engine, tokens *token.Ledger, now uint64) error {
	cfg := engine.Config()
	for i, acc := range g.Accounts {
		tok, err := resolveToken(cfg, acc.Token)
		if err != nil {
			return errors.WithMessagef(err, "account %d", i)
		}
		if acc.Balance == nil {
			continue
		}
		if err := tokens.Mint(tok, acc.Address, acc.Balance); err != nil {
			return errors.WithMessagef(err, "account %d", i)
		}
	}
	for _, m := range g.LiquidityManagers {
		if err := engine.AddLiquidityManager(m, now); err != nil {
			return err
		}
	}
	for i := range g.Pools {
		if err := g.Pools[i].apply(engine, now); err != nil {
			return errors.WithMessagef(err, "pool %d", i)
		}
	}
	return nil
}

func (p *Pool) apply(engine *staker.Engine, now uint64) error {
	id, err := engine.CreatePool(p.PoolParams, now)
	if err != nil {
		return err
	}
	if p.SaleAllocation != nil && !p.SaleAllocation.IsZero() {
		if err := engine.AddSaleAllocation(id, p.Funder, p.SaleAllocation, now); err != nil {
			return err
		}
	}
	if p.RewardAllocation != nil && !p.RewardAllocation.IsZero() {
		if err := engine.AddRewardAllocation(id, p.Funder, p.RewardAllocation, now); err != nil {
			return err
		}
	}
	if s := p.Schedule; s != nil {
		switch s.Strategy {
		case emission.Continuous:
			err = engine.SetContinuousRate(id, s.Rate, now)
		case emission.Monthly:
			err = engine.SetMonthlySchedule(id, s.Buckets, s.Start, now)
		case emission.Weekly:
			err = engine.SetWeeklySchedule(id, s.Buckets, s.Start, now)
		default:
			err = errors.Errorf("unknown strategy %v", s.Strategy)
		}
		if err != nil {
			return err
		}
	}
	if p.Inactive {
		return engine.SetPoolActive(id, false, now)
	}
	return nil
}
