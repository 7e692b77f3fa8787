// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/lvldb"
	"github.com/ecmfinance/ecm-ledger/referral"
	"github.com/ecmfinance/ecm-ledger/service"
	"github.com/ecmfinance/ecm-ledger/staker"
)

// scenario is a list of operations replayed in order. Users are the addresses reported by
// --dump.
type scenario struct {
	Users []ecm.Address `yaml:"users"`
	Steps []step        `yaml:"steps"`
}

type step struct {
	// After advances the clock by that many seconds before the operation runs.
	After    uint64             `yaml:"after"`
	Op       string             `yaml:"op"`
	Pool     uint64             `yaml:"pool"`
	User     ecm.Address        `yaml:"user"`
	To       ecm.Address        `yaml:"to"`
	Token    string             `yaml:"token"`
	Amount   *uint256.Int       `yaml:"amount"`
	Payment  *uint256.Int       `yaml:"payment"`
	Duration uint64             `yaml:"duration"`
	Active   bool               `yaml:"active"`
	ID       uint64             `yaml:"id"`
	Entries  []epochclaim.Entry `yaml:"entries"`
	Expiry   uint64             `yaml:"expiry"`
	Referral *staker.Referral   `yaml:"referral"`
	// Expect makes the step pass only when it fails with an error containing it.
	Expect string `yaml:"expect"`
}

type replayer struct {
	svc         *service.Service
	clock       clockwork.FakeClock
	cfg         service.Config
	commitments map[string]*epochclaim.Commitment
}

func newReplayer(svc *service.Service, clock clockwork.FakeClock, cfg service.Config) *replayer {
	return &replayer{
		svc:         svc,
		clock:       clock,
		cfg:         cfg,
		commitments: make(map[string]*epochclaim.Commitment),
	}
}

func (r *replayer) token(s string) (ecm.Address, error) {
	switch s {
	case "sale", "":
		return r.cfg.SaleToken, nil
	case "payment":
		return r.cfg.PaymentToken, nil
	}
	return ecm.ParseAddress(s)
}

func commitmentKey(namespace string, id uint64) string {
	return fmt.Sprintf("%s/%d", namespace, id)
}

func (r *replayer) publish(namespace string, s *step) (any, error) {
	c, err := r.svc.Commit(namespace, s.ID, s.Entries)
	if err != nil {
		return nil, err
	}
	if namespace == staker.RewardNamespace {
		_, err = r.svc.PublishRewardBatch(s.ID, s.User, c.Total, c.Root, s.Expiry)
	} else {
		_, err = r.svc.PublishCommissionBatch(s.ID, s.User, c.Total, c.Root, s.Expiry)
	}
	if err != nil {
		return nil, err
	}
	r.commitments[commitmentKey(namespace, s.ID)] = c
	return c.Root, nil
}

// claim redeems the entry of s.User from a batch published earlier in the scenario.
func (r *replayer) claim(namespace string, s *step) (any, error) {
	c, ok := r.commitments[commitmentKey(namespace, s.ID)]
	if !ok {
		return nil, errors.Errorf("batch %d of %s not published by this scenario", s.ID, namespace)
	}
	proof, ok := c.Proofs[s.User]
	if !ok {
		return nil, errors.Errorf("%v has no entry in batch %d", s.User, s.ID)
	}
	amount := s.Amount
	for _, e := range s.Entries {
		if e.Claimant == s.User {
			amount = e.Amount
		}
	}
	if amount == nil {
		return nil, errors.New("amount required")
	}
	if namespace == staker.RewardNamespace {
		return amount, r.svc.ClaimRewardBatch(s.ID, s.User, amount, proof)
	}
	return amount, r.svc.ClaimCommissionBatch(s.ID, s.User, amount, proof)
}

func (r *replayer) exec(s *step) (any, error) {
	switch s.Op {
	case "mint":
		tok, err := r.token(s.Token)
		if err != nil {
			return nil, err
		}
		return nil, r.svc.Mint(tok, s.User, s.Amount)
	case "buy":
		return r.svc.BuyAndStake(s.Pool, s.User, s.Payment, s.Duration, s.Referral)
	case "buyExactOut":
		return r.svc.BuyAndStakeExactOut(s.Pool, s.User, s.Amount, s.Payment, s.Duration, s.Referral)
	case "stake":
		return nil, r.svc.StakeOwnedTokens(s.Pool, s.User, s.Amount, s.Duration)
	case "unstake":
		return r.svc.Unstake(s.Pool, s.User)
	case "claim":
		return r.svc.ClaimRewards(s.Pool, s.User)
	case "setActive":
		return nil, r.svc.SetPoolActive(s.Pool, s.Active)
	case "setRate":
		return nil, r.svc.SetContinuousRate(s.Pool, s.Amount)
	case "addSale":
		return nil, r.svc.AddSaleAllocation(s.Pool, s.User, s.Amount)
	case "addRewards":
		return nil, r.svc.AddRewardAllocation(s.Pool, s.User, s.Amount)
	case "swap":
		tok, err := r.token(s.Token)
		if err != nil {
			return nil, err
		}
		return r.svc.Swap(s.User, tok, s.Amount)
	case "transferToLiquidity":
		return nil, r.svc.TransferToLiquidity(s.Pool, s.User, s.Payment, s.Amount)
	case "recordDeposit":
		return nil, r.svc.RecordLiquidityDeposit(s.Pool, s.User, s.Payment, s.Amount)
	case "publishRewards":
		return r.publish(staker.RewardNamespace, s)
	case "claimRewardBatch":
		return r.claim(staker.RewardNamespace, s)
	case "sweepRewardBatch":
		return r.svc.SweepRewardBatch(s.ID, s.To)
	case "publishCommissions":
		return r.publish(referral.Namespace, s)
	case "claimCommissionBatch":
		return r.claim(referral.Namespace, s)
	case "sweepCommissionBatch":
		return r.svc.SweepCommissionBatch(s.ID, s.To)
	case "withdrawCommission":
		return r.svc.WithdrawDirectCommission(s.User)
	case "releaseVested":
		return r.svc.ReleaseVested(s.ID, s.User)
	}
	return nil, errors.Errorf("unknown op %q", s.Op)
}

// run replays every step, failing on the first one whose outcome differs from its expectation.
func (r *replayer) run(sc *scenario) error {
	for i := range sc.Steps {
		s := &sc.Steps[i]
		if s.After > 0 {
			r.clock.Advance(time.Duration(s.After) * time.Second)
		}
		res, err := r.exec(s)
		switch {
		case s.Expect != "" && err == nil:
			return errors.Errorf("step %d (%s): expected error %q", i, s.Op, s.Expect)
		case s.Expect != "" && !strings.Contains(err.Error(), s.Expect):
			return errors.Errorf("step %d (%s): expected error %q, got %v", i, s.Op, s.Expect, err)
		case s.Expect == "" && err != nil:
			return errors.WithMessagef(err, "step %d (%s)", i, s.Op)
		}
		logger.Info("step", "n", i, "op", s.Op, "now", r.clock.Now().Unix(), "result", res, "err", err)
	}
	return nil
}

func (r *replayer) dump(w io.Writer, users []ecm.Address) error {
	pools, err := r.svc.Pools()
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
	for _, p := range pools {
		info, err := r.svc.PoolInfo(p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "pool %d\n", p.ID)
		cfg.Fdump(w, info)
		for _, u := range users {
			ui, err := r.svc.UserInfo(p.ID, u)
			if err != nil {
				return err
			}
			if !ui.Position.HasStaked {
				continue
			}
			fmt.Fprintf(w, "pool %d user %v\n", p.ID, u)
			cfg.Fdump(w, ui)
		}
	}
	return nil
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	var sc scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	return &sc, nil
}

func replayAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx, os.Stderr); err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("usage: ecm replay --config <config.yaml> <scenario.yaml>")
	}
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	sc, err := loadScenario(ctx.Args().First())
	if err != nil {
		return err
	}

	db, err := lvldb.NewMem()
	if err != nil {
		return err
	}
	defer db.Close()
	clock := clockwork.NewFakeClockAt(time.Unix(int64(cfg.Genesis.LaunchTime), 0))
	svc := service.New(db, clock, cfg.Ledger)
	defer svc.Close()
	if err := svc.Init(&cfg.Genesis); err != nil {
		return errors.Wrap(err, "genesis")
	}

	r := newReplayer(svc, clock, cfg.Ledger)
	if err := r.run(sc); err != nil {
		return err
	}
	if ctx.Bool(dumpFlag.Name) {
		return r.dump(os.Stdout, sc.Users)
	}
	return nil
}
