// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package service runs the ledger as a single writer: every mutation is serialized, stamped
// with the service clock, committed to the store only when it succeeds, and its events are
// published to subscribers afterwards.
package service

import (
	"sync"

	ethevent "github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/amm"
	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/genesis"
	"github.com/ecmfinance/ecm-ledger/kv"
	"github.com/ecmfinance/ecm-ledger/log"
	"github.com/ecmfinance/ecm-ledger/referral"
	"github.com/ecmfinance/ecm-ledger/staker"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
	"github.com/ecmfinance/ecm-ledger/vesting"
	"github.com/ecmfinance/ecm-ledger/voucher"
)

var logger = log.WithContext("pkg", "service")

const outboxSize = 1024

// Config names the tokens, the custody account and the voucher issuer, and seeds the AMM.
type Config struct {
	staker.Config `yaml:",inline"`

	VoucherIssuer   ecm.Address  `yaml:"voucherIssuer"`
	PaymentReserve  *uint256.Int `yaml:"paymentReserve"`
	SaleReserve     *uint256.Int `yaml:"saleReserve"`
	DisableVesting  bool         `yaml:"disableVesting"`
	DisableReferral bool         `yaml:"disableReferral"`
}

type Service struct {
	mu    sync.RWMutex
	db    kv.Store
	clock clockwork.Clock

	st       *state.State
	tokens   *token.Ledger
	events   *event.Log
	pricer   *amm.Pool
	escrow   *vesting.Escrow
	refs     *referral.Registry
	vouchers *voucher.Verifier
	engine   *staker.Engine

	feed   ethevent.Feed
	scope  ethevent.SubscriptionScope
	outbox chan []event.Event
	done   chan struct{}
	wg     sync.WaitGroup
}

// New opens the ledger stored in db.
func New(db kv.Store, clock clockwork.Clock, cfg Config) *Service {
	st := state.New(db)
	s := &Service{
		db:     db,
		clock:  clock,
		st:     st,
		tokens: token.New(st),
		events: event.NewLog(),
		outbox: make(chan []event.Event, outboxSize),
		done:   make(chan struct{}),
	}
	s.pricer = amm.NewPool(cfg.PaymentToken, cfg.SaleToken, ecm.Clone(cfg.PaymentReserve), ecm.Clone(cfg.SaleReserve))
	s.escrow = vesting.New(st, s.tokens, s.events)
	s.refs = referral.New(st, s.tokens, s.events, cfg.SaleToken)
	s.vouchers = voucher.New(st, s.events, cfg.VoucherIssuer)

	collab := staker.Collaborators{Pricer: s.pricer}
	if !cfg.DisableVesting {
		collab.Escrow = s.escrow
	}
	if !cfg.DisableReferral {
		collab.Vouchers = s.vouchers
		collab.Referrals = s.refs
	}
	s.engine = staker.New(st, s.tokens, s.events, cfg.Config, collab)

	s.wg.Add(1)
	go s.dispatchLoop()
	return s
}

// Close stops publishing events and ends every subscription.
func (s *Service) Close() {
	s.scope.Close()
	close(s.done)
	s.wg.Wait()
}

func (s *Service) Clock() clockwork.Clock { return s.clock }

func (s *Service) now() uint64 {
	return uint64(s.clock.Now().Unix())
}

// Subscribe delivers the events of every committed mutation to ch, in commit order.
func (s *Service) Subscribe(ch chan<- event.Event) ethevent.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}

func (s *Service) dispatchLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case batch := <-s.outbox:
			for _, ev := range batch {
				s.feed.Send(ev)
			}
		}
	}
}

func (s *Service) publish(events []event.Event) {
	if len(events) == 0 {
		return
	}
	select {
	case s.outbox <- events:
	default:
		logger.Warn("event outbox full, dropping events", "count", len(events))
	}
}

// mutate runs fn as one serialized, all-or-nothing operation and makes its effect durable.
func (s *Service) mutate(op string, fn func(now uint64) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	checkpoint := s.st.NewCheckpoint()
	mark := s.events.Len()
	if err := fn(now); err != nil {
		s.st.RevertTo(checkpoint)
		s.events.Truncate(mark)
		return err
	}
	if err := s.st.Commit(s.db.NewBatch()); err != nil {
		s.st.RevertTo(checkpoint)
		s.events.Truncate(mark)
		logger.Error("failed to commit", "op", op, "err", err)
		return errors.Wrap(err, "commit")
	}
	logger.Debug("committed", "op", op, "now", now)
	s.publish(s.events.Drain())
	return nil
}

// Init applies g to an empty ledger. A ledger that already has pools is left as is.
func (s *Service) Init(g *genesis.Genesis) error {
	return s.mutate("genesis", func(now uint64) error {
		pools, err := s.engine.Pools()
		if err != nil {
			return err
		}
		if len(pools) > 0 {
			logger.Info("ledger already initialized", "pools", len(pools))
			return nil
		}
		return g.Apply(s.engine, s.tokens, now)
	})
}
