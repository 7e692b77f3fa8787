// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package service

import (
	"github.com/holiman/uint256"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/referral"
	"github.com/ecmfinance/ecm-ledger/reverts"
	"github.com/ecmfinance/ecm-ledger/staker"
	"github.com/ecmfinance/ecm-ledger/vesting"
)

var ErrUnknownNamespace = reverts.New(reverts.Validation, "unknown claim namespace")

func (s *Service) Config() staker.Config { return s.engine.Config() }

func (s *Service) Pools() ([]*staker.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Pools()
}

func (s *Service) PoolInfo(id uint64) (*staker.PoolInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.PoolInfo(id, s.now())
}

func (s *Service) UserInfo(id uint64, user ecm.Address) (*staker.UserInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.UserInfo(id, user, s.now())
}

func (s *Service) PendingRewards(id uint64, user ecm.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.PendingRewards(id, user, s.now())
}

func (s *Service) ProjectRewards(id uint64, amount *uint256.Int, duration uint64) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.ProjectRewards(id, amount, duration, s.now())
}

func (s *Service) QuoteBuyExactIn(id uint64, payIn *uint256.Int) (*staker.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.QuoteBuyExactIn(id, payIn)
}

func (s *Service) QuoteBuyExactOut(id uint64, out *uint256.Int) (*staker.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.QuoteBuyExactOut(id, out)
}

func (s *Service) Analytics(id uint64) (*staker.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Analytics(id)
}

func (s *Service) claimLedger(namespace string) (*epochclaim.Ledger, error) {
	switch namespace {
	case staker.RewardNamespace:
		return s.engine.Rewards(), nil
	case referral.Namespace:
		return s.refs.Commissions(), nil
	}
	return nil, ErrUnknownNamespace
}

// Batch returns a claim batch of the reward or the commission ledger.
func (s *Service) Batch(namespace string, id uint64) (*epochclaim.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.claimLedger(namespace)
	if err != nil {
		return nil, err
	}
	return l.Batch(id)
}

func (s *Service) IsClaimed(namespace string, id uint64, claimant ecm.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.claimLedger(namespace)
	if err != nil {
		return false, err
	}
	return l.IsClaimed(id, claimant)
}

// Commit builds the merkle commitment of entries for a batch of namespace.
func (s *Service) Commit(namespace string, batchID uint64, entries []epochclaim.Entry) (*epochclaim.Commitment, error) {
	l, err := s.claimLedger(namespace)
	if err != nil {
		return nil, err
	}
	return l.Commit(s.engine.Config().SaleToken, batchID, entries)
}

func (s *Service) Balance(tok, holder ecm.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.BalanceOf(tok, holder)
}

func (s *Service) ReferralStats(referrer ecm.Address) (*referral.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refs.Stats(referrer)
}

func (s *Service) VestingSchedules(beneficiary ecm.Address) ([]*vesting.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.escrow.SchedulesOf(beneficiary)
}
