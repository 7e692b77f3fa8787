// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package referral tracks buyer to referrer edges, pays direct commissions and settles
// periodic multi-level commissions through claim batches.
package referral

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/log"
	"github.com/ecmfinance/ecm-ledger/reverts"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
)

// Namespace of the commission claim batches.
const Namespace = "commission-epochs"

var logger = log.WithContext("pkg", "referral")

var (
	ErrZeroAddress       = reverts.New(reverts.Config, "zero address")
	ErrInvalidBps        = reverts.New(reverts.Config, "commission bps out of range")
	ErrSelfReferral      = reverts.New(reverts.Conflict, "self referral")
	ErrCycle             = reverts.New(reverts.Conflict, "referral cycle")
	ErrAlreadyLinked     = reverts.New(reverts.Conflict, "already linked to a different referrer")
	ErrNothingToWithdraw = reverts.New(reverts.Validation, "nothing to withdraw")
)

// DirectHolder custodies the funds direct commissions are paid from.
var DirectHolder = epochclaim.HolderAddress("referral-direct")

// Stats aggregates what a referrer earned.
type Stats struct {
	Referees      uint64
	RefereeVolume *uint256.Int // tokens staked by direct referees
	DirectPaid    *uint256.Int
	DirectAccrued *uint256.Int // owed, withdrawable
}

func (s *Stats) normalize() {
	s.RefereeVolume = ecm.Clone(s.RefereeVolume)
	s.DirectPaid = ecm.Clone(s.DirectPaid)
	s.DirectAccrued = ecm.Clone(s.DirectAccrued)
}

// Registry owns referral links and commissions.
type Registry struct {
	tokens      *token.Ledger
	events      *event.Log
	payToken    ecm.Address
	referrerOf  *state.Mapping[ecm.Address, ecm.Address]
	stats       *state.Mapping[ecm.Address, *Stats]
	commissions *epochclaim.Ledger
}

// New returns the registry. Direct commissions are paid in payToken.
func New(st *state.State, tokens *token.Ledger, events *event.Log, payToken ecm.Address) *Registry {
	return &Registry{
		tokens:      tokens,
		events:      events,
		payToken:    payToken,
		referrerOf:  state.NewMapping[ecm.Address, ecm.Address](st, "referral/links"),
		stats:       state.NewMapping[ecm.Address, *Stats](st, "referral/stats"),
		commissions: epochclaim.New(st, tokens, events, Namespace, nil),
	}
}

// Commissions is the claim ledger of multi-level commissions.
func (r *Registry) Commissions() *epochclaim.Ledger {
	return r.commissions
}

// ReferrerOf returns the referrer of buyer, zero if none.
func (r *Registry) ReferrerOf(buyer ecm.Address) (ecm.Address, error) {
	ref, err := r.referrerOf.Get(buyer)
	if err != nil {
		return ecm.Address{}, errors.Wrap(err, "failed to get referrer")
	}
	return ref, nil
}

// Upline walks at most levels referrers up from buyer.
func (r *Registry) Upline(buyer ecm.Address, levels int) ([]ecm.Address, error) {
	var out []ecm.Address
	cur := buyer
	for range levels {
		next, err := r.ReferrerOf(cur)
		if err != nil {
			return nil, err
		}
		if next.IsZero() {
			break
		}
		out = append(out, next)
		cur = next
	}
	return out, nil
}

func (r *Registry) Stats(referrer ecm.Address) (*Stats, error) {
	s, err := r.stats.Get(referrer)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get referral stats")
	}
	s.normalize()
	return s, nil
}

// Link records referrer as the referrer of buyer. Linking the same pair again is a no-op.
func (r *Registry) Link(buyer, referrer ecm.Address, now uint64) error {
	if buyer.IsZero() || referrer.IsZero() {
		return ErrZeroAddress
	}
	if buyer == referrer {
		return ErrSelfReferral
	}
	existing, err := r.ReferrerOf(buyer)
	if err != nil {
		return err
	}
	if existing == referrer {
		return nil
	}
	if !existing.IsZero() {
		return ErrAlreadyLinked
	}
	// links form a forest, so walking up from referrer terminates
	for cur := referrer; !cur.IsZero(); {
		if cur == buyer {
			return ErrCycle
		}
		if cur, err = r.ReferrerOf(cur); err != nil {
			return err
		}
	}

	stats, err := r.Stats(referrer)
	if err != nil {
		return err
	}
	stats.Referees++
	if err := r.referrerOf.Set(buyer, referrer); err != nil {
		return err
	}
	if err := r.stats.Set(referrer, stats); err != nil {
		return err
	}
	r.events.Emit("ReferralLinked", now, "buyer", buyer, "referrer", referrer)
	return nil
}

// RecordDirectCommission credits referrer with staked*bps/10000 for a purchase of buyer. The
// commission is either paid from DirectHolder right away or accrued for a later withdrawal.
func (r *Registry) RecordDirectCommission(
	buyer, referrer ecm.Address,
	poolID uint64,
	staked *uint256.Int,
	bps uint64,
	transferImmediately bool,
	now uint64,
) (*uint256.Int, error) {
	if bps > ecm.BpsDenominator {
		return nil, ErrInvalidBps
	}
	amount, err := ecm.Bps(staked, bps)
	if err != nil {
		return nil, errors.Wrap(err, "commission")
	}
	stats, err := r.Stats(referrer)
	if err != nil {
		return nil, err
	}
	if stats.RefereeVolume, err = ecm.Add(stats.RefereeVolume, staked); err != nil {
		return nil, errors.Wrap(err, "referee volume")
	}
	if transferImmediately {
		if err := r.tokens.Transfer(r.payToken, DirectHolder, referrer, amount); err != nil {
			return nil, errors.Wrap(err, "failed to pay direct commission")
		}
		stats.DirectPaid, err = ecm.Add(stats.DirectPaid, amount)
	} else {
		stats.DirectAccrued, err = ecm.Add(stats.DirectAccrued, amount)
	}
	if err != nil {
		return nil, errors.Wrap(err, "direct commission")
	}
	if err := r.stats.Set(referrer, stats); err != nil {
		return nil, err
	}
	r.events.Emit("DirectCommission", now,
		"pool", poolID, "buyer", buyer, "referrer", referrer, "amount", amount.Clone(), "paid", transferImmediately)
	logger.Debug("direct commission", "pool", poolID, "referrer", referrer, "amount", amount)
	return amount, nil
}

// WithdrawDirect pays out the accrued direct commissions of referrer.
func (r *Registry) WithdrawDirect(referrer ecm.Address, now uint64) (*uint256.Int, error) {
	stats, err := r.Stats(referrer)
	if err != nil {
		return nil, err
	}
	amount := stats.DirectAccrued
	if amount.IsZero() {
		return nil, ErrNothingToWithdraw
	}
	if stats.DirectPaid, err = ecm.Add(stats.DirectPaid, amount); err != nil {
		return nil, errors.Wrap(err, "direct paid")
	}
	stats.DirectAccrued = ecm.Zero()
	if err := r.stats.Set(referrer, stats); err != nil {
		return nil, err
	}
	if err := r.tokens.Transfer(r.payToken, DirectHolder, referrer, amount); err != nil {
		return nil, errors.Wrap(err, "failed to withdraw direct commission")
	}
	r.events.Emit("DirectCommissionWithdrawn", now, "referrer", referrer, "amount", amount.Clone())
	return amount, nil
}
