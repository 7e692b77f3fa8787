// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vesting is a linear escrow: each schedule releases its amount evenly between start
// and start+duration, and the beneficiary withdraws whatever has vested so far.
package vesting

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/reverts"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
)

var (
	ErrZeroAddress      = reverts.New(reverts.Config, "zero beneficiary")
	ErrZeroAmount       = reverts.New(reverts.Config, "zero amount")
	ErrZeroDuration     = reverts.New(reverts.Config, "zero duration")
	ErrNotFound         = reverts.New(reverts.Validation, "vesting schedule not found")
	ErrNotBeneficiary   = reverts.New(reverts.Validation, "caller is not the beneficiary")
	ErrNothingToRelease = reverts.New(reverts.Validation, "nothing to release")
	ErrUnfunded         = reverts.New(reverts.Validation, "escrow does not hold the vested amount")
)

// Holder is the account that custodies escrowed tokens.
var Holder = ecm.BytesToAddress(ecm.Keccak256([]byte("vesting-escrow")).Bytes()[12:])

type Schedule struct {
	ID          uint64
	Beneficiary ecm.Address
	Token       ecm.Address
	PoolID      uint64
	Total       *uint256.Int
	Released    *uint256.Int
	Start       uint64
	Duration    uint64
}

// Vested returns how much of the schedule is unlocked at now.
func (s *Schedule) Vested(now uint64) *uint256.Int {
	if now <= s.Start {
		return ecm.Zero()
	}
	if elapsed := now - s.Start; elapsed < s.Duration {
		// Total*elapsed fits in 512 bits, MulDiv cannot overflow since elapsed < Duration
		v, _ := ecm.MulDiv(s.Total, uint256.NewInt(elapsed), uint256.NewInt(s.Duration))
		return v
	}
	return s.Total.Clone()
}

// Releasable is vested minus what was already withdrawn.
func (s *Schedule) Releasable(now uint64) *uint256.Int {
	return ecm.SaturatingSub(s.Vested(now), s.Released)
}

type scheduleKey uint64

func (k scheduleKey) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// Escrow keeps every vesting schedule.
type Escrow struct {
	tokens        *token.Ledger
	events        *event.Log
	schedules     *state.Mapping[scheduleKey, *Schedule]
	byBeneficiary *state.Mapping[ecm.Address, []uint64]
	locked        *state.Mapping[ecm.Address, *uint256.Int]
	counter       *state.Raw[uint64]
}

func New(st *state.State, tokens *token.Ledger, events *event.Log) *Escrow {
	return &Escrow{
		tokens:        tokens,
		events:        events,
		schedules:     state.NewMapping[scheduleKey, *Schedule](st, "vesting/schedules"),
		byBeneficiary: state.NewMapping[ecm.Address, []uint64](st, "vesting/beneficiaries"),
		locked:        state.NewMapping[ecm.Address, *uint256.Int](st, "vesting/locked"),
		counter:       state.NewRaw[uint64](st, "vesting/counter"),
	}
}

// Holder is where callers move tokens before creating a schedule.
func (e *Escrow) Holder() ecm.Address {
	return Holder
}

// CreateVesting locks amount, already transferred to Holder, for beneficiary.
func (e *Escrow) CreateVesting(beneficiary ecm.Address, amount *uint256.Int, start, duration uint64, tok ecm.Address, poolID uint64) (uint64, error) {
	if beneficiary.IsZero() {
		return 0, ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return 0, ErrZeroAmount
	}
	if duration == 0 {
		return 0, ErrZeroDuration
	}
	locked, err := e.locked.Get(tok)
	if err != nil {
		return 0, err
	}
	if locked, err = ecm.Add(locked, amount); err != nil {
		return 0, errors.Wrap(err, "locked")
	}
	held, err := e.tokens.BalanceOf(tok, Holder)
	if err != nil {
		return 0, err
	}
	if held.Lt(locked) {
		return 0, ErrUnfunded
	}

	id, err := e.counter.Get()
	if err != nil {
		return 0, err
	}
	id++
	s := &Schedule{
		ID:          id,
		Beneficiary: beneficiary,
		Token:       tok,
		PoolID:      poolID,
		Total:       amount.Clone(),
		Released:    ecm.Zero(),
		Start:       start,
		Duration:    duration,
	}
	ids, err := e.byBeneficiary.Get(beneficiary)
	if err != nil {
		return 0, err
	}
	if err := e.counter.Set(id); err != nil {
		return 0, err
	}
	if err := e.schedules.Set(scheduleKey(id), s); err != nil {
		return 0, err
	}
	if err := e.byBeneficiary.Set(beneficiary, append(ids, id)); err != nil {
		return 0, err
	}
	if err := e.locked.Set(tok, locked); err != nil {
		return 0, err
	}
	e.events.Emit("VestingCreated", start,
		"schedule", id, "beneficiary", beneficiary, "pool", poolID, "amount", amount.Clone(), "duration", duration)
	return id, nil
}

func (e *Escrow) Schedule(id uint64) (*Schedule, error) {
	s, err := e.schedules.Get(scheduleKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vesting schedule")
	}
	if s.ID == 0 {
		return nil, ErrNotFound
	}
	return s, nil
}

// SchedulesOf lists every schedule created for beneficiary.
func (e *Escrow) SchedulesOf(beneficiary ecm.Address) ([]*Schedule, error) {
	ids, err := e.byBeneficiary.Get(beneficiary)
	if err != nil {
		return nil, err
	}
	out := make([]*Schedule, 0, len(ids))
	for _, id := range ids {
		s, err := e.Schedule(id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Claim pays out everything releasable on schedule id to its beneficiary.
func (e *Escrow) Claim(id uint64, caller ecm.Address, now uint64) (*uint256.Int, error) {
	s, err := e.Schedule(id)
	if err != nil {
		return nil, err
	}
	if s.Beneficiary != caller {
		return nil, ErrNotBeneficiary
	}
	amount := s.Releasable(now)
	if amount.IsZero() {
		return nil, ErrNothingToRelease
	}
	if s.Released, err = ecm.Add(s.Released, amount); err != nil {
		return nil, errors.Wrap(err, "released")
	}
	locked, err := e.locked.Get(s.Token)
	if err != nil {
		return nil, err
	}
	if locked, err = ecm.Sub(locked, amount); err != nil {
		return nil, errors.Wrap(err, "locked")
	}
	if err := e.schedules.Set(scheduleKey(id), s); err != nil {
		return nil, err
	}
	if err := e.locked.Set(s.Token, locked); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(s.Token, Holder, s.Beneficiary, amount); err != nil {
		return nil, errors.Wrap(err, "failed to release")
	}
	e.events.Emit("VestingReleased", now, "schedule", id, "beneficiary", s.Beneficiary, "amount", amount.Clone())
	return amount, nil
}
