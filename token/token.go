// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token keeps fungible balances per (token, holder) in the ledger state.
package token

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/reverts"
	"github.com/ecmfinance/ecm-ledger/state"
)

var ErrInsufficientBalance = reverts.New(reverts.Validation, "insufficient balance")

type holding [2 * ecm.AddressLength]byte

func (h holding) Bytes() []byte { return h[:] }

func holdingOf(token, holder ecm.Address) (h holding) {
	copy(h[:], token[:])
	copy(h[ecm.AddressLength:], holder[:])
	return
}

// Ledger moves balances. It has no notion of allowances, callers are trusted.
type Ledger struct {
	balances *state.Mapping[holding, *uint256.Int]
	supply   *state.Mapping[ecm.Address, *uint256.Int]
}

func New(st *state.State) *Ledger {
	return &Ledger{
		balances: state.NewMapping[holding, *uint256.Int](st, "balances"),
		supply:   state.NewMapping[ecm.Address, *uint256.Int](st, "supply"),
	}
}

func (l *Ledger) BalanceOf(token, holder ecm.Address) (*uint256.Int, error) {
	bal, err := l.balances.Get(holdingOf(token, holder))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

func (l *Ledger) TotalSupply(token ecm.Address) (*uint256.Int, error) {
	return l.supply.Get(token)
}

// Mint credits amount to holder out of thin air. Used by genesis and fixtures.
func (l *Ledger) Mint(token, to ecm.Address, amount *uint256.Int) error {
	supply, err := l.supply.Get(token)
	if err != nil {
		return err
	}
	if supply, err = ecm.Add(supply, amount); err != nil {
		return errors.Wrap(err, "supply")
	}
	bal, err := l.BalanceOf(token, to)
	if err != nil {
		return err
	}
	if bal, err = ecm.Add(bal, amount); err != nil {
		return errors.Wrap(err, "balance")
	}
	if err := l.supply.Set(token, supply); err != nil {
		return err
	}
	return l.balances.Set(holdingOf(token, to), bal)
}

// Transfer moves amount from one holder to another. A zero amount is a no-op.
func (l *Ledger) Transfer(token, from, to ecm.Address, amount *uint256.Int) error {
	if amount.IsZero() || from == to {
		return nil
	}
	fromBal, err := l.BalanceOf(token, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientBalance, "%v holds %v of %v, needs %v", from, fromBal, token, amount)
	}
	toBal, err := l.BalanceOf(token, to)
	if err != nil {
		return err
	}
	if toBal, err = ecm.Add(toBal, amount); err != nil {
		return errors.Wrap(err, "balance")
	}
	if err := l.balances.Set(holdingOf(token, from), new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.balances.Set(holdingOf(token, to), toBal)
}
