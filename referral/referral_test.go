// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package referral

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/epochclaim"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
)

var (
	ecmToken = ecm.BytesToAddress([]byte("ecm"))
	alice    = ecm.BytesToAddress([]byte("alice"))
	bob      = ecm.BytesToAddress([]byte("bob"))
	carol    = ecm.BytesToAddress([]byte("carol"))
	dave     = ecm.BytesToAddress([]byte("dave"))
)

func newRegistry(t *testing.T) (*Registry, *token.Ledger) {
	st := state.New(nil)
	tokens := token.New(st)
	return New(st, tokens, event.NewLog(), ecmToken), tokens
}

func TestLinkRules(t *testing.T) {
	r, _ := newRegistry(t)

	assert.ErrorIs(t, r.Link(alice, alice, 1), ErrSelfReferral)
	assert.ErrorIs(t, r.Link(alice, ecm.Address{}, 1), ErrZeroAddress)

	// alice <- bob <- carol
	require.NoError(t, r.Link(bob, alice, 1))
	require.NoError(t, r.Link(carol, bob, 1))
	require.NoError(t, r.Link(carol, bob, 2), "relinking the same pair is a no-op")

	assert.ErrorIs(t, r.Link(carol, dave, 3), ErrAlreadyLinked)
	assert.ErrorIs(t, r.Link(alice, carol, 3), ErrCycle)
	assert.ErrorIs(t, r.Link(bob, carol, 3), ErrAlreadyLinked)

	up, err := r.Upline(carol, 5)
	require.NoError(t, err)
	assert.Equal(t, []ecm.Address{bob, alice}, up)

	up, err = r.Upline(carol, 1)
	require.NoError(t, err)
	assert.Equal(t, []ecm.Address{bob}, up)

	stats, err := r.Stats(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Referees)
}

func TestDirectCommission(t *testing.T) {
	r, tokens := newRegistry(t)
	require.NoError(t, tokens.Mint(ecmToken, DirectHolder, uint256.NewInt(1000)))
	require.NoError(t, r.Link(bob, alice, 1))

	paid, err := r.RecordDirectCommission(bob, alice, 1, uint256.NewInt(2000), 500, true, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), paid.Uint64())

	accrued, err := r.RecordDirectCommission(bob, alice, 1, uint256.NewInt(1000), 250, false, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), accrued.Uint64())

	stats, err := r.Stats(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), stats.DirectPaid.Uint64())
	assert.Equal(t, uint64(25), stats.DirectAccrued.Uint64())
	assert.Equal(t, uint64(3000), stats.RefereeVolume.Uint64())

	got, err := r.WithdrawDirect(alice, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), got.Uint64())
	_, err = r.WithdrawDirect(alice, 5)
	assert.ErrorIs(t, err, ErrNothingToWithdraw)

	bal, err := tokens.BalanceOf(ecmToken, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(125), bal.Uint64())

	_, err = r.RecordDirectCommission(bob, alice, 1, uint256.NewInt(1), ecm.BpsDenominator+1, false, 6)
	assert.ErrorIs(t, err, ErrInvalidBps)
}

func TestDirectCommissionUnfunded(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.RecordDirectCommission(bob, alice, 1, uint256.NewInt(2000), 500, true, 2)
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
}

func TestCommissionEpochs(t *testing.T) {
	r, tokens := newRegistry(t)
	l := r.Commissions()
	assert.Equal(t, Namespace, l.Namespace())

	c, err := l.Commit(ecmToken, 1, []epochclaim.Entry{
		{Claimant: alice, Amount: uint256.NewInt(70)},
		{Claimant: bob, Amount: uint256.NewInt(30)},
	})
	require.NoError(t, err)
	require.NoError(t, tokens.Mint(ecmToken, l.Holder(), c.Total))

	_, err = l.Publish(1, ecmToken, c.Total, c.Root, 0, 10)
	require.NoError(t, err)
	require.NoError(t, l.Claim(1, alice, ecmToken, uint256.NewInt(70), c.Proofs[alice], 11))
	assert.ErrorIs(t, l.Claim(1, alice, ecmToken, uint256.NewInt(70), c.Proofs[alice], 12), epochclaim.ErrAlreadyClaimed)
}
