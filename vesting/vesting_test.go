// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vesting

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/event"
	"github.com/ecmfinance/ecm-ledger/state"
	"github.com/ecmfinance/ecm-ledger/token"
)

var (
	ecmToken = ecm.BytesToAddress([]byte("ecm"))
	alice    = ecm.BytesToAddress([]byte("alice"))
	bob      = ecm.BytesToAddress([]byte("bob"))
)

func newEscrow(t *testing.T, funded uint64) (*Escrow, *token.Ledger) {
	st := state.New(nil)
	tokens := token.New(st)
	if funded > 0 {
		require.NoError(t, tokens.Mint(ecmToken, Holder, uint256.NewInt(funded)))
	}
	return New(st, tokens, event.NewLog()), tokens
}

func TestLinearRelease(t *testing.T) {
	e, tokens := newEscrow(t, 1000)
	id, err := e.CreateVesting(alice, uint256.NewInt(1000), 100, 1000, ecmToken, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	s, err := e.Schedule(id)
	require.NoError(t, err)
	assert.True(t, s.Vested(100).IsZero())
	assert.Equal(t, uint64(250), s.Vested(350).Uint64())
	assert.Equal(t, uint64(1000), s.Vested(5000).Uint64())

	_, err = e.Claim(id, bob, 600)
	assert.ErrorIs(t, err, ErrNotBeneficiary)

	got, err := e.Claim(id, alice, 600)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got.Uint64())

	_, err = e.Claim(id, alice, 600)
	assert.ErrorIs(t, err, ErrNothingToRelease)

	got, err = e.Claim(id, alice, 2000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), got.Uint64())

	bal, err := tokens.BalanceOf(ecmToken, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal.Uint64())
}

func TestCreateVestingRejects(t *testing.T) {
	e, _ := newEscrow(t, 100)

	_, err := e.CreateVesting(ecm.Address{}, uint256.NewInt(1), 0, 10, ecmToken, 1)
	assert.ErrorIs(t, err, ErrZeroAddress)
	_, err = e.CreateVesting(alice, uint256.NewInt(0), 0, 10, ecmToken, 1)
	assert.ErrorIs(t, err, ErrZeroAmount)
	_, err = e.CreateVesting(alice, uint256.NewInt(1), 0, 0, ecmToken, 1)
	assert.ErrorIs(t, err, ErrZeroDuration)

	// 100 held, 60 locked: another 60 is not backed
	_, err = e.CreateVesting(alice, uint256.NewInt(60), 0, 10, ecmToken, 1)
	require.NoError(t, err)
	_, err = e.CreateVesting(alice, uint256.NewInt(60), 0, 10, ecmToken, 1)
	assert.ErrorIs(t, err, ErrUnfunded)

	schedules, err := e.SchedulesOf(alice)
	require.NoError(t, err)
	assert.Len(t, schedules, 1)

	_, err = e.Schedule(42)
	assert.ErrorIs(t, err, ErrNotFound)
}
