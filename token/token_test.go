// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/state"
)

var (
	tok   = ecm.BytesToAddress([]byte("ecm"))
	alice = ecm.BytesToAddress([]byte("alice"))
	bob   = ecm.BytesToAddress([]byte("bob"))
)

func balance(t *testing.T, l *Ledger, holder ecm.Address) uint64 {
	bal, err := l.BalanceOf(tok, holder)
	require.NoError(t, err)
	return bal.Uint64()
}

func TestMintAndTransfer(t *testing.T) {
	l := New(state.New(nil))
	require.NoError(t, l.Mint(tok, alice, uint256.NewInt(100)))
	require.NoError(t, l.Transfer(tok, alice, bob, uint256.NewInt(30)))

	assert.Equal(t, uint64(70), balance(t, l, alice))
	assert.Equal(t, uint64(30), balance(t, l, bob))

	supply, err := l.TotalSupply(tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), supply.Uint64())
}

func TestTransferInsufficient(t *testing.T) {
	l := New(state.New(nil))
	require.NoError(t, l.Mint(tok, alice, uint256.NewInt(10)))

	err := l.Transfer(tok, alice, bob, uint256.NewInt(11))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(10), balance(t, l, alice))
	assert.Equal(t, uint64(0), balance(t, l, bob))

	// zero amounts and self transfers never fail
	require.NoError(t, l.Transfer(tok, bob, alice, uint256.NewInt(0)))
	require.NoError(t, l.Transfer(tok, alice, alice, uint256.NewInt(1000)))
}
