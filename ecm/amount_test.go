// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ecm

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var maxUint256 = new(uint256.Int).SetAllOne()

func TestCheckedArithmetic(t *testing.T) {
	z, err := Add(uint256.NewInt(1), uint256.NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), z.Uint64())

	_, err = Add(maxUint256, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Sub(uint256.NewInt(1), uint256.NewInt(2))
	assert.ErrorIs(t, err, ErrUnderflow)

	_, err = Mul(maxUint256, uint256.NewInt(2))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MulDiv(uint256.NewInt(1), uint256.NewInt(1), Zero())
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMulDivWideIntermediate(t *testing.T) {
	// the product overflows 256 bits but the quotient fits
	z, err := MulDiv(maxUint256, uint256.NewInt(4), uint256.NewInt(8))
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Rsh(maxUint256, 1), z)

	// rounds toward zero
	z, err = MulDiv(uint256.NewInt(10), uint256.NewInt(1), uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), z.Uint64())
}

func TestBps(t *testing.T) {
	z, err := Bps(uint256.NewInt(1000), 2500)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), z.Uint64())

	z, err = Bps(uint256.NewInt(999), 3333)
	require.NoError(t, err)
	assert.Equal(t, uint64(332), z.Uint64())
}

func TestPrecisionConversion(t *testing.T) {
	usdt := PaymentUnits(5)
	assert.Equal(t, uint64(5_000_000), usdt.Uint64())

	scaled, err := ToPrecision(usdt, PaymentDecimals)
	require.NoError(t, err)
	assert.Equal(t, Units(5), scaled)

	back, err := FromPrecision(new(uint256.Int).AddUint64(scaled, 999), PaymentDecimals)
	require.NoError(t, err)
	assert.Equal(t, usdt, back)

	_, err = ToPrecision(usdt, 19)
	assert.Error(t, err)
}

func TestHelpers(t *testing.T) {
	assert.True(t, Clone(nil).IsZero())
	assert.Equal(t, uint64(1), Min(uint256.NewInt(1), uint256.NewInt(2)).Uint64())
	assert.True(t, SaturatingSub(uint256.NewInt(1), uint256.NewInt(2)).IsZero())
	assert.Equal(t, uint64(math.MaxUint64), SaturatingSub(uint256.NewInt(math.MaxUint64), Zero()).Uint64())
}
