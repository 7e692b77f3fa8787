// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ecm

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	// Decimals of the sale token and of every reward checkpoint.
	Decimals = 18
	// PaymentDecimals of the stablecoin used to pay for purchases.
	PaymentDecimals = 6
	// BpsDenominator is the basis points scale, 10000 = 100%.
	BpsDenominator = 10_000
)

var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrUnderflow      = errors.New("arithmetic underflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// Precision is the fixed-point scale (10^18) used by reward-per-share checkpoints.
// Treat it as read-only.
var Precision = uint256.NewInt(1e18)

var bpsDenominator = uint256.NewInt(BpsDenominator)

// Zero returns a new zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// Units returns n whole tokens scaled to 18 decimals.
func Units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), Precision)
}

// PaymentUnits returns n whole payment tokens scaled to the payment decimals.
func PaymentUnits(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), pow10(PaymentDecimals))
}

// Clone returns a copy of v, treating nil as zero.
func Clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return Zero()
	}
	return v.Clone()
}

// Add returns a+b, failing on overflow.
func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Sub returns a-b, failing when b > a.
func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrUnderflow
	}
	return z, nil
}

// Mul returns a*b, failing on overflow.
func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDiv returns floor(a*b/d) with a 512-bit intermediate product.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Bps returns floor(amount*bps/10000).
func Bps(amount *uint256.Int, bps uint64) (*uint256.Int, error) {
	return MulDiv(amount, uint256.NewInt(bps), bpsDenominator)
}

// Min returns a copy of the smaller of a and b.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// SaturatingSub returns a-b, or zero when b > a.
func SaturatingSub(a, b *uint256.Int) *uint256.Int {
	if b.Gt(a) {
		return Zero()
	}
	return new(uint256.Int).Sub(a, b)
}

// ToPrecision converts an amount with the given decimals to the 18-decimal scale.
func ToPrecision(amount *uint256.Int, decimals uint8) (*uint256.Int, error) {
	if decimals > Decimals {
		return nil, errors.New("decimals exceed precision")
	}
	return Mul(amount, pow10(Decimals-decimals))
}

// FromPrecision converts an 18-decimal amount down to the given decimals, rounding toward zero.
func FromPrecision(amount *uint256.Int, decimals uint8) (*uint256.Int, error) {
	if decimals > Decimals {
		return nil, errors.New("decimals exceed precision")
	}
	return new(uint256.Int).Div(amount, pow10(Decimals-decimals)), nil
}

func pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}
