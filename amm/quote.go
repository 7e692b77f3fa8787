// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package amm prices swaps against constant-product reserves with a 0.3% fee.
package amm

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

const (
	FeeNumerator   = 997
	FeeDenominator = 1000
)

var (
	ErrInsufficientInput     = errors.New("amm: insufficient input amount")
	ErrInsufficientOutput    = errors.New("amm: insufficient output amount")
	ErrInsufficientLiquidity = errors.New("amm: insufficient liquidity")

	feeNum = uint256.NewInt(FeeNumerator)
	feeDen = uint256.NewInt(FeeDenominator)
)

// AmountOut returns in*997*reserveOut / (reserveIn*1000 + in*997), rounded down.
func AmountOut(in, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if in.IsZero() {
		return nil, ErrInsufficientInput
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	inWithFee, err := ecm.Mul(in, feeNum)
	if err != nil {
		return nil, err
	}
	scaledIn, err := ecm.Mul(reserveIn, feeDen)
	if err != nil {
		return nil, err
	}
	den, err := ecm.Add(scaledIn, inWithFee)
	if err != nil {
		return nil, err
	}
	return ecm.MulDiv(inWithFee, reserveOut, den)
}

// AmountIn returns reserveIn*out*1000 / ((reserveOut-out)*997) + 1, the smallest input that buys out.
func AmountIn(out, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if out.IsZero() {
		return nil, ErrInsufficientOutput
	}
	if reserveIn.IsZero() || !reserveOut.Gt(out) {
		return nil, ErrInsufficientLiquidity
	}
	num, err := ecm.Mul(reserveIn, feeDen)
	if err != nil {
		return nil, err
	}
	den, err := ecm.Mul(new(uint256.Int).Sub(reserveOut, out), feeNum)
	if err != nil {
		return nil, err
	}
	in, err := ecm.MulDiv(num, out, den)
	if err != nil {
		return nil, err
	}
	return ecm.Add(in, uint256.NewInt(1))
}
