// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package amm

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

// Pool is an in-memory pair of reserves. It stands in for the external AMM the ledger reads
// prices from and that liquidity managers deposit into.
type Pool struct {
	mu       sync.RWMutex
	tokenA   ecm.Address
	tokenB   ecm.Address
	reserveA *uint256.Int
	reserveB *uint256.Int
}

func NewPool(tokenA, tokenB ecm.Address, reserveA, reserveB *uint256.Int) *Pool {
	return &Pool{
		tokenA:   tokenA,
		tokenB:   tokenB,
		reserveA: ecm.Clone(reserveA),
		reserveB: ecm.Clone(reserveB),
	}
}

// GetReserves returns both reserves and the identity of the first token.
func (p *Pool) GetReserves() (*uint256.Int, *uint256.Int, ecm.Address, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveA.Clone(), p.reserveB.Clone(), p.tokenA, nil
}

// ReservesFor orders the reserves as (in, out) for a swap paying with tokenIn.
func (p *Pool) ReservesFor(tokenIn ecm.Address) (*uint256.Int, *uint256.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch tokenIn {
	case p.tokenA:
		return p.reserveA.Clone(), p.reserveB.Clone(), nil
	case p.tokenB:
		return p.reserveB.Clone(), p.reserveA.Clone(), nil
	}
	return nil, nil, errors.Errorf("amm: token %v not in pool", tokenIn)
}

// SetReserves overwrites the reserves.
func (p *Pool) SetReserves(reserveA, reserveB *uint256.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserveA = ecm.Clone(reserveA)
	p.reserveB = ecm.Clone(reserveB)
}

// Deposit adds liquidity given in the order of tokenIn and the other token.
func (p *Pool) Deposit(tokenIn ecm.Address, amountIn, amountOther *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, b := amountIn, amountOther
	switch tokenIn {
	case p.tokenA:
	case p.tokenB:
		a, b = b, a
	default:
		return errors.Errorf("amm: token %v not in pool", tokenIn)
	}
	ra, err := ecm.Add(p.reserveA, a)
	if err != nil {
		return err
	}
	rb, err := ecm.Add(p.reserveB, b)
	if err != nil {
		return err
	}
	p.reserveA, p.reserveB = ra, rb
	return nil
}

// Swap executes an exact-input swap and returns the output amount.
func (p *Pool) Swap(tokenIn ecm.Address, in *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rIn, rOut **uint256.Int
	switch tokenIn {
	case p.tokenA:
		rIn, rOut = &p.reserveA, &p.reserveB
	case p.tokenB:
		rIn, rOut = &p.reserveB, &p.reserveA
	default:
		return nil, errors.Errorf("amm: token %v not in pool", tokenIn)
	}
	out, err := AmountOut(in, *rIn, *rOut)
	if err != nil {
		return nil, err
	}
	newIn, err := ecm.Add(*rIn, in)
	if err != nil {
		return nil, err
	}
	*rIn = newIn
	*rOut = new(uint256.Int).Sub(*rOut, out)
	return out, nil
}
