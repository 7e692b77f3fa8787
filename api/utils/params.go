// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

// ParseUint parses a decimal path or query parameter.
func ParseUint(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

// ParseAmount parses a fixed-point amount given as a decimal string of its integer units.
// An empty string yields nil.
func ParseAmount(name, s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

func ParseAddress(name, s string) (ecm.Address, error) {
	addr, err := ecm.ParseAddress(s)
	if err != nil {
		return ecm.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}
