// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/holiman/uint256"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/vesting"
)

// Account holds the balances and the direct referral commissions of an address.
type Account struct {
	Address        ecm.Address  `json:"address"`
	SaleBalance    *uint256.Int `json:"saleBalance"`
	PaymentBalance *uint256.Int `json:"paymentBalance"`
	Referees       uint64       `json:"referees"`
	RefereeVolume  *uint256.Int `json:"refereeVolume"`
	DirectPaid     *uint256.Int `json:"directPaid"`
	DirectAccrued  *uint256.Int `json:"directAccrued"`
}

type Vesting struct {
	ID         uint64       `json:"id"`
	PoolID     uint64       `json:"poolId"`
	Token      ecm.Address  `json:"token"`
	Total      *uint256.Int `json:"total"`
	Released   *uint256.Int `json:"released"`
	Releasable *uint256.Int `json:"releasable"`
	Start      uint64       `json:"start"`
	Duration   uint64       `json:"duration"`
}

func convertVesting(s *vesting.Schedule, now uint64) *Vesting {
	return &Vesting{
		ID:         s.ID,
		PoolID:     s.PoolID,
		Token:      s.Token,
		Total:      s.Total,
		Released:   s.Released,
		Releasable: s.Releasable(now),
		Start:      s.Start,
		Duration:   s.Duration,
	}
}
