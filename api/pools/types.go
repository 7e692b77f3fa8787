// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import "github.com/holiman/uint256"

// Projection is the reward a new stake of Amount would earn over Duration seconds at the
// current emission rate.
type Projection struct {
	Amount   *uint256.Int `json:"amount"`
	Duration uint64       `json:"duration"`
	Reward   *uint256.Int `json:"reward"`
}
