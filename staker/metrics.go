// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/ecmfinance/ecm-ledger/ecm"
	"github.com/ecmfinance/ecm-ledger/metrics"
)

var (
	metricOperations  = metrics.LazyLoadCounterVec("staker_operations_count", []string{"op", "result"})
	metricOpDuration  = metrics.LazyLoadHistogramVec("staker_operation_duration_us", []string{"op"}, metrics.BucketOpMicros)
	metricTotalStaked = metrics.LazyLoadGaugeVec("staker_total_staked_tokens", []string{"pool"})
	metricRewardsPaid = metrics.LazyLoadCounterVec("staker_rewards_paid_tokens", []string{"pool", "route"})
)

func poolLabel(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// gaugeValue expresses an 18 decimals amount in whole tokens, saturating at MaxInt64.
func gaugeValue(v *uint256.Int) int64 {
	whole := new(uint256.Int).Div(v, ecm.Precision)
	if !whole.IsUint64() || whole.Uint64() > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(whole.Uint64())
}
