// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package emission computes how many reward units a pool releases over a time interval.
//
// Compute is the only place the accrual formula lives. Advance commits the bucket cursor it
// returns, Preview throws it away, so the two can never disagree.
package emission

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

// Strategy selects how a schedule releases rewards.
type Strategy uint8

const (
	Continuous Strategy = iota
	Monthly
	Weekly
)

const (
	MonthPeriod uint64 = 30 * 24 * 60 * 60
	WeekPeriod  uint64 = 7 * 24 * 60 * 60

	// MaxBuckets bounds a bucketed schedule.
	MaxBuckets = 120
)

func (s Strategy) String() string {
	switch s {
	case Continuous:
		return "continuous"
	case Monthly:
		return "monthly"
	case Weekly:
		return "weekly"
	default:
		return "unknown"
	}
}

// Period returns the bucket window length in seconds, zero for Continuous.
func (s Strategy) Period() uint64 {
	switch s {
	case Monthly:
		return MonthPeriod
	case Weekly:
		return WeekPeriod
	default:
		return 0
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy is the inverse of Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "continuous":
		return Continuous, nil
	case "monthly":
		return Monthly, nil
	case "weekly":
		return Weekly, nil
	}
	return 0, errors.Errorf("unknown strategy %q", s)
}

// Schedule is the emission configuration of a pool together with its bucket cursor.
type Schedule struct {
	Strategy      Strategy       `json:"strategy"`
	RatePerSecond *uint256.Int   `json:"ratePerSecond"`
	Buckets       []*uint256.Int `json:"buckets"`
	BucketIndex   uint64         `json:"bucketIndex"`
	BucketsStart  uint64         `json:"bucketsStart"`
}

// NewContinuous returns a schedule releasing rate units every second.
func NewContinuous(rate *uint256.Int) *Schedule {
	return &Schedule{Strategy: Continuous, RatePerSecond: ecm.Clone(rate)}
}

// NewBucketed returns a Monthly or Weekly schedule whose first bucket opens at start.
func NewBucketed(strategy Strategy, amounts []*uint256.Int, start uint64) *Schedule {
	buckets := make([]*uint256.Int, 0, len(amounts))
	for _, a := range amounts {
		buckets = append(buckets, ecm.Clone(a))
	}
	return &Schedule{
		Strategy:      strategy,
		RatePerSecond: ecm.Zero(),
		Buckets:       buckets,
		BucketsStart:  start,
	}
}

// Copy returns a deep copy.
func (s *Schedule) Copy() *Schedule {
	cpy := *s
	cpy.RatePerSecond = ecm.Clone(s.RatePerSecond)
	cpy.Buckets = make([]*uint256.Int, 0, len(s.Buckets))
	for _, b := range s.Buckets {
		cpy.Buckets = append(cpy.Buckets, ecm.Clone(b))
	}
	return &cpy
}

// Total returns the sum of every bucket.
func (s *Schedule) Total() (*uint256.Int, error) {
	total := ecm.Zero()
	for _, b := range s.Buckets {
		var err error
		if total, err = ecm.Add(total, b); err != nil {
			return nil, err
		}
	}
	return total, nil
}

// Validate checks the shape of the schedule. Budget checks belong to the caller.
func (s *Schedule) Validate() error {
	switch s.Strategy {
	case Continuous:
		if s.RatePerSecond == nil {
			return errors.New("continuous schedule without rate")
		}
		return nil
	case Monthly, Weekly:
		if len(s.Buckets) == 0 {
			return errors.New("empty schedule")
		}
		if len(s.Buckets) > MaxBuckets {
			return errors.Errorf("schedule exceeds %d buckets", MaxBuckets)
		}
		for i, b := range s.Buckets {
			if b == nil || b.IsZero() {
				return errors.Errorf("bucket %d is zero", i)
			}
		}
		return nil
	default:
		return errors.Errorf("unknown strategy %d", s.Strategy)
	}
}

// Finished reports whether the schedule can no longer release anything.
func (s *Schedule) Finished() bool {
	if s.Strategy == Continuous {
		return s.RatePerSecond == nil || s.RatePerSecond.IsZero()
	}
	return s.BucketIndex >= uint64(len(s.Buckets))
}

// Stop disables any further accrual: the rate drops to zero or the cursor moves past the last bucket.
func (s *Schedule) Stop() {
	if s.Strategy == Continuous {
		s.RatePerSecond = ecm.Zero()
		return
	}
	s.BucketIndex = uint64(len(s.Buckets))
}

// Compute returns the rewards released in (from, to] and the bucket cursor after that interval.
// It never mutates s.
func Compute(s *Schedule, from, to uint64) (*uint256.Int, uint64, error) {
	if to <= from {
		return ecm.Zero(), s.BucketIndex, nil
	}
	if s.Strategy == Continuous {
		if s.RatePerSecond == nil {
			return ecm.Zero(), s.BucketIndex, nil
		}
		accrued, err := ecm.Mul(uint256.NewInt(to-from), s.RatePerSecond)
		if err != nil {
			return nil, 0, err
		}
		return accrued, s.BucketIndex, nil
	}

	period := s.Strategy.Period()
	if period == 0 {
		return nil, 0, errors.Errorf("unknown strategy %d", s.Strategy)
	}
	var (
		accrued = ecm.Zero()
		index   = s.BucketIndex
		cursor  = max(from, s.BucketsStart)
		count   = uint64(len(s.Buckets))
		periodU = uint256.NewInt(period)
	)
	for index < count && cursor < to {
		end := s.BucketsStart + (index+1)*period
		if cursor >= end {
			// window closed while nothing was staked
			index++
			continue
		}
		stepEnd := min(to, end)
		part, err := ecm.MulDiv(s.Buckets[index], uint256.NewInt(stepEnd-cursor), periodU)
		if err != nil {
			return nil, 0, err
		}
		if accrued, err = ecm.Add(accrued, part); err != nil {
			return nil, 0, err
		}
		if stepEnd == end {
			index++
		}
		cursor = stepEnd
	}
	return accrued, index, nil
}

// Advance computes the accrual for (from, to] and commits the new bucket cursor.
func Advance(s *Schedule, from, to uint64) (*uint256.Int, error) {
	accrued, index, err := Compute(s, from, to)
	if err != nil {
		return nil, err
	}
	s.BucketIndex = index
	return accrued, nil
}

// Preview computes the accrual for (from, to] leaving s untouched.
func Preview(s *Schedule, from, to uint64) (*uint256.Int, error) {
	accrued, _, err := Compute(s, from, to)
	return accrued, err
}
