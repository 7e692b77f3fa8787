// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package emission

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecmfinance/ecm-ledger/ecm"
)

func amounts(vals ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, 0, len(vals))
	for _, v := range vals {
		out = append(out, uint256.NewInt(v))
	}
	return out
}

func TestContinuous(t *testing.T) {
	s := NewContinuous(uint256.NewInt(10))

	accrued, err := Advance(s, 100, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), accrued.Uint64())

	accrued, err = Advance(s, 200, 200)
	require.NoError(t, err)
	assert.True(t, accrued.IsZero())

	s.Stop()
	assert.True(t, s.Finished())
	accrued, err = Advance(s, 200, 300)
	require.NoError(t, err)
	assert.True(t, accrued.IsZero())
}

func TestContinuousOverflow(t *testing.T) {
	huge := new(uint256.Int).SetAllOne()
	s := NewContinuous(huge)
	_, err := Advance(s, 0, 2)
	assert.ErrorIs(t, err, ecm.ErrOverflow)
}

func TestWeeklyCrossesBuckets(t *testing.T) {
	start := uint64(1000)
	s := NewBucketed(Weekly, amounts(7*WeekPeriod, 14*WeekPeriod), start)

	// half of the first week
	accrued, err := Advance(s, start, start+WeekPeriod/2)
	require.NoError(t, err)
	assert.Equal(t, 7*WeekPeriod/2, accrued.Uint64())
	assert.Equal(t, uint64(0), s.BucketIndex)

	// rest of week one plus a quarter of week two
	accrued, err = Advance(s, start+WeekPeriod/2, start+WeekPeriod+WeekPeriod/4)
	require.NoError(t, err)
	assert.Equal(t, 7*WeekPeriod/2+14*WeekPeriod/4, accrued.Uint64())
	assert.Equal(t, uint64(1), s.BucketIndex)

	// far beyond the end releases only what is left
	accrued, err = Advance(s, start+WeekPeriod+WeekPeriod/4, start+10*WeekPeriod)
	require.NoError(t, err)
	assert.Equal(t, 14*WeekPeriod*3/4, accrued.Uint64())
	assert.True(t, s.Finished())

	accrued, err = Advance(s, start+10*WeekPeriod, start+20*WeekPeriod)
	require.NoError(t, err)
	assert.True(t, accrued.IsZero())
}

func TestMonthlyBeforeStart(t *testing.T) {
	s := NewBucketed(Monthly, amounts(MonthPeriod), 5000)

	accrued, err := Advance(s, 0, 5000)
	require.NoError(t, err)
	assert.True(t, accrued.IsZero())

	accrued, err = Advance(s, 4000, 5010)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), accrued.Uint64())
}

func TestSkipsClosedWindows(t *testing.T) {
	s := NewBucketed(Weekly, amounts(WeekPeriod, 2*WeekPeriod, 3*WeekPeriod), 0)

	// cursor still on bucket 0 but the interval starts inside bucket 2
	accrued, err := Advance(s, 2*WeekPeriod+10, 2*WeekPeriod+20)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), accrued.Uint64())
	assert.Equal(t, uint64(2), s.BucketIndex)
}

func TestStopBucketed(t *testing.T) {
	s := NewBucketed(Monthly, amounts(1, 2), 0)
	assert.False(t, s.Finished())
	s.Stop()
	assert.True(t, s.Finished())
	assert.Equal(t, uint64(2), s.BucketIndex)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewContinuous(uint256.NewInt(0)).Validate())
	assert.Error(t, NewBucketed(Weekly, nil, 0).Validate())
	assert.Error(t, NewBucketed(Weekly, amounts(1, 0), 0).Validate())
	assert.Error(t, NewBucketed(Weekly, amounts(make([]uint64, MaxBuckets+1)...), 0).Validate())
	assert.Error(t, (&Schedule{Strategy: Strategy(9)}).Validate())

	ones := make([]uint64, MaxBuckets)
	for i := range ones {
		ones[i] = 1
	}
	s := NewBucketed(Monthly, amounts(ones...), 0)
	require.NoError(t, s.Validate())
	total, err := s.Total()
	require.NoError(t, err)
	assert.Equal(t, uint64(MaxBuckets), total.Uint64())
}

func TestStrategyString(t *testing.T) {
	for _, s := range []Strategy{Continuous, Monthly, Weekly} {
		parsed, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseStrategy("daily")
	assert.Error(t, err)
}

type fuzzInput struct {
	Weekly  bool
	Rate    uint32
	Buckets []uint32
	Start   uint32
	Index   uint8
	From    uint32
	Span    uint32
	Split   uint32
}

func scheduleOf(in fuzzInput) *Schedule {
	if len(in.Buckets) == 0 {
		return NewContinuous(uint256.NewInt(uint64(in.Rate)))
	}
	if len(in.Buckets) > MaxBuckets {
		in.Buckets = in.Buckets[:MaxBuckets]
	}
	vals := make([]uint64, 0, len(in.Buckets))
	for _, b := range in.Buckets {
		vals = append(vals, uint64(b)+1)
	}
	strategy := Monthly
	if in.Weekly {
		strategy = Weekly
	}
	s := NewBucketed(strategy, amounts(vals...), uint64(in.Start))
	s.BucketIndex = uint64(in.Index) % uint64(len(vals)+1)
	return s
}

// Preview and Advance agree, and splitting an interval never releases more than the whole.
func FuzzPreviewMatchesAdvance(f *testing.F) {
	f.Add([]byte("seed"))
	f.Add([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	f.Fuzz(func(t *testing.T, data []byte) {
		var in fuzzInput
		fuzz.NewFromGoFuzz(data).NilChance(0).Fuzz(&in)

		s := scheduleOf(in)
		from := uint64(in.From)
		to := from + uint64(in.Span)
		mid := from + uint64(in.Split)%(uint64(in.Span)+1)

		before := s.Copy()
		preview, err := Preview(s, from, to)
		require.NoError(t, err)
		assert.Equal(t, before, s)

		whole := s.Copy()
		advanced, err := Advance(whole, from, to)
		require.NoError(t, err)
		assert.Equal(t, preview, advanced)

		split := s.Copy()
		first, err := Advance(split, from, mid)
		require.NoError(t, err)
		second, err := Advance(split, mid, to)
		require.NoError(t, err)
		sum := new(uint256.Int).Add(first, second)
		assert.False(t, sum.Gt(advanced), "split %v > whole %v", sum, advanced)
		assert.Equal(t, whole.BucketIndex, split.BucketIndex)
	})
}

func TestPreviewMatchesAdvanceRandom(t *testing.T) {
	fz := fuzz.New().NilChance(0).NumElements(0, 16)
	for range 500 {
		var in fuzzInput
		fz.Fuzz(&in)
		s := scheduleOf(in)
		from, to := uint64(in.From), uint64(in.From)+uint64(in.Span)

		preview, err := Preview(s, from, to)
		require.NoError(t, err)
		advanced, err := Advance(s.Copy(), from, to)
		require.NoError(t, err)
		require.Equal(t, preview, advanced)
	}
}
