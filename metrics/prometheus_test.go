// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestNoopMetrics(t *testing.T) {
	noop := defaultNoopMetrics()
	noop.GetOrCreateCountMeter("noop").Add(1)
	noop.GetOrCreateCountVecMeter("noop_vec", []string{"op"}).AddWithLabel(1, map[string]string{"op": "x"})
	noop.GetOrCreateGaugeVecMeter("noop_gauge", []string{"pool"}).SetWithLabel(1, map[string]string{"pool": "1"})
	noop.GetOrCreateHistogramVecMeter("noop_hist", []string{"op"}, nil).ObserveWithLabels(1, nil)

	rec := httptest.NewRecorder()
	noop.GetOrCreateHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	count1 := Counter("count1")
	countVec := CounterVec("count_vec1", []string{"zeroOrOne"})
	gaugeVec := LazyLoadGaugeVec("gauge_vec1", []string{"zeroOrOne"})
	hist := LazyLoadHistogramVec("hist_vec1", []string{"zeroOrOne"}, BucketOpMicros)

	count1.Add(1)
	Counter("count1").Add(2)

	total := 0
	for i := range 10 {
		labels := map[string]string{"zeroOrOne": strconv.Itoa(i % 2)}
		countVec.AddWithLabel(int64(i), labels)
		gaugeVec().AddWithLabel(int64(i), labels)
		hist().ObserveWithLabels(int64(i), labels)
		total += i
	}
	gaugeVec().SetWithLabel(100, map[string]string{"zeroOrOne": "0"})

	metricFamilies, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	families := make(map[string]*dto.MetricFamily)
	for _, mf := range metricFamilies {
		families[mf.GetName()] = mf
	}

	require.Equal(t, float64(3), families["ecm_ledger_count1"].Metric[0].GetCounter().GetValue())

	sumCounter := 0.0
	for _, m := range families["ecm_ledger_count_vec1"].Metric {
		sumCounter += m.GetCounter().GetValue()
	}
	require.Equal(t, float64(total), sumCounter)

	gauges := families["ecm_ledger_gauge_vec1"].Metric
	require.Len(t, gauges, 2)

	var samples uint64
	for _, m := range families["ecm_ledger_hist_vec1"].Metric {
		samples += m.GetHistogram().GetSampleCount()
	}
	require.Equal(t, uint64(10), samples)
}
