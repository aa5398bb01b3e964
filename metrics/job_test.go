package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/gemwallet/walletcore/primitives"
)

func TestJobMetricsReportSuccessSetsGauges(t *testing.T) {
	m := NewJobMetrics("parser")
	m.Report("ethereum_loop", 5*time.Second, 120*time.Millisecond, true, "")

	assert.Equal(t, 5.0, testutil.ToFloat64(m.interval.WithLabelValues("parser", "ethereum_loop")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.duration.WithLabelValues("parser", "ethereum_loop")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.errors.WithLabelValues("parser", "ethereum_loop")))
}

func TestJobMetricsReportFailureIncrementsErrors(t *testing.T) {
	m := NewJobMetrics("parser")
	m.Report("ethereum_loop", 5*time.Second, 0, false, "boom")
	m.Report("ethereum_loop", 5*time.Second, 0, false, "boom again")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.errors.WithLabelValues("parser", "ethereum_loop")))
}

func TestParserMetricsRecordBlockHeight(t *testing.T) {
	jobs := NewJobMetrics("parser")
	pm := NewParserMetrics(jobs)
	pm.RecordBlockHeight(primitives.ChainEthereum, 1000)
	assert.Equal(t, 1000.0, testutil.ToFloat64(pm.blockHeight.WithLabelValues("ethereum")))
}

func TestParserMetricsRecordLoopErrorFeedsJobMetrics(t *testing.T) {
	jobs := NewJobMetrics("parser")
	pm := NewParserMetrics(jobs)
	pm.RecordLoopError(primitives.ChainEthereum, errors.New("upstream timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(jobs.errors.WithLabelValues("parser", "parser_loop_ethereum")))
}
