package types

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

// MetricsFileTestSuite is a test suite for metrics file I/O
type MetricsFileTestSuite struct {
	suite.Suite
}

// TestMetricsFileTestSuite runs the test suite
func TestMetricsFileTestSuite(t *testing.T) {
	suite.Run(t, new(MetricsFileTestSuite))
}

func (suite *MetricsFileTestSuite) TestWriteAndReadMetrics() {
	path := filepath.Join(suite.T().TempDir(), "metrics.yaml")

	want := MetricsResult{
		AnnualizedReturn:     0.12,
		AnnualizedVolatility: 0.2,
		SharpeRatio:          0.6,
		MaxDrawdown:          -2_000,
		MaxDrawdownPct:       -0.0198,
		RealizedPnL:          1_500,
		TotalFees:            25,
		TradesClosed:         4,
		WinRate:              0.75,
	}

	suite.Require().NoError(WriteMetrics(path, want))

	got, err := ReadMetrics(path)
	suite.Require().NoError(err)
	suite.Assert().Equal(want, got)
}

func (suite *MetricsFileTestSuite) TestReadMissingFile() {
	_, err := ReadMetrics(filepath.Join(suite.T().TempDir(), "absent.yaml"))
	suite.Assert().Error(err)
}
