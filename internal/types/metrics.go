package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MetricsResult holds the summary statistics derived from a finalized
// equity series. It is computed exactly once per run and never mutated.
type MetricsResult struct {
	// AnnualizedReturn is (1 + mean daily return)^252 - 1.
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
	// AnnualizedVolatility is the sample stdev of daily returns times sqrt(252).
	AnnualizedVolatility float64 `yaml:"annualized_volatility" json:"annualized_volatility"`
	// SharpeRatio is mean excess daily return over stdev, annualized.
	// Reported as 0 when the return series has zero variance.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// MaxDrawdown is the largest decline from a running equity peak,
	// in currency units. Always <= 0; 0 when equity never declined.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// MaxDrawdownPct is MaxDrawdown divided by the peak it fell from.
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// RealizedPnL is the sum of profit recognized on reducing/closing fills.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
	// TotalFees is the sum of commissions across all fills.
	TotalFees float64 `yaml:"total_fees" json:"total_fees"`
	// TradesClosed counts fills that reduced or closed an existing position.
	TradesClosed int `yaml:"trades_closed" json:"trades_closed"`
	// WinRate is the fraction of closing fills with positive realized PnL.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
}

// WriteMetrics writes a metrics result to a YAML file.
func WriteMetrics(path string, metrics MetricsResult) error {
	data, err := yaml.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics to file: %w", err)
	}

	return nil
}

// ReadMetrics reads a metrics result from a YAML file.
func ReadMetrics(path string) (MetricsResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MetricsResult{}, fmt.Errorf("failed to read metrics file: %w", err)
	}

	var metrics MetricsResult
	if err := yaml.Unmarshal(data, &metrics); err != nil {
		return MetricsResult{}, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	return metrics, nil
}
