package engine

import (
	"math"

	"barsim/internal/types"
)

// tradingDaysPerYear is the annualization convention for daily returns.
const tradingDaysPerYear = 252

// calculateMetrics derives the risk/return statistics from a finalized
// equity series. A series of length <= 1 yields an all-zero result rather
// than failing; the same applies to a zero-variance return series and the
// Sharpe ratio.
func calculateMetrics(points []types.EquityPoint, riskFreeRate float64) types.MetricsResult {
	result := types.MetricsResult{}

	if len(points) < 2 {
		return result
	}

	returns := make([]float64, 0, len(points)-1)

	for i := 1; i < len(points); i++ {
		prev := points[i-1].Equity
		if prev == 0 {
			continue
		}

		returns = append(returns, points[i].Equity/prev-1)
	}

	if len(returns) > 0 {
		mean := meanOf(returns)
		sd := sampleStdev(returns, mean)
		sqrtDays := math.Sqrt(tradingDaysPerYear)

		result.AnnualizedReturn = math.Pow(1+mean, tradingDaysPerYear) - 1
		result.AnnualizedVolatility = sd * sqrtDays

		if sd != 0 {
			dailyRiskFree := riskFreeRate / tradingDaysPerYear
			result.SharpeRatio = (mean - dailyRiskFree) / sd * sqrtDays
		}
	}

	result.MaxDrawdown, result.MaxDrawdownPct = maxDrawdown(points)

	return result
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// sampleStdev returns the sample standard deviation (n-1 denominator),
// 0 for series shorter than two points.
func sampleStdev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

// maxDrawdown returns the largest decline from a running equity peak and
// that decline relative to the peak it fell from. Both are <= 0, and both
// are 0 when equity never declined.
func maxDrawdown(points []types.EquityPoint) (absolute float64, percent float64) {
	if len(points) == 0 {
		return 0, 0
	}

	peak := points[0].Equity

	for _, point := range points {
		if point.Equity > peak {
			peak = point.Equity
		}

		dd := point.Equity - peak
		if dd < absolute {
			absolute = dd

			if peak != 0 {
				percent = dd / peak
			}
		}
	}

	return absolute, percent
}
