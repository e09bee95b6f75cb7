package risk

import "math"

// Constants for derived portfolio metrics. All are linear maps from the
// 0-100 score into each metric's range.
const (
	volatilityFloor = 0.04 // 4% annualized at score 0
	volatilitySpan  = 0.30 // up to 34% at score 100

	betaFloor = 0.2
	betaSpan  = 1.6

	expectedReturnFloor = 0.03 // 3% at score 0
	expectedReturnSpan  = 0.08 // up to 11% at score 100

	riskFreeRate = 0.02

	varNotional   = 100000 // fixed one-day VaR notional in rupees
	varConfidence = 1.645  // 95% one-sided z-score
	tradingDays   = 252

	maxDrawdownMultiple = 2.5

	// Impact beta constants are intentionally different from the metrics
	// beta above; the two formulas coexist in the product.
	impactBetaFloor = 0.3
	impactBetaSpan  = 1.5
)

// ComputePortfolioMetrics derives the portfolio metric bundle from a risk
// score. Volatility, expected return and max drawdown are returned as
// percentages; VaR95 is the one-day 95% loss in rupees on the fixed
// notional, annualized-to-daily via the 252-trading-day convention.
// There are no failure modes; the caller provides a clamped score.
func ComputePortfolioMetrics(score int) PortfolioMetrics {
	s := float64(clampScore(score)) / 100.0

	volatility := s*volatilitySpan + volatilityFloor
	beta := s*betaSpan + betaFloor
	expectedReturn := s*expectedReturnSpan + expectedReturnFloor

	sharpe := (expectedReturn - riskFreeRate) / volatility
	if sharpe < 0.1 {
		sharpe = 0.1
	}

	var95 := volatility * varConfidence * varNotional / math.Sqrt(tradingDays)

	return PortfolioMetrics{
		Volatility:     round2(volatility * 100),
		Beta:           round2(beta),
		ExpectedReturn: round2(expectedReturn * 100),
		SharpeRatio:    round2(sharpe),
		VaR95:          math.Round(var95),
		MaxDrawdown:    round2(volatility * maxDrawdownMultiple * 100),
	}
}

// SimulateMarketImpact estimates the portfolio move for a given market
// move. The beta here (score/100 x 1.5 + 0.3) is deliberately not the
// metrics beta (score/100 x 1.6 + 0.2); do not unify them.
func SimulateMarketImpact(score int, marketChangePercent float64) float64 {
	beta := float64(clampScore(score))/100.0*impactBetaSpan + impactBetaFloor
	return round2(marketChangePercent * beta)
}

// round2 rounds to 2 decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
