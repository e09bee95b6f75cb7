package trading

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

const (
	rsiPeriod      = 14
	smaShortPeriod = 20
	smaLongPeriod  = 50
)

// ComputeIndicators derives RSI and moving averages for a symbol from its
// stored close history. Indicators with insufficient data come back nil
// rather than failing the whole response.
func (s *Service) ComputeIndicators(symbol string) (*Indicators, error) {
	closes, err := s.prices.Closes(symbol, 200)
	if err != nil {
		return nil, err
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("no price history for %s", symbol)
	}

	return &Indicators{
		Symbol:      symbol,
		LatestClose: closes[len(closes)-1],
		RSI14:       lastRSI(closes, rsiPeriod),
		SMA20:       lastSMA(closes, smaShortPeriod),
		SMA50:       lastSMA(closes, smaLongPeriod),
		Samples:     len(closes),
	}, nil
}

// lastRSI returns the current RSI, or nil with fewer than period+1 closes
func lastRSI(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	rsi := talib.Rsi(closes, period)
	return lastValid(rsi)
}

// lastSMA returns the current simple moving average, or nil with fewer
// than period closes
func lastSMA(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)
	return lastValid(sma)
}

// lastValid returns the final non-NaN value of a talib output series
func lastValid(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
