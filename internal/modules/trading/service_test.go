package trading

import (
	"database/sql"
	"testing"

	"github.com/AnupBarde45/SEBI-final-sub001/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTradingDBs(t *testing.T) (*PortfolioRepository, *PriceRepository) {
	t.Helper()

	portfolioDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { portfolioDB.Close() })

	_, err = portfolioDB.Exec(`
		CREATE TABLE virtual_portfolios (
			user_id TEXT PRIMARY KEY,
			cash REAL NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE virtual_holdings (
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			avg_price REAL NOT NULL,
			PRIMARY KEY (user_id, symbol)
		);
		CREATE TABLE virtual_trades (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	historyDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { historyDB.Close() })

	_, err = historyDB.Exec(`
		CREATE TABLE daily_prices (
			symbol TEXT NOT NULL,
			date INTEGER NOT NULL,
			close REAL NOT NULL,
			PRIMARY KEY (symbol, date)
		);
	`)
	require.NoError(t, err)

	return NewPortfolioRepository(portfolioDB, zerolog.Nop()),
		NewPriceRepository(historyDB, zerolog.Nop())
}

func newTradingService(t *testing.T) (*Service, *PriceRepository) {
	t.Helper()

	portfolios, prices := setupTradingDBs(t)
	svc := NewService(portfolios, prices, 100000, events.NewBus(), zerolog.Nop())
	return svc, prices
}

func seedPrices(t *testing.T, prices *PriceRepository, symbol string, closes ...float64) {
	t.Helper()

	rows := make([]DailyPrice, len(closes))
	for i, c := range closes {
		rows[i] = DailyPrice{Symbol: symbol, Date: int64(1700000000 + i*86400), Close: c}
	}
	require.NoError(t, prices.UpsertPrices(rows))
}

func TestPortfolioSeededWithStartingCash(t *testing.T) {
	svc, _ := newTradingService(t)

	p, err := svc.Portfolio("user-1")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, p.Cash)

	// Second access returns the same portfolio, not a fresh one
	again, err := svc.Portfolio("user-1")
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt, again.CreatedAt)
}

func TestBuyAndValuation(t *testing.T) {
	svc, prices := newTradingService(t)
	seedPrices(t, prices, "RELIANCE", 2400, 2500)

	trade, err := svc.Buy("user-1", "reliance", 10)
	require.NoError(t, err)

	assert.Equal(t, "RELIANCE", trade.Symbol)
	assert.Equal(t, SideBuy, trade.Side)
	assert.Equal(t, 2500.0, trade.Price)
	assert.NotEmpty(t, trade.ID)

	valuation, err := svc.Valuation("user-1")
	require.NoError(t, err)
	assert.Equal(t, 75000.0, valuation.Cash)
	require.Len(t, valuation.Holdings, 1)
	assert.Equal(t, 10, valuation.Holdings[0].Quantity)
	assert.Equal(t, 25000.0, valuation.Holdings[0].MarketValue)
	assert.Equal(t, 100000.0, valuation.TotalValue)
}

func TestBuyInsufficientCash(t *testing.T) {
	svc, prices := newTradingService(t)
	seedPrices(t, prices, "TCS", 4000)

	_, err := svc.Buy("user-1", "TCS", 100) // 400k against 100k cash
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient cash")

	// Nothing moved
	valuation, err := svc.Valuation("user-1")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, valuation.Cash)
	assert.Empty(t, valuation.Holdings)
}

func TestBuyAveragesEntryPrice(t *testing.T) {
	svc, prices := newTradingService(t)

	seedPrices(t, prices, "INFY", 1000)
	_, err := svc.Buy("user-1", "INFY", 10)
	require.NoError(t, err)

	seedPrices(t, prices, "INFY", 1000, 2000)
	_, err = svc.Buy("user-1", "INFY", 10)
	require.NoError(t, err)

	valuation, err := svc.Valuation("user-1")
	require.NoError(t, err)
	require.Len(t, valuation.Holdings, 1)
	assert.Equal(t, 20, valuation.Holdings[0].Quantity)
	assert.Equal(t, 1500.0, valuation.Holdings[0].AvgPrice)
}

func TestSellReducesAndClosesPosition(t *testing.T) {
	svc, prices := newTradingService(t)
	seedPrices(t, prices, "SBIN", 600)

	_, err := svc.Buy("user-1", "SBIN", 20)
	require.NoError(t, err)

	_, err = svc.Sell("user-1", "SBIN", 5)
	require.NoError(t, err)

	valuation, err := svc.Valuation("user-1")
	require.NoError(t, err)
	require.Len(t, valuation.Holdings, 1)
	assert.Equal(t, 15, valuation.Holdings[0].Quantity)

	_, err = svc.Sell("user-1", "SBIN", 15)
	require.NoError(t, err)

	valuation, err = svc.Valuation("user-1")
	require.NoError(t, err)
	assert.Empty(t, valuation.Holdings)
	assert.Equal(t, 100000.0, valuation.Cash)
}

func TestSellMoreThanHeld(t *testing.T) {
	svc, prices := newTradingService(t)
	seedPrices(t, prices, "SBIN", 600)

	_, err := svc.Buy("user-1", "SBIN", 5)
	require.NoError(t, err)

	_, err = svc.Sell("user-1", "SBIN", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient holdings")
}

func TestTradeUnknownSymbol(t *testing.T) {
	svc, _ := newTradingService(t)

	_, err := svc.Buy("user-1", "NOPE", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price history")
}

func TestTradeHistoryNewestFirst(t *testing.T) {
	svc, prices := newTradingService(t)
	seedPrices(t, prices, "HDFC", 1500)

	_, err := svc.Buy("user-1", "HDFC", 1)
	require.NoError(t, err)
	_, err = svc.Sell("user-1", "HDFC", 1)
	require.NoError(t, err)

	trades, err := svc.Trades("user-1", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, SideSell, trades[0].Side)
	assert.Equal(t, SideBuy, trades[1].Side)
}

func TestComputeIndicators(t *testing.T) {
	svc, prices := newTradingService(t)

	// 60 ascending closes: enough for RSI-14, SMA-20 and SMA-50
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	seedPrices(t, prices, "NIFTY", closes...)

	ind, err := svc.ComputeIndicators("NIFTY")
	require.NoError(t, err)

	assert.Equal(t, 159.0, ind.LatestClose)
	assert.Equal(t, 60, ind.Samples)
	require.NotNil(t, ind.RSI14)
	require.NotNil(t, ind.SMA20)
	require.NotNil(t, ind.SMA50)

	// Monotonically rising prices pin RSI at 100 and put both moving
	// averages below the latest close
	assert.InDelta(t, 100.0, *ind.RSI14, 0.01)
	assert.InDelta(t, 149.5, *ind.SMA20, 0.001)
	assert.InDelta(t, 134.5, *ind.SMA50, 0.001)
	assert.Less(t, *ind.SMA50, *ind.SMA20)
}

func TestComputeIndicatorsShortHistory(t *testing.T) {
	svc, prices := newTradingService(t)
	seedPrices(t, prices, "NEWIPO", 100, 101, 102)

	ind, err := svc.ComputeIndicators("NEWIPO")
	require.NoError(t, err)

	assert.Nil(t, ind.RSI14)
	assert.Nil(t, ind.SMA20)
	assert.Nil(t, ind.SMA50)
	assert.Equal(t, 102.0, ind.LatestClose)
}

func TestUpsertPricesRejectsInvalidRows(t *testing.T) {
	_, prices := setupTradingDBs(t)

	err := prices.UpsertPrices([]DailyPrice{{Symbol: "", Date: 1, Close: 100}})
	require.Error(t, err)

	err = prices.UpsertPrices([]DailyPrice{{Symbol: "X", Date: 1, Close: -5}})
	require.Error(t, err)
}
