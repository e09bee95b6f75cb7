package trading

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PortfolioRepository persists virtual portfolios, holdings and trades in
// portfolio.db
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repository", "portfolio").Logger(),
	}
}

// GetOrCreate returns the user's portfolio, seeding it with startingCash
// on first use
func (r *PortfolioRepository) GetOrCreate(userID string, startingCash float64) (*Portfolio, error) {
	p, err := r.Get(userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	now := time.Now().Unix()
	_, err = r.db.Exec(`
		INSERT INTO virtual_portfolios (user_id, cash, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, userID, startingCash, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create portfolio for %s: %w", userID, err)
	}

	return &Portfolio{UserID: userID, Cash: startingCash, CreatedAt: now, UpdatedAt: now}, nil
}

// Get returns a portfolio, or nil when the user has none
func (r *PortfolioRepository) Get(userID string) (*Portfolio, error) {
	var p Portfolio
	err := r.db.QueryRow(`
		SELECT user_id, cash, created_at, updated_at
		FROM virtual_portfolios
		WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.Cash, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio for %s: %w", userID, err)
	}
	return &p, nil
}

// Holdings returns all non-zero positions for a user
func (r *PortfolioRepository) Holdings(userID string) ([]Holding, error) {
	rows, err := r.db.Query(`
		SELECT user_id, symbol, quantity, avg_price
		FROM virtual_holdings
		WHERE user_id = ? AND quantity > 0
		ORDER BY symbol
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for %s: %w", userID, err)
	}
	defer rows.Close()

	var holdings []Holding
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.UserID, &h.Symbol, &h.Quantity, &h.AvgPrice); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Holding returns a single position, or nil when the user holds none
func (r *PortfolioRepository) Holding(userID, symbol string) (*Holding, error) {
	var h Holding
	err := r.db.QueryRow(`
		SELECT user_id, symbol, quantity, avg_price
		FROM virtual_holdings
		WHERE user_id = ? AND symbol = ?
	`, userID, symbol).Scan(&h.UserID, &h.Symbol, &h.Quantity, &h.AvgPrice)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding %s/%s: %w", userID, symbol, err)
	}
	return &h, nil
}

// ExecuteTrade applies a trade atomically: cash, holding and trade row
// move in one transaction. The caller has already validated the trade.
func (r *PortfolioRepository) ExecuteTrade(trade Trade, newCash float64, newQuantity int, newAvgPrice float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin trade transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	if _, err := tx.Exec(`
		UPDATE virtual_portfolios SET cash = ?, updated_at = ? WHERE user_id = ?
	`, newCash, now, trade.UserID); err != nil {
		return fmt.Errorf("failed to update cash: %w", err)
	}

	if newQuantity > 0 {
		if _, err := tx.Exec(`
			INSERT INTO virtual_holdings (user_id, symbol, quantity, avg_price)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, symbol) DO UPDATE SET
				quantity = excluded.quantity,
				avg_price = excluded.avg_price
		`, trade.UserID, trade.Symbol, newQuantity, newAvgPrice); err != nil {
			return fmt.Errorf("failed to update holding: %w", err)
		}
	} else {
		if _, err := tx.Exec(`
			DELETE FROM virtual_holdings WHERE user_id = ? AND symbol = ?
		`, trade.UserID, trade.Symbol); err != nil {
			return fmt.Errorf("failed to close holding: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO virtual_trades (id, user_id, symbol, side, quantity, price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.UserID, trade.Symbol, trade.Side, trade.Quantity, trade.Price, trade.CreatedAt); err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}

	return tx.Commit()
}

// Trades returns a user's trade history, newest first
func (r *PortfolioRepository) Trades(userID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, user_id, symbol, side, quantity, price, created_at
		FROM virtual_trades
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for %s: %w", userID, err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Side, &t.Quantity, &t.Price, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
