package trading

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// PriceRepository reads and writes daily closes in history.db
type PriceRepository struct {
	db  *sql.DB // history.db - daily_prices table
	log zerolog.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("repository", "prices").Logger(),
	}
}

// LatestClose returns the most recent close for a symbol.
// Returns sql.ErrNoRows wrapped when the symbol has no history.
func (r *PriceRepository) LatestClose(symbol string) (float64, error) {
	var close float64
	err := r.db.QueryRow(`
		SELECT close FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&close)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("no price history for %s: %w", symbol, err)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest close for %s: %w", symbol, err)
	}
	return close, nil
}

// Closes returns up to limit closes for a symbol in ascending date order,
// the orientation talib expects
func (r *PriceRepository) Closes(symbol string, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.Query(`
		SELECT close FROM (
			SELECT date, close FROM daily_prices
			WHERE symbol = ?
			ORDER BY date DESC
			LIMIT ?
		) ORDER BY date ASC
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan close: %w", err)
		}
		closes = append(closes, c)
	}
	return closes, rows.Err()
}

// UpsertPrices stores a batch of daily closes, replacing same-day rows
func (r *PriceRepository) UpsertPrices(prices []DailyPrice) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin price upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if p.Symbol == "" || p.Close <= 0 {
			return fmt.Errorf("invalid price row for %q: close=%f", p.Symbol, p.Close)
		}
		if _, err := stmt.Exec(p.Symbol, p.Date, p.Close); err != nil {
			return fmt.Errorf("failed to upsert price for %s: %w", p.Symbol, err)
		}
	}

	return tx.Commit()
}
