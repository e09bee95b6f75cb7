package risk

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles scoring configuration stored in config.db.
// It implements FactorSource for the engine and exposes admin mutation
// paths used by the configuration endpoints.
type Repository struct {
	db  *sql.DB // config.db - risk_factors and risk_profiles tables
	log zerolog.Logger
}

// NewRepository creates a new scoring configuration repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "risk_config").Logger(),
	}
}

// ActiveFactors returns all active risk factor rows in insertion order
func (r *Repository) ActiveFactors() ([]Factor, error) {
	rows, err := r.db.Query(`
		SELECT id, factor_type, condition_key, points, is_active
		FROM risk_factors
		WHERE is_active = 1
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk factors: %w", err)
	}
	defer rows.Close()

	var factors []Factor
	for rows.Next() {
		var f Factor
		if err := rows.Scan(&f.ID, &f.FactorType, &f.ConditionKey, &f.Points, &f.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan risk factor row: %w", err)
		}
		factors = append(factors, f)
	}

	return factors, rows.Err()
}

// ActiveProfiles returns all active risk profile rows ordered by min_score.
// Row order matters: classification is first-match-wins, so overlapping
// ranges resolve deterministically.
func (r *Repository) ActiveProfiles() ([]Profile, error) {
	rows, err := r.db.Query(`
		SELECT id, profile_name, min_score, max_score,
		       COALESCE(description, ''), COALESCE(allocation_stocks, 0),
		       COALESCE(allocation_bonds, 0), COALESCE(suitable_for, ''), is_active
		FROM risk_profiles
		WHERE is_active = 1
		ORDER BY min_score, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.ProfileName, &p.MinScore, &p.MaxScore,
			&p.Description, &p.AllocationStocks, &p.AllocationBonds, &p.SuitableFor, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan risk profile row: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// UpsertFactor inserts or updates a risk factor row.
// A row is identified by (factor_type, condition_key).
func (r *Repository) UpsertFactor(f Factor) error {
	now := time.Now().Unix()

	var existingID int64
	err := r.db.QueryRow(`
		SELECT id FROM risk_factors WHERE factor_type = ? AND condition_key = ?
	`, f.FactorType, f.ConditionKey).Scan(&existingID)

	if err == sql.ErrNoRows {
		_, err = r.db.Exec(`
			INSERT INTO risk_factors (factor_type, condition_key, points, is_active, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, f.FactorType, f.ConditionKey, f.Points, f.IsActive, now)
		if err != nil {
			return fmt.Errorf("failed to insert risk factor: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up risk factor: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE risk_factors SET points = ?, is_active = ?, updated_at = ? WHERE id = ?
	`, f.Points, f.IsActive, now, existingID)
	if err != nil {
		return fmt.Errorf("failed to update risk factor: %w", err)
	}
	return nil
}
