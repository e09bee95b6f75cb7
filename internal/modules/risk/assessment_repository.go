package risk

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AssessmentRepository persists derived scoring results in portfolio.db.
// Scores are recomputed on every submission, never incrementally updated,
// so each submission inserts a new row.
type AssessmentRepository struct {
	db  *sql.DB // portfolio.db - risk_assessments table
	log zerolog.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *sql.DB, log zerolog.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: log.With().Str("repository", "assessments").Logger(),
	}
}

// Create stores a new assessment and returns it with ID and timestamp set
func (r *AssessmentRepository) Create(userID string, score int, profileName string) (*Assessment, error) {
	a := &Assessment{
		ID:          uuid.New().String(),
		UserID:      userID,
		Score:       score,
		ProfileName: profileName,
		CreatedAt:   time.Now().Unix(),
	}

	_, err := r.db.Exec(`
		INSERT INTO risk_assessments (id, user_id, score, profile_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Score, a.ProfileName, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assessment: %w", err)
	}

	return a, nil
}

// Latest returns the most recent assessment for a user.
// Returns nil if the user has never been assessed (not an error).
func (r *AssessmentRepository) Latest(userID string) (*Assessment, error) {
	var a Assessment
	err := r.db.QueryRow(`
		SELECT id, user_id, score, profile_name, created_at
		FROM risk_assessments
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, userID).Scan(&a.ID, &a.UserID, &a.Score, &a.ProfileName, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest assessment for %s: %w", userID, err)
	}
	return &a, nil
}

// History returns a user's assessments, newest first
func (r *AssessmentRepository) History(userID string, limit int) ([]Assessment, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, user_id, score, profile_name, created_at
		FROM risk_assessments
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments for %s: %w", userID, err)
	}
	defer rows.Close()

	var assessments []Assessment
	for rows.Next() {
		var a Assessment
		if err := rows.Scan(&a.ID, &a.UserID, &a.Score, &a.ProfileName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment row: %w", err)
		}
		assessments = append(assessments, a)
	}

	return assessments, rows.Err()
}
