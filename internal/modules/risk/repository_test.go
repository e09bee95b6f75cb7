package risk

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupConfigDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE risk_factors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			factor_type TEXT NOT NULL,
			condition_key TEXT NOT NULL,
			points INTEGER NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			updated_at INTEGER
		);
		CREATE TABLE risk_profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_name TEXT NOT NULL,
			min_score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			description TEXT,
			allocation_stocks INTEGER,
			allocation_bonds INTEGER,
			suitable_for TEXT,
			is_active INTEGER NOT NULL DEFAULT 1
		);
	`)
	require.NoError(t, err)

	return db
}

func setupPortfolioDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE risk_assessments (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			profile_name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	return db
}

func TestRepositoryActiveFactors(t *testing.T) {
	db := setupConfigDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.UpsertFactor(Factor{FactorType: FactorAge, ConditionKey: "<=25", Points: 15, IsActive: true}))
	require.NoError(t, repo.UpsertFactor(Factor{FactorType: FactorIncome, ConditionKey: "stable", Points: 12, IsActive: true}))
	require.NoError(t, repo.UpsertFactor(Factor{FactorType: FactorGoals, ConditionKey: "growth", Points: 10, IsActive: false}))

	factors, err := repo.ActiveFactors()
	require.NoError(t, err)

	// Inactive rows are filtered out
	require.Len(t, factors, 2)
	assert.Equal(t, FactorAge, factors[0].FactorType)
	assert.Equal(t, "<=25", factors[0].ConditionKey)
	assert.Equal(t, 15, factors[0].Points)
}

func TestRepositoryUpsertFactorUpdatesExisting(t *testing.T) {
	db := setupConfigDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.UpsertFactor(Factor{FactorType: FactorAge, ConditionKey: "<=25", Points: 15, IsActive: true}))
	require.NoError(t, repo.UpsertFactor(Factor{FactorType: FactorAge, ConditionKey: "<=25", Points: 18, IsActive: true}))

	factors, err := repo.ActiveFactors()
	require.NoError(t, err)
	require.Len(t, factors, 1)
	assert.Equal(t, 18, factors[0].Points)
}

func TestRepositoryActiveProfilesOrderedByMinScore(t *testing.T) {
	db := setupConfigDB(t)
	repo := NewRepository(db, zerolog.Nop())

	_, err := db.Exec(`
		INSERT INTO risk_profiles (profile_name, min_score, max_score, is_active) VALUES
			('High', 61, 100, 1),
			('Low', 0, 30, 1),
			('Mid', 31, 60, 1),
			('Disabled', 0, 100, 0)
	`)
	require.NoError(t, err)

	profiles, err := repo.ActiveProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "Low", profiles[0].ProfileName)
	assert.Equal(t, "Mid", profiles[1].ProfileName)
	assert.Equal(t, "High", profiles[2].ProfileName)
}

func TestEngineWithSQLiteRepository(t *testing.T) {
	db := setupConfigDB(t)
	repo := NewRepository(db, zerolog.Nop())
	engine := NewEngine(repo, zerolog.Nop())

	// Empty configuration falls back to static tables
	resp := QuestionnaireResponse{
		Age:                 22,
		Income:              "very_stable",
		Experience:          "beginner",
		EmergencyFund:       "good",
		Horizon:             25,
		Goals:               "growth",
		VolatilityTolerance: "very_high",
		MarketKnowledge:     "limited",
	}
	assert.Equal(t, 89, engine.ComputeScore(resp))

	// Boosting the age bucket through configuration shifts the score
	require.NoError(t, repo.UpsertFactor(Factor{FactorType: FactorAge, ConditionKey: "<=25", Points: 10, IsActive: true}))
	assert.Equal(t, 84, engine.ComputeScore(resp))
}

func TestAssessmentRepositoryRoundTrip(t *testing.T) {
	db := setupPortfolioDB(t)
	repo := NewAssessmentRepository(db, zerolog.Nop())

	// No assessments yet
	latest, err := repo.Latest("user-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	first, err := repo.Create("user-1", 42, "Conservative")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := repo.Create("user-1", 67, "Aggressive")
	require.NoError(t, err)

	latest, err = repo.Latest("user-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 67, latest.Score)

	history, err := repo.History("user-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	// Other users are isolated
	other, err := repo.Latest("user-2")
	require.NoError(t, err)
	assert.Nil(t, other)
}
