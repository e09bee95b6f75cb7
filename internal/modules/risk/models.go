// Package risk implements the risk-tolerance scoring engine: questionnaire
// scoring, profile classification, derived portfolio metrics, and market
// impact simulation.
package risk

// Factor type constants. Each questionnaire answer maps to exactly one
// factor type; configuration rows are grouped by these values.
const (
	FactorAge           = "age"
	FactorIncome        = "income"
	FactorExperience    = "experience"
	FactorEmergencyFund = "emergency_fund"
	FactorHorizon       = "horizon"
	FactorGoals         = "goals"
	FactorVolatility    = "volatility"
	FactorKnowledge     = "knowledge"
)

// QuestionnaireResponse holds the eight questionnaire answers.
// Categorical fields carry enumerated tokens; unrecognized tokens degrade
// to default sub-scores rather than failing (fail-soft policy).
type QuestionnaireResponse struct {
	Age                 int     `json:"age"`
	Income              string  `json:"income"`              // very_stable, stable, variable, irregular
	Experience          string  `json:"experience"`          // experienced, moderate, some, beginner
	EmergencyFund       string  `json:"emergencyFund"`       // excellent, good, basic, none
	Horizon             float64 `json:"horizon"`             // investment horizon in years
	Goals               string  `json:"goals"`               // growth, balanced, income, preservation
	VolatilityTolerance string  `json:"volatilityTolerance"` // very_high, high, medium, low, very_low
	MarketKnowledge     string  `json:"marketKnowledge"`     // excellent, good, basic, limited
}

// Factor is a configuration row for the configurable scoring path.
// Multiple rows share a FactorType; exactly one should match per type for
// a given response set.
type Factor struct {
	ID           int64  `json:"id"`
	FactorType   string `json:"factor_type"`
	ConditionKey string `json:"condition_key"` // exact-match token or range token
	Points       int    `json:"points"`
	IsActive     bool   `json:"is_active"`
}

// Profile is a named risk band with allocation guidance.
// Min/Max are inclusive; configured ranges should partition 0-100.
type Profile struct {
	ID               int64  `json:"id,omitempty"`
	ProfileName      string `json:"profile_name"`
	MinScore         int    `json:"min_score"`
	MaxScore         int    `json:"max_score"`
	Description      string `json:"description"`
	AllocationStocks int    `json:"allocation_stocks"`
	AllocationBonds  int    `json:"allocation_bonds"`
	SuitableFor      string `json:"suitable_for"`
	IsActive         bool   `json:"is_active"`
}

// PortfolioMetrics is the numeric bundle derived from a risk score.
// Volatility, ExpectedReturn and MaxDrawdown are percentages; VaR95 is a
// one-day loss amount in rupees on a fixed 100,000 notional.
type PortfolioMetrics struct {
	Volatility     float64 `json:"volatility"`
	Beta           float64 `json:"beta"`
	ExpectedReturn float64 `json:"expectedReturn"`
	SharpeRatio    float64 `json:"sharpeRatio"`
	VaR95          float64 `json:"var95"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
}

// Assessment is a stored scoring result for a user.
// Only the derived score and profile are persisted; the questionnaire
// response itself is ephemeral.
type Assessment struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Score       int    `json:"score"`
	ProfileName string `json:"profile_name"`
	CreatedAt   int64  `json:"created_at"`
}
