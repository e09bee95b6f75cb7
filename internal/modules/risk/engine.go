package risk

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// FactorSource provides scoring configuration rows.
// The engine tolerates an unavailable source by falling back to its
// static tables, so implementations may simply return errors.
type FactorSource interface {
	ActiveFactors() ([]Factor, error)
	ActiveProfiles() ([]Profile, error)
}

// Engine computes risk-tolerance scores from questionnaire responses.
// Scoring is a pure function of the response plus optional configuration;
// the engine holds no mutable state.
type Engine struct {
	factors FactorSource // optional; nil means static tables only
	log     zerolog.Logger
}

// NewEngine creates a scoring engine. factors may be nil.
func NewEngine(factors FactorSource, log zerolog.Logger) *Engine {
	return &Engine{
		factors: factors,
		log:     log.With().Str("component", "risk_engine").Logger(),
	}
}

// Default sub-scores applied when a categorical token is not recognized.
// Malformed client input degrades scoring precision but never blocks the
// user.
const (
	defaultIncomePoints        = 6
	defaultExperiencePoints    = 4
	defaultEmergencyFundPoints = 2
	defaultGoalsPoints         = 6
	defaultVolatilityPoints    = 6
	defaultKnowledgePoints     = 2
)

var incomePoints = map[string]int{
	"very_stable": 15,
	"stable":      12,
	"variable":    9,
	"irregular":   6,
}

var experiencePoints = map[string]int{
	"experienced": 10,
	"moderate":    8,
	"some":        6,
	"beginner":    4,
}

var emergencyFundPoints = map[string]int{
	"excellent": 10,
	"good":      8,
	"basic":     5,
	"none":      2,
}

var goalsPoints = map[string]int{
	"growth":       10,
	"balanced":     8,
	"income":       6,
	"preservation": 4,
}

var volatilityPoints = map[string]int{
	"very_high": 15,
	"high":      12,
	"medium":    9,
	"low":       6,
	"very_low":  3,
}

var knowledgePoints = map[string]int{
	"excellent": 5,
	"good":      4,
	"basic":     3,
	"limited":   2,
}

// agePoints returns the age bucket sub-score
func agePoints(age int) int {
	switch {
	case age <= 25:
		return 15
	case age <= 35:
		return 13
	case age <= 45:
		return 10
	case age <= 55:
		return 7
	default:
		return 4
	}
}

// horizonPoints returns the investment horizon bucket sub-score
func horizonPoints(years float64) int {
	switch {
	case years >= 20:
		return 20
	case years >= 10:
		return 16
	case years >= 5:
		return 12
	case years >= 2:
		return 8
	default:
		return 4
	}
}

// lookupPoints returns the table value for token, or the default when the
// token is not recognized
func lookupPoints(table map[string]int, token string, def int) int {
	if pts, ok := table[token]; ok {
		return pts
	}
	return def
}

// ComputeScore computes the 0-100 risk-tolerance score for a response.
// Eight independent sub-scores are summed and clamped to [0,100]. The
// maximum attainable total is exactly 100 (15+15+10+10+20+10+15+5); the
// clamp guards against misconfigured factor rows, not the static tables.
//
// When a factor source is configured, each static table is replaced by
// active rows of the matching factor type. If no active row matches a
// type, the engine logs a warning and applies the static default for that
// type. The original implementation contributed 0 in that case; applying
// the static default keeps configured and static scores comparable.
func (e *Engine) ComputeScore(resp QuestionnaireResponse) int {
	var score int

	factors := e.loadFactors()
	if factors != nil {
		score += e.configuredPoints(factors, FactorAge, "", resp, agePoints(resp.Age))
		score += e.configuredPoints(factors, FactorIncome, resp.Income, resp, lookupPoints(incomePoints, resp.Income, defaultIncomePoints))
		score += e.configuredPoints(factors, FactorExperience, resp.Experience, resp, lookupPoints(experiencePoints, resp.Experience, defaultExperiencePoints))
		score += e.configuredPoints(factors, FactorEmergencyFund, resp.EmergencyFund, resp, lookupPoints(emergencyFundPoints, resp.EmergencyFund, defaultEmergencyFundPoints))
		score += e.configuredPoints(factors, FactorHorizon, "", resp, horizonPoints(resp.Horizon))
		score += e.configuredPoints(factors, FactorGoals, resp.Goals, resp, lookupPoints(goalsPoints, resp.Goals, defaultGoalsPoints))
		score += e.configuredPoints(factors, FactorVolatility, resp.VolatilityTolerance, resp, lookupPoints(volatilityPoints, resp.VolatilityTolerance, defaultVolatilityPoints))
		score += e.configuredPoints(factors, FactorKnowledge, resp.MarketKnowledge, resp, lookupPoints(knowledgePoints, resp.MarketKnowledge, defaultKnowledgePoints))
	} else {
		score = agePoints(resp.Age) +
			lookupPoints(incomePoints, resp.Income, defaultIncomePoints) +
			lookupPoints(experiencePoints, resp.Experience, defaultExperiencePoints) +
			lookupPoints(emergencyFundPoints, resp.EmergencyFund, defaultEmergencyFundPoints) +
			horizonPoints(resp.Horizon) +
			lookupPoints(goalsPoints, resp.Goals, defaultGoalsPoints) +
			lookupPoints(volatilityPoints, resp.VolatilityTolerance, defaultVolatilityPoints) +
			lookupPoints(knowledgePoints, resp.MarketKnowledge, defaultKnowledgePoints)
	}

	return clampScore(score)
}

// loadFactors fetches active configuration rows grouped by factor type.
// Returns nil when no source is configured, the source is unreachable, or
// no rows exist; all three cases fall back to the static tables.
func (e *Engine) loadFactors() map[string][]Factor {
	if e.factors == nil {
		return nil
	}

	rows, err := e.factors.ActiveFactors()
	if err != nil {
		e.log.Warn().Err(err).Msg("Factor configuration unavailable, using static tables")
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	grouped := make(map[string][]Factor)
	for _, f := range rows {
		grouped[f.FactorType] = append(grouped[f.FactorType], f)
	}
	return grouped
}

// configuredPoints resolves a single factor type against configuration
// rows. token is the categorical answer; age and horizon pass "" and are
// matched via range tokens instead. def is the static sub-score used when
// no row matches.
func (e *Engine) configuredPoints(factors map[string][]Factor, factorType, token string, resp QuestionnaireResponse, def int) int {
	rows, ok := factors[factorType]
	if !ok || len(rows) == 0 {
		return def
	}

	for _, row := range rows {
		if !row.IsActive {
			continue
		}
		switch factorType {
		case FactorAge:
			if matchRangeToken(row.ConditionKey, float64(resp.Age)) {
				return row.Points
			}
		case FactorHorizon:
			if matchRangeToken(row.ConditionKey, resp.Horizon) {
				return row.Points
			}
		default:
			if row.ConditionKey == token {
				return row.Points
			}
		}
	}

	e.log.Warn().
		Str("factor_type", factorType).
		Str("token", token).
		Msg("No configured factor row matched, applying static default")
	return def
}

// matchRangeToken evaluates a range token against a numeric value.
// Supported forms: "<=N", "<N", ">=N", ">N" and "A-B" (inclusive).
func matchRangeToken(token string, value float64) bool {
	token = strings.TrimSpace(token)

	switch {
	case strings.HasPrefix(token, "<="):
		if n, err := strconv.ParseFloat(token[2:], 64); err == nil {
			return value <= n
		}
	case strings.HasPrefix(token, ">="):
		if n, err := strconv.ParseFloat(token[2:], 64); err == nil {
			return value >= n
		}
	case strings.HasPrefix(token, "<"):
		if n, err := strconv.ParseFloat(token[1:], 64); err == nil {
			return value < n
		}
	case strings.HasPrefix(token, ">"):
		if n, err := strconv.ParseFloat(token[1:], 64); err == nil {
			return value > n
		}
	case strings.Contains(token, "-"):
		parts := strings.SplitN(token, "-", 2)
		lo, errLo := strconv.ParseFloat(parts[0], 64)
		hi, errHi := strconv.ParseFloat(parts[1], 64)
		if errLo == nil && errHi == nil {
			return value >= lo && value <= hi
		}
	}

	return false
}

// clampScore clamps a score to [0,100]
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// staticProfiles is the fallback classification ladder used when no
// configured profiles are available. The five bands partition 0-100.
var staticProfiles = []Profile{
	{
		ProfileName:      "Very Conservative",
		MinScore:         0,
		MaxScore:         25,
		Description:      "Capital preservation comes first. Minimal exposure to market swings with most of the portfolio in fixed income.",
		AllocationStocks: 20,
		AllocationBonds:  80,
		SuitableFor:      "Investors close to or in retirement, or anyone who cannot afford losses on their savings.",
		IsActive:         true,
	},
	{
		ProfileName:      "Conservative",
		MinScore:         26,
		MaxScore:         45,
		Description:      "Steady growth with limited volatility. A modest equity allocation supplements a bond-heavy core.",
		AllocationStocks: 35,
		AllocationBonds:  65,
		SuitableFor:      "Investors with short-to-medium horizons who prioritize stability over returns.",
		IsActive:         true,
	},
	{
		ProfileName:      "Moderate",
		MinScore:         46,
		MaxScore:         65,
		Description:      "Balanced growth and stability. Roughly equal weight to equities and fixed income.",
		AllocationStocks: 55,
		AllocationBonds:  45,
		SuitableFor:      "Investors with medium-term goals who can tolerate occasional drawdowns.",
		IsActive:         true,
	},
	{
		ProfileName:      "Aggressive",
		MinScore:         66,
		MaxScore:         80,
		Description:      "Growth-oriented with meaningful volatility. Equities dominate with a small bond cushion.",
		AllocationStocks: 75,
		AllocationBonds:  25,
		SuitableFor:      "Investors with long horizons and stable income who can ride out market cycles.",
		IsActive:         true,
	},
	{
		ProfileName:      "Very Aggressive",
		MinScore:         81,
		MaxScore:         100,
		Description:      "Maximum growth potential with large swings. Nearly fully invested in equities.",
		AllocationStocks: 90,
		AllocationBonds:  10,
		SuitableFor:      "Young investors with decades ahead, high risk capacity, and no near-term cash needs.",
		IsActive:         true,
	},
}

// StaticProfiles returns a copy of the fallback classification ladder
func StaticProfiles() []Profile {
	out := make([]Profile, len(staticProfiles))
	copy(out, staticProfiles)
	return out
}

// ClassifyProfile maps a score to its risk profile.
// Configured profiles are consulted first in row order: the first active
// profile whose [min,max] range contains the score wins, so overlapping
// or gapped configuration degrades deterministically rather than failing.
// The static five-band ladder is the fallback.
func (e *Engine) ClassifyProfile(score int) Profile {
	score = clampScore(score)

	if e.factors != nil {
		profiles, err := e.factors.ActiveProfiles()
		if err != nil {
			e.log.Warn().Err(err).Msg("Profile configuration unavailable, using static ladder")
		} else {
			for _, p := range profiles {
				if p.IsActive && score >= p.MinScore && score <= p.MaxScore {
					return p
				}
			}
			if len(profiles) > 0 {
				e.log.Warn().Int("score", score).Msg("Configured profiles leave a gap, using static ladder")
			}
		}
	}

	for _, p := range staticProfiles {
		if score >= p.MinScore && score <= p.MaxScore {
			return p
		}
	}

	// Unreachable: the static ladder covers 0-100 and score is clamped
	return staticProfiles[len(staticProfiles)-1]
}
