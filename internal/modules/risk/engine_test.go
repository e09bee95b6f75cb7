package risk

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaticEngine() *Engine {
	return NewEngine(nil, zerolog.Nop())
}

func TestComputeScoreScenarios(t *testing.T) {
	tests := []struct {
		name string
		resp QuestionnaireResponse
		want int
	}{
		{
			name: "young aggressive investor",
			resp: QuestionnaireResponse{
				Age:                 22,
				Income:              "very_stable",
				Experience:          "beginner",
				EmergencyFund:       "good",
				Horizon:             25,
				Goals:               "growth",
				VolatilityTolerance: "very_high",
				MarketKnowledge:     "limited",
			},
			want: 89, // 15+15+4+8+20+10+15+2
		},
		{
			name: "lowest scoring bucket everywhere",
			resp: QuestionnaireResponse{
				Age:                 60,
				Income:              "irregular",
				Experience:          "beginner",
				EmergencyFund:       "none",
				Horizon:             1,
				Goals:               "preservation",
				VolatilityTolerance: "very_low",
				MarketKnowledge:     "limited",
			},
			want: 29, // 4+6+4+2+4+4+3+2
		},
		{
			name: "maximum attainable is exactly 100",
			resp: QuestionnaireResponse{
				Age:                 25,
				Income:              "very_stable",
				Experience:          "experienced",
				EmergencyFund:       "excellent",
				Horizon:             20,
				Goals:               "growth",
				VolatilityTolerance: "very_high",
				MarketKnowledge:     "excellent",
			},
			want: 100, // 15+15+10+10+20+10+15+5
		},
	}

	engine := newStaticEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.ComputeScore(tt.resp))
		})
	}
}

func TestComputeScoreIsDeterministic(t *testing.T) {
	engine := newStaticEngine()
	resp := QuestionnaireResponse{
		Age:                 40,
		Income:              "stable",
		Experience:          "moderate",
		EmergencyFund:       "basic",
		Horizon:             7,
		Goals:               "balanced",
		VolatilityTolerance: "medium",
		MarketKnowledge:     "good",
	}

	first := engine.ComputeScore(resp)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.ComputeScore(resp))
	}
}

func TestComputeScoreFailSoftOnUnknownTokens(t *testing.T) {
	engine := newStaticEngine()

	// All categorical tokens unrecognized; engine substitutes documented
	// defaults instead of failing
	resp := QuestionnaireResponse{
		Age:                 30,
		Income:              "???",
		Experience:          "n/a",
		EmergencyFund:       "",
		Horizon:             3,
		Goals:               "moon",
		VolatilityTolerance: "yolo",
		MarketKnowledge:     "42",
	}

	// 13 (age<=35) + 6 + 4 + 2 + 8 (horizon>=2) + 6 + 6 + 2
	assert.Equal(t, 47, engine.ComputeScore(resp))
}

func TestComputeScoreBounds(t *testing.T) {
	engine := newStaticEngine()

	ages := []int{1, 18, 25, 26, 35, 36, 45, 46, 55, 56, 99}
	horizons := []float64{0, 1.9, 2, 4.9, 5, 9.9, 10, 19.9, 20, 50}
	tolerances := []string{"very_high", "high", "medium", "low", "very_low", "bogus"}

	for _, age := range ages {
		for _, horizon := range horizons {
			for _, tol := range tolerances {
				resp := QuestionnaireResponse{
					Age:                 age,
					Income:              "stable",
					Experience:          "some",
					EmergencyFund:       "basic",
					Horizon:             horizon,
					Goals:               "balanced",
					VolatilityTolerance: tol,
					MarketKnowledge:     "basic",
				}
				score := engine.ComputeScore(resp)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	}
}

func TestAgeBuckets(t *testing.T) {
	tests := []struct {
		age  int
		want int
	}{
		{22, 15}, {25, 15},
		{26, 13}, {35, 13},
		{36, 10}, {45, 10},
		{46, 7}, {55, 7},
		{56, 4}, {80, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, agePoints(tt.age), "age %d", tt.age)
	}
}

func TestHorizonBuckets(t *testing.T) {
	tests := []struct {
		years float64
		want  int
	}{
		{25, 20}, {20, 20},
		{15, 16}, {10, 16},
		{7, 12}, {5, 12},
		{3, 8}, {2, 8},
		{1.5, 4}, {0, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, horizonPoints(tt.years), "horizon %v", tt.years)
	}
}

func TestClassifyProfileStaticLadder(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "Very Conservative"}, {25, "Very Conservative"},
		{26, "Conservative"}, {29, "Conservative"}, {45, "Conservative"},
		{46, "Moderate"}, {65, "Moderate"},
		{66, "Aggressive"}, {80, "Aggressive"},
		{81, "Very Aggressive"}, {89, "Very Aggressive"}, {100, "Very Aggressive"},
	}

	engine := newStaticEngine()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("score_%d", tt.score), func(t *testing.T) {
			profile := engine.ClassifyProfile(tt.score)
			assert.Equal(t, tt.want, profile.ProfileName)
		})
	}
}

func TestStaticLadderPartitionsRange(t *testing.T) {
	// Every score in [0,100] must map to exactly one static band
	engine := newStaticEngine()
	for score := 0; score <= 100; score++ {
		matches := 0
		for _, p := range StaticProfiles() {
			if score >= p.MinScore && score <= p.MaxScore {
				matches++
			}
		}
		require.Equal(t, 1, matches, "score %d matched %d bands", score, matches)

		profile := engine.ClassifyProfile(score)
		assert.NotEmpty(t, profile.ProfileName)
		assert.Equal(t, 100, profile.AllocationStocks+profile.AllocationBonds)
	}
}

// fakeFactorSource returns canned configuration for engine tests
type fakeFactorSource struct {
	factors  []Factor
	profiles []Profile
	err      error
}

func (f *fakeFactorSource) ActiveFactors() ([]Factor, error)   { return f.factors, f.err }
func (f *fakeFactorSource) ActiveProfiles() ([]Profile, error) { return f.profiles, f.err }

func TestComputeScoreWithConfiguredFactors(t *testing.T) {
	source := &fakeFactorSource{
		factors: []Factor{
			{FactorType: FactorAge, ConditionKey: "<=25", Points: 20, IsActive: true},
			{FactorType: FactorAge, ConditionKey: "26-35", Points: 16, IsActive: true},
			{FactorType: FactorAge, ConditionKey: ">55", Points: 2, IsActive: true},
			{FactorType: FactorIncome, ConditionKey: "very_stable", Points: 12, IsActive: true},
			{FactorType: FactorHorizon, ConditionKey: ">=20", Points: 18, IsActive: true},
			{FactorType: FactorHorizon, ConditionKey: "2-5", Points: 6, IsActive: true},
		},
	}
	engine := NewEngine(source, zerolog.Nop())

	resp := QuestionnaireResponse{
		Age:                 24,
		Income:              "very_stable",
		Experience:          "beginner",
		EmergencyFund:       "good",
		Horizon:             25,
		Goals:               "growth",
		VolatilityTolerance: "very_high",
		MarketKnowledge:     "limited",
	}

	// Configured: age 20, income 12, horizon 18
	// Static defaults for unconfigured types: 4+8+10+15+2
	assert.Equal(t, 20+12+4+8+18+10+15+2, engine.ComputeScore(resp))
}

func TestComputeScoreFallsBackOnSourceError(t *testing.T) {
	source := &fakeFactorSource{err: fmt.Errorf("database unreachable")}
	engine := NewEngine(source, zerolog.Nop())

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

	// Identical to the static path
	assert.Equal(t, 89, engine.ComputeScore(resp))
}

func TestClassifyProfileConfiguredFirstMatchWins(t *testing.T) {
	source := &fakeFactorSource{
		profiles: []Profile{
			{ProfileName: "Custom Low", MinScore: 0, MaxScore: 50, IsActive: true},
			{ProfileName: "Overlapping", MinScore: 40, MaxScore: 100, IsActive: true},
		},
	}
	engine := NewEngine(source, zerolog.Nop())

	// 45 is inside both ranges; the first row wins
	assert.Equal(t, "Custom Low", engine.ClassifyProfile(45).ProfileName)
	assert.Equal(t, "Overlapping", engine.ClassifyProfile(51).ProfileName)
}

func TestMatchRangeToken(t *testing.T) {
	tests := []struct {
		token string
		value float64
		want  bool
	}{
		{"<=25", 25, true},
		{"<=25", 26, false},
		{"26-35", 26, true},
		{"26-35", 35, true},
		{"26-35", 36, false},
		{">55", 55, false},
		{">55", 56, true},
		{"<2", 1.9, true},
		{"<2", 2, false},
		{">=20", 20, true},
		{">=20", 19.99, false},
		{"garbage", 10, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchRangeToken(tt.token, tt.value), "%s vs %v", tt.token, tt.value)
	}
}
