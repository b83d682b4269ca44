package performance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigilant-go/internal/types"
)

func agentTurn(message string) types.TranscriptTurn {
	return types.TranscriptTurn{Speaker: "agent", Message: message, Timestamp: "00:30"}
}

func strongAgentInputs() Inputs {
	return Inputs{
		Politeness:      "excellent",
		Empathy:         "high",
		Professionalism: "excellent",
		CallOutcome:     "Resolved",
		EmotionalTone:   "Calm",
		TranscriptTurns: []types.TranscriptTurn{
			agentTurn("I completely understand your situation and I appreciate you explaining it to me in detail."),
			agentTurn("Let me help you set up a revised payment plan that works within your current budget."),
			{Speaker: "customer", Message: "Thank you, that would really help.", Timestamp: "00:45"},
		},
	}
}

func TestStrongAgentScoresAtLeastGood(t *testing.T) {
	a := CalculatePerformanceScore(strongAgentInputs())

	// 12 politeness + 13 empathy + 20 professionalism + 15 resolution +
	// 10 compliance = 70 before communication.
	assert.GreaterOrEqual(t, a.TotalScore, float64(70))
	assert.Contains(t, []Level{LevelGood, LevelExcellent, LevelExceptional}, a.PerformanceLevel)
	assert.False(t, a.RequiresCoaching)
	assert.False(t, a.RequiresDisciplinaryAction)
	assert.Equal(t, 10, a.Breakdown.ComplianceAdherence)
	assert.Zero(t, a.Breakdown.Penalties)
}

func TestScoreStaysInRange(t *testing.T) {
	worst := CalculatePerformanceScore(Inputs{
		Politeness:      "unacceptable",
		Empathy:         "none",
		Professionalism: "unacceptable",
		Violations: []types.PolicyViolation{
			{Description: "Agent made a threat of physical harm", Severity: "critical"},
			{Description: "Harassment and intimidation of the customer", Severity: "critical"},
		},
		DetectedThreats:       []string{"will send recovery agents"},
		CallOutcome:           "Legal Dispute",
		ProhibitedPhraseCount: 4,
		TimeViolation:         true,
		EmotionalTone:         "Aggressive",
	})

	assert.GreaterOrEqual(t, worst.TotalScore, float64(0))
	assert.LessOrEqual(t, worst.TotalScore, float64(100))
	assert.Equal(t, LevelUnacceptable, worst.PerformanceLevel)
	assert.True(t, worst.RequiresDisciplinaryAction)
	assert.Equal(t, PriorityCritical, worst.TrainingPriority)
}

func TestCommunicationScoreNeutralWithoutAgentTurns(t *testing.T) {
	a := CalculatePerformanceScore(Inputs{
		Politeness:      "fair",
		Empathy:         "medium",
		Professionalism: "fair",
		CallOutcome:     "Pending",
		TranscriptTurns: []types.TranscriptTurn{
			{Speaker: "customer", Message: "Hello? Is anyone there?", Timestamp: "00:05"},
		},
	})

	assert.Equal(t, 18, a.Breakdown.CommunicationSkills)
}

func TestAggressiveToneCutsCommunication(t *testing.T) {
	base := strongAgentInputs()
	calm := CalculatePerformanceScore(base)

	base.EmotionalTone = "Aggressive"
	aggressive := CalculatePerformanceScore(base)

	assert.Equal(t, calm.Breakdown.CommunicationSkills-10, aggressive.Breakdown.CommunicationSkills)
}

func TestThreatPenaltyAppliesOnce(t *testing.T) {
	in := Inputs{
		Politeness:      "fair",
		Empathy:         "medium",
		Professionalism: "fair",
		CallOutcome:     "Escalated",
		DetectedThreats: []string{"first threat", "second threat"},
		Violations: []types.PolicyViolation{
			{Description: "Verbal threat made to the customer", Severity: "high"},
			{Description: "Another threat of consequences", Severity: "high"},
		},
	}
	a := CalculatePerformanceScore(in)

	// -20 once for threats, never -40, with no other penalties active.
	assert.Equal(t, -20, a.Breakdown.Penalties)
}

func TestHarassmentPenaltyAppliesOnce(t *testing.T) {
	a := CalculatePerformanceScore(Inputs{
		Politeness:      "fair",
		Empathy:         "medium",
		Professionalism: "fair",
		CallOutcome:     "Escalated",
		Violations: []types.PolicyViolation{
			{Description: "Harassment of the customer", Severity: "critical"},
			{Description: "Repeated intimidation during the call", Severity: "critical"},
		},
	})

	assert.Equal(t, -25, a.Breakdown.Penalties)
}

func TestProhibitedPhrasePenaltyCapsAtTwo(t *testing.T) {
	two := CalculatePerformanceScore(Inputs{CallOutcome: "Escalated", ProhibitedPhraseCount: 2})
	five := CalculatePerformanceScore(Inputs{CallOutcome: "Escalated", ProhibitedPhraseCount: 5})

	assert.Equal(t, -30, two.Breakdown.Penalties)
	assert.Equal(t, two.Breakdown.Penalties, five.Breakdown.Penalties)
}

func TestProhibitedPhrasesForceDisciplinaryAction(t *testing.T) {
	a := CalculatePerformanceScore(Inputs{
		Politeness:            "excellent",
		Empathy:               "high",
		Professionalism:       "excellent",
		CallOutcome:           "Resolved",
		ProhibitedPhraseCount: 1,
	})

	assert.True(t, a.RequiresDisciplinaryAction)
	assert.Equal(t, PriorityCritical, a.TrainingPriority)
	assert.Zero(t, a.Breakdown.ComplianceAdherence)
	require.NotEmpty(t, a.TrainingRecommendations)
	assert.True(t, strings.HasPrefix(a.TrainingRecommendations[0], "CRITICAL:"))
}

func TestEscalatedOutcomeResolutionDependsOnSeverity(t *testing.T) {
	minor := CalculatePerformanceScore(Inputs{
		CallOutcome: "Escalated",
		Violations:  []types.PolicyViolation{{Description: "late disclosure", Severity: "low"}},
	})
	severe := CalculatePerformanceScore(Inputs{
		CallOutcome: "Escalated",
		Violations:  []types.PolicyViolation{{Description: "abusive language", Severity: "critical"}},
	})

	assert.Equal(t, 6, minor.Breakdown.ProblemResolution)
	assert.Equal(t, 0, severe.Breakdown.ProblemResolution)
}

func TestStrengthsForStrongAgent(t *testing.T) {
	a := CalculatePerformanceScore(strongAgentInputs())

	assert.Contains(t, a.Strengths, "Strong politeness and courtesy")
	assert.Contains(t, a.Strengths, "High empathy and customer understanding")
	assert.Contains(t, a.Strengths, "Professional demeanor and conduct")
	assert.Contains(t, a.Strengths, "Effective problem resolution skills")
	assert.Contains(t, a.Strengths, "Full compliance with policies and regulations")
	assert.Contains(t, a.Strengths, "No policy violations or inappropriate conduct")
	assert.Empty(t, a.Weaknesses)
}

func TestStrengthsNeverEmpty(t *testing.T) {
	a := CalculatePerformanceScore(Inputs{
		Politeness:      "poor",
		Empathy:         "low",
		Professionalism: "poor",
		CallOutcome:     "Dropped",
		Violations:      []types.PolicyViolation{{Description: "inappropriate language", Severity: "high"}},
		TimeViolation:   true,
	})

	assert.Equal(t, []string{"Completed the call interaction"}, a.Strengths)
}

func TestWeaknessesDeduplicated(t *testing.T) {
	a := CalculatePerformanceScore(Inputs{
		Politeness:      "fair",
		Empathy:         "medium",
		Professionalism: "fair",
		CallOutcome:     "Customer Dissatisfied",
		Violations: []types.PolicyViolation{
			{Description: "threatening remark", Severity: "high"},
			{Description: "aggressive pressure applied", Severity: "high"},
		},
	})

	counts := map[ImprovementArea]int{}
	for _, w := range a.Weaknesses {
		counts[w]++
	}
	for area, n := range counts {
		assert.Equal(t, 1, n, "area %s appears %d times", area, n)
	}
	assert.Contains(t, a.Weaknesses, ConflictResolution)
	assert.Contains(t, a.Weaknesses, EmotionalRegulation)
}

func TestTrainingRecommendationsTruncatedToFive(t *testing.T) {
	a := CalculatePerformanceScore(Inputs{
		Politeness:      "unacceptable",
		Empathy:         "none",
		Professionalism: "unacceptable",
		CallOutcome:     "Customer Dissatisfied",
		Violations: []types.PolicyViolation{
			{Description: "inappropriate language and threats", Severity: "critical"},
		},
		ProhibitedPhraseCount: 1,
		EmotionalTone:         "Aggressive",
	})

	assert.LessOrEqual(t, len(a.TrainingRecommendations), 5)
}

func TestTrainingRecommendationsDefault(t *testing.T) {
	a := CalculatePerformanceScore(strongAgentInputs())
	assert.Equal(t,
		[]string{"Continue current performance level with periodic refresher training"},
		a.TrainingRecommendations,
	)
}

func TestSpecificFeedbackMentionsCriticalViolations(t *testing.T) {
	a := CalculatePerformanceScore(Inputs{
		Politeness:      "poor",
		Empathy:         "low",
		Professionalism: "poor",
		CallOutcome:     "Escalated",
		Violations: []types.PolicyViolation{
			{Description: "threat of legal consequences without basis", Severity: "critical"},
		},
	})

	assert.Contains(t, a.SpecificFeedback, "1 critical policy violation(s) require immediate corrective action.")
	assert.Contains(t, a.SpecificFeedback, "Focus areas for improvement:")
}

func TestLevelBuckets(t *testing.T) {
	cases := map[float64]Level{
		95: LevelExceptional,
		85: LevelExcellent,
		75: LevelGood,
		65: LevelSatisfactory,
		50: LevelNeedsImprovement,
		25: LevelPoor,
		10: LevelUnacceptable,
	}
	for score, want := range cases {
		assert.Equal(t, want, DetermineLevel(score), "score %v", score)
	}
}

func TestCompareToBenchmark(t *testing.T) {
	c := CompareToBenchmark(92, DefaultBenchmark)

	assert.Equal(t, 17.0, c.VsTeam)
	assert.Equal(t, 12.0, c.VsCompany)
	assert.Equal(t, "Top 25%", c.PercentileEstimate)
	assert.Equal(t, "Elite Performer", c.PerformanceTier)
	assert.True(t, c.MeetsCompanyStandard)
}

func TestCompareToBenchmarkBelowStandard(t *testing.T) {
	c := CompareToBenchmark(58, DefaultBenchmark)

	assert.Equal(t, -17.0, c.VsTeam)
	assert.Equal(t, "Bottom 25%", c.PercentileEstimate)
	assert.Equal(t, "Below Standard", c.PerformanceTier)
	assert.False(t, c.MeetsCompanyStandard)
}
