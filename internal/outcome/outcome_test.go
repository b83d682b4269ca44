package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vigilant-go/internal/types"
)

func turn(speaker, message string) types.TranscriptTurn {
	return types.TranscriptTurn{Speaker: speaker, Message: message, Timestamp: "00:30"}
}

func cleanCompliance() *types.ComplianceResult {
	return &types.ComplianceResult{
		IsWithinPolicy: true,
		EmotionalTone:  "Neutral",
	}
}

func TestCriticalViolationEscalates(t *testing.T) {
	compliance := cleanCompliance()
	compliance.PolicyViolations = []types.PolicyViolation{{ClauseID: "RBI-REC-04", Severity: "critical"}}

	c := ClassifyOutcome(compliance, nil, 30)

	assert.Equal(t, Escalated, c.PrimaryOutcome)
	assert.Equal(t, "ESCALATED", c.OutcomeCategory)
	assert.Equal(t, 0.95, c.ConfidenceScore)
	assert.Equal(t, "highly_dissatisfied", c.CustomerSatisfactionIndicator)
}

func TestLegalMentionWithThreats(t *testing.T) {
	compliance := cleanCompliance()
	compliance.DetectedThreats = []string{"agent threatened home visit"}
	turns := []types.TranscriptTurn{
		turn("agent", "You need to pay immediately."),
		turn("customer", "This is harassment."),
		turn("customer", "I will speak to my lawyer about this."),
	}

	c := ClassifyOutcome(compliance, turns, 70)

	assert.Equal(t, LegalDispute, c.PrimaryOutcome)
	assert.Equal(t, 0.90, c.ConfidenceScore)
	assert.Equal(t, "critical", c.UrgencyLevel)
	assert.Contains(t, c.NextAction, "legal department")
}

func TestResolutionKeywordsInEnding(t *testing.T) {
	turns := []types.TranscriptTurn{
		turn("customer", "I cannot pay the full amount this month."),
		turn("agent", "We can split it into two installments."),
		turn("customer", "That works, thank you so much for your help."),
	}

	c := ClassifyOutcome(cleanCompliance(), turns, 10)

	assert.Equal(t, Resolved, c.PrimaryOutcome)
	assert.Equal(t, 0.85, c.ConfidenceScore)
	// A thankful ending carries a satisfied secondary outcome.
	assert.Equal(t, []CallOutcome{CustomerSatisfied}, c.SecondaryOutcomes)
	assert.False(t, c.RequiresFollowUp)
}

func TestDissatisfiedDespiteResolutionWords(t *testing.T) {
	turns := []types.TranscriptTurn{
		turn("agent", "The charge has been settled on our side."),
		turn("customer", "Fine, but I am still dissatisfied with how this was handled."),
	}

	c := ClassifyOutcome(cleanCompliance(), turns, 10)

	assert.Equal(t, CustomerDissatisfied, c.PrimaryOutcome)
	assert.Equal(t, "dissatisfied", c.CustomerSatisfactionIndicator)
}

func TestCallbackCommitment(t *testing.T) {
	turns := []types.TranscriptTurn{
		turn("customer", "I need to confirm the amount with my bank."),
		turn("agent", "No problem, I will call back tomorrow morning."),
	}

	c := ClassifyOutcome(cleanCompliance(), turns, 10)

	assert.Equal(t, CallbackRequired, c.PrimaryOutcome)
	assert.Equal(t, 0.80, c.ConfidenceScore)
	assert.Equal(t, "medium", c.UrgencyLevel)
	assert.True(t, c.RequiresFollowUp)
}

func TestSupervisorTransfer(t *testing.T) {
	turns := []types.TranscriptTurn{
		turn("customer", "I want to talk to someone senior."),
		turn("agent", "Let me transfer you to my supervisor."),
	}

	c := ClassifyOutcome(cleanCompliance(), turns, 10)

	assert.Equal(t, Transferred, c.PrimaryOutcome)
	assert.Equal(t, 0.85, c.ConfidenceScore)
}

func TestPendingFinalStatus(t *testing.T) {
	compliance := cleanCompliance()
	compliance.FinalStatus = "Pending Review"
	turns := []types.TranscriptTurn{
		turn("agent", "We have noted your concern."),
		turn("customer", "Alright then."),
	}

	c := ClassifyOutcome(compliance, turns, 10)

	assert.Equal(t, Pending, c.PrimaryOutcome)
	assert.Equal(t, 0.75, c.ConfidenceScore)
	assert.Equal(t, []CallOutcome{FollowUpNeeded}, c.SecondaryOutcomes)
}

func TestAngryToneUnresolvedComplaint(t *testing.T) {
	compliance := cleanCompliance()
	compliance.IsWithinPolicy = false
	compliance.EmotionalTone = "Angry"
	turns := []types.TranscriptTurn{
		turn("customer", "Nothing you say makes any sense."),
		turn("agent", "I am only stating the outstanding balance."),
	}

	c := ClassifyOutcome(compliance, turns, 50)

	assert.Equal(t, UnresolvedComplaint, c.PrimaryOutcome)
	assert.Equal(t, "high", c.UrgencyLevel)
	assert.Contains(t, c.OutcomeReasoning, "customer expressed significant frustration")
	assert.True(t, c.RequiresFollowUp)
}

func TestCalmCompliantCallCustomerSatisfied(t *testing.T) {
	compliance := cleanCompliance()
	compliance.EmotionalTone = "Calm"
	turns := []types.TranscriptTurn{
		turn("agent", "Your revised due date is the fifth."),
		turn("customer", "Understood, that is all I needed."),
	}

	c := ClassifyOutcome(compliance, turns, 5)

	assert.Equal(t, CustomerSatisfied, c.PrimaryOutcome)
	assert.Equal(t, "satisfied", c.CustomerSatisfactionIndicator)
}

func TestDroppedCall(t *testing.T) {
	compliance := cleanCompliance()
	compliance.IsWithinPolicy = false
	turns := []types.TranscriptTurn{
		turn("agent", "Hello? Are you there?"),
		turn("agent", "It seems the customer hung up."),
	}

	c := ClassifyOutcome(compliance, turns, 45)

	assert.Equal(t, Dropped, c.PrimaryOutcome)
	assert.Equal(t, 0.75, c.ConfidenceScore)
	assert.True(t, c.RequiresFollowUp)
}

func TestDefaultResolvedForCompliantLowRisk(t *testing.T) {
	turns := []types.TranscriptTurn{
		turn("agent", "Your account has been updated."),
		turn("customer", "Okay."),
	}

	c := ClassifyOutcome(cleanCompliance(), turns, 20)

	assert.Equal(t, Resolved, c.PrimaryOutcome)
	assert.Equal(t, 0.70, c.ConfidenceScore)
	// Neutral tone on a resolved call reads as neutral to satisfied.
	assert.Equal(t, "neutral_to_satisfied", c.CustomerSatisfactionIndicator)
}

func TestDefaultUnresolvedWithViolations(t *testing.T) {
	compliance := cleanCompliance()
	compliance.IsWithinPolicy = false
	compliance.PolicyViolations = []types.PolicyViolation{{ClauseID: "RBI-REC-02", Severity: "medium"}}
	turns := []types.TranscriptTurn{
		turn("agent", "The balance remains outstanding."),
		turn("customer", "Okay."),
	}

	c := ClassifyOutcome(compliance, turns, 45)

	assert.Equal(t, UnresolvedComplaint, c.PrimaryOutcome)
	assert.Equal(t, 0.65, c.ConfidenceScore)
}

func TestClassificationIsDeterministic(t *testing.T) {
	compliance := cleanCompliance()
	compliance.EmotionalTone = "Frustrated"
	compliance.IsWithinPolicy = false
	turns := []types.TranscriptTurn{
		turn("customer", "I already paid this."),
		turn("agent", "Our records show otherwise, we will check and get back to you."),
	}

	first := ClassifyOutcome(compliance, turns, 55)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ClassifyOutcome(compliance, turns, 55))
	}
}

func TestEveryOutcomeHasACategory(t *testing.T) {
	outcomes := []CallOutcome{
		Resolved, Escalated, Dropped, Pending, Transferred, CallbackRequired,
		LegalDispute, UnresolvedComplaint, CustomerSatisfied,
		CustomerDissatisfied, FollowUpNeeded, NoResolution,
	}
	seen := map[string]bool{}
	for _, o := range outcomes {
		category := o.Category()
		assert.NotEmpty(t, category)
		assert.False(t, seen[category], "duplicate category %s", category)
		seen[category] = true
	}
}
