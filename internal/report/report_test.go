package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigilant-go/internal/config"
	"vigilant-go/internal/engine"
	"vigilant-go/internal/outcome"
	"vigilant-go/internal/performance"
	"vigilant-go/internal/risk"
	"vigilant-go/internal/types"
)

func sampleTranscription() types.TranscriptionResult {
	return types.TranscriptionResult{
		TranscriptThreads: []types.TranscriptTurn{
			{Speaker: "agent", Message: "Your loan installment of 5000 rupees is overdue.", Timestamp: "00:00"},
			{Speaker: "customer", Message: "I can pay by Friday.", Timestamp: "00:30"},
			{Speaker: "agent", Message: "Thank you, I will note Friday as the revised date.", Timestamp: "01:00"},
		},
		ConversationAbout: "overdue loan installment",
		Category:          "Debt Recovery",
		KeyTopics:         []string{"loan", "payment date"},
	}
}

func sampleResult() *engine.Result {
	compliance := &types.ComplianceResult{
		Summary:          "Customer agreed to pay the overdue installment by Friday.",
		Category:         "Debt Recovery",
		OverallSentiment: "Neutral",
		EmotionalTone:    "Calm",
		ToneProgression:  []string{"Neutral", "Calm"},
		EmotionalGraph: []types.EmotionPoint{
			{Timestamp: "00:00", Tone: "Neutral", Score: 0.5, AcousticArousal: "Low"},
			{Timestamp: "01:00", Tone: "Calm", Score: 0.45, AcousticArousal: "Low"},
		},
		IsWithinPolicy:       true,
		ComplianceFlags:      []string{},
		PolicyViolations:     []types.PolicyViolation{},
		DetectedThreats:      []string{},
		CustomerSentiment:    "Cooperative",
		AgentSentiment:       "Professional",
		FinalStatus:          "Closed",
		RiskEscalationScore:  0,
		AgentPoliteness:      "good",
		AgentEmpathy:         "high",
		AgentProfessionalism: "good",
	}
	return &engine.Result{
		RequestID:   "REQ-AB12CD-MA",
		Compliance:  compliance,
		Risk:        risk.Assessment{RiskLevel: risk.LevelMinimal, RiskCategory: "MINIMAL"},
		Outcome:     outcome.Classification{PrimaryOutcome: outcome.Resolved, OutcomeCategory: "positive", ConfidenceScore: 0.85},
		Performance: performance.Assessment{TotalScore: 88, PerformanceLevel: performance.LevelExcellent, PerformanceCategory: "EXCELLENT"},
	}
}

func TestBuildAssemblesReport(t *testing.T) {
	rep := Build(BuildInput{
		Result:           sampleResult(),
		Transcription:    sampleTranscription(),
		Config:           config.Default(),
		CallTimestampUTC: "2025-06-02T10:30:00Z",
		ProcessingStart:  time.Now(),
	})

	assert.Equal(t, "REQ-AB12CD-MA", rep.RequestID)
	assert.Equal(t, "low", rep.Metadata.ConversationComplexity)
	assert.Equal(t, []string{"English"}, rep.Metadata.DetectedLanguages)
	assert.Equal(t, "Banking / Debt Recovery", rep.ConfigApplied.BusinessDomain)
	assert.Equal(t, "Customer agreed to pay the overdue installment by Friday.", rep.IntelligenceSummary.Summary)
	assert.True(t, rep.ComplianceAudit.IsWithinPolicy)
	assert.Len(t, rep.TranscriptThreads, 3)
	assert.Equal(t, "Resolved", rep.PerformanceAndOutcomes.CallOutcome.PrimaryOutcome)
	assert.Equal(t, float64(88), rep.PerformanceAndOutcomes.AgentPerformance.OverallQualityScore)
	assert.Equal(t, "Closed", rep.PerformanceAndOutcomes.FinalStatus)
	assert.NotNil(t, rep.Extensions.PluginData)
}

func TestComplexityFromTurns(t *testing.T) {
	assert.Equal(t, "low", complexityFromTurns(6))
	assert.Equal(t, "medium", complexityFromTurns(7))
	assert.Equal(t, "medium", complexityFromTurns(14))
	assert.Equal(t, "high", complexityFromTurns(15))
}

func TestWithTimeViolationAppendsOnce(t *testing.T) {
	tv := types.TimeViolationResult{
		Violation:   true,
		ISTTime:     "21:30",
		RuleName:    "Operating Hours Compliance",
		Description: "Call placed at 21:30 IST, outside the allowed calling window 08:00-19:00 IST.",
	}

	violations := withTimeViolation(nil, tv)
	require.Len(t, violations, 1)
	assert.Equal(t, "INTERNAL-TIME-01", violations[0].ClauseID)
	assert.Equal(t, "21:30", violations[0].Timestamp)
	assert.Equal(t, "Call timestamp detected as 21:30 IST.", violations[0].EvidenceQuote)

	// Already present in the extraction output: no duplicate.
	again := withTimeViolation(violations, tv)
	assert.Len(t, again, 1)

	// No violation detected: list unchanged.
	assert.Empty(t, withTimeViolation(nil, types.TimeViolationResult{Violation: false}))
}

func TestClosestTone(t *testing.T) {
	graph := []types.EmotionPoint{
		{Timestamp: "00:00", Tone: "Neutral", Score: 0.5, AcousticArousal: "Low"},
		{Timestamp: "01:00", Tone: "Frustrated", Score: 0.7, AcousticArousal: "High"},
	}

	exact := closestTone("01:00", graph)
	assert.Equal(t, "Frustrated", exact.Tone)

	near := closestTone("00:40", graph)
	assert.Equal(t, "Frustrated", near.Tone)

	far := closestTone("05:00", graph)
	assert.Equal(t, "Neutral", far.Tone)
	assert.Equal(t, 0.5, far.Score)

	empty := closestTone("00:00", nil)
	assert.Equal(t, "Neutral", empty.Tone)
}

func TestResolveSummaryRegeneratesOnFallback(t *testing.T) {
	tr := sampleTranscription()
	compliance := &types.ComplianceResult{
		Summary:        "Analysis could not be completed due to a processing error. Manual review recommended.",
		IsWithinPolicy: false,
		PolicyViolations: []types.PolicyViolation{
			{ClauseID: "RBI-401", Severity: "high", Description: "harassment"},
		},
	}

	summary := resolveSummary(tr, compliance, "To discuss payment-related concerns")

	assert.Contains(t, summary, "debt recovery recording with 3 conversation turns")
	assert.Contains(t, summary, "overdue loan installment")
	assert.Contains(t, summary, "Key topics discussed include: loan, payment date.")
	assert.Contains(t, summary, "1 potential policy violation(s)")
	assert.Contains(t, summary, "Detailed analysis and risk assessment have been performed.")
}

func TestResolveSummaryKeepsGoodSummary(t *testing.T) {
	tr := sampleTranscription()
	compliance := &types.ComplianceResult{Summary: "A clean recovery call."}

	assert.Equal(t, "A clean recovery call.", resolveSummary(tr, compliance, ""))
}

func TestResolveEmotionalGraphSynthesizesFromAcoustics(t *testing.T) {
	compliance := &types.ComplianceResult{OverallSentiment: "Frustrated"}
	segments := []types.AcousticSegment{
		{Timestamp: "00:00", EnergyScore: 0.85, AcousticArousal: "High"},
		{Timestamp: "00:30", EnergyScore: 0.55, AcousticArousal: "High"},
		{Timestamp: "01:00", EnergyScore: 0.30, AcousticArousal: "Medium"},
		{Timestamp: "01:30", EnergyScore: 0.20, AcousticArousal: "Low"},
	}

	graph := resolveEmotionalGraph(compliance, segments)

	require.Len(t, graph, 4)
	assert.Equal(t, "Angry", graph[0].Tone)
	assert.Equal(t, "Frustrated", graph[1].Tone)
	assert.Equal(t, "Concerned", graph[2].Tone)
	assert.Equal(t, "Neutral", graph[3].Tone)
	assert.Equal(t, 0.85, graph[0].Score)
}

func TestResolveEmotionalGraphBackfillsArousal(t *testing.T) {
	compliance := &types.ComplianceResult{
		EmotionalGraph: []types.EmotionPoint{
			{Timestamp: "00:00", Tone: "Neutral", Score: 0.5},
			{Timestamp: "00:30", Tone: "Calm", Score: 0.4},
		},
	}
	segments := []types.AcousticSegment{
		{Timestamp: "00:00", AcousticArousal: "Medium"},
	}

	graph := resolveEmotionalGraph(compliance, segments)

	assert.Equal(t, "Medium", graph[0].AcousticArousal)
	assert.Equal(t, "Low", graph[1].AcousticArousal)
}

func TestEnrichTranscriptSpeakerSentiment(t *testing.T) {
	compliance := &types.ComplianceResult{
		CustomerSentiment: "Anxious",
		AgentSentiment:    "",
	}
	turns := []types.TranscriptTurn{
		{Speaker: "agent", Message: "Hello.", Timestamp: "00:00"},
		{Speaker: "customer", Message: "Hi.", Timestamp: "00:10"},
	}

	enriched := enrichTranscript(turns, nil, compliance)

	require.Len(t, enriched, 2)
	assert.Equal(t, "Professional", enriched[0].SpeakerSentiment)
	assert.Equal(t, "Anxious", enriched[1].SpeakerSentiment)
	assert.Equal(t, "Neutral", enriched[0].Tone)
	assert.Equal(t, 0.5, enriched[0].SentimentScore)
}

func TestBuildFlagsFallbackWhenViolationsPresent(t *testing.T) {
	res := sampleResult()
	res.Compliance.PolicyViolations = []types.PolicyViolation{
		{ClauseID: "RBI-401", Severity: "high", Description: "harassment"},
	}
	res.Compliance.ComplianceFlags = []string{}

	rep := Build(BuildInput{
		Result:           res,
		Transcription:    sampleTranscription(),
		Config:           config.Default(),
		CallTimestampUTC: "2025-06-02T10:30:00Z",
		ProcessingStart:  time.Now(),
	})

	assert.Equal(t, []string{"Policy Violation Detected"}, rep.ComplianceAudit.ComplianceFlags)
}

func TestBuildExtensionsListsConfiguredInsights(t *testing.T) {
	cfg := config.Default()
	cfg.CustomInsights = map[string]map[string]any{
		"upsell_detection": {"enabled": true},
		"churn_signal":     {"enabled": true},
	}

	ext := buildExtensions(cfg)

	assert.Equal(t, []string{"churn_signal", "upsell_detection"}, ext.CustomInsights.Configured)
	assert.NotEmpty(t, ext.CustomInsights.Note)
}

func TestWriteXLSX(t *testing.T) {
	rep := Build(BuildInput{
		Result:           sampleResult(),
		Transcription:    sampleTranscription(),
		Config:           config.Default(),
		CallTimestampUTC: "2025-06-02T10:30:00Z",
		ProcessingStart:  time.Now(),
	})

	data, err := WriteXLSX(rep)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
