package analyzer

import (
	"fmt"
	"strings"

	"vigilant-go/internal/types"
)

// Fallback builds a neutral compliance result when the extraction
// fails, so the pipeline still produces a reviewable report.
func Fallback(turns []types.TranscriptTurn) *types.ComplianceResult {
	summary := "Analysis could not be completed due to a processing error. Manual review recommended."
	category := "Unclassified - Requires Review"

	if len(turns) > 0 {
		var agentMsgs, customerMsgs []string
		for _, t := range turns {
			switch strings.ToLower(t.Speaker) {
			case "agent":
				agentMsgs = append(agentMsgs, t.Message)
			case "customer":
				customerMsgs = append(customerMsgs, t.Message)
			}
		}

		if len(agentMsgs) > 0 && len(customerMsgs) > 0 {
			summary = fmt.Sprintf(
				"This is a call interaction between an agent and customer with %d conversation turns. "+
					"The conversation involves discussion between the agent and customer. "+
					"Automated compliance analysis could not be completed. Manual review is recommended to assess policy compliance, "+
					"emotional tone, and agent conduct.",
				len(turns),
			)
			category = inferCategory(append(agentMsgs, customerMsgs...))
		}
	}

	return &types.ComplianceResult{
		Summary:          summary,
		Category:         category,
		OverallSentiment: "Neutral",
		EmotionalTone:    "Neutral",
		ToneProgression:  []string{"Neutral"},
		EmotionalGraph: []types.EmotionPoint{
			{Timestamp: "00:00", Tone: "Neutral", Score: 0.5, AcousticArousal: "Low"},
		},
		EmotionTimeline: []types.EmotionStage{
			{Time: "start", Emotion: "neutral"},
			{Time: "middle", Emotion: "neutral"},
			{Time: "end", Emotion: "neutral"},
		},
		IsWithinPolicy:        true,
		ComplianceFlags:       []string{},
		PolicyViolations:      []types.PolicyViolation{},
		DetectedThreats:       []string{},
		FraudRisk:             "low",
		EscalationRisk:        "low",
		UrgencyLevel:          "low",
		RiskEscalationScore:   0,
		AgentPoliteness:       "fair",
		AgentEmpathy:          "medium",
		AgentProfessionalism:  "fair",
		AgentQualityScore:     50,
		CallOutcomePrediction: "Resolved",
		FinalStatus:           "Pending Review",
		RecommendedAction:     "Manual review required.",
	}
}

// inferCategory takes a cheap keyword guess at the call category when
// the extraction is unavailable. Check order matters: fraud language
// outranks payment language.
func inferCategory(messages []string) string {
	all := strings.ToLower(strings.Join(messages, " "))
	switch {
	case strings.Contains(all, "fraud") || strings.Contains(all, "scam"):
		return "Fraud Complaint"
	case strings.Contains(all, "payment") || strings.Contains(all, "due") || strings.Contains(all, "loan"):
		return "Debt Recovery"
	case strings.Contains(all, "dispute") || strings.Contains(all, "charge"):
		return "Payment Dispute"
	case strings.Contains(all, "complaint"):
		return "Customer Complaint"
	default:
		return "Unclassified - Requires Review"
	}
}
