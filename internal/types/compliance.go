// internal/types/compliance.go
package types

// --------------------------------------------
// ComplianceResult is the structured judgment
// produced by the LLM compliance extraction
// (or the neutral fallback when it fails).
// --------------------------------------------

type ComplianceResult struct {
	Summary         string         `json:"summary"`
	Category        string         `json:"category"`
	OverallSentiment string        `json:"overall_sentiment"`
	EmotionalTone   string         `json:"emotional_tone"`
	ToneProgression []string       `json:"tone_progression"`
	EmotionalGraph  []EmotionPoint `json:"emotional_graph"`
	EmotionTimeline []EmotionStage `json:"emotion_timeline"`

	IsWithinPolicy   bool              `json:"is_within_policy"`
	ComplianceFlags  []string          `json:"compliance_flags"`
	PolicyViolations []PolicyViolation `json:"policy_violations"`
	DetectedThreats  []string          `json:"detected_threats"`

	FraudRisk           string `json:"fraud_risk"`
	EscalationRisk      string `json:"escalation_risk"`
	UrgencyLevel        string `json:"urgency_level"`
	RiskEscalationScore float64 `json:"risk_escalation_score"`

	AgentPoliteness      string `json:"agent_politeness"`
	AgentEmpathy         string `json:"agent_empathy"`
	AgentProfessionalism string `json:"agent_professionalism"`
	AgentQualityScore    float64 `json:"agent_quality_score"`

	CustomerSentiment string `json:"customer_sentiment"`
	AgentSentiment    string `json:"agent_sentiment"`

	CallOutcomePrediction   string `json:"call_outcome_prediction"`
	RepeatComplaintDetected bool   `json:"repeat_complaint_detected"`
	FinalStatus             string `json:"final_status"`
	RecommendedAction       string `json:"recommended_action"`
}

// Conduct returns the agent conduct ratings the risk calculator consumes.
func (c *ComplianceResult) Conduct() AgentConduct {
	return AgentConduct{
		Politeness:      c.AgentPoliteness,
		Professionalism: c.AgentProfessionalism,
	}
}

// --------------------------------------------
// Transcription result (upstream collaborator)
// --------------------------------------------

type TranscriptionResult struct {
	DetectedLanguages []string         `json:"detected_languages"`
	TranscriptThreads []TranscriptTurn `json:"transcript_threads"`
	KeyTopics         []string         `json:"key_topics"`
	Entities          []Entity         `json:"entities"`
	PrimaryIntent     string           `json:"primary_intent"`
	RootCause         string           `json:"root_cause"`
	ConversationAbout string           `json:"conversation_about"`
	Category          string           `json:"category"`
}
