package types

// --------------------------------------------
// Transcript and acoustic inputs
// --------------------------------------------

type TranscriptTurn struct {
	Speaker   string `json:"speaker"` // "agent" or "customer"
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // MM:SS
}

type AcousticSegment struct {
	Timestamp       string  `json:"timestamp"`
	EnergyScore     float64 `json:"energy_score"`
	PitchHz         float64 `json:"pitch_hz"`
	ZCR             float64 `json:"zcr"`
	AcousticArousal string  `json:"acoustic_arousal"` // Low / Medium / High
}

// --------------------------------------------
// Policy clauses and violations
// --------------------------------------------

type PolicyClause struct {
	ClauseID    string `json:"clause_id"`
	RuleName    string `json:"rule_name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type PolicyViolation struct {
	ClauseID      string `json:"clause_id"`
	RuleName      string `json:"rule_name"`
	Description   string `json:"description"`
	Timestamp     string `json:"timestamp"`
	EvidenceQuote string `json:"evidence_quote"`
	Severity      string `json:"severity"` // critical / high / medium / low
}

type ProhibitedPhraseHit struct {
	Timestamp        string `json:"timestamp"`
	ProhibitedPhrase string `json:"prohibited_phrase"`
	Context          string `json:"context"`
	Severity         string `json:"severity"`
}

// --------------------------------------------
// Emotional analysis
// --------------------------------------------

type EmotionPoint struct {
	Timestamp       string  `json:"timestamp"`
	Tone            string  `json:"tone"`
	Score           float64 `json:"score"`
	AcousticArousal string  `json:"acoustic_arousal"`
}

type EmotionStage struct {
	Time    string `json:"time"` // start / middle / end
	Emotion string `json:"emotion"`
}

// --------------------------------------------
// Named entities extracted upstream
// --------------------------------------------

type Entity struct {
	Text string `json:"text"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

// --------------------------------------------
// Agent conduct ratings (free-text ordinals)
// --------------------------------------------

type AgentConduct struct {
	Politeness      string `json:"politeness"`      // excellent..unacceptable
	Professionalism string `json:"professionalism"` // excellent..unacceptable
}

// --------------------------------------------
// Time violation check result
// --------------------------------------------

type TimeViolationResult struct {
	Violation   bool   `json:"violation"`
	ISTTime     string `json:"ist_time"`
	RuleName    string `json:"rule_name,omitempty"`
	Description string `json:"description,omitempty"`
}
