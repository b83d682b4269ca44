package analyzer

import (
	"fmt"
	"strings"

	"vigilant-go/internal/config"
	"vigilant-go/internal/types"
)

// PromptInputs carries everything the compliance reasoner needs to see.
type PromptInputs struct {
	TranscriptTurns  []types.TranscriptTurn
	AcousticSegments []types.AcousticSegment
	Clauses          []types.PolicyClause
	Config           *config.ClientConfig
	CallTimestampUTC string
	TimeViolation    types.TimeViolationResult
	ProhibitedHits   []types.ProhibitedPhraseHit
}

const promptTemplate = `You are a senior RBI (Reserve Bank of India) compliance auditor AI called "Vigilant".
You specialize in auditing debt recovery calls for policy violations, emotional tone,
and agent conduct.

You are given:
1. TRANSCRIPT: A diarized call transcript (agent vs. customer turns with timestamps)
2. ACOUSTIC DATA: Per-segment audio emotion data (energy, pitch, arousal level)
3. POLICY CLAUSES: Relevant RBI/NBFC policy clauses retrieved from compliance database
4. CLIENT CONFIG: Active risk triggers and rules for this bank
5. CALL TIMESTAMP: When this call was placed

---

TRANSCRIPT:
%s

---

ACOUSTIC DATA:
%s

---

RELEVANT POLICY CLAUSES:
%s

---

CLIENT CONFIG:
%s

---

CALL TIMESTAMP (UTC): %s
CALL TIMESTAMP (IST): %s
TIME VIOLATION DETECTED: %s
%s

---

Your task: Produce a comprehensive compliance audit. Return ONLY valid JSON
(no markdown, no explanation).

The JSON must have EXACTLY these top-level keys: summary, category,
overall_sentiment, emotional_tone, tone_progression, emotional_graph,
emotion_timeline, is_within_policy, compliance_flags, policy_violations,
detected_threats, fraud_risk, escalation_risk, urgency_level,
risk_escalation_score, agent_politeness, agent_empathy,
agent_professionalism, agent_quality_score, customer_sentiment,
agent_sentiment, call_outcome_prediction, repeat_complaint_detected,
final_status, recommended_action.

Rules:
- overall_sentiment options: "Positive", "Neutral", "Negative", "Frustrated", "Anxious", "Aggressive", "Distressed", "High Tension"
- emotional_tone options: "Calm", "Neutral", "Concerned", "Frustrated", "Angry", "Distressed", "Aggressive", "Threatening", "Anxious", "Panicked"
- Use acoustic arousal from ACOUSTIC DATA to validate and refine the sentiment assessment
- emotional_graph entries are {"timestamp": "MM:SS", "tone": ..., "score": 0.0-1.0, "acoustic_arousal": "Low|Medium|High"}, one entry per ~30 seconds of conversation
- emotion_timeline covers start (opening), middle (main issue discussion), end (resolution/outcome)
- policy_violations entries are {"clause_id", "rule_name", "description", "timestamp", "evidence_quote", "severity"} and must cite real clause_ids from the POLICY CLAUSES section provided
- If time violation was detected, add it as a policy_violation with clause_id INTERNAL-TIME-01
- risk_escalation_score: 0-100 integer reflecting combined risk (consider violations, arousal, threats)
- agent_politeness and agent_professionalism: excellent|good|fair|poor|unacceptable; agent_empathy: high|medium|low|none
- agent_quality_score: 0-100 (100 = perfect agent, 0 = completely non-compliant)
- Be thorough: a missed violation is worse than a false positive in compliance auditing
- evidence_quote must be the exact agent utterance from the transcript
`

// BuildPrompt assembles the full compliance reasoning prompt.
func BuildPrompt(in PromptInputs) string {
	timeViolation := "NO"
	timeDetail := ""
	if in.TimeViolation.Violation {
		timeViolation = "YES"
		timeDetail = "TIME VIOLATION DETAIL: " + in.TimeViolation.Description
	}

	istTime := in.TimeViolation.ISTTime
	if istTime == "" {
		istTime = "unknown"
	}

	return fmt.Sprintf(promptTemplate,
		formatTranscript(in.TranscriptTurns),
		formatAcoustic(in.AcousticSegments),
		formatClauses(in.Clauses),
		formatConfigContext(in.Config)+formatProhibitedContext(in.ProhibitedHits),
		in.CallTimestampUTC,
		istTime,
		timeViolation,
		timeDetail,
	)
}

func formatTranscript(turns []types.TranscriptTurn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := strings.ToUpper(t.Speaker)
		if speaker == "" {
			speaker = "UNKNOWN"
		}
		ts := t.Timestamp
		if ts == "" {
			ts = "??:??"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", ts, speaker, t.Message))
	}
	return strings.Join(lines, "\n")
}

func formatAcoustic(segments []types.AcousticSegment) string {
	if len(segments) == 0 {
		return "No acoustic data available."
	}
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, fmt.Sprintf(
			"[%s] Energy=%.2f Pitch=%.0fHz ZCR=%.4f Arousal=%s",
			seg.Timestamp, seg.EnergyScore, seg.PitchHz, seg.ZCR, seg.AcousticArousal,
		))
	}
	return strings.Join(lines, "\n")
}

func formatClauses(clauses []types.PolicyClause) string {
	if len(clauses) == 0 {
		return "No specific clauses retrieved. Apply general RBI recovery guidelines."
	}
	lines := make([]string, 0, len(clauses))
	for _, c := range clauses {
		desc := c.Description
		if len(desc) > 200 {
			desc = desc[:200]
		}
		lines = append(lines, fmt.Sprintf("[%s] %s\n  %s", c.ClauseID, c.RuleName, desc))
	}
	return strings.Join(lines, "\n")
}

func formatConfigContext(cfg *config.ClientConfig) string {
	if cfg == nil {
		return "No client configuration supplied. Apply default RBI recovery guidelines."
	}

	lines := []string{
		"ORGANIZATION: " + orNA(cfg.OrganizationName),
		"BUSINESS DOMAIN: " + orNA(cfg.BusinessDomain),
		"POLICY SET: " + orNA(cfg.ActivePolicySet),
		"",
		"MONITORED PRODUCTS: " + strings.Join(cfg.MonitoredProducts, ", "),
		"",
		"RISK TRIGGERS (these are compliance violations):",
	}
	for _, trigger := range cfg.RiskTriggers {
		lines = append(lines, "  - "+trigger)
	}

	if len(cfg.CustomRules) > 0 {
		lines = append(lines, "", "CUSTOM RULES (critical for compliance):")
		for _, rule := range cfg.CustomRules {
			severity := rule.Severity
			if severity == "" {
				severity = "high"
			}
			lines = append(lines,
				fmt.Sprintf("  - [%s] %s (Severity: %s)", orNA(rule.RuleID), orNA(rule.RuleName), severity),
				"    "+orNA(rule.Description),
			)
		}
	}

	if len(cfg.ProhibitedPhrases) > 0 {
		lines = append(lines, "", "PROHIBITED PHRASES (automatic violations if detected):")
		shown := cfg.ProhibitedPhrases
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for _, phrase := range shown {
			lines = append(lines, fmt.Sprintf("  - %q", phrase))
		}
		if extra := len(cfg.ProhibitedPhrases) - 10; extra > 0 {
			lines = append(lines, fmt.Sprintf("  ... and %d more", extra))
		}
	}

	if len(cfg.AgentQualityThresholds) > 0 {
		lines = append(lines, "",
			"AGENT QUALITY REQUIREMENTS:",
			fmt.Sprintf("  - Minimum Politeness: %d", thresholdOr(cfg.AgentQualityThresholds, "minimum_politeness_score", 60)),
			fmt.Sprintf("  - Minimum Empathy: %d", thresholdOr(cfg.AgentQualityThresholds, "minimum_empathy_score", 50)),
			fmt.Sprintf("  - Minimum Professionalism: %d", thresholdOr(cfg.AgentQualityThresholds, "minimum_professionalism_score", 70)),
			fmt.Sprintf("  - Minimum Overall: %d", thresholdOr(cfg.AgentQualityThresholds, "minimum_overall_score", 60)),
		)
	}

	return strings.Join(lines, "\n")
}

func formatProhibitedContext(hits []types.ProhibitedPhraseHit) string {
	if len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nPROHIBITED PHRASES DETECTED (automatic critical violations):\n")
	for _, hit := range hits {
		context := hit.Context
		if len(context) > 100 {
			context = context[:100]
		}
		fmt.Fprintf(&b, "  - [%s] %q\n    Context: %q...\n", hit.Timestamp, hit.ProhibitedPhrase, context)
	}
	return b.String()
}

func thresholdOr(m map[string]int, key string, fallback int) int {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
