// Package risk implements the multi-factor comprehensive risk score:
// six additive components, each independently capped, summed and clamped
// to [0,100], with risk-level bucketing and an escalation-action
// recommendation.
package risk

import (
	"fmt"
	"strconv"
	"strings"

	"vigilant-go/internal/config"
	"vigilant-go/internal/types"
)

// Level buckets the composite score.
type Level string

const (
	LevelMinimal  Level = "minimal"  // 0-20
	LevelLow      Level = "low"      // 21-40
	LevelModerate Level = "moderate" // 41-60
	LevelHigh     Level = "high"     // 61-80
	LevelCritical Level = "critical" // 81-100
)

// Category returns the upper-case identifier used in report output.
func (l Level) Category() string { return strings.ToUpper(string(l)) }

// Action is the recommended escalation routing for a call.
type Action string

const (
	ActionNone                  Action = "No escalation required"
	ActionSupervisorReview      Action = "Supervisor review recommended"
	ActionManagerReview         Action = "Manager review required"
	ActionComplianceTeam        Action = "Escalate to compliance team"
	ActionLegalReview           Action = "Legal team review required"
	ActionImmediateIntervention Action = "Immediate intervention required"
	ActionExecutiveAttention    Action = "Executive level attention needed"
)

// Component weights.
const (
	criticalViolation = 30
	highViolation     = 20
	mediumViolation   = 10
	lowViolation      = 5

	threateningTone = 25
	aggressiveTone  = 20
	distressedTone  = 15
	angryTone       = 15
	frustratedTone  = 10
	anxiousTone     = 8

	explicitThreat = 25
	impliedThreat  = 15
	intimidation   = 10

	poorConduct         = 15
	unacceptableConduct = 25
	unprofessional      = 10

	timeViolationScore = 15
	prohibitedPhrase   = 30
)

// Per-component caps.
const (
	violationCap  = 40
	emotionCap    = 25
	threatCap     = 25
	conductCap    = 25
	prohibitedCap = 60
)

// Breakdown holds the per-component sub-scores. Their sum equals the
// total score before the final 0-100 clamp.
type Breakdown struct {
	PolicyViolations   int `json:"policy_violations"`
	EmotionalIntensity int `json:"emotional_intensity"`
	ThreatLevel        int `json:"threat_level"`
	AgentConduct       int `json:"agent_conduct"`
	TimeViolation      int `json:"time_violation"`
	ProhibitedPhrases  int `json:"prohibited_phrases"`
}

// Sum returns the uncapped total of all components.
func (b Breakdown) Sum() int {
	return b.PolicyViolations + b.EmotionalIntensity + b.ThreatLevel +
		b.AgentConduct + b.TimeViolation + b.ProhibitedPhrases
}

// Assessment is the complete risk scoring result for one call.
type Assessment struct {
	TotalScore              float64   `json:"total_score"`
	RiskLevel               Level     `json:"risk_level"`
	RiskCategory            string    `json:"risk_category"`
	Breakdown               Breakdown `json:"breakdown"`
	EscalationAction        Action    `json:"escalation_action"`
	Justification           string    `json:"justification"`
	RequiresImmediateAction bool      `json:"requires_immediate_action"`
	AutoEscalate            bool      `json:"auto_escalate"`
}

// Signals bundles the upstream inputs to the calculator.
type Signals struct {
	Violations            []types.PolicyViolation
	EmotionalTone         string
	DetectedThreats       []string
	Conduct               types.AgentConduct
	TimeViolation         bool
	ProhibitedPhraseCount int
	HighArousalCount      int
	Config                *config.ClientConfig // nil means built-in defaults
}

// CalculateComprehensiveScore computes the composite risk assessment.
// It never fails: unknown or missing inputs contribute zero.
func CalculateComprehensiveScore(s Signals) Assessment {
	b := Breakdown{
		PolicyViolations:   violationScore(s.Violations),
		EmotionalIntensity: emotionScore(s.EmotionalTone, s.HighArousalCount),
		ThreatLevel:        threatScore(s.DetectedThreats),
		AgentConduct:       conductScore(s.Conduct),
		ProhibitedPhrases:  capInt(s.ProhibitedPhraseCount*prohibitedPhrase, prohibitedCap),
	}
	if s.TimeViolation {
		b.TimeViolation = timeViolationScore
	}

	score := float64(clampInt(b.Sum(), 0, 100))
	level := DetermineLevel(score)

	return Assessment{
		TotalScore:              score,
		RiskLevel:               level,
		RiskCategory:            level.Category(),
		Breakdown:               b,
		EscalationAction:        determineAction(score, s.Violations, s.ProhibitedPhraseCount),
		Justification:           justification(score, b, s.Violations, s.DetectedThreats, s.ProhibitedPhraseCount),
		RequiresImmediateAction: score >= 80,
		AutoEscalate:            shouldAutoEscalate(score, s.ProhibitedPhraseCount, s.Config),
	}
}

func violationScore(violations []types.PolicyViolation) int {
	score := 0
	for _, v := range violations {
		switch types.SeverityOf(v) {
		case types.SeverityCritical:
			score += criticalViolation
		case types.SeverityHigh:
			score += highViolation
		case types.SeverityMedium:
			score += mediumViolation
		default:
			score += lowViolation
		}
	}
	return capInt(score, violationCap)
}

// emotionScore: first matching tone keyword wins; order matters
// (threatening before aggressive).
func emotionScore(tone string, arousalHighCount int) int {
	lower := strings.ToLower(tone)
	base := 0
	switch {
	case strings.Contains(lower, "threatening"):
		base = threateningTone
	case strings.Contains(lower, "aggressive"):
		base = aggressiveTone
	case strings.Contains(lower, "distressed"):
		base = distressedTone
	case strings.Contains(lower, "angry"):
		base = angryTone
	case strings.Contains(lower, "frustrated"):
		base = frustratedTone
	case strings.Contains(lower, "anxious"), strings.Contains(lower, "panicked"):
		base = anxiousTone
	}
	arousalBonus := capInt(arousalHighCount*2, 10)
	return capInt(base+arousalBonus, emotionCap)
}

func threatScore(threats []string) int {
	if len(threats) == 0 {
		return 0
	}
	score := 0
	for _, threat := range threats {
		lower := strings.ToLower(threat)
		switch {
		case containsAny(lower, "will", "going to", "must", "force"):
			score += explicitThreat
		case containsAny(lower, "might", "could", "may"):
			score += impliedThreat
		default:
			score += intimidation
		}
	}
	return capInt(score, threatCap)
}

func conductScore(conduct types.AgentConduct) int {
	score := 0
	politeness := strings.ToLower(conduct.Politeness)
	professionalism := strings.ToLower(conduct.Professionalism)

	if strings.Contains(politeness, "unacceptable") {
		score += unacceptableConduct
	} else if strings.Contains(politeness, "poor") {
		score += poorConduct
	}
	if strings.Contains(professionalism, "unacceptable") {
		score += unacceptableConduct
	} else if strings.Contains(professionalism, "poor") {
		score += unprofessional
	}
	return capInt(score, conductCap)
}

// DetermineLevel buckets a 0-100 score into a risk level.
func DetermineLevel(score float64) Level {
	switch {
	case score >= 81:
		return LevelCritical
	case score >= 61:
		return LevelHigh
	case score >= 41:
		return LevelModerate
	case score >= 21:
		return LevelLow
	default:
		return LevelMinimal
	}
}

// determineAction: prohibited phrases and critical violations override
// every score threshold.
func determineAction(score float64, violations []types.PolicyViolation, prohibitedCount int) Action {
	if prohibitedCount > 0 {
		return ActionImmediateIntervention
	}
	if types.HasSeverity(violations, types.SeverityCritical) {
		return ActionImmediateIntervention
	}
	switch {
	case score >= 90:
		return ActionExecutiveAttention
	case score >= 80:
		return ActionLegalReview
	case score >= 65:
		return ActionComplianceTeam
	case score >= 50:
		return ActionManagerReview
	case score >= 35:
		return ActionSupervisorReview
	default:
		return ActionNone
	}
}

func justification(score float64, b Breakdown, violations []types.PolicyViolation, threats []string, prohibitedCount int) string {
	var parts []string

	if prohibitedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d prohibited phrase(s) detected (automatic critical risk)", prohibitedCount))
	}
	if len(violations) > 0 {
		if critical := types.CountSeverity(violations, types.SeverityCritical); critical > 0 {
			parts = append(parts, fmt.Sprintf("%d critical policy violation(s)", critical))
		}
		if high := types.CountSeverity(violations, types.SeverityHigh); high > 0 {
			parts = append(parts, fmt.Sprintf("%d high-severity violation(s)", high))
		}
	}
	if len(threats) > 0 {
		parts = append(parts, fmt.Sprintf("%d threat(s) detected", len(threats)))
	}
	if b.EmotionalIntensity >= 15 {
		parts = append(parts, "high emotional intensity")
	}
	if b.AgentConduct >= 15 {
		parts = append(parts, "poor agent conduct")
	}
	if b.TimeViolation > 0 {
		parts = append(parts, "call timing violation")
	}

	if len(parts) == 0 {
		return "Low risk call with no major compliance concerns"
	}
	return fmt.Sprintf("Risk score %s/100 due to: %s",
		strconv.FormatFloat(score, 'f', -1, 64), strings.Join(parts, ", "))
}

func shouldAutoEscalate(score float64, prohibitedCount int, cfg *config.ClientConfig) bool {
	if cfg != nil {
		if !cfg.AutoEscalateOnCritical {
			return false
		}
		threshold := cfg.RiskScoring.CriticalThreshold
		if threshold == 0 {
			threshold = 80
		}
		return score >= float64(threshold) || prohibitedCount > 0
	}
	return score >= 80 || prohibitedCount > 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func capInt(v, max int) int {
	if v > max {
		return max
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
