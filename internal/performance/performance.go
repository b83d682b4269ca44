// Package performance scores agent conduct across six weighted
// dimensions plus penalties, producing a 0-100 quality score with
// strengths, improvement areas, training priority and coaching flags.
package performance

import (
	"fmt"
	"strings"

	"vigilant-go/internal/types"
)

// Level buckets the quality score.
type Level string

const (
	LevelExceptional      Level = "exceptional"       // 90-100
	LevelExcellent        Level = "excellent"         // 80-89
	LevelGood             Level = "good"              // 70-79
	LevelSatisfactory     Level = "satisfactory"      // 60-69
	LevelNeedsImprovement Level = "needs_improvement" // 40-59
	LevelPoor             Level = "poor"              // 20-39
	LevelUnacceptable     Level = "unacceptable"      // 0-19
)

// Category returns the upper-case identifier used in report output.
func (l Level) Category() string { return strings.ToUpper(string(l)) }

// TrainingPriority ranks how urgently the agent needs training.
type TrainingPriority string

const (
	PriorityCritical TrainingPriority = "critical"
	PriorityHigh     TrainingPriority = "high"
	PriorityMedium   TrainingPriority = "medium"
	PriorityLow      TrainingPriority = "low"
	PriorityNone     TrainingPriority = "none"
)

// ImprovementArea is the closed set of coaching focus areas.
type ImprovementArea string

const (
	CommunicationClarity ImprovementArea = "Communication Clarity"
	ActiveListening      ImprovementArea = "Active Listening"
	EmpathyBuilding      ImprovementArea = "Empathy and Customer Understanding"
	PolitenessCourtesy   ImprovementArea = "Politeness and Courtesy"
	Professionalism      ImprovementArea = "Professional Demeanor"
	ProblemSolving       ImprovementArea = "Problem Resolution Skills"
	ComplianceTraining   ImprovementArea = "Compliance and Policy Adherence"
	EmotionalRegulation  ImprovementArea = "Emotional Control and Composure"
	LanguageUse          ImprovementArea = "Appropriate Language Use"
	ConflictResolution   ImprovementArea = "Conflict De-escalation"
	ProductKnowledge     ImprovementArea = "Product/Service Knowledge"
	CallControl          ImprovementArea = "Call Management and Control"
)

// Component weights.
const (
	excellentPoliteness = 12
	goodPoliteness      = 9
	fairPoliteness      = 6
	poorPoliteness      = 2

	highEmpathy   = 13
	mediumEmpathy = 8
	lowEmpathy    = 4

	excellentProfessionalism = 20
	goodProfessionalism      = 16
	fairProfessionalism      = 12
	poorProfessionalism      = 6

	resolvedEffectively = 15
	partialResolution   = 10
	attemptedResolution = 6
	noResolution        = 0

	fullCompliance  = 10
	minorViolations = 5
	majorViolations = 0

	prohibitedPhrasePenalty = -15
	threatMadePenalty       = -20
	harassmentPenalty       = -25
	timeViolationPenalty    = -5
)

// Breakdown holds the per-component sub-scores; penalties may be negative.
type Breakdown struct {
	CommunicationSkills int `json:"communication_skills"`
	Politeness          int `json:"politeness"`
	Empathy             int `json:"empathy"`
	Professionalism     int `json:"professionalism"`
	ProblemResolution   int `json:"problem_resolution"`
	ComplianceAdherence int `json:"compliance_adherence"`
	Penalties           int `json:"penalties"`
}

// Sum returns the unclamped total of all components.
func (b Breakdown) Sum() int {
	return b.CommunicationSkills + b.Politeness + b.Empathy +
		b.Professionalism + b.ProblemResolution + b.ComplianceAdherence +
		b.Penalties
}

// Assessment is the complete agent quality result for one call.
type Assessment struct {
	TotalScore                 float64           `json:"total_score"`
	PerformanceLevel           Level             `json:"performance_level"`
	PerformanceCategory        string            `json:"performance_category"`
	Breakdown                  Breakdown         `json:"breakdown"`
	Strengths                  []string          `json:"strengths"`
	Weaknesses                 []ImprovementArea `json:"weaknesses"`
	TrainingPriority           TrainingPriority  `json:"training_priority"`
	TrainingRecommendations    []string          `json:"training_recommendations"`
	SpecificFeedback           string            `json:"specific_feedback"`
	RequiresCoaching           bool              `json:"requires_coaching"`
	RequiresDisciplinaryAction bool              `json:"requires_disciplinary_action"`
	CommendationWorthy         bool              `json:"commendation_worthy"`
}

// Inputs bundles the upstream signals for the performance calculator.
type Inputs struct {
	Politeness            string
	Empathy               string
	Professionalism       string
	Violations            []types.PolicyViolation
	DetectedThreats       []string
	CallOutcome           string
	ProhibitedPhraseCount int
	TimeViolation         bool
	TranscriptTurns       []types.TranscriptTurn
	EmotionalTone         string
}

// CalculatePerformanceScore computes the full agent quality assessment.
// It never fails: unknown labels fall through to the lowest bucket.
func CalculatePerformanceScore(in Inputs) Assessment {
	b := Breakdown{
		CommunicationSkills: communicationScore(in.TranscriptTurns, in.EmotionalTone),
		Politeness:          politenessScore(in.Politeness),
		Empathy:             empathyScore(in.Empathy),
		Professionalism:     professionalismScore(in.Professionalism),
		ProblemResolution:   resolutionScore(in.CallOutcome, in.Violations),
		ComplianceAdherence: complianceScore(in.Violations, in.ProhibitedPhraseCount),
		Penalties:           penalties(in.ProhibitedPhraseCount, in.DetectedThreats, in.TimeViolation, in.Violations),
	}

	score := float64(clampInt(b.Sum(), 0, 100))
	level := DetermineLevel(score)

	strengths := identifyStrengths(b, in.Politeness, in.Empathy, in.Professionalism)
	weaknesses := identifyWeaknesses(b, in.Politeness, in.Empathy, in.Professionalism, in.Violations, in.CallOutcome)

	return Assessment{
		TotalScore:                 score,
		PerformanceLevel:           level,
		PerformanceCategory:        level.Category(),
		Breakdown:                  b,
		Strengths:                  strengths,
		Weaknesses:                 weaknesses,
		TrainingPriority:           trainingPriority(score, in.ProhibitedPhraseCount, in.Violations),
		TrainingRecommendations:    trainingRecommendations(weaknesses, in.Violations, in.ProhibitedPhraseCount),
		SpecificFeedback:           specificFeedback(score, strengths, weaknesses, in.Violations),
		RequiresCoaching:           score < 70,
		RequiresDisciplinaryAction: score < 40 || in.ProhibitedPhraseCount > 0,
		CommendationWorthy:         score >= 90,
	}
}

// communicationScore starts from a fair baseline and rewards message
// detail and professional phrasing; an aggressive tone costs 10.
func communicationScore(turns []types.TranscriptTurn, emotionalTone string) int {
	if len(turns) == 0 {
		return 18
	}

	var agentTurns []types.TranscriptTurn
	for _, t := range turns {
		if strings.EqualFold(t.Speaker, "agent") {
			agentTurns = append(agentTurns, t)
		}
	}
	if len(agentTurns) == 0 {
		return 18
	}

	score := 18

	totalLen := 0
	for _, t := range agentTurns {
		totalLen += len(t.Message)
	}
	avgLen := float64(totalLen) / float64(len(agentTurns))
	if avgLen > 50 {
		score += 6
	} else if avgLen > 30 {
		score += 3
	}

	professionalPhrases := []string{"understand", "assist", "help", "appreciate", "apologies"}
	hits := 0
	for _, t := range agentTurns {
		msg := strings.ToLower(t.Message)
		for _, phrase := range professionalPhrases {
			if strings.Contains(msg, phrase) {
				hits++
			}
		}
	}
	if hits >= 3 {
		score += 6
	} else if hits >= 1 {
		score += 3
	}

	toneLower := strings.ToLower(emotionalTone)
	if strings.Contains(toneLower, "aggressive") || strings.Contains(toneLower, "threatening") {
		score -= 10
	}

	return clampInt(score, 0, 30)
}

func politenessScore(politeness string) int {
	lower := strings.ToLower(politeness)
	switch {
	case strings.Contains(lower, "excellent"):
		return excellentPoliteness
	case strings.Contains(lower, "good"):
		return goodPoliteness
	case strings.Contains(lower, "fair"):
		return fairPoliteness
	case strings.Contains(lower, "poor"):
		return poorPoliteness
	default: // unacceptable
		return 0
	}
}

func empathyScore(empathy string) int {
	lower := strings.ToLower(empathy)
	switch {
	case strings.Contains(lower, "high"):
		return highEmpathy
	case strings.Contains(lower, "medium"):
		return mediumEmpathy
	case strings.Contains(lower, "low"):
		return lowEmpathy
	default: // none
		return 0
	}
}

func professionalismScore(professionalism string) int {
	lower := strings.ToLower(professionalism)
	switch {
	case strings.Contains(lower, "excellent"):
		return excellentProfessionalism
	case strings.Contains(lower, "good"):
		return goodProfessionalism
	case strings.Contains(lower, "fair"):
		return fairProfessionalism
	case strings.Contains(lower, "poor"):
		return poorProfessionalism
	default: // unacceptable
		return 0
	}
}

func resolutionScore(callOutcome string, violations []types.PolicyViolation) int {
	lower := strings.ToLower(callOutcome)

	switch {
	case containsAny(lower, "resolved", "satisfied", "customer satisfied"):
		return resolvedEffectively
	case containsAny(lower, "callback", "pending", "follow-up", "transferred"):
		return partialResolution
	case containsAny(lower, "escalated", "unresolved"):
		if types.HasSeverity(violations, types.SeverityCritical) || types.HasSeverity(violations, types.SeverityHigh) {
			return noResolution
		}
		return attemptedResolution
	case containsAny(lower, "dropped", "legal", "dissatisfied"):
		return noResolution
	}
	return attemptedResolution
}

func complianceScore(violations []types.PolicyViolation, prohibitedCount int) int {
	if prohibitedCount > 0 {
		return majorViolations
	}
	if types.HasSeverity(violations, types.SeverityCritical) {
		return majorViolations
	}
	if types.HasSeverity(violations, types.SeverityHigh) || len(violations) >= 3 {
		return minorViolations
	}
	if len(violations) > 0 {
		return minorViolations
	}
	return fullCompliance
}

// penalties computes the negative modifiers. The threat and harassment
// penalties each apply at most once regardless of how many violations match.
func penalties(prohibitedCount int, threats []string, timeViolation bool, violations []types.PolicyViolation) int {
	penalty := 0

	if prohibitedCount > 0 {
		n := prohibitedCount
		if n > 2 {
			n = 2
		}
		penalty += prohibitedPhrasePenalty * n
	}

	if len(threats) > 0 {
		for _, v := range violations {
			if strings.Contains(strings.ToLower(v.Description), "threat") {
				penalty += threatMadePenalty
				break
			}
		}
	}

	harassmentKeywords := []string{"harassment", "intimidation", "coercion"}
	for _, v := range violations {
		if containsAny(strings.ToLower(v.Description), harassmentKeywords...) {
			penalty += harassmentPenalty
			break
		}
	}

	if timeViolation {
		penalty += timeViolationPenalty
	}

	return penalty
}

// DetermineLevel buckets a 0-100 quality score.
func DetermineLevel(score float64) Level {
	switch {
	case score >= 90:
		return LevelExceptional
	case score >= 80:
		return LevelExcellent
	case score >= 70:
		return LevelGood
	case score >= 60:
		return LevelSatisfactory
	case score >= 40:
		return LevelNeedsImprovement
	case score >= 20:
		return LevelPoor
	default:
		return LevelUnacceptable
	}
}

func identifyStrengths(b Breakdown, politeness, empathy, professionalism string) []string {
	var strengths []string

	if b.CommunicationSkills >= 24 {
		strengths = append(strengths, "Excellent communication clarity and articulation")
	}
	if ratingIn(politeness, "excellent", "good") {
		strengths = append(strengths, "Strong politeness and courtesy")
	}
	if strings.EqualFold(empathy, "high") {
		strengths = append(strengths, "High empathy and customer understanding")
	}
	if ratingIn(professionalism, "excellent", "good") {
		strengths = append(strengths, "Professional demeanor and conduct")
	}
	if b.ProblemResolution >= 12 {
		strengths = append(strengths, "Effective problem resolution skills")
	}
	if b.ComplianceAdherence == fullCompliance {
		strengths = append(strengths, "Full compliance with policies and regulations")
	}
	if b.Penalties == 0 {
		strengths = append(strengths, "No policy violations or inappropriate conduct")
	}

	if len(strengths) == 0 {
		strengths = append(strengths, "Completed the call interaction")
	}
	return strengths
}

func identifyWeaknesses(
	b Breakdown,
	politeness, empathy, professionalism string,
	violations []types.PolicyViolation,
	callOutcome string,
) []ImprovementArea {
	var weaknesses []ImprovementArea
	add := func(area ImprovementArea) {
		for _, w := range weaknesses {
			if w == area {
				return
			}
		}
		weaknesses = append(weaknesses, area)
	}

	if b.CommunicationSkills < 18 {
		add(CommunicationClarity)
		add(ActiveListening)
	}
	if ratingIn(politeness, "poor", "unacceptable") {
		add(PolitenessCourtesy)
	}
	if ratingIn(empathy, "low", "none") {
		add(EmpathyBuilding)
	}
	if ratingIn(professionalism, "poor", "unacceptable") {
		add(Professionalism)
	}
	if b.ProblemResolution < 10 {
		add(ProblemSolving)
	}
	if b.ComplianceAdherence < fullCompliance {
		add(ComplianceTraining)
	}

	for _, v := range violations {
		desc := strings.ToLower(v.Description)
		if strings.Contains(desc, "language") || strings.Contains(desc, "inappropriate") {
			add(LanguageUse)
		}
		if strings.Contains(desc, "threat") || strings.Contains(desc, "aggressive") {
			add(ConflictResolution)
			add(EmotionalRegulation)
		}
	}

	outcomeLower := strings.ToLower(callOutcome)
	if strings.Contains(outcomeLower, "dissatisfied") || strings.Contains(outcomeLower, "dropped") {
		add(ConflictResolution)
	}

	return weaknesses
}

func trainingPriority(score float64, prohibitedCount int, violations []types.PolicyViolation) TrainingPriority {
	if prohibitedCount > 0 {
		return PriorityCritical
	}
	if types.HasSeverity(violations, types.SeverityCritical) {
		return PriorityCritical
	}
	switch {
	case score < 40:
		return PriorityCritical
	case score < 60:
		return PriorityHigh
	case score < 70:
		return PriorityMedium
	case score < 80:
		return PriorityLow
	default:
		return PriorityNone
	}
}

var trainingMap = map[ImprovementArea]string{
	CommunicationClarity: "Communication skills workshop: Clear articulation and message structuring",
	ActiveListening:      "Active listening training: Techniques for better customer understanding",
	EmpathyBuilding:      "Empathy and emotional intelligence training",
	PolitenessCourtesy:   "Customer service excellence: Politeness and professional courtesy",
	Professionalism:      "Professional conduct and business etiquette training",
	ProblemSolving:       "Problem-solving and resolution skills workshop",
	ComplianceTraining:   "Compliance and regulatory adherence certification course",
	EmotionalRegulation:  "Stress management and emotional control training",
	LanguageUse:          "Appropriate language and tone training for customer interactions",
	ConflictResolution:   "Conflict de-escalation and resolution techniques",
	ProductKnowledge:     "Product/service knowledge enhancement sessions",
	CallControl:          "Call management and control strategies workshop",
}

// trainingRecommendations puts critical template lines first, then one
// line per distinct weakness, truncated to five total.
func trainingRecommendations(weaknesses []ImprovementArea, violations []types.PolicyViolation, prohibitedCount int) []string {
	var recs []string

	if prohibitedCount > 0 {
		recs = append(recs,
			"CRITICAL: Immediate training on prohibited language and appropriate communication",
			"CRITICAL: Review and sign-off on company communication guidelines",
		)
	}
	if types.HasSeverity(violations, types.SeverityCritical) {
		recs = append(recs, "CRITICAL: Mandatory compliance retraining on policy violations committed")
	}

	for _, w := range weaknesses {
		if line, ok := trainingMap[w]; ok {
			recs = append(recs, line)
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "Continue current performance level with periodic refresher training")
	}
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}

func specificFeedback(score float64, strengths []string, weaknesses []ImprovementArea, violations []types.PolicyViolation) string {
	var parts []string

	switch {
	case score >= 90:
		parts = append(parts, "Outstanding performance demonstrating exceptional customer service and compliance.")
	case score >= 80:
		parts = append(parts, "Excellent performance with strong customer service and professional conduct.")
	case score >= 70:
		parts = append(parts, "Good performance overall with room for skill enhancement.")
	case score >= 60:
		parts = append(parts, "Satisfactory performance but requires focused improvement in key areas.")
	case score >= 40:
		parts = append(parts, "Performance needs significant improvement. Coaching required.")
	default:
		parts = append(parts, "Unacceptable performance. Immediate intervention and retraining necessary.")
	}

	if len(strengths) > 0 {
		parts = append(parts, fmt.Sprintf("Key strengths: %s", strings.Join(firstN(strengths, 3), ", ")))
	}
	if len(weaknesses) > 0 {
		names := make([]string, 0, 3)
		for _, w := range weaknesses {
			names = append(names, string(w))
			if len(names) == 3 {
				break
			}
		}
		parts = append(parts, fmt.Sprintf("Focus areas for improvement: %s", strings.Join(names, ", ")))
	}

	if len(violations) > 0 {
		critical := types.CountSeverity(violations, types.SeverityCritical)
		high := types.CountSeverity(violations, types.SeverityHigh)
		if critical > 0 {
			parts = append(parts, fmt.Sprintf("%d critical policy violation(s) require immediate corrective action.", critical))
		} else if high > 0 {
			parts = append(parts, fmt.Sprintf("%d high-severity violation(s) need to be addressed promptly.", high))
		}
	}

	return strings.Join(parts, " ")
}

func ratingIn(rating string, values ...string) bool {
	lower := strings.ToLower(strings.TrimSpace(rating))
	for _, v := range values {
		if lower == v {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
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
