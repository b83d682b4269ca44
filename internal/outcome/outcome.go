// Package outcome classifies a call's terminal state from the compliance
// signals, the closing turns of the conversation, and the composite risk
// score. The decision tree is evaluated top to bottom; the first matching
// rule wins and carries a fixed confidence value.
package outcome

import (
	"fmt"
	"strings"

	"vigilant-go/internal/types"
)

// CallOutcome is the closed set of call outcome classifications.
type CallOutcome string

const (
	Resolved             CallOutcome = "Resolved"
	Escalated            CallOutcome = "Escalated"
	Dropped              CallOutcome = "Dropped"
	Pending              CallOutcome = "Pending"
	Transferred          CallOutcome = "Transferred"
	CallbackRequired     CallOutcome = "Callback Required"
	LegalDispute         CallOutcome = "Legal Dispute"
	UnresolvedComplaint  CallOutcome = "Unresolved Complaint"
	CustomerSatisfied    CallOutcome = "Customer Satisfied"
	CustomerDissatisfied CallOutcome = "Customer Dissatisfied"
	FollowUpNeeded       CallOutcome = "Follow-up Needed"
	NoResolution         CallOutcome = "No Resolution"
)

// Category returns the upper-case identifier used in report output.
func (o CallOutcome) Category() string {
	switch o {
	case Resolved:
		return "RESOLVED"
	case Escalated:
		return "ESCALATED"
	case Dropped:
		return "DROPPED"
	case Pending:
		return "PENDING"
	case Transferred:
		return "TRANSFERRED"
	case CallbackRequired:
		return "CALLBACK_REQUIRED"
	case LegalDispute:
		return "LEGAL_DISPUTE"
	case UnresolvedComplaint:
		return "UNRESOLVED_COMPLAINT"
	case CustomerSatisfied:
		return "CUSTOMER_SATISFIED"
	case CustomerDissatisfied:
		return "CUSTOMER_DISSATISFIED"
	case FollowUpNeeded:
		return "FOLLOW_UP_NEEDED"
	case NoResolution:
		return "NO_RESOLUTION"
	}
	return "PENDING"
}

// Classification is the full outcome result for one call.
type Classification struct {
	PrimaryOutcome                CallOutcome   `json:"primary_outcome"`
	OutcomeCategory               string        `json:"outcome_category"`
	ConfidenceScore               float64       `json:"confidence_score"`
	OutcomeReasoning              string        `json:"outcome_reasoning"`
	SecondaryOutcomes             []CallOutcome `json:"secondary_outcomes"`
	NextAction                    string        `json:"next_action"`
	UrgencyLevel                  string        `json:"urgency_level"`
	RequiresFollowUp              bool          `json:"requires_follow_up"`
	CustomerSatisfactionIndicator string        `json:"customer_satisfaction_indicator"`
}

// ClassifyOutcome determines the primary outcome with confidence, plus
// secondary outcomes, next action, urgency and satisfaction indicators.
// Deterministic; never fails.
func ClassifyOutcome(compliance *types.ComplianceResult, turns []types.TranscriptTurn, riskScore float64) Classification {
	violations := compliance.PolicyViolations
	tone := compliance.EmotionalTone
	threats := compliance.DetectedThreats

	ending := conversationEnding(turns)

	primary, confidence := determinePrimary(
		violations,
		compliance.IsWithinPolicy,
		tone,
		threats,
		ending,
		riskScore,
		compliance.FinalStatus,
	)

	return Classification{
		PrimaryOutcome:                primary,
		OutcomeCategory:               primary.Category(),
		ConfidenceScore:               confidence,
		OutcomeReasoning:              reasoning(primary, violations, tone, threats),
		SecondaryOutcomes:             secondaryOutcomes(primary, violations, ending),
		NextAction:                    nextAction(primary, riskScore, violations),
		UrgencyLevel:                  urgency(primary, riskScore),
		RequiresFollowUp:              requiresFollowUp(primary),
		CustomerSatisfactionIndicator: estimateSatisfaction(primary, tone),
	}
}

// conversationEnding joins the last three turns (or fewer) lower-cased.
func conversationEnding(turns []types.TranscriptTurn) string {
	last := turns
	if len(turns) >= 3 {
		last = turns[len(turns)-3:]
	}
	var msgs []string
	for _, t := range last {
		msgs = append(msgs, t.Message)
	}
	return strings.ToLower(strings.Join(msgs, " "))
}

var (
	resolutionKeywords = []string{"resolved", "solved", "fixed", "settled", "thank", "satisfied"}
	callbackKeywords   = []string{"call back", "callback", "follow up", "get back", "check"}
	transferKeywords   = []string{"transfer", "escalate", "supervisor", "manager"}
	droppedKeywords    = []string{"disconnect", "hung up", "dropped", "ended abruptly"}
)

func determinePrimary(
	violations []types.PolicyViolation,
	isWithinPolicy bool,
	emotionalTone string,
	threats []string,
	ending string,
	riskScore float64,
	finalStatus string,
) (CallOutcome, float64) {
	// 1. Critical violations
	if types.HasSeverity(violations, types.SeverityCritical) {
		return Escalated, 0.95
	}

	// 2. Threats or high risk
	if len(threats) > 0 || riskScore >= 80 {
		if strings.Contains(ending, "legal") || strings.Contains(ending, "lawyer") {
			return LegalDispute, 0.90
		}
		return Escalated, 0.90
	}

	// 3. Explicit resolution indicators
	if containsAny(ending, resolutionKeywords) {
		if strings.Contains(ending, "dissatisfied") || strings.Contains(ending, "unhappy") {
			return CustomerDissatisfied, 0.85
		}
		return Resolved, 0.85
	}

	// 4. Callback / follow-up indicators
	if containsAny(ending, callbackKeywords) {
		return CallbackRequired, 0.80
	}

	// 5. Transfer indicators
	if containsAny(ending, transferKeywords) {
		return Transferred, 0.85
	}

	// 6. Upstream pending/review status
	statusLower := strings.ToLower(finalStatus)
	if strings.Contains(statusLower, "pending") || strings.Contains(statusLower, "review") {
		return Pending, 0.75
	}

	// 7-8. Emotional tone
	toneLower := strings.ToLower(emotionalTone)
	if strings.Contains(toneLower, "angry") || strings.Contains(toneLower, "aggressive") {
		return UnresolvedComplaint, 0.80
	}
	if strings.Contains(toneLower, "satisfied") || strings.Contains(toneLower, "calm") {
		if len(violations) == 0 {
			return CustomerSatisfied, 0.80
		}
	}

	// 9. Call dropped indicators
	if containsAny(ending, droppedKeywords) {
		return Dropped, 0.75
	}

	// 10. Default by policy compliance
	if isWithinPolicy && riskScore < 40 {
		return Resolved, 0.70
	}
	if len(violations) > 0 {
		return UnresolvedComplaint, 0.65
	}
	return Pending, 0.60
}

// secondaryOutcomes returns at most two supporting classifications.
func secondaryOutcomes(primary CallOutcome, violations []types.PolicyViolation, ending string) []CallOutcome {
	var secondary []CallOutcome

	switch primary {
	case Resolved:
		if strings.Contains(ending, "thank") {
			secondary = append(secondary, CustomerSatisfied)
		} else {
			secondary = append(secondary, FollowUpNeeded)
		}
	case Escalated:
		if len(violations) > 0 {
			secondary = append(secondary, UnresolvedComplaint)
		}
		if strings.Contains(ending, "legal") {
			secondary = append(secondary, LegalDispute)
		}
	case Pending:
		if strings.Contains(ending, "callback") || strings.Contains(ending, "follow") {
			secondary = append(secondary, CallbackRequired)
		} else {
			secondary = append(secondary, FollowUpNeeded)
		}
	}

	if len(secondary) > 2 {
		secondary = secondary[:2]
	}
	return secondary
}

func reasoning(o CallOutcome, violations []types.PolicyViolation, emotionalTone string, threats []string) string {
	var reasons []string

	switch o {
	case Resolved:
		reasons = append(reasons, "Conversation ended with resolution indicators")
		if len(violations) == 0 {
			reasons = append(reasons, "no policy violations detected")
		}
	case Escalated:
		if len(violations) > 0 {
			reasons = append(reasons, fmt.Sprintf("%d policy violation(s) detected", len(violations)))
		}
		if len(threats) > 0 {
			reasons = append(reasons, "threats detected in conversation")
		}
		reasons = append(reasons, "requires management review")
	case LegalDispute:
		reasons = append(reasons, "Legal action mentioned or threatened")
		reasons = append(reasons, "immediate legal team review required")
	case CallbackRequired:
		reasons = append(reasons, "Agent committed to follow-up action")
	case Dropped:
		reasons = append(reasons, "Call ended abruptly without resolution")
	case UnresolvedComplaint:
		reasons = append(reasons, "Customer concerns not adequately addressed")
		if strings.Contains(strings.ToLower(emotionalTone), "angry") {
			reasons = append(reasons, "customer expressed significant frustration")
		}
	case CustomerSatisfied:
		reasons = append(reasons, "Positive resolution with customer satisfaction indicators")
	case CustomerDissatisfied:
		reasons = append(reasons, "Despite resolution attempt, customer remains dissatisfied")
	}

	if len(reasons) == 0 {
		return "Classification based on conversation flow analysis"
	}
	return strings.Join(reasons, ". ")
}

func nextAction(o CallOutcome, riskScore float64, violations []types.PolicyViolation) string {
	switch o {
	case Escalated:
		if riskScore >= 80 {
			return "Immediate escalation to compliance manager and legal review"
		}
		return "Escalate to supervisor for review and appropriate action"
	case LegalDispute:
		return "Forward to legal department immediately; document all evidence"
	case CallbackRequired:
		return "Schedule callback within 24-48 hours; ensure follow-through"
	case UnresolvedComplaint:
		return "Re-engage customer with senior agent; offer resolution options"
	case Dropped:
		return "Attempt reconnection; investigate reason for call termination"
	case Pending:
		return "Monitor for updates; follow up if no resolution within 3-5 business days"
	case CustomerDissatisfied:
		return "Customer retention intervention; offer goodwill gesture if appropriate"
	case Resolved:
		if len(violations) > 0 {
			return "Document resolution; review agent performance for improvement"
		}
		return "Close case; no further action required unless customer re-contacts"
	case CustomerSatisfied:
		return "Close case successfully; use as positive training example"
	}
	return "Review case details and determine appropriate next steps"
}

func urgency(o CallOutcome, riskScore float64) string {
	if o == LegalDispute || o == Escalated || riskScore >= 80 {
		return "critical"
	}
	if riskScore >= 60 || o == UnresolvedComplaint {
		return "high"
	}
	if o == CallbackRequired || o == Pending {
		return "medium"
	}
	return "low"
}

func requiresFollowUp(o CallOutcome) bool {
	switch o {
	case CallbackRequired, Pending, FollowUpNeeded, UnresolvedComplaint, Dropped:
		return true
	}
	return false
}

func estimateSatisfaction(o CallOutcome, emotionalTone string) string {
	switch o {
	case CustomerSatisfied:
		return "satisfied"
	case CustomerDissatisfied:
		return "dissatisfied"
	case LegalDispute, Escalated:
		return "highly_dissatisfied"
	case Resolved, Transferred:
		toneLower := strings.ToLower(emotionalTone)
		if strings.Contains(toneLower, "calm") || strings.Contains(toneLower, "neutral") {
			return "neutral_to_satisfied"
		}
		return "neutral"
	case UnresolvedComplaint, Dropped:
		return "dissatisfied"
	}
	return "neutral"
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
