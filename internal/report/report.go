// Package report assembles the final audit JSON from all pipeline
// outputs and exports it to Excel for compliance reviewers.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"vigilant-go/internal/config"
	"vigilant-go/internal/engine"
	"vigilant-go/internal/risk"
	"vigilant-go/internal/types"
)

// Report is the complete audit response document.
type Report struct {
	RequestID              string                 `json:"request_id"`
	Metadata               Metadata               `json:"metadata"`
	ConfigApplied          ConfigApplied          `json:"config_applied"`
	IntelligenceSummary    IntelligenceSummary    `json:"intelligence_summary"`
	EmotionalAnalysis      EmotionalAnalysis      `json:"emotional_and_tonal_analysis"`
	ComplianceAudit        ComplianceAudit        `json:"compliance_and_risk_audit"`
	TranscriptThreads      []EnrichedTurn         `json:"transcript_threads"`
	PerformanceAndOutcomes PerformanceAndOutcomes `json:"performance_and_outcomes"`
	Extensions             Extensions             `json:"extensions"`
}

type Metadata struct {
	Timestamp              string   `json:"timestamp"`
	DetectedLanguages      []string `json:"detected_languages"`
	ProcessingTimeMs       int64    `json:"processing_time_ms"`
	ConversationComplexity string   `json:"conversation_complexity"`
}

type ConfigApplied struct {
	BusinessDomain    string   `json:"business_domain"`
	MonitoredProducts []string `json:"monitored_products"`
	ActivePolicySet   string   `json:"active_policy_set"`
	RiskTriggers      []string `json:"risk_triggers"`
}

type IntelligenceSummary struct {
	Summary           string         `json:"summary"`
	Category          string         `json:"category"`
	ConversationAbout string         `json:"conversation_about"`
	PrimaryIntent     string         `json:"primary_intent"`
	KeyTopics         []string       `json:"key_topics"`
	Entities          []types.Entity `json:"entities"`
	RootCause         string         `json:"root_cause"`
}

type EmotionalAnalysis struct {
	OverallSentiment string               `json:"overall_sentiment"`
	EmotionalTone    string               `json:"emotional_tone"`
	ToneProgression  []string             `json:"tone_progression"`
	EmotionalGraph   []types.EmotionPoint `json:"emotional_graph"`
	EmotionTimeline  []types.EmotionStage `json:"emotion_timeline"`
}

type RiskScores struct {
	FraudRisk           string  `json:"fraud_risk"`
	EscalationRisk      string  `json:"escalation_risk"`
	UrgencyLevel        string  `json:"urgency_level"`
	RiskEscalationScore float64 `json:"risk_escalation_score"`
}

type ComprehensiveRiskAssessment struct {
	TotalScore              float64        `json:"total_score"`
	RiskLevel               string         `json:"risk_level"`
	RiskCategory            string         `json:"risk_category"`
	EscalationAction        string         `json:"escalation_action"`
	Justification           string         `json:"justification"`
	RequiresImmediateAction bool           `json:"requires_immediate_action"`
	AutoEscalate            bool           `json:"auto_escalate"`
	RiskBreakdown           risk.Breakdown `json:"risk_breakdown"`
}

type ComplianceAudit struct {
	IsWithinPolicy              bool                        `json:"is_within_policy"`
	ComplianceFlags             []string                    `json:"compliance_flags"`
	PolicyViolations            []types.PolicyViolation     `json:"policy_violations"`
	DetectedThreats             []string                    `json:"detected_threats"`
	RiskScores                  RiskScores                  `json:"risk_scores"`
	ComprehensiveRiskAssessment ComprehensiveRiskAssessment `json:"comprehensive_risk_assessment"`
}

type EnrichedTurn struct {
	Speaker          string  `json:"speaker"`
	Message          string  `json:"message"`
	Timestamp        string  `json:"timestamp"`
	Tone             string  `json:"tone"`
	SentimentScore   float64 `json:"sentiment_score"`
	AcousticArousal  string  `json:"acoustic_arousal"`
	SpeakerSentiment string  `json:"speaker_sentiment,omitempty"`
}

type ComponentScores struct {
	CommunicationSkills int `json:"communication_skills"`
	Politeness          int `json:"politeness"`
	Empathy             int `json:"empathy"`
	Professionalism     int `json:"professionalism"`
	ProblemResolution   int `json:"problem_resolution"`
	ComplianceAdherence int `json:"compliance_adherence"`
	Penalties           int `json:"penalties"`
}

type QualitativeRatings struct {
	Politeness      string `json:"politeness"`
	Empathy         string `json:"empathy"`
	Professionalism string `json:"professionalism"`
}

type AgentPerformance struct {
	OverallQualityScore        float64            `json:"overall_quality_score"`
	PerformanceLevel           string             `json:"performance_level"`
	PerformanceCategory        string             `json:"performance_category"`
	ComponentScores            ComponentScores    `json:"component_scores"`
	QualitativeRatings         QualitativeRatings `json:"qualitative_ratings"`
	Strengths                  []string           `json:"strengths"`
	Weaknesses                 []string           `json:"weaknesses"`
	SpecificFeedback           string             `json:"specific_feedback"`
	RequiresCoaching           bool               `json:"requires_coaching"`
	RequiresDisciplinaryAction bool               `json:"requires_disciplinary_action"`
	CommendationWorthy         bool               `json:"commendation_worthy"`
}

type TrainingAndDevelopment struct {
	TrainingPriority        string   `json:"training_priority"`
	TrainingRecommendations []string `json:"training_recommendations"`
}

type CallOutcomeSection struct {
	PrimaryOutcome    string   `json:"primary_outcome"`
	OutcomeCategory   string   `json:"outcome_category"`
	ConfidenceScore   float64  `json:"confidence_score"`
	OutcomeReasoning  string   `json:"outcome_reasoning"`
	SecondaryOutcomes []string `json:"secondary_outcomes"`
}

type FollowUpActions struct {
	NextAction        string `json:"next_action"`
	RequiresFollowUp  bool   `json:"requires_follow_up"`
	RecommendedAction string `json:"recommended_action"`
}

type CustomerIndicators struct {
	SatisfactionIndicator   string `json:"satisfaction_indicator"`
	RepeatComplaintDetected bool   `json:"repeat_complaint_detected"`
}

type PerformanceAndOutcomes struct {
	AgentPerformance       AgentPerformance       `json:"agent_performance"`
	TrainingAndDevelopment TrainingAndDevelopment `json:"training_and_development"`
	CallOutcome            CallOutcomeSection     `json:"call_outcome"`
	FollowUpActions        FollowUpActions        `json:"follow_up_actions"`
	CustomerIndicators     CustomerIndicators     `json:"customer_indicators"`
	FinalStatus            string                 `json:"final_status"`
}

type CustomInsights struct {
	Configured []string `json:"configured,omitempty"`
	Note       string   `json:"note,omitempty"`
}

type Extensions struct {
	CustomInsights       CustomInsights `json:"custom_insights"`
	PluginData           map[string]any `json:"plugin_data"`
	ReservedForFutureUse map[string]any `json:"reserved_for_future_use"`
	ClientExtensions     map[string]any `json:"client_extensions,omitempty"`
}

// BuildInput bundles every pipeline output the report needs.
type BuildInput struct {
	Result           *engine.Result
	Transcription    types.TranscriptionResult
	AcousticSegments []types.AcousticSegment
	Config           *config.ClientConfig
	CallTimestampUTC string
	ProcessingStart  time.Time
}

// Build assembles the complete audit report.
func Build(in BuildInput) *Report {
	res := in.Result
	compliance := res.Compliance
	cfg := in.Config
	if cfg == nil {
		cfg = config.Default()
	}
	turns := in.Transcription.TranscriptThreads

	graph := resolveEmotionalGraph(compliance, in.AcousticSegments)
	violations := withTimeViolation(compliance.PolicyViolations, res.TimeViolation)

	flags := compliance.ComplianceFlags
	if len(violations) > 0 && len(flags) == 0 {
		flags = []string{"Policy Violation Detected"}
	}

	weaknesses := make([]string, 0, len(res.Performance.Weaknesses))
	for _, w := range res.Performance.Weaknesses {
		weaknesses = append(weaknesses, string(w))
	}
	secondary := make([]string, 0, len(res.Outcome.SecondaryOutcomes))
	for _, o := range res.Outcome.SecondaryOutcomes {
		secondary = append(secondary, string(o))
	}

	return &Report{
		RequestID: res.RequestID,
		Metadata: Metadata{
			Timestamp:              in.CallTimestampUTC,
			DetectedLanguages:      detectedLanguages(in.Transcription),
			ProcessingTimeMs:       time.Since(in.ProcessingStart).Milliseconds(),
			ConversationComplexity: complexityFromTurns(len(turns)),
		},
		ConfigApplied: ConfigApplied{
			BusinessDomain:    cfg.BusinessDomain,
			MonitoredProducts: cfg.MonitoredProducts,
			ActivePolicySet:   cfg.ActivePolicySet,
			RiskTriggers:      cfg.RiskTriggers,
		},
		IntelligenceSummary: buildIntelligenceSummary(in.Transcription, compliance),
		EmotionalAnalysis: EmotionalAnalysis{
			OverallSentiment: compliance.OverallSentiment,
			EmotionalTone:    compliance.EmotionalTone,
			ToneProgression:  compliance.ToneProgression,
			EmotionalGraph:   graph,
			EmotionTimeline:  compliance.EmotionTimeline,
		},
		ComplianceAudit: ComplianceAudit{
			IsWithinPolicy:   compliance.IsWithinPolicy,
			ComplianceFlags:  flags,
			PolicyViolations: violations,
			DetectedThreats:  compliance.DetectedThreats,
			RiskScores: RiskScores{
				FraudRisk:           compliance.FraudRisk,
				EscalationRisk:      compliance.EscalationRisk,
				UrgencyLevel:        compliance.UrgencyLevel,
				RiskEscalationScore: compliance.RiskEscalationScore,
			},
			ComprehensiveRiskAssessment: ComprehensiveRiskAssessment{
				TotalScore:              res.Risk.TotalScore,
				RiskLevel:               string(res.Risk.RiskLevel),
				RiskCategory:            res.Risk.RiskCategory,
				EscalationAction:        string(res.Risk.EscalationAction),
				Justification:           res.Risk.Justification,
				RequiresImmediateAction: res.Risk.RequiresImmediateAction,
				AutoEscalate:            res.Risk.AutoEscalate,
				RiskBreakdown:           res.Risk.Breakdown,
			},
		},
		TranscriptThreads: enrichTranscript(turns, graph, compliance),
		PerformanceAndOutcomes: PerformanceAndOutcomes{
			AgentPerformance: AgentPerformance{
				OverallQualityScore: res.Performance.TotalScore,
				PerformanceLevel:    string(res.Performance.PerformanceLevel),
				PerformanceCategory: res.Performance.PerformanceCategory,
				ComponentScores: ComponentScores{
					CommunicationSkills: res.Performance.Breakdown.CommunicationSkills,
					Politeness:          res.Performance.Breakdown.Politeness,
					Empathy:             res.Performance.Breakdown.Empathy,
					Professionalism:     res.Performance.Breakdown.Professionalism,
					ProblemResolution:   res.Performance.Breakdown.ProblemResolution,
					ComplianceAdherence: res.Performance.Breakdown.ComplianceAdherence,
					Penalties:           res.Performance.Breakdown.Penalties,
				},
				QualitativeRatings: QualitativeRatings{
					Politeness:      compliance.AgentPoliteness,
					Empathy:         compliance.AgentEmpathy,
					Professionalism: compliance.AgentProfessionalism,
				},
				Strengths:                  res.Performance.Strengths,
				Weaknesses:                 weaknesses,
				SpecificFeedback:           res.Performance.SpecificFeedback,
				RequiresCoaching:           res.Performance.RequiresCoaching,
				RequiresDisciplinaryAction: res.Performance.RequiresDisciplinaryAction,
				CommendationWorthy:         res.Performance.CommendationWorthy,
			},
			TrainingAndDevelopment: TrainingAndDevelopment{
				TrainingPriority:        string(res.Performance.TrainingPriority),
				TrainingRecommendations: res.Performance.TrainingRecommendations,
			},
			CallOutcome: CallOutcomeSection{
				PrimaryOutcome:    string(res.Outcome.PrimaryOutcome),
				OutcomeCategory:   res.Outcome.OutcomeCategory,
				ConfidenceScore:   res.Outcome.ConfidenceScore,
				OutcomeReasoning:  res.Outcome.OutcomeReasoning,
				SecondaryOutcomes: secondary,
			},
			FollowUpActions: FollowUpActions{
				NextAction:        res.Outcome.NextAction,
				RequiresFollowUp:  res.Outcome.RequiresFollowUp,
				RecommendedAction: compliance.RecommendedAction,
			},
			CustomerIndicators: CustomerIndicators{
				SatisfactionIndicator:   res.Outcome.CustomerSatisfactionIndicator,
				RepeatComplaintDetected: compliance.RepeatComplaintDetected,
			},
			FinalStatus: compliance.FinalStatus,
		},
		Extensions: buildExtensions(cfg),
	}
}

func complexityFromTurns(turnCount int) string {
	switch {
	case turnCount <= 6:
		return "low"
	case turnCount <= 14:
		return "medium"
	default:
		return "high"
	}
}

func detectedLanguages(tr types.TranscriptionResult) []string {
	if len(tr.DetectedLanguages) == 0 {
		return []string{"English"}
	}
	return tr.DetectedLanguages
}

func buildIntelligenceSummary(tr types.TranscriptionResult, compliance *types.ComplianceResult) IntelligenceSummary {
	entities := make([]types.Entity, 0, len(tr.Entities))
	for i, entity := range tr.Entities {
		id := entity.ID
		if id == "" {
			id = fmt.Sprintf("entity_%02d", i)
		}
		typ := entity.Type
		if typ == "" {
			typ = "UNKNOWN"
		}
		entities = append(entities, types.Entity{Text: entity.Text, ID: id, Type: typ})
	}

	category := tr.Category
	if category == "" {
		category = compliance.Category
		if category == "" {
			category = "Debt Recovery"
		}
	}

	conversationAbout := tr.ConversationAbout
	if conversationAbout == "" {
		conversationAbout = "Debt collection call"
	}

	rootCause := tr.RootCause
	if rootCause == "" {
		rootCause = "Reason for contact unclear - requires review"
	}

	primaryIntent := resolvePrimaryIntent(tr)

	return IntelligenceSummary{
		Summary:           resolveSummary(tr, compliance, primaryIntent),
		Category:          category,
		ConversationAbout: conversationAbout,
		PrimaryIntent:     primaryIntent,
		KeyTopics:         tr.KeyTopics,
		Entities:          entities,
		RootCause:         rootCause,
	}
}

// resolvePrimaryIntent infers the customer intent from the
// conversation context when the upstream transcription did not supply one.
func resolvePrimaryIntent(tr types.TranscriptionResult) string {
	if tr.PrimaryIntent != "" && tr.PrimaryIntent != "Unknown" {
		return tr.PrimaryIntent
	}

	about := strings.ToLower(tr.ConversationAbout)
	category := strings.ToLower(tr.Category)
	switch {
	case strings.Contains(about, "fraud") || strings.Contains(category, "fraud"):
		return "To report fraudulent activity and seek resolution"
	case strings.Contains(about, "dispute") || strings.Contains(category, "dispute"):
		return "To dispute charges or payments"
	case strings.Contains(about, "payment"):
		return "To discuss payment-related concerns"
	case strings.Contains(about, "complaint") || strings.Contains(category, "complaint"):
		return "To file a complaint and request action"
	default:
		return "Customer inquiry or concern requiring assistance"
	}
}

// resolveSummary prefers the extraction summary, regenerating one from
// the transcription context when the extraction fell back.
func resolveSummary(tr types.TranscriptionResult, compliance *types.ComplianceResult, primaryIntent string) string {
	summary := compliance.Summary
	lower := strings.ToLower(summary)
	isFallback := summary == "" ||
		strings.Contains(lower, "processing error") ||
		strings.Contains(lower, "no summary available")

	if !isFallback || len(tr.TranscriptThreads) == 0 {
		if summary == "" {
			return "No summary available."
		}
		return summary
	}

	about := tr.ConversationAbout
	if about == "" {
		about = "general discussion"
	}
	category := tr.Category
	if category == "" {
		category = "Customer Service Call"
	}

	var b strings.Builder
	fmt.Fprintf(&b,
		"This is a %s recording with %d conversation turns between an agent and customer. The conversation is about %s. ",
		strings.ToLower(category), len(tr.TranscriptThreads), about,
	)
	if primaryIntent != "" && primaryIntent != "Customer inquiry or concern requiring assistance" {
		fmt.Fprintf(&b, "The customer's primary intent is: %s. ", primaryIntent)
	}
	if len(tr.KeyTopics) > 0 {
		topics := tr.KeyTopics
		if len(topics) > 4 {
			topics = topics[:4]
		}
		fmt.Fprintf(&b, "Key topics discussed include: %s. ", strings.Join(topics, ", "))
	}
	if tr.RootCause != "" && !strings.Contains(strings.ToLower(tr.RootCause), "unclear") {
		fmt.Fprintf(&b, "Root cause: %s. ", tr.RootCause)
	}
	if !compliance.IsWithinPolicy && len(compliance.PolicyViolations) > 0 {
		fmt.Fprintf(&b, "Compliance analysis detected %d potential policy violation(s). ", len(compliance.PolicyViolations))
	}
	b.WriteString("Detailed analysis and risk assessment have been performed.")
	return b.String()
}

// resolveEmotionalGraph uses the extraction's graph when it has enough
// points, otherwise synthesizes one from the acoustic segments.
// Arousal gaps are backfilled from the acoustic segment at the same
// timestamp.
func resolveEmotionalGraph(compliance *types.ComplianceResult, segments []types.AcousticSegment) []types.EmotionPoint {
	graph := compliance.EmotionalGraph

	if len(graph) < 2 && len(segments) > 0 {
		graph = make([]types.EmotionPoint, 0, len(segments))
		sentiment := compliance.OverallSentiment
		for _, seg := range segments {
			graph = append(graph, types.EmotionPoint{
				Timestamp:       seg.Timestamp,
				Tone:            toneFromAcoustics(seg, sentiment),
				Score:           seg.EnergyScore,
				AcousticArousal: seg.AcousticArousal,
			})
		}
		return graph
	}

	if len(segments) > 0 {
		arousalByTimestamp := make(map[string]string, len(segments))
		for _, seg := range segments {
			arousalByTimestamp[seg.Timestamp] = seg.AcousticArousal
		}
		for i := range graph {
			if graph[i].AcousticArousal == "" {
				if arousal, ok := arousalByTimestamp[graph[i].Timestamp]; ok {
					graph[i].AcousticArousal = arousal
				} else {
					graph[i].AcousticArousal = "Low"
				}
			}
		}
	}
	return graph
}

func toneFromAcoustics(seg types.AcousticSegment, overallSentiment string) string {
	switch {
	case seg.AcousticArousal == "High" && seg.EnergyScore > 0.7:
		switch {
		case strings.Contains(overallSentiment, "Frustrated") || strings.Contains(overallSentiment, "Angry"):
			return "Angry"
		case strings.Contains(overallSentiment, "Distressed") || strings.Contains(overallSentiment, "Anxious"):
			return "Distressed"
		case strings.Contains(overallSentiment, "Aggressive"):
			return "Aggressive"
		default:
			return "Intense"
		}
	case seg.AcousticArousal == "High" && seg.EnergyScore > 0.5:
		return "Frustrated"
	case seg.AcousticArousal == "Medium":
		if strings.Contains(overallSentiment, "Negative") || strings.Contains(overallSentiment, "Frustrated") {
			return "Concerned"
		}
		return "Neutral"
	default:
		if strings.Contains(overallSentiment, "Positive") {
			return "Calm"
		}
		return "Neutral"
	}
}

// withTimeViolation appends the operating-hours violation when
// detected and not already present in the extraction output.
func withTimeViolation(violations []types.PolicyViolation, tv types.TimeViolationResult) []types.PolicyViolation {
	if !tv.Violation {
		return violations
	}
	for _, v := range violations {
		if v.ClauseID == "INTERNAL-TIME-01" {
			return violations
		}
	}

	ruleName := tv.RuleName
	if ruleName == "" {
		ruleName = "Operating Hours Compliance"
	}
	timestamp := tv.ISTTime
	if timestamp == "" {
		timestamp = "??:??"
	}
	istTime := tv.ISTTime
	if istTime == "" {
		istTime = "unknown"
	}

	return append(violations, types.PolicyViolation{
		ClauseID:      "INTERNAL-TIME-01",
		RuleName:      ruleName,
		Description:   tv.Description,
		Timestamp:     timestamp,
		EvidenceQuote: fmt.Sprintf("Call timestamp detected as %s IST.", istTime),
	})
}

// enrichTranscript attaches the nearest emotional graph point to each
// turn, plus the per-speaker sentiment from the extraction.
func enrichTranscript(turns []types.TranscriptTurn, graph []types.EmotionPoint, compliance *types.ComplianceResult) []EnrichedTurn {
	enriched := make([]EnrichedTurn, 0, len(turns))
	for _, turn := range turns {
		point := closestTone(turn.Timestamp, graph)
		entry := EnrichedTurn{
			Speaker:         turn.Speaker,
			Message:         turn.Message,
			Timestamp:       turn.Timestamp,
			Tone:            point.Tone,
			SentimentScore:  point.Score,
			AcousticArousal: point.AcousticArousal,
		}
		switch strings.ToLower(turn.Speaker) {
		case "customer":
			entry.SpeakerSentiment = orDefault(compliance.CustomerSentiment, "Neutral")
		case "agent":
			entry.SpeakerSentiment = orDefault(compliance.AgentSentiment, "Professional")
		}
		enriched = append(enriched, entry)
	}
	return enriched
}

// closestTone matches a turn timestamp to the emotional graph: exact
// match first, then the nearest point within 45 seconds, else neutral.
func closestTone(timestamp string, graph []types.EmotionPoint) types.EmotionPoint {
	neutral := types.EmotionPoint{Tone: "Neutral", Score: 0.5, AcousticArousal: "Low"}
	if len(graph) == 0 {
		return neutral
	}

	for _, point := range graph {
		if point.Timestamp == timestamp {
			return normalizePoint(point)
		}
	}

	target := parseTimestampSeconds(timestamp)
	var closest *types.EmotionPoint
	minDiff := int(^uint(0) >> 1)
	for i := range graph {
		diff := target - parseTimestampSeconds(graph[i].Timestamp)
		if diff < 0 {
			diff = -diff
		}
		if diff < minDiff {
			minDiff = diff
			closest = &graph[i]
		}
	}
	if closest != nil && minDiff <= 45 {
		return normalizePoint(*closest)
	}
	return neutral
}

func normalizePoint(p types.EmotionPoint) types.EmotionPoint {
	if p.Tone == "" {
		p.Tone = "Neutral"
	}
	if p.AcousticArousal == "" {
		p.AcousticArousal = "Low"
	}
	return p
}

func parseTimestampSeconds(ts string) int {
	var m, s int
	if _, err := fmt.Sscanf(ts, "%d:%d", &m, &s); err != nil {
		return 0
	}
	return m*60 + s
}

func buildExtensions(cfg *config.ClientConfig) Extensions {
	ext := Extensions{
		PluginData:           map[string]any{},
		ReservedForFutureUse: map[string]any{},
	}
	if len(cfg.CustomInsights) > 0 {
		configured := make([]string, 0, len(cfg.CustomInsights))
		for name := range cfg.CustomInsights {
			configured = append(configured, name)
		}
		sort.Strings(configured)
		ext.CustomInsights = CustomInsights{
			Configured: configured,
			Note:       "Custom insight processing can be implemented as plugins.",
		}
	}
	if len(cfg.Extensions) > 0 {
		ext.ClientExtensions = cfg.Extensions
	}
	return ext
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
