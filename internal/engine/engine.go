// Package engine orchestrates a full compliance audit: prohibited
// phrase scanning, calling-hours check, clause retrieval, LLM
// extraction with fallback, then the deterministic risk, outcome and
// performance calculators in sequence.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vigilant-go/internal/analyzer"
	"vigilant-go/internal/config"
	"vigilant-go/internal/logger"
	"vigilant-go/internal/outcome"
	"vigilant-go/internal/performance"
	"vigilant-go/internal/policy"
	"vigilant-go/internal/risk"
	"vigilant-go/internal/types"
)

// prohibitedFloor is the minimum escalation score once any prohibited
// phrase is detected.
const prohibitedFloor = 85

// Analyzer runs the LLM compliance extraction.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (*types.ComplianceResult, error)
}

// Engine wires the clause store and the analyzer into one audit pipeline.
type Engine struct {
	policies *policy.Store
	llm      Analyzer
	log      *logrus.Entry
}

// New builds an engine. policies may be nil when no clause directory
// is configured; the extraction then runs without retrieved clauses.
func New(policies *policy.Store, llm Analyzer) *Engine {
	return &Engine{
		policies: policies,
		llm:      llm,
		log:      logger.New().WithField("component", "engine"),
	}
}

// Input is one call audit request.
type Input struct {
	RequestID        string
	Transcription    types.TranscriptionResult
	AcousticSegments []types.AcousticSegment
	Config           *config.ClientConfig
	CallTimestampUTC time.Time
}

// Result carries everything the report builder needs.
type Result struct {
	RequestID      string
	Compliance     *types.ComplianceResult
	ProhibitedHits []types.ProhibitedPhraseHit
	TimeViolation  types.TimeViolationResult
	Clauses        []types.PolicyClause
	Risk           risk.Assessment
	Outcome        outcome.Classification
	Performance    performance.Assessment
	UsedFallback   bool
}

// NewRequestID returns a short request identifier for log correlation.
func NewRequestID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("REQ-%s-MA", strings.ToUpper(hex[:6]))
}

// Analyze runs the complete audit pipeline for one call.
func (e *Engine) Analyze(ctx context.Context, in Input) (*Result, error) {
	requestID := in.RequestID
	if requestID == "" {
		requestID = NewRequestID()
	}
	cfg := in.Config
	if cfg == nil {
		cfg = config.Default()
	}
	turns := in.Transcription.TranscriptThreads

	log := e.log.WithField("request_id", requestID)

	timeViolation := CheckTimeViolation(in.CallTimestampUTC, cfg.AllowedCallHours)
	if timeViolation.Violation {
		log.WithField("ist_time", timeViolation.ISTTime).Warn("call placed outside allowed hours")
	}

	prohibitedHits := ScanProhibitedPhrases(turns, cfg.ProhibitedPhrases)
	for _, hit := range prohibitedHits {
		log.WithFields(logrus.Fields{
			"phrase":    hit.ProhibitedPhrase,
			"timestamp": hit.Timestamp,
		}).Warn("prohibited phrase detected")
	}

	var clauses []types.PolicyClause
	if e.policies != nil {
		clauses = e.policies.RetrieveRelevantClauses(turns, cfg)
	}
	log.WithField("clauses", len(clauses)).Info("retrieved policy clauses")

	prompt := analyzer.BuildPrompt(analyzer.PromptInputs{
		TranscriptTurns:  turns,
		AcousticSegments: in.AcousticSegments,
		Clauses:          clauses,
		Config:           cfg,
		CallTimestampUTC: in.CallTimestampUTC.UTC().Format(time.RFC3339),
		TimeViolation:    timeViolation,
		ProhibitedHits:   prohibitedHits,
	})

	usedFallback := false
	compliance, err := e.llm.Analyze(ctx, prompt)
	if err != nil {
		log.WithError(err).Error("compliance extraction failed, using fallback")
		compliance = analyzer.Fallback(turns)
		usedFallback = true
	}

	applyProhibitedHits(compliance, prohibitedHits)

	riskResult := risk.CalculateComprehensiveScore(risk.Signals{
		Violations:            compliance.PolicyViolations,
		EmotionalTone:         compliance.EmotionalTone,
		DetectedThreats:       compliance.DetectedThreats,
		Conduct:               compliance.Conduct(),
		TimeViolation:         timeViolation.Violation,
		ProhibitedPhraseCount: len(prohibitedHits),
		HighArousalCount:      highArousalCount(in.AcousticSegments),
		Config:                cfg,
	})
	compliance.RiskEscalationScore = riskResult.TotalScore
	compliance.EscalationRisk = string(riskResult.RiskLevel)
	log.WithFields(logrus.Fields{
		"risk_score": riskResult.TotalScore,
		"risk_level": riskResult.RiskLevel,
	}).Info("risk assessment complete")

	outcomeResult := outcome.ClassifyOutcome(compliance, turns, riskResult.TotalScore)
	compliance.CallOutcomePrediction = string(outcomeResult.PrimaryOutcome)
	compliance.UrgencyLevel = outcomeResult.UrgencyLevel
	log.WithFields(logrus.Fields{
		"outcome":    outcomeResult.PrimaryOutcome,
		"confidence": outcomeResult.ConfidenceScore,
	}).Info("outcome classified")

	performanceResult := performance.CalculatePerformanceScore(performance.Inputs{
		Politeness:            compliance.AgentPoliteness,
		Empathy:               compliance.AgentEmpathy,
		Professionalism:       compliance.AgentProfessionalism,
		Violations:            compliance.PolicyViolations,
		DetectedThreats:       compliance.DetectedThreats,
		CallOutcome:           string(outcomeResult.PrimaryOutcome),
		ProhibitedPhraseCount: len(prohibitedHits),
		TimeViolation:         timeViolation.Violation,
		TranscriptTurns:       turns,
		EmotionalTone:         compliance.EmotionalTone,
	})
	compliance.AgentQualityScore = performanceResult.TotalScore
	log.WithFields(logrus.Fields{
		"agent_score":       performanceResult.TotalScore,
		"performance_level": performanceResult.PerformanceLevel,
		"violations":        len(compliance.PolicyViolations),
	}).Info("audit complete")

	return &Result{
		RequestID:      requestID,
		Compliance:     compliance,
		ProhibitedHits: prohibitedHits,
		TimeViolation:  timeViolation,
		Clauses:        clauses,
		Risk:           riskResult,
		Outcome:        outcomeResult,
		Performance:    performanceResult,
		UsedFallback:   usedFallback,
	}, nil
}

// ScanProhibitedPhrases checks agent utterances for configured
// prohibited phrases, case-insensitive substring match.
func ScanProhibitedPhrases(turns []types.TranscriptTurn, phrases []string) []types.ProhibitedPhraseHit {
	var hits []types.ProhibitedPhraseHit
	for _, turn := range turns {
		if !strings.EqualFold(turn.Speaker, "agent") {
			continue
		}
		message := strings.ToLower(turn.Message)
		timestamp := turn.Timestamp
		if timestamp == "" {
			timestamp = "??:??"
		}
		for _, phrase := range phrases {
			if strings.Contains(message, strings.ToLower(phrase)) {
				hits = append(hits, types.ProhibitedPhraseHit{
					Timestamp:        timestamp,
					ProhibitedPhrase: phrase,
					Context:          turn.Message,
					Severity:         types.SeverityCritical,
				})
			}
		}
	}
	return hits
}

// applyProhibitedHits folds deterministic prohibited phrase detections
// into the extraction result: one critical violation per hit, policy
// breach marked, escalation score floored and the flag recorded.
func applyProhibitedHits(compliance *types.ComplianceResult, hits []types.ProhibitedPhraseHit) {
	if len(hits) == 0 {
		return
	}

	for _, hit := range hits {
		compliance.PolicyViolations = append(compliance.PolicyViolations, types.PolicyViolation{
			ClauseID:      "CLIENT-PROHIBITED-PHRASE",
			RuleName:      "Prohibited Language Used",
			Description:   fmt.Sprintf("Agent used prohibited phrase: '%s'", hit.ProhibitedPhrase),
			Timestamp:     hit.Timestamp,
			EvidenceQuote: hit.Context,
			Severity:      types.SeverityCritical,
		})
	}
	compliance.IsWithinPolicy = false

	if compliance.RiskEscalationScore < prohibitedFloor {
		compliance.RiskEscalationScore = prohibitedFloor
	}

	for _, flag := range compliance.ComplianceFlags {
		if flag == "Prohibited Language" {
			return
		}
	}
	compliance.ComplianceFlags = append(compliance.ComplianceFlags, "Prohibited Language")
}

// CheckTimeViolation converts the call timestamp to the configured
// timezone and checks it against the allowed calling window.
func CheckTimeViolation(callTime time.Time, hours config.AllowedCallHours) types.TimeViolationResult {
	tz := hours.Timezone
	if tz == "" {
		tz = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}

	local := callTime.In(loc)
	localMinutes := local.Hour()*60 + local.Minute()
	istTime := local.Format("15:04")

	start := parseClock(hours.Start, 8*60)
	end := parseClock(hours.End, 19*60)

	if localMinutes >= start && localMinutes < end {
		return types.TimeViolationResult{Violation: false, ISTTime: istTime}
	}

	return types.TimeViolationResult{
		Violation: true,
		ISTTime:   istTime,
		RuleName:  "Operating Hours Compliance",
		Description: fmt.Sprintf(
			"Call placed at %s IST, outside the allowed calling window %s-%s IST.",
			istTime, clockString(start), clockString(end),
		),
	}
}

func parseClock(s string, fallback int) int {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return fallback
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return fallback
	}
	return h*60 + m
}

func clockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func highArousalCount(segments []types.AcousticSegment) int {
	n := 0
	for _, seg := range segments {
		if strings.EqualFold(seg.AcousticArousal, "high") {
			n++
		}
	}
	return n
}
