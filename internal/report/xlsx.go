package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX renders the report as an Excel workbook for compliance
// reviewers: a summary sheet, the violation list, the enriched
// transcript and the agent performance detail.
func WriteXLSX(rep *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, rep); err != nil {
		return nil, err
	}
	if err := writeViolationsSheet(f, rep); err != nil {
		return nil, err
	}
	if err := writeTranscriptSheet(f, rep); err != nil {
		return nil, err
	}
	if err := writePerformanceSheet(f, rep); err != nil {
		return nil, err
	}

	// Sheet1 is the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, rep *Report) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	rows := [][]string{
		{"Request ID", rep.RequestID},
		{"Call Timestamp (UTC)", rep.Metadata.Timestamp},
		{"Category", rep.IntelligenceSummary.Category},
		{"Conversation About", rep.IntelligenceSummary.ConversationAbout},
		{"Primary Intent", rep.IntelligenceSummary.PrimaryIntent},
		{"Summary", rep.IntelligenceSummary.Summary},
		{"Overall Sentiment", rep.EmotionalAnalysis.OverallSentiment},
		{"Emotional Tone", rep.EmotionalAnalysis.EmotionalTone},
		{"Within Policy", strconv.FormatBool(rep.ComplianceAudit.IsWithinPolicy)},
		{"Risk Score", formatFloat(rep.ComplianceAudit.ComprehensiveRiskAssessment.TotalScore)},
		{"Risk Level", rep.ComplianceAudit.ComprehensiveRiskAssessment.RiskLevel},
		{"Escalation Action", rep.ComplianceAudit.ComprehensiveRiskAssessment.EscalationAction},
		{"Justification", rep.ComplianceAudit.ComprehensiveRiskAssessment.Justification},
		{"Primary Outcome", rep.PerformanceAndOutcomes.CallOutcome.PrimaryOutcome},
		{"Outcome Confidence", formatFloat(rep.PerformanceAndOutcomes.CallOutcome.ConfidenceScore)},
		{"Agent Quality Score", formatFloat(rep.PerformanceAndOutcomes.AgentPerformance.OverallQualityScore)},
		{"Performance Level", rep.PerformanceAndOutcomes.AgentPerformance.PerformanceLevel},
		{"Final Status", rep.PerformanceAndOutcomes.FinalStatus},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeViolationsSheet(f *excelize.File, rep *Report) error {
	const sheet = "Violations"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []string{"Clause ID", "Rule Name", "Severity", "Timestamp", "Description", "Evidence Quote"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, v := range rep.ComplianceAudit.PolicyViolations {
		row := []string{v.ClauseID, v.RuleName, v.Severity, v.Timestamp, v.Description, v.EvidenceQuote}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeTranscriptSheet(f *excelize.File, rep *Report) error {
	const sheet = "Transcript"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []string{"Timestamp", "Speaker", "Message", "Tone", "Sentiment Score", "Acoustic Arousal", "Speaker Sentiment"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, t := range rep.TranscriptThreads {
		row := []interface{}{t.Timestamp, t.Speaker, t.Message, t.Tone, t.SentimentScore, t.AcousticArousal, t.SpeakerSentiment}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writePerformanceSheet(f *excelize.File, rep *Report) error {
	const sheet = "Performance"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	perf := rep.PerformanceAndOutcomes.AgentPerformance
	training := rep.PerformanceAndOutcomes.TrainingAndDevelopment

	rows := [][]string{
		{"Overall Quality Score", formatFloat(perf.OverallQualityScore)},
		{"Performance Level", perf.PerformanceLevel},
		{"Communication Skills", strconv.Itoa(perf.ComponentScores.CommunicationSkills)},
		{"Politeness", strconv.Itoa(perf.ComponentScores.Politeness)},
		{"Empathy", strconv.Itoa(perf.ComponentScores.Empathy)},
		{"Professionalism", strconv.Itoa(perf.ComponentScores.Professionalism)},
		{"Problem Resolution", strconv.Itoa(perf.ComponentScores.ProblemResolution)},
		{"Compliance Adherence", strconv.Itoa(perf.ComponentScores.ComplianceAdherence)},
		{"Penalties", strconv.Itoa(perf.ComponentScores.Penalties)},
		{"Training Priority", training.TrainingPriority},
		{"Requires Coaching", strconv.FormatBool(perf.RequiresCoaching)},
		{"Requires Disciplinary Action", strconv.FormatBool(perf.RequiresDisciplinaryAction)},
		{"Commendation Worthy", strconv.FormatBool(perf.CommendationWorthy)},
		{"Specific Feedback", perf.SpecificFeedback},
	}
	for i, s := range perf.Strengths {
		rows = append(rows, []string{fmt.Sprintf("Strength %d", i+1), s})
	}
	for i, w := range perf.Weaknesses {
		rows = append(rows, []string{fmt.Sprintf("Focus Area %d", i+1), w})
	}
	for i, r := range training.TrainingRecommendations {
		rows = append(rows, []string{fmt.Sprintf("Training %d", i+1), r})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
