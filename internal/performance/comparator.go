package performance

import "math"

// Benchmark holds the reference scores an agent is measured against.
type Benchmark struct {
	TeamAverage    float64
	CompanyAverage float64
}

// DefaultBenchmark is used when a client supplies no reference scores.
var DefaultBenchmark = Benchmark{TeamAverage: 75.0, CompanyAverage: 80.0}

// Comparison places one agent score relative to a benchmark.
type Comparison struct {
	AgentScore           float64 `json:"agent_score"`
	TeamAverage          float64 `json:"team_average"`
	CompanyAverage       float64 `json:"company_average"`
	VsTeam               float64 `json:"vs_team"`
	VsCompany            float64 `json:"vs_company"`
	PercentileEstimate   string  `json:"percentile_estimate"`
	PerformanceTier      string  `json:"performance_tier"`
	MeetsCompanyStandard bool    `json:"meets_company_standard"`
}

// CompareToBenchmark reports how an agent score sits against team and
// company averages, with a rough percentile band and tier label.
func CompareToBenchmark(agentScore float64, bench Benchmark) Comparison {
	vsTeam := round1(agentScore - bench.TeamAverage)
	vsCompany := round1(agentScore - bench.CompanyAverage)

	return Comparison{
		AgentScore:           agentScore,
		TeamAverage:          bench.TeamAverage,
		CompanyAverage:       bench.CompanyAverage,
		VsTeam:               vsTeam,
		VsCompany:            vsCompany,
		PercentileEstimate:   percentileEstimate(vsTeam),
		PerformanceTier:      performanceTier(vsCompany),
		MeetsCompanyStandard: agentScore >= bench.CompanyAverage,
	}
}

func percentileEstimate(vsTeam float64) string {
	switch {
	case vsTeam >= 20:
		return "Top 10%"
	case vsTeam >= 10:
		return "Top 25%"
	case vsTeam >= 0:
		return "Above average (50th-75th percentile)"
	case vsTeam >= -10:
		return "Below average (25th-50th percentile)"
	default:
		return "Bottom 25%"
	}
}

func performanceTier(vsCompany float64) string {
	switch {
	case vsCompany >= 10:
		return "Elite Performer"
	case vsCompany >= 0:
		return "Meets Standard"
	case vsCompany >= -10:
		return "Approaching Standard"
	default:
		return "Below Standard"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
