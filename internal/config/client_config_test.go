package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Banking / Debt Recovery", cfg.BusinessDomain)
	assert.Equal(t, "RBI_Compliance_v2.1", cfg.ActivePolicySet)
	assert.True(t, cfg.AutoEscalateOnCritical)
	assert.Equal(t, 80, cfg.RiskScoring.CriticalThreshold)
	assert.Equal(t, "08:00", cfg.AllowedCallHours.Start)
	assert.Equal(t, "19:00", cfg.AllowedCallHours.End)
	assert.Equal(t, "Asia/Kolkata", cfg.AllowedCallHours.Timezone)
	assert.Len(t, cfg.ProhibitedPhrases, 6)
	assert.Equal(t, 60, cfg.AgentQualityThresholds["minimum_politeness_score"])
	require.NoError(t, cfg.Validate())
}

func TestParseMergesOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"organization_name": "Acme Finance",
		"risk_scoring": {"critical_threshold": 70},
		"prohibited_phrases": ["we will ruin you"]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Acme Finance", cfg.OrganizationName)
	assert.Equal(t, 70, cfg.RiskScoring.CriticalThreshold)
	// Untouched fields keep their defaults.
	assert.Equal(t, "Banking / Debt Recovery", cfg.BusinessDomain)
	assert.Equal(t, "19:00", cfg.AllowedCallHours.End)
	// Lists are replaced, not appended.
	assert.Equal(t, []string{"we will ruin you"}, cfg.ProhibitedPhrases)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"business_domain": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestValidateRanges(t *testing.T) {
	cfg := Default()
	cfg.RiskScoring.CriticalThreshold = 140
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical_threshold")

	cfg = Default()
	cfg.RiskScoring.WeightEmotionalTone = 1.5
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weight_emotional_tone")

	cfg = Default()
	cfg.BusinessDomain = ""
	require.Error(t, cfg.Validate())
}

func TestValidateFloorsCallAttempts(t *testing.T) {
	cfg := Default()
	cfg.MaxCallAttemptsPerDay = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.MaxCallAttemptsPerDay)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"organization_name": "Northwind Bank"}`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Northwind Bank", cfg.OrganizationName)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestMergeRecursesIntoNestedObjects(t *testing.T) {
	base := map[string]any{
		"risk_scoring": map[string]any{
			"base_threshold":     50,
			"critical_threshold": 80,
		},
		"business_domain": "Banking",
		"risk_triggers":   []any{"Harassment", "Threat"},
	}
	override := map[string]any{
		"risk_scoring":  map[string]any{"critical_threshold": 65},
		"risk_triggers": []any{"Coercion"},
	}

	merged := Merge(base, override)

	nested := merged["risk_scoring"].(map[string]any)
	assert.Equal(t, 65, nested["critical_threshold"])
	assert.Equal(t, 50, nested["base_threshold"])
	assert.Equal(t, "Banking", merged["business_domain"])
	assert.Equal(t, []any{"Coercion"}, merged["risk_triggers"])
	// Inputs are not mutated.
	assert.Equal(t, 80, base["risk_scoring"].(map[string]any)["critical_threshold"])
}

func TestActiveTriggersDeduplicates(t *testing.T) {
	cfg := &ClientConfig{
		RiskTriggers: []string{"Harassment", "Threat", "Harassment"},
		ComplianceTriggers: []ComplianceTrigger{
			{TriggerName: "Threat"},
			{TriggerName: "Social Shaming"},
		},
	}

	assert.Equal(t, []string{"Harassment", "Threat", "Social Shaming"}, cfg.ActiveTriggers())
}

func TestDetectProhibitedPhrases(t *testing.T) {
	cfg := Default()

	hits := cfg.DetectProhibitedPhrases("Pay up or YOU WILL GO TO JAIL, we will send someone to your house today.")
	assert.Equal(t, []string{"you will go to jail", "we will send someone to your house"}, hits)

	assert.Empty(t, cfg.DetectProhibitedPhrases("Could we discuss a revised payment plan?"))
}

func TestRiskLevelForProduct(t *testing.T) {
	cfg := Default()
	cfg.Products = []ProductConfig{{ProductName: "Gold Card", RiskLevel: "high"}}

	assert.Equal(t, "high", cfg.RiskLevelForProduct("gold card"))
	assert.Equal(t, "medium", cfg.RiskLevelForProduct("Unknown Product"))
}

func TestWeightedRiskScoreClamps(t *testing.T) {
	cfg := Default()

	assert.InDelta(t, 50.0, cfg.WeightedRiskScore(50, 50, 50), 0.001)
	assert.Equal(t, 100.0, cfg.WeightedRiskScore(500, 500, 500))
	assert.Equal(t, 0.0, cfg.WeightedRiskScore(-50, -50, -50))
}
