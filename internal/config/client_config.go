// Package config holds the client (organization) configuration that
// parameterizes a compliance analysis: active policy set, custom rules,
// risk triggers, prohibited phrases, escalation thresholds and call-hour
// restrictions. The config is a per-request JSON document merged over
// organization defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// CustomRule is a client-defined compliance rule.
type CustomRule struct {
	RuleID      string `json:"rule_id"`
	RuleName    string `json:"rule_name"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // critical / high / medium / low
	Category    string `json:"category"`
}

// ProductConfig describes a monitored product or service.
type ProductConfig struct {
	ProductName      string   `json:"product_name"`
	ProductType      string   `json:"product_type"`
	RiskLevel        string   `json:"risk_level"` // high / medium / low
	SpecificPolicies []string `json:"specific_policies"`
}

// ComplianceTrigger is a keyword-activated compliance rule.
type ComplianceTrigger struct {
	TriggerName    string   `json:"trigger_name"`
	Keywords       []string `json:"keywords"`
	Severity       string   `json:"severity"`
	ActionRequired string   `json:"action_required"`
}

// RiskScoring holds escalation thresholds and component weights.
//
// The weight fields are validated for range but the comprehensive risk
// calculator uses its fixed component tables instead; they are exposed
// only through WeightedRiskScore.
type RiskScoring struct {
	BaseThreshold          int     `json:"base_threshold"`
	CriticalThreshold      int     `json:"critical_threshold"`
	WeightPolicyViolations float64 `json:"weight_policy_violations"`
	WeightEmotionalTone    float64 `json:"weight_emotional_tone"`
	WeightThreatDetection  float64 `json:"weight_threat_detection"`
}

// AllowedCallHours restricts when recovery calls may be placed.
type AllowedCallHours struct {
	Start    string `json:"start"` // HH:MM
	End      string `json:"end"`   // HH:MM
	Timezone string `json:"timezone"`
}

// ClientConfig is the complete client context for an analysis.
type ClientConfig struct {
	BusinessDomain   string `json:"business_domain"`
	OrganizationName string `json:"organization_name"`
	ActivePolicySet  string `json:"active_policy_set"`

	MonitoredProducts []string        `json:"monitored_products"`
	Products          []ProductConfig `json:"products"`

	CustomRules        []CustomRule        `json:"custom_rules"`
	RiskTriggers       []string            `json:"risk_triggers"`
	ComplianceTriggers []ComplianceTrigger `json:"compliance_triggers"`

	RiskScoring            RiskScoring `json:"risk_scoring"`
	AutoEscalateOnCritical bool        `json:"auto_escalate_on_critical"`

	AgentQualityThresholds map[string]int `json:"agent_quality_thresholds"`
	ProhibitedPhrases      []string       `json:"prohibited_phrases"`

	AllowedCallHours      AllowedCallHours `json:"allowed_call_hours"`
	MaxCallAttemptsPerDay int              `json:"max_call_attempts_per_day"`

	NotificationSettings map[string]bool `json:"notification_settings"`
	ReportRecipients     []string        `json:"report_recipients"`

	ConfigVersion string `json:"config_version"`
	LastUpdated   string `json:"last_updated,omitempty"`
	Notes         string `json:"notes,omitempty"`

	CustomInsights map[string]map[string]any `json:"custom_insights,omitempty"`
	Extensions     map[string]any            `json:"extensions,omitempty"`
}

// Default returns the built-in RBI debt-recovery configuration used when
// the caller supplies no override.
func Default() *ClientConfig {
	return &ClientConfig{
		BusinessDomain:   "Banking / Debt Recovery",
		OrganizationName: "Default Organization",
		ActivePolicySet:  "RBI_Compliance_v2.1",
		MonitoredProducts: []string{
			"Credit Card", "Personal Loan", "Savings Account",
		},
		RiskTriggers: []string{
			"Legal Threats",
			"Harassment",
			"Unauthorized Debit",
			"Physical Visit Threat",
			"Social Shaming",
			"Jail Mention",
			"Court Mention",
			"Family Mention",
			"Police Mention",
			"Coercion",
			"Abusive Language",
			"Threat",
		},
		RiskScoring: RiskScoring{
			BaseThreshold:          50,
			CriticalThreshold:      80,
			WeightPolicyViolations: 0.4,
			WeightEmotionalTone:    0.3,
			WeightThreatDetection:  0.3,
		},
		AutoEscalateOnCritical: true,
		AgentQualityThresholds: map[string]int{
			"minimum_politeness_score":      60,
			"minimum_empathy_score":         50,
			"minimum_professionalism_score": 70,
			"minimum_overall_score":         60,
		},
		ProhibitedPhrases: []string{
			"you will go to jail",
			"we will send someone to your house",
			"we will tell your family",
			"we will tell your employer",
			"you are a criminal",
			"you are a fraud",
		},
		AllowedCallHours: AllowedCallHours{
			Start:    "08:00",
			End:      "19:00",
			Timezone: "Asia/Kolkata",
		},
		MaxCallAttemptsPerDay: 3,
		NotificationSettings: map[string]bool{
			"email_on_critical_violation": true,
			"email_on_high_risk_score":    true,
			"webhook_enabled":             false,
		},
		ConfigVersion: "1.0.0",
	}
}

// LoadFile reads and validates a client configuration JSON file.
func LoadFile(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw JSON into a validated ClientConfig merged over defaults.
func Parse(data []byte) (*ClientConfig, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks threshold and weight ranges.
func (c *ClientConfig) Validate() error {
	if c.BusinessDomain == "" {
		return fmt.Errorf("business_domain is required")
	}
	if c.RiskScoring.BaseThreshold < 0 || c.RiskScoring.BaseThreshold > 100 {
		return fmt.Errorf("risk_scoring.base_threshold out of range: %d", c.RiskScoring.BaseThreshold)
	}
	if c.RiskScoring.CriticalThreshold < 0 || c.RiskScoring.CriticalThreshold > 100 {
		return fmt.Errorf("risk_scoring.critical_threshold out of range: %d", c.RiskScoring.CriticalThreshold)
	}
	for name, w := range map[string]float64{
		"weight_policy_violations": c.RiskScoring.WeightPolicyViolations,
		"weight_emotional_tone":    c.RiskScoring.WeightEmotionalTone,
		"weight_threat_detection":  c.RiskScoring.WeightThreatDetection,
	} {
		if w < 0.0 || w > 1.0 {
			return fmt.Errorf("risk_scoring.%s out of range: %g", name, w)
		}
	}
	if c.MaxCallAttemptsPerDay < 1 {
		c.MaxCallAttemptsPerDay = 1
	}
	return nil
}

// Merge deep-merges override onto base. Nested objects merge
// recursively; lists and scalars are replaced.
func Merge(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		if bm, ok := merged[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				merged[k] = Merge(bm, om)
				continue
			}
		}
		merged[k] = v
	}
	return merged
}

// ActiveTriggers returns the deduplicated union of legacy risk triggers
// and compliance trigger names.
func (c *ClientConfig) ActiveTriggers() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range c.RiskTriggers {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range c.ComplianceTriggers {
		if !seen[t.TriggerName] {
			seen[t.TriggerName] = true
			out = append(out, t.TriggerName)
		}
	}
	return out
}

// RiskLevelForProduct returns the configured risk level for a product,
// defaulting to "medium".
func (c *ClientConfig) RiskLevelForProduct(productName string) string {
	for _, p := range c.Products {
		if strings.EqualFold(p.ProductName, productName) {
			return p.RiskLevel
		}
	}
	return "medium"
}

// DetectProhibitedPhrases returns every configured prohibited phrase
// appearing in text (case-insensitive).
func (c *ClientConfig) DetectProhibitedPhrases(text string) []string {
	var detected []string
	lower := strings.ToLower(text)
	for _, phrase := range c.ProhibitedPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			detected = append(detected, phrase)
		}
	}
	return detected
}

// WeightedRiskScore combines component scores using the configured
// weights and clamps to [0,100].
func (c *ClientConfig) WeightedRiskScore(policyViolationScore, emotionalToneScore, threatDetectionScore float64) float64 {
	w := c.RiskScoring
	total := policyViolationScore*w.WeightPolicyViolations +
		emotionalToneScore*w.WeightEmotionalTone +
		threatDetectionScore*w.WeightThreatDetection
	if total > 100 {
		return 100
	}
	if total < 0 {
		return 0
	}
	return total
}
