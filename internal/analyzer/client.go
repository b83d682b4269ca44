// Package analyzer calls the LLM gateway to run the compliance
// extraction over a formatted call context, with retry and an offline
// mock mode for demos and tests.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"vigilant-go/internal/logger"
	"vigilant-go/internal/types"
)

var httpClient = &http.Client{
	Timeout: 12 * time.Second,
}

// Client talks to an OpenAI-compatible chat completions gateway.
type Client struct {
	apiURL  string
	apiKey  string
	model   string
	useMock bool
	log     *logrus.Entry
}

// NewFromEnv configures the client from LLM_GATEWAY_URL, LLM_API_KEY
// and LLM_MODEL. Set USE_MOCK_LLM=true for offline demo mode.
func NewFromEnv() *Client {
	return &Client{
		apiURL:  os.Getenv("LLM_GATEWAY_URL"),
		apiKey:  os.Getenv("LLM_API_KEY"),
		model:   os.Getenv("LLM_MODEL"),
		useMock: os.Getenv("USE_MOCK_LLM") == "true",
		log:     logger.New().WithField("component", "analyzer"),
	}
}

// Analyze runs the compliance extraction prompt and parses the model's
// JSON reply into a ComplianceResult.
func (c *Client) Analyze(ctx context.Context, prompt string) (*types.ComplianceResult, error) {
	if c.useMock {
		c.log.Info("mock mode enabled, returning deterministic analysis")
		return mockResult(), nil
	}

	if c.apiURL == "" || c.apiKey == "" {
		return nil, fmt.Errorf("llm gateway not configured")
	}

	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.0,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	var out types.ComplianceResult
	var lastErr error

	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, 12*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.apiURL, bytes.NewReader(data))
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("llm server error: %s", string(body))
			return lastErr
		}

		var parsed struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Choices) > 0 {
			if raw, ok := extractJSON(parsed.Choices[0].Message.Content); ok {
				if err := json.Unmarshal([]byte(raw), &out); err == nil {
					lastErr = nil
					return nil
				}
			}
		}

		// Some gateways return the JSON payload directly.
		if raw, ok := extractJSON(string(body)); ok {
			if err := json.Unmarshal([]byte(raw), &out); err == nil {
				lastErr = nil
				return nil
			}
		}

		lastErr = fmt.Errorf("unexpected llm response: %s", string(body))
		return lastErr
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 20 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		c.log.WithError(lastErr).Error("compliance extraction failed")
		return nil, fmt.Errorf("compliance extraction failed: %w", lastErr)
	}
	return &out, nil
}

// extractJSON strips markdown fences and surrounding prose, returning
// the substring from the first { to the last }.
func extractJSON(text string) (string, bool) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// mockResult is the deterministic analysis used when USE_MOCK_LLM=true.
func mockResult() *types.ComplianceResult {
	return &types.ComplianceResult{
		Summary: "The agent contacted the customer regarding an overdue personal loan installment. " +
			"The customer explained a temporary cash flow problem and requested additional time. " +
			"The agent remained professional, explained the outstanding amount and late fee, and offered a revised payment date. " +
			"The customer agreed to pay within the week and the call ended on a cooperative note. " +
			"No threatening or abusive language was used and the interaction stayed within policy.",
		Category:         "Debt Recovery",
		OverallSentiment: "Neutral",
		EmotionalTone:    "Calm",
		ToneProgression:  []string{"Neutral", "Concerned", "Calm"},
		EmotionalGraph: []types.EmotionPoint{
			{Timestamp: "00:00", Tone: "Neutral", Score: 0.5, AcousticArousal: "Low"},
			{Timestamp: "00:30", Tone: "Concerned", Score: 0.55, AcousticArousal: "Medium"},
			{Timestamp: "01:00", Tone: "Calm", Score: 0.45, AcousticArousal: "Low"},
		},
		EmotionTimeline: []types.EmotionStage{
			{Time: "start", Emotion: "neutral"},
			{Time: "middle", Emotion: "concerned"},
			{Time: "end", Emotion: "calm"},
		},
		IsWithinPolicy:        true,
		ComplianceFlags:       []string{},
		PolicyViolations:      []types.PolicyViolation{},
		DetectedThreats:       []string{},
		FraudRisk:             "low",
		EscalationRisk:        "low",
		UrgencyLevel:          "low",
		RiskEscalationScore:   10,
		AgentPoliteness:       "good",
		AgentEmpathy:          "high",
		AgentProfessionalism:  "good",
		AgentQualityScore:     82,
		CustomerSentiment:     "Neutral",
		AgentSentiment:        "Professional",
		CallOutcomePrediction: "Resolved",
		FinalStatus:           "Closed - Payment Committed",
		RecommendedAction:     "No action required. Standard follow-up on committed payment date.",
	}
}
