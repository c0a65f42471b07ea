// Package gemini implements the advisor contract on Google's Gemini API.
// Responses are requested as JSON constrained by a schema, then parsed and
// shape-checked before they reach the caller.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/aristath/roboadvisor/internal/advisor"
)

// requestTimeout bounds each generation call
const requestTimeout = 60 * time.Second

// Client calls the Gemini API. It implements advisor.Advisor.
type Client struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// New creates a Gemini-backed advisor
func New(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
		log:    log.With().Str("component", "gemini").Logger(),
	}, nil
}

// TradingSignal asks the model for a structured signal on one symbol
func (c *Client) TradingSignal(ctx context.Context, req advisor.SignalRequest) (advisor.SignalResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt, err := signalPrompt(req)
	if err != nil {
		return advisor.SignalResponse{}, err
	}

	raw, err := c.generate(ctx, prompt, signalSchema)
	if err != nil {
		return advisor.SignalResponse{}, err
	}

	var resp advisor.SignalResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return advisor.SignalResponse{}, fmt.Errorf("failed to parse signal response: %w", err)
	}
	if strings.TrimSpace(resp.Action) == "" {
		return advisor.SignalResponse{}, fmt.Errorf("signal response missing action")
	}
	if strings.TrimSpace(resp.Reasoning) == "" {
		return advisor.SignalResponse{}, fmt.Errorf("signal response missing reasoning")
	}

	c.log.Debug().Str("symbol", req.Symbol).Str("action", resp.Action).
		Float64("confidence", resp.Confidence).Msg("Signal generated")
	return resp, nil
}

// PortfolioAnalysis asks the model for a narrative portfolio review
func (c *Client) PortfolioAnalysis(ctx context.Context, req advisor.AnalysisRequest) (advisor.AnalysisResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	prompt, err := analysisPrompt(req)
	if err != nil {
		return advisor.AnalysisResponse{}, err
	}

	raw, err := c.generate(ctx, prompt, analysisSchema)
	if err != nil {
		return advisor.AnalysisResponse{}, err
	}

	var resp advisor.AnalysisResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return advisor.AnalysisResponse{}, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	if strings.TrimSpace(resp.Summary) == "" {
		return advisor.AnalysisResponse{}, fmt.Errorf("analysis response missing summary")
	}

	return resp, nil
}

func (c *Client) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

var signalSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"action":       {Type: genai.TypeString, Enum: []string{"BUY", "SELL", "HOLD"}},
		"confidence":   {Type: genai.TypeNumber},
		"reasoning":    {Type: genai.TypeString},
		"key_factors":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"risk_level":   {Type: genai.TypeString},
		"time_horizon": {Type: genai.TypeString},
	},
	Required: []string{"action", "confidence", "reasoning"},
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary":        {Type: genai.TypeString},
		"strengths":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"concerns":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"suggestions":    {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"overall_rating": {Type: genai.TypeString},
	},
	Required: []string{"summary"},
}

func signalPrompt(req advisor.SignalRequest) (string, error) {
	features, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode signal request: %w", err)
	}

	return fmt.Sprintf(`You are an investment analyst generating a trading signal for %s.

Analyze the data below. It contains the stock's computed risk profile,
a summary of recent news sentiment, recent price action with indicators,
and the latest headlines.

%s

Respond with a trading signal:
- action: BUY, SELL or HOLD
- confidence: 0.0 to 1.0
- reasoning: two or three sentences grounding the action in the data
- key_factors: the data points that drove the decision
- risk_level: low, moderate, high or very_high
- time_horizon: short_term, medium_term or long_term`, req.Symbol, features), nil
}

func analysisPrompt(req advisor.AnalysisRequest) (string, error) {
	features, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis request: %w", err)
	}

	return fmt.Sprintf(`You are an investment analyst reviewing portfolio %d.

The data below contains the portfolio's aggregate risk profile, including
per-position risk scores and weights.

%s

Respond with a portfolio review:
- summary: a short narrative assessment
- strengths: what the portfolio does well
- concerns: risks and weaknesses worth attention
- suggestions: concrete improvements
- overall_rating: excellent, good, fair or poor`, req.PortfolioID, features), nil
}
