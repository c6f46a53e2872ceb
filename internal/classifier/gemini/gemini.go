package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"sentiment-pulse/internal/api"
	"sentiment-pulse/internal/classifier"
	"sentiment-pulse/internal/logger"
	"sentiment-pulse/internal/store"
	"sentiment-pulse/internal/trace"
	"sentiment-pulse/internal/types"
)

const systemInstruction = `You are a Senior Crypto Quantitative Analyst with 10+ years of experience in digital asset markets.

ANALYSIS FRAMEWORK:
1. Identify key entities (coins, institutions, regulators)
2. Assess market impact on a scale of 0.0-1.0
3. Determine sentiment: bullish/bearish/neutral
4. Provide reasoning with specific market mechanisms

IMPACT SCORING CRITERIA:
- 0.9-1.0: Major regulatory changes, institutional adoption, protocol upgrades
- 0.7-0.9: Significant partnerships, large fund flows, macroeconomic shifts
- 0.5-0.7: Medium news (exchange listings, minor regulations)
- 0.3-0.5: Low impact (rumors, minor announcements)
- 0.0-0.3: Negligible impact

REASONING REQUIREMENTS:
- Cite specific price mechanisms (supply/demand, liquidity, sentiment)
- Consider historical precedents
- Account for market cycle context (bull/bear/consolidation)
- Distinguish short-term vs long-term effects

Output ONLY valid JSON.`

const verdictSchema = `{
  "title": string,
  "status": "bullish"|"bearish"|"neutral",
  "impact": 0.0 to 1.0,
  "source": string,
  "entities": [{"name": string, "type": string}],
  "weights": [{"label": string, "value": -1.0 to 1.0}],
  "summary": string,
  "reasoning_logic": string,
  "confidence_score": 0.0 to 1.0
}`

// Classifier calls the Gemini generateContent API and returns a types.Verdict.
type Classifier struct {
	cfg      *store.Config
	client   *api.Client
	endpoint string
}

// New creates a Gemini-backed classifier. The endpoint can be overridden via
// GEMINI_API_ENDPOINT for proxies.
func New(cfg *store.Config) *Classifier {
	endpoint := "https://generativelanguage.googleapis.com/v1beta"
	if ep := os.Getenv("GEMINI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Classifier{
		cfg:      cfg,
		client:   api.NewClient(api.WithBaseURL(endpoint), api.WithLogging(logger.IsDebugEnabled())),
		endpoint: endpoint,
	}
}

func (c *Classifier) Classify(ctx context.Context, text string) (types.Verdict, error) {
	ctx, span := trace.StartSpan(ctx, "gemini-classify")
	defer span.End()

	apiKey := os.Getenv(c.cfg.Classifier.APIKeyEnv)
	if apiKey == "" {
		return types.Verdict{}, classifier.NewError(classifier.KindNonRetryable, "gemini",
			fmt.Errorf("%s missing", c.cfg.Classifier.APIKeyEnv))
	}

	reqBody := map[string]any{
		"system_instruction": map[string]any{
			"parts": []map[string]string{{"text": systemInstruction}},
		},
		"contents": []map[string]any{
			{"parts": []map[string]string{
				{"text": fmt.Sprintf("Evaluate: %q\n\nRespond ONLY with compact JSON matching this schema:\n%s", text, verdictSchema)},
			}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"maxOutputTokens":  c.cfg.Classifier.MaxTokens,
			"temperature":      0.2,
		},
	}

	url := fmt.Sprintf("/models/%s:generateContent", c.cfg.Classifier.Model)
	resp, err := c.client.PostJSON(ctx, url, reqBody, map[string]string{"x-goog-api-key": apiKey})
	if err != nil {
		// Transport-level failure: cause unknown, worth retrying.
		return types.Verdict{}, classifier.NewError(classifier.KindUnknown, "gemini", err)
	}

	if resp.StatusCode >= 300 {
		return types.Verdict{}, classifier.NewError(kindForResponse(resp), "gemini",
			fmt.Errorf("gemini http %d: %s", resp.StatusCode, truncate(string(resp.Body), 256)))
	}

	var r struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return types.Verdict{}, classifier.NewError(classifier.KindNonRetryable, "gemini",
			fmt.Errorf("decoding response envelope: %w", err))
	}
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return types.Verdict{}, classifier.NewError(classifier.KindNonRetryable, "gemini",
			fmt.Errorf("response carried no candidates"))
	}

	verdict, err := parseVerdictFromText(r.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return types.Verdict{}, classifier.NewError(classifier.KindNonRetryable, "gemini", err)
	}
	return verdict, nil
}

// kindForResponse maps an HTTP error response to the failure taxonomy.
func kindForResponse(resp *api.Response) classifier.Kind {
	body := string(resp.Body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || strings.Contains(body, "RESOURCE_EXHAUSTED"):
		return classifier.KindRateLimited
	case resp.StatusCode >= 500:
		return classifier.KindServerError
	case strings.Contains(body, "UNKNOWN"):
		return classifier.KindUnknown
	default:
		return classifier.KindNonRetryable
	}
}

// parseVerdictFromText locates a JSON object in text and unmarshals it.
func parseVerdictFromText(text string) (types.Verdict, error) {
	t := strings.TrimSpace(text)

	if strings.HasPrefix(t, "{") {
		var v types.Verdict
		if err := json.Unmarshal([]byte(t), &v); err == nil {
			normalizeVerdict(&v)
			return v, nil
		}
	}

	// The model sometimes wraps JSON in prose or fences; take the outermost braces
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		var v types.Verdict
		if err := json.Unmarshal([]byte(t[start:end+1]), &v); err == nil {
			normalizeVerdict(&v)
			return v, nil
		}
	}

	return types.Verdict{}, fmt.Errorf("no parsable verdict in model output")
}

func normalizeVerdict(v *types.Verdict) {
	switch types.Status(strings.ToLower(strings.TrimSpace(string(v.Status)))) {
	case types.StatusBullish:
		v.Status = types.StatusBullish
	case types.StatusBearish:
		v.Status = types.StatusBearish
	default:
		v.Status = types.StatusNeutral
	}
	v.Impact = types.Clamp(v.Impact, 0, 1)
	if v.Confidence <= 0 || v.Confidence > 1 {
		v.Confidence = 0.95
	}
	for i := range v.Weights {
		v.Weights[i].Value = types.Clamp(v.Weights[i].Value, -1, 1)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
