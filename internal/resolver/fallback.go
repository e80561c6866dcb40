package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clearhaul/freight-cli/internal/model"
	"github.com/clearhaul/freight-cli/internal/resilience"
	"github.com/clearhaul/freight-cli/pkg/anthropic"
)

// fallbackMaxTokens bounds the suggestion response; header sets are small.
const fallbackMaxTokens = 2048

// AnthropicFallback implements Fallback using the Claude messages API. It
// asks for a strict JSON mapping of headers to catalog fields and passes the
// model's confidences through untouched.
type AnthropicFallback struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
}

// NewAnthropicFallback creates a fallback rate-limited to rpm requests per
// minute. rpm <= 0 disables the limiter.
func NewAnthropicFallback(client anthropic.Client, modelID string, rpm int) *AnthropicFallback {
	var limiter *rate.Limiter
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
	return &AnthropicFallback{client: client, model: modelID, limiter: limiter}
}

func (f *AnthropicFallback) SuggestMappings(ctx context.Context, headers []string, samples []map[string]string) (map[string]Suggestion, error) {
	if len(headers) == 0 {
		return map[string]Suggestion{}, nil
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "resolver: fallback rate limit wait")
		}
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "header_fallback")

	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return f.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     f.model,
			MaxTokens: fallbackMaxTokens,
			System:    fallbackSystemPrompt,
			Messages: []anthropic.Message{
				{Role: "user", Content: buildFallbackPrompt(headers, samples)},
			},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "resolver: fallback call")
	}
	resp.Usage.LogUsage(f.model, "header_fallback")

	suggestions, err := parseSuggestions(resp.Text)
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

const fallbackSystemPrompt = `You map freight-tracking spreadsheet headers to canonical field names.
Respond with a JSON array only, no prose. Each element:
{"header": "<exact input header>", "field": "<canonical field or empty string>", "confidence": <0.0-1.0>}
Use an empty field and confidence 0 when no canonical field fits.`

func buildFallbackPrompt(headers []string, samples []map[string]string) string {
	var b strings.Builder
	b.WriteString("Canonical fields:\n")
	for _, f := range model.Catalog {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\nHeaders to map:\n")
	for _, h := range headers {
		fmt.Fprintf(&b, "- %q", h)
		if vals := sampleValues(h, samples, 3); len(vals) > 0 {
			fmt.Fprintf(&b, " (sample values: %s)", strings.Join(vals, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseSuggestions decodes the model's JSON array, dropping suggestions for
// fields outside the catalog and clamping confidence into [0,1].
func parseSuggestions(text string) (map[string]Suggestion, error) {
	payload := extractJSONArray(text)
	if payload == "" {
		return nil, eris.New("resolver: fallback returned no JSON array")
	}

	var items []struct {
		Header     string  `json:"header"`
		Field      string  `json:"field"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, eris.Wrap(err, "resolver: parse fallback response")
	}

	out := make(map[string]Suggestion, len(items))
	for _, it := range items {
		if it.Header == "" || it.Field == "" {
			continue
		}
		field := model.CanonicalField(it.Field)
		if !model.KnownField(field) {
			zap.L().Warn("resolver: fallback suggested unknown field",
				zap.String("header", it.Header),
				zap.String("field", it.Field),
			)
			continue
		}
		out[it.Header] = Suggestion{Field: field, Confidence: clamp01(it.Confidence)}
	}
	return out, nil
}

// extractJSONArray pulls the outermost JSON array out of a response that may
// be fenced or wrapped in prose.
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
