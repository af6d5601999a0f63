package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const suggestionSystemPrompt = `You are a data-migration analyst mapping fields between enterprise systems.
Given a source entity and a target entity with their fields, propose field correspondences.
Fields whose name is a [REDACTED_*] placeholder are sensitive; you may still map them by id using type and position.
Respond with JSON only, no prose, in this shape:
{"fields":[{"source_field_id":"...","target_field_name":"...","confidence":0.0,"transform":"direct|concat|formatDate|lookup|trim","rationale":"..."}]}`

// LLMProvider adapts any LLMClient into a Provider: builds the scrubbed
// prompt, applies the retry policy, parses the JSON reply.
type LLMProvider struct {
	name   string
	client LLMClient
	policy RetryPolicy
	logger *zap.Logger
}

// NewLLMProvider wires a client under the given provider name.
func NewLLMProvider(name string, client LLMClient, policy RetryPolicy, logger *zap.Logger) *LLMProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMProvider{name: name, client: client, policy: policy, logger: logger}
}

// Name returns the provider name ("gemini" or "anthropic").
func (p *LLMProvider) Name() string { return p.name }

// SuggestFieldMappings sends the scrubbed request and parses suggestions.
// Any failure after retries is returned; the caller treats it as "no
// suggestion" and stays on the heuristic path.
func (p *LLMProvider) SuggestFieldMappings(ctx context.Context, req *Request) (*Suggestions, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal suggestion request: %w", err)
	}
	userPrompt := fmt.Sprintf("Map source entity %q (%s) to target entity %q (%s).\nSchema snapshot:\n%s",
		req.SourceEntity, req.SourceSystem, req.TargetEntity, req.TargetSystem, payload)

	var raw string
	err = p.policy.Do(ctx, func(ctx context.Context) error {
		var callErr error
		raw, callErr = p.client.Complete(ctx, suggestionSystemPrompt, userPrompt)
		return callErr
	})
	if err != nil {
		p.logger.Warn("reasoning call failed, falling back to heuristics",
			zap.String("provider", p.name), zap.Error(err))
		return nil, err
	}

	sugg, err := ParseSuggestions(raw)
	if err != nil {
		p.logger.Warn("reasoning reply unparseable, falling back to heuristics",
			zap.String("provider", p.name), zap.Error(err))
		return nil, err
	}
	p.logger.Debug("reasoning suggestions received",
		zap.String("provider", p.name), zap.Int("fields", len(sugg.Fields)))
	return sugg, nil
}

// ParseSuggestions extracts the JSON suggestion object from a model reply,
// tolerating markdown fences and surrounding prose.
func ParseSuggestions(raw string) (*Suggestions, error) {
	text := strings.TrimSpace(raw)
	if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			text = text[i : j+1]
		}
	}
	var sugg Suggestions
	if err := json.Unmarshal([]byte(text), &sugg); err != nil {
		return nil, fmt.Errorf("malformed suggestion JSON: %w", err)
	}
	for i := range sugg.Fields {
		if sugg.Fields[i].Confidence < 0 {
			sugg.Fields[i].Confidence = 0
		}
		if sugg.Fields[i].Confidence > 1 {
			sugg.Fields[i].Confidence = 1
		}
	}
	return &sugg, nil
}
