// Package reasoning wraps the optional external reasoning service behind a
// narrow contract. The engine behaves identically whether a provider is
// absent, returns nothing, or fails after retries: every degraded outcome
// collapses to "no suggestion" and the heuristic path takes over.
package reasoning

import (
	"context"
	"fmt"
	"time"

	"schemabridge/internal/piiguard"
	"schemabridge/internal/schema"
)

// Request carries a PII-scrubbed schema snapshot to the provider. Raw field
// names for GLBA_NPI / PCI_CARD fields never appear here; piiguard.Scrub is
// the only constructor for the field lists.
type Request struct {
	SourceSystem schema.SystemType        `json:"source_system"`
	TargetSystem schema.SystemType        `json:"target_system"`
	SourceEntity string                   `json:"source_entity"`
	TargetEntity string                   `json:"target_entity"`
	SourceFields []piiguard.ScrubbedField `json:"source_fields"`
	TargetFields []piiguard.ScrubbedField `json:"target_fields"`
}

// FieldSuggestion is one provider-proposed field correspondence. The
// provider names target fields; the engine resolves names back to ids and
// ignores suggestions naming unknown fields.
type FieldSuggestion struct {
	SourceFieldID   string  `json:"source_field_id"`
	TargetFieldName string  `json:"target_field_name"`
	Confidence      float64 `json:"confidence"`
	Transform       string  `json:"transform,omitempty"`
	Rationale       string  `json:"rationale,omitempty"`
}

// Suggestions is the structured provider response.
type Suggestions struct {
	Fields []FieldSuggestion `json:"fields"`
}

// Provider is the reasoning-service contract. A nil *Suggestions with a nil
// error means the provider had nothing to offer; callers treat that the
// same as an exhausted-retries failure.
type Provider interface {
	Name() string
	SuggestFieldMappings(ctx context.Context, req *Request) (*Suggestions, error)
}

// RetryPolicy bounds the only blocking calls in the pipeline. Applied
// uniformly around the single external-call boundary.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
	CallTimeout time.Duration
}

// DefaultRetryPolicy: up to 3 attempts, 500ms base doubling, 30s per call.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		CallTimeout: 30 * time.Second,
	}
}

// Do runs fn under the policy. Each attempt gets its own CallTimeout
// deadline; delays double between attempts. The last error is returned
// after exhaustion; callers fall back to heuristics rather than propagate.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.BaseDelay
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= time.Duration(p.Multiplier)
		}
		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.CallTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		}
		err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// LLMClient is the minimal completion interface both clients implement.
// Mirrors the shape the prompt layer needs and nothing more.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
