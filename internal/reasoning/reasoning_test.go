package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2, CallTimeout: time.Second}
}

func TestRetryPolicySucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyExhaustsAndReturnsLastError(t *testing.T) {
	t.Parallel()

	calls := 0
	sentinel := errors.New("service down")
	err := fastPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicyHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastPolicy().Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestParseSuggestionsPlainJSON(t *testing.T) {
	t.Parallel()

	raw := `{"fields":[{"source_field_id":"f1","target_field_name":"Name","confidence":0.9,"transform":"direct"}]}`
	sugg, err := ParseSuggestions(raw)
	require.NoError(t, err)
	require.Len(t, sugg.Fields, 1)
	assert.Equal(t, "f1", sugg.Fields[0].SourceFieldID)
	assert.Equal(t, "Name", sugg.Fields[0].TargetFieldName)
	assert.InDelta(t, 0.9, sugg.Fields[0].Confidence, 1e-9)
}

func TestParseSuggestionsToleratesFencesAndClampsConfidence(t *testing.T) {
	t.Parallel()

	raw := "Here you go:\n```json\n{\"fields\":[{\"source_field_id\":\"f1\",\"target_field_name\":\"Email\",\"confidence\":1.7}]}\n```"
	sugg, err := ParseSuggestions(raw)
	require.NoError(t, err)
	require.Len(t, sugg.Fields, 1)
	assert.Equal(t, 1.0, sugg.Fields[0].Confidence)
}

func TestParseSuggestionsMalformed(t *testing.T) {
	t.Parallel()

	_, err := ParseSuggestions("the model apologizes and returns prose")
	assert.Error(t, err)
}

type scriptedClient struct {
	reply string
	err   error
	calls int
}

func (c *scriptedClient) Complete(ctx context.Context, system, user string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func TestLLMProviderRetriesThenFails(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{err: errors.New("503")}
	p := NewLLMProvider("gemini", client, fastPolicy(), nil)
	sugg, err := p.SuggestFieldMappings(context.Background(), &Request{})
	assert.Error(t, err)
	assert.Nil(t, sugg)
	assert.Equal(t, 3, client.calls)
}

func TestLLMProviderParsesReply(t *testing.T) {
	t.Parallel()

	client := &scriptedClient{reply: `{"fields":[{"source_field_id":"s1","target_field_name":"Phone","confidence":0.8}]}`}
	p := NewLLMProvider("anthropic", client, fastPolicy(), nil)
	sugg, err := p.SuggestFieldMappings(context.Background(), &Request{})
	require.NoError(t, err)
	require.Len(t, sugg.Fields, 1)
	assert.Equal(t, "Phone", sugg.Fields[0].TargetFieldName)
}
