package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/tmbridge/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// scriptedModel replays canned responses in order.
type scriptedModel struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	i := min(m.calls-1, len(m.responses)-1)
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.responses[i]}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

var testCandidates = []core.Candidate{
	{Code: "SP42", Term: "pRuShTha-grahaH", English: "back stiffness", Source: core.SourceLexical},
	{Code: "SP17", Term: "kaTi-grahaH", English: "lumbar stiffness", Source: core.SourceLexical},
}

func TestSelector_SelectCandidate(t *testing.T) {
	t.Run("valid choice", func(t *testing.T) {
		model := &scriptedModel{responses: []string{"```json\n{\"code\": \"SP17\", \"reason\": \"lumbar\"}\n```"}}
		s := newSelectorWithModel(model, 10)

		got, err := s.SelectCandidate(context.Background(), "lower back stiffness", testCandidates)
		require.NoError(t, err)
		assert.Equal(t, "SP17", got.Code)
		assert.Equal(t, "lumbar", got.Reason)
		assert.Equal(t, 1, model.calls)

		joined := strings.Join(model.prompts, "\n")
		assert.Contains(t, joined, "1. SP42 | pRuShTha-grahaH | back stiffness")
		assert.Contains(t, joined, "2. SP17 | kaTi-grahaH")
	})

	t.Run("retries malformed then succeeds", func(t *testing.T) {
		model := &scriptedModel{responses: []string{"not json", `{code": "SP42", "reason": "x"}`}}
		s := newSelectorWithModel(model, 10)

		got, err := s.SelectCandidate(context.Background(), "back", testCandidates)
		require.NoError(t, err)
		assert.Equal(t, "SP42", got.Code)
		assert.Equal(t, 2, model.calls)
	})

	t.Run("invented code rejected", func(t *testing.T) {
		model := &scriptedModel{responses: []string{`{"code": "ZZ99", "reason": "x"}`}}
		s := newSelectorWithModel(model, 10)

		_, err := s.SelectCandidate(context.Background(), "back", testCandidates)
		assert.True(t, errors.Is(err, ErrUnknownChoice))
		assert.Equal(t, maxSelectAttempts, model.calls)
	})

	t.Run("model error", func(t *testing.T) {
		model := &scriptedModel{err: errors.New("connection refused")}
		s := newSelectorWithModel(model, 10)

		_, err := s.SelectCandidate(context.Background(), "back", testCandidates)
		assert.Error(t, err)
	})

	t.Run("no candidates", func(t *testing.T) {
		s := newSelectorWithModel(&scriptedModel{}, 10)
		_, err := s.SelectCandidate(context.Background(), "back", nil)
		assert.True(t, errors.Is(err, ErrNoCandidates))
	})

	t.Run("candidates capped", func(t *testing.T) {
		model := &scriptedModel{responses: []string{`{"code": "SP17", "reason": "x"}`}}
		s := newSelectorWithModel(model, 1)

		_, err := s.SelectCandidate(context.Background(), "back", testCandidates)
		assert.True(t, errors.Is(err, ErrUnknownChoice))
	})
}
