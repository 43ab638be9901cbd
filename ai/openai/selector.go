// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/tmbridge/ai"
	"github.com/poiesic/tmbridge/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxSelectAttempts = 3

var (
	// ErrNoCandidates is returned when SelectCandidate is given nothing to choose from.
	ErrNoCandidates = errors.New("no candidates to select from")

	// ErrUnknownChoice is returned when the model names a code that was not offered.
	ErrUnknownChoice = errors.New("model chose a code that was not offered")
)

// Selector implements ai.CandidateSelector using OpenAI-compatible chat APIs.
type Selector struct {
	client        llms.Model
	maxCandidates int
	logger        *slog.Logger
}

// choice is the JSON object the model is asked to return.
type choice struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// newSelector is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSelector(config *ai.Config) (*Selector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.SelectorHost),
		openai.WithToken(token(config)),
		openai.WithModel(config.SelectorModel),
	)
	if err != nil {
		return nil, err
	}

	return newSelectorWithModel(client, config.MaxCandidates), nil
}

func newSelectorWithModel(client llms.Model, maxCandidates int) *Selector {
	return &Selector{
		client:        client,
		maxCandidates: maxCandidates,
		logger:        slog.Default().With("component", "openai-selector"),
	}
}

// NewSelector creates a new candidate selector using the provided configuration.
//
// Returns ai.CandidateSelector interface to enforce abstraction.
func NewSelector(config *ai.Config) (ai.CandidateSelector, error) {
	return newSelector(config)
}

// SelectCandidate asks the model to pick the candidate that best matches
// query. The answer must name one of the offered codes.
func (s *Selector) SelectCandidate(ctx context.Context, query string, candidates []core.Candidate) (*ai.CandidateChoice, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if s.maxCandidates > 0 && len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}

	offered := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		offered[c.Code] = true
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildSystemPrompt()),
		llms.TextParts(llms.ChatMessageTypeHuman, buildUserPrompt(scrubString(query), candidates)),
	}

	var lastErr error
	for attempt := 1; attempt <= maxSelectAttempts; attempt++ {
		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			lastErr = errors.New("no choices returned from model")
			s.logger.Debug("no choices returned from model", "attempt", attempt)
			continue
		}

		var picked choice
		text := repairJSON(extractJSONObject(response.Choices[0].Content))
		if err := json.Unmarshal([]byte(text), &picked); err != nil {
			lastErr = err
			s.logger.Warn("error parsing selector response", "attempt", attempt, "response", text, "err", err)
			continue
		}

		picked.Code = strings.TrimSpace(picked.Code)
		if !offered[picked.Code] {
			lastErr = fmt.Errorf("%w: %q", ErrUnknownChoice, picked.Code)
			s.logger.Warn("selector chose unknown code", "attempt", attempt, "code", picked.Code)
			continue
		}

		s.logger.Debug("selected candidate", "code", picked.Code)
		return &ai.CandidateChoice{Code: picked.Code, Reason: strings.TrimSpace(picked.Reason)}, nil
	}

	s.logger.Error("failed to select candidate after retries", "err", lastErr)
	return nil, lastErr
}
