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
	"fmt"
	"log/slog"

	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Synthesizer implements ai.Synthesizer using the Azure OpenAI chat API.
type Synthesizer struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// pairResponse is an internal type used for JSON unmarshaling.
// It matches the structure requested from the model.
type pairResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// newSynthesizer is an internal constructor that returns the concrete type.
func newSynthesizer(config *ai.Config) (*Synthesizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithBaseURL(config.Endpoint),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Deployment),
		openai.WithAPIVersion(config.APIVersion),
	)
	if err != nil {
		return nil, err
	}

	return &Synthesizer{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewSynthesizer creates a new pair synthesizer using the provided
// configuration.
//
// Returns ai.Synthesizer interface to enforce abstraction.
func NewSynthesizer(config *ai.Config) (ai.Synthesizer, error) {
	return newSynthesizer(config)
}

// Synthesize derives a question/answer pair from one serialized thread.
// The request is independent per thread; no cross-thread context is sent.
func (s *Synthesizer) Synthesize(ctx context.Context, thread string) (*core.QAPair, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(thread),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content,
		llms.WithTemperature(s.temperature),
		llms.WithMaxTokens(s.maxTokens),
		llms.WithJSONMode())
	if err != nil {
		// Transport and throttling errors bubble up for the caller's
		// retry policy to classify
		return nil, err
	}

	if len(response.Choices) < 1 {
		s.logger.Debug("no choices returned from model")
		return nil, fmt.Errorf("%w: empty response", ai.ErrMalformedOutput)
	}

	pair, err := parsePairResponse(response.Choices[0].Content)
	if err != nil {
		s.logger.Warn("unusable model response", "err", err)
		return nil, err
	}

	return pair, nil
}

// parsePairResponse extracts a QAPair from raw model output. The model may
// wrap the JSON in markdown fences or explanatory prose; only the object is
// kept.
func parsePairResponse(raw string) (*core.QAPair, error) {
	text := stripFences(raw)
	text = extractJSONObject(text)
	text = repairJSON(text)

	var result pairResponse
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}

	// An empty question is the model's way of declining social chatter
	if result.Question == "" || result.Answer == "" {
		return nil, ai.ErrNoPair
	}

	return &core.QAPair{Question: result.Question, Answer: result.Answer}, nil
}
