package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/hirezaa/internal/llm"
	"github.com/jonathan/hirezaa/internal/prompts"
	"github.com/jonathan/hirezaa/internal/schemas"
	"github.com/jonathan/hirezaa/internal/types"
)

// LLMBank asks a language model for questions and validates the reply
// against the section's JSON schema before decoding it.
type LLMBank struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMBank creates a bank backed by client.
func NewLLMBank(client llm.Client, tier llm.ModelTier) *LLMBank {
	if tier == "" {
		tier = llm.TierStandard
	}
	return &LLMBank{client: client, tier: tier}
}

type questionsEnvelope[T any] struct {
	Questions []T `json:"questions"`
}

// MCQ implements QuestionBank.
func (b *LLMBank) MCQ(ctx context.Context, req Request) ([]types.MCQQuestion, error) {
	return ask[types.MCQQuestion](ctx, b, schemas.MCQ, req)
}

// Coding implements QuestionBank.
func (b *LLMBank) Coding(ctx context.Context, req Request) ([]types.CodingQuestion, error) {
	return ask[types.CodingQuestion](ctx, b, schemas.Coding, req)
}

// SQL implements QuestionBank.
func (b *LLMBank) SQL(ctx context.Context, req Request) ([]types.SQLQuestion, error) {
	return ask[types.SQLQuestion](ctx, b, schemas.SQL, req)
}

func ask[T any](ctx context.Context, b *LLMBank, schema string, req Request) ([]T, error) {
	prompt, err := prompts.ForSection(req.Section, prompts.Vars{
		Count:      req.Count,
		Difficulty: req.Difficulty,
		Topics:     req.Topics,
	})
	if err != nil {
		return nil, err
	}

	raw, err := b.client.GenerateJSON(ctx, prompt, b.tier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s questions: %w", req.Section, err)
	}
	raw = llm.CleanJSONBlock(raw)

	if err := schemas.Validate(schema, raw); err != nil {
		return nil, fmt.Errorf("model returned invalid %s questions: %w", req.Section, err)
	}

	var env questionsEnvelope[T]
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("failed to decode %s questions: %w", req.Section, err)
	}
	return env.Questions, nil
}
