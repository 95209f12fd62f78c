package generation

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/hirezaa/internal/types"
)

//go:embed bank.yaml
var builtinBank []byte

const topicPlaceholder = "{{topic}}"

type sectionTemplates[T any] struct {
	Generic []T            `yaml:"generic"`
	Topics  map[string][]T `yaml:"topics"`
}

type bankFile struct {
	MCQ    sectionTemplates[types.MCQQuestion]    `yaml:"mcq"`
	Coding sectionTemplates[types.CodingQuestion] `yaml:"coding"`
	SQL    sectionTemplates[types.SQLQuestion]    `yaml:"sql"`
}

// TemplateBank serves questions from a fixed set of templates. It is
// deterministic: the same request always yields the same questions.
type TemplateBank struct {
	file bankFile
}

// NewTemplateBank loads the built-in templates.
func NewTemplateBank() (*TemplateBank, error) {
	return ParseTemplateBank(builtinBank)
}

// ParseTemplateBank loads templates from YAML.
func ParseTemplateBank(data []byte) (*TemplateBank, error) {
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if len(file.MCQ.Generic) == 0 || len(file.Coding.Generic) == 0 || len(file.SQL.Generic) == 0 {
		return nil, fmt.Errorf("question bank needs generic templates for every section")
	}
	file.MCQ.Topics = normalizeTopics(file.MCQ.Topics)
	file.Coding.Topics = normalizeTopics(file.Coding.Topics)
	file.SQL.Topics = normalizeTopics(file.SQL.Topics)
	return &TemplateBank{file: file}, nil
}

// MCQ implements QuestionBank.
func (b *TemplateBank) MCQ(ctx context.Context, req Request) ([]types.MCQQuestion, error) {
	out := make([]types.MCQQuestion, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		topic, tmpl := pick(b.file.MCQ, req.Topics, i)
		q := tmpl
		q.Question = strings.ReplaceAll(q.Question, topicPlaceholder, topic)
		q.Options = append([]string(nil), tmpl.Options...)
		q.Topic = topic
		out = append(out, q)
	}
	return out, nil
}

// Coding implements QuestionBank.
func (b *TemplateBank) Coding(ctx context.Context, req Request) ([]types.CodingQuestion, error) {
	out := make([]types.CodingQuestion, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		topic, tmpl := pick(b.file.Coding, req.Topics, i)
		q := tmpl
		q.Title = strings.ReplaceAll(q.Title, topicPlaceholder, topic)
		q.Description = strings.ReplaceAll(q.Description, topicPlaceholder, topic)
		q.Examples = append([]types.Example(nil), tmpl.Examples...)
		q.Constraints = append([]string(nil), tmpl.Constraints...)
		q.TestCases = append([]types.TestCase(nil), tmpl.TestCases...)
		q.Topic = topic
		out = append(out, q)
	}
	return out, nil
}

// SQL implements QuestionBank.
func (b *TemplateBank) SQL(ctx context.Context, req Request) ([]types.SQLQuestion, error) {
	out := make([]types.SQLQuestion, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		topic, tmpl := pick(b.file.SQL, req.Topics, i)
		q := tmpl
		q.Question = strings.ReplaceAll(q.Question, topicPlaceholder, topic)
		q.Topic = topic
		out = append(out, q)
	}
	return out, nil
}

// pick assigns question i to topic i mod len(topics) and rotates through
// that topic's templates on each revisit.
func pick[T any](s sectionTemplates[T], topics []string, i int) (string, T) {
	topic := "general"
	round := i
	if len(topics) > 0 {
		topic = topics[i%len(topics)]
		round = i / len(topics)
	}
	pool := s.Topics[strings.ToLower(strings.TrimSpace(topic))]
	if len(pool) == 0 {
		pool = s.Generic
	}
	return topic, pool[round%len(pool)]
}

func normalizeTopics[T any](in map[string][]T) map[string][]T {
	out := make(map[string][]T, len(in))
	for k, v := range in {
		key := strings.ToLower(strings.TrimSpace(k))
		out[key] = append(out[key], v...)
	}
	return out
}
