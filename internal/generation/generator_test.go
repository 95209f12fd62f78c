package generation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/hirezaa/internal/llm"
	"github.com/jonathan/hirezaa/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBank wraps the template bank and lets tests fail or stall a section.
type stubBank struct {
	inner    *TemplateBank
	failing  map[types.Section]error
	stalled  map[types.Section]bool
	truncate map[types.Section]int

	mu    sync.Mutex
	calls map[types.Section]int
}

func newStubBank(t *testing.T) *stubBank {
	t.Helper()
	inner, err := NewTemplateBank()
	require.NoError(t, err)
	return &stubBank{
		inner:    inner,
		failing:  map[types.Section]error{},
		stalled:  map[types.Section]bool{},
		truncate: map[types.Section]int{},
		calls:    map[types.Section]int{},
	}
}

func (b *stubBank) before(ctx context.Context, s types.Section) error {
	b.mu.Lock()
	b.calls[s]++
	b.mu.Unlock()
	if b.stalled[s] {
		<-ctx.Done()
		return ctx.Err()
	}
	return b.failing[s]
}

func (b *stubBank) MCQ(ctx context.Context, req Request) ([]types.MCQQuestion, error) {
	if err := b.before(ctx, types.SectionMCQ); err != nil {
		return nil, err
	}
	qs, err := b.inner.MCQ(ctx, req)
	if n, ok := b.truncate[types.SectionMCQ]; ok {
		qs = qs[:n]
	}
	return qs, err
}

func (b *stubBank) Coding(ctx context.Context, req Request) ([]types.CodingQuestion, error) {
	if err := b.before(ctx, types.SectionCoding); err != nil {
		return nil, err
	}
	return b.inner.Coding(ctx, req)
}

func (b *stubBank) SQL(ctx context.Context, req Request) ([]types.SQLQuestion, error) {
	if err := b.before(ctx, types.SectionSQL); err != nil {
		return nil, err
	}
	return b.inner.SQL(ctx, req)
}

func baseConfig() Config {
	return Config{
		Topics:      []string{"algorithms", "go"},
		Difficulty:  types.DifficultyMedium,
		MCQCount:    3,
		CodingCount: 2,
		SQLCount:    1,
	}
}

func TestGenerate_ProducesRequestedCounts(t *testing.T) {
	gen := NewGenerator(newStubBank(t), time.Second)

	set, err := gen.Generate(context.Background(), baseConfig())
	require.NoError(t, err)

	assert.Len(t, set.MCQ, 3)
	assert.Len(t, set.Coding, 2)
	assert.Len(t, set.SQL, 1)

	assert.Equal(t, "mcq_0", set.MCQ[0].ID)
	assert.Equal(t, "mcq_2", set.MCQ[2].ID)
	assert.Equal(t, "coding_1", set.Coding[1].ID)
	assert.Equal(t, "sql_0", set.SQL[0].ID)

	for _, q := range set.MCQ {
		assert.Contains(t, []string{"algorithms", "go"}, q.Topic)
		assert.Equal(t, types.DifficultyMedium, q.Difficulty)
	}
	for _, q := range set.Coding {
		assert.NotEmpty(t, q.Examples)
		assert.True(t, q.HasHiddenTestCase())
	}
}

func TestGenerate_ZeroCountSkipsSection(t *testing.T) {
	bank := newStubBank(t)
	gen := NewGenerator(bank, time.Second)

	cfg := baseConfig()
	cfg.SQLCount = 0
	set, err := gen.Generate(context.Background(), cfg)
	require.NoError(t, err)

	assert.Empty(t, set.SQL)
	assert.NotNil(t, set.SQL)
	assert.Zero(t, bank.calls[types.SectionSQL])
}

func TestGenerate_FailedSectionDoesNotBlockOthers(t *testing.T) {
	bank := newStubBank(t)
	bank.failing[types.SectionCoding] = errors.New("model unavailable")
	gen := NewGenerator(bank, time.Second)

	set, err := gen.Generate(context.Background(), baseConfig())
	require.Error(t, err)

	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.True(t, partial.Failed(types.SectionCoding))
	assert.False(t, partial.Failed(types.SectionMCQ))
	assert.Len(t, partial.Sections, 1)

	var sectionErr *SectionError
	require.ErrorAs(t, err, &sectionErr)
	assert.Equal(t, types.SectionCoding, sectionErr.Section)
	assert.Contains(t, err.Error(), "model unavailable")

	assert.Len(t, set.MCQ, 3)
	assert.Len(t, set.SQL, 1)
	assert.Empty(t, set.Coding)
}

func TestGenerate_SectionTimeout(t *testing.T) {
	bank := newStubBank(t)
	bank.stalled[types.SectionSQL] = true
	gen := NewGenerator(bank, 20*time.Millisecond)

	set, err := gen.Generate(context.Background(), baseConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, set.MCQ, 3)
	assert.Len(t, set.Coding, 2)
}

func TestGenerate_ShortBankReplyIsFailure(t *testing.T) {
	bank := newStubBank(t)
	bank.truncate[types.SectionMCQ] = 1
	gen := NewGenerator(bank, time.Second)

	_, err := gen.Generate(context.Background(), baseConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3")
}

func TestGenerate_RequiresTopics(t *testing.T) {
	gen := NewGenerator(newStubBank(t), time.Second)
	cfg := baseConfig()
	cfg.Topics = nil

	_, err := gen.Generate(context.Background(), cfg)
	require.Error(t, err)
}

func TestGenerate_RejectsNegativeCounts(t *testing.T) {
	gen := NewGenerator(newStubBank(t), time.Second)
	cfg := baseConfig()
	cfg.MCQCount = -1

	_, err := gen.Generate(context.Background(), cfg)
	require.Error(t, err)
}

func TestConfigFromJob(t *testing.T) {
	cfg := ConfigFromJob(&types.AssessmentConfig{
		MCQCount:    5,
		CodingCount: 1,
		Topics:      []string{"sql"},
	}, types.DifficultyHard)

	assert.Equal(t, types.DifficultyHard, cfg.Difficulty)
	assert.Equal(t, 5, cfg.MCQCount)
	assert.Equal(t, []string{"sql"}, cfg.Topics)

	cfg = ConfigFromJob(&types.AssessmentConfig{Difficulty: types.DifficultyEasy, Topics: []string{"x"}}, types.DifficultyHard)
	assert.Equal(t, types.DifficultyEasy, cfg.Difficulty)

	cfg = ConfigFromJob(&types.AssessmentConfig{Topics: []string{"x"}}, "")
	assert.Equal(t, types.DifficultyMedium, cfg.Difficulty)
}

func TestTemplateBank_TopicTemplatesAndSubstitution(t *testing.T) {
	bank, err := NewTemplateBank()
	require.NoError(t, err)

	req := Request{Topics: []string{"Algorithms", "kubernetes"}, Count: 2}
	qs, err := bank.MCQ(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, qs, 2)

	assert.Contains(t, qs[0].Question, "binary search")
	assert.Equal(t, "Algorithms", qs[0].Topic)
	assert.Contains(t, qs[1].Question, "kubernetes")
	assert.NotContains(t, qs[1].Question, topicPlaceholder)
}

func TestTemplateBank_Deterministic(t *testing.T) {
	bank, err := NewTemplateBank()
	require.NoError(t, err)

	req := Request{Topics: []string{"go"}, Count: 4}
	first, err := bank.Coding(context.Background(), req)
	require.NoError(t, err)
	second, err := bank.Coding(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Templates rotate on revisits of the same topic.
	assert.NotEqual(t, first[0].Title, first[1].Title)
	assert.Equal(t, first[0].Title, first[2].Title)
}

func TestParseTemplateBank_RequiresGenericTemplates(t *testing.T) {
	_, err := ParseTemplateBank([]byte("mcq:\n  generic: []\n"))
	require.Error(t, err)

	_, err = ParseTemplateBank([]byte("mcq: [unclosed"))
	require.Error(t, err)
}

type fakeLLM struct {
	reply string
	err   error
	last  string
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.last = prompt
	return f.reply, f.err
}

func (f *fakeLLM) GetModel(llm.ModelTier) string { return "fake" }
func (f *fakeLLM) Close() error                  { return nil }

func TestLLMBank_DecodesValidatedReply(t *testing.T) {
	client := &fakeLLM{reply: "```json\n{\"questions\":[{\"question\":\"What is a goroutine?\",\"options\":[\"a thread\",\"a lightweight thread managed by the runtime\"],\"correctAnswer\":1,\"topic\":\"go\"}]}\n```"}
	bank := NewLLMBank(client, "")

	qs, err := bank.MCQ(context.Background(), Request{Section: types.SectionMCQ, Topics: []string{"go", "sql"}, Difficulty: types.DifficultyHard, Count: 1})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, 1, qs[0].CorrectAnswer)
	assert.Equal(t, "go", qs[0].Topic)

	assert.Contains(t, client.last, "exactly 1 multiple-choice")
	assert.Contains(t, client.last, "go, sql")
	assert.Contains(t, client.last, "hard")
	assert.False(t, strings.Contains(client.last, "{{."))
}

func TestLLMBank_RejectsSchemaViolations(t *testing.T) {
	client := &fakeLLM{reply: `{"questions":[{"title":"t","description":"d","examples":[],"testCases":[]}]}`}
	bank := NewLLMBank(client, llm.TierAdvanced)

	_, err := bank.Coding(context.Background(), Request{Section: types.SectionCoding, Topics: []string{"go"}, Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid coding questions")
}

func TestLLMBank_PropagatesClientError(t *testing.T) {
	client := &fakeLLM{err: errors.New("quota exceeded")}
	gen := NewGenerator(NewLLMBank(client, ""), time.Second)

	_, err := gen.Generate(context.Background(), Config{Topics: []string{"go"}, SQLCount: 1})
	require.Error(t, err)
	var partial *PartialError
	require.ErrorAs(t, err, &partial)
	assert.True(t, partial.Failed(types.SectionSQL))
}
