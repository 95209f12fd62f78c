package generation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/hirezaa/internal/types"
)

// DefaultSectionTimeout bounds a single bank call.
const DefaultSectionTimeout = 30 * time.Second

// Request is what a question bank receives for one section.
type Request struct {
	Section    types.Section
	Topics     []string
	Difficulty types.Difficulty
	Count      int
}

// QuestionBank produces questions for each section. Implementations may be
// slow or unavailable; the generator isolates each section's failure.
type QuestionBank interface {
	MCQ(ctx context.Context, req Request) ([]types.MCQQuestion, error)
	Coding(ctx context.Context, req Request) ([]types.CodingQuestion, error)
	SQL(ctx context.Context, req Request) ([]types.SQLQuestion, error)
}

// Config describes the assessment to generate.
type Config struct {
	Topics      []string
	Difficulty  types.Difficulty
	MCQCount    int
	CodingCount int
	SQLCount    int
}

// ConfigFromJob builds a generation config from a job's assessment settings.
func ConfigFromJob(cfg *types.AssessmentConfig, fallback types.Difficulty) Config {
	difficulty := cfg.Difficulty
	if !difficulty.Valid() {
		difficulty = fallback
	}
	if !difficulty.Valid() {
		difficulty = types.DifficultyMedium
	}
	return Config{
		Topics:      cfg.Topics,
		Difficulty:  difficulty,
		MCQCount:    cfg.MCQCount,
		CodingCount: cfg.CodingCount,
		SQLCount:    cfg.SQLCount,
	}
}

// Generator turns a Config into a QuestionSet using a QuestionBank.
type Generator struct {
	bank           QuestionBank
	sectionTimeout time.Duration
}

// NewGenerator creates a generator over bank. A zero timeout uses DefaultSectionTimeout.
func NewGenerator(bank QuestionBank, sectionTimeout time.Duration) *Generator {
	if sectionTimeout <= 0 {
		sectionTimeout = DefaultSectionTimeout
	}
	return &Generator{bank: bank, sectionTimeout: sectionTimeout}
}

// Generate produces exactly the requested number of questions per section.
// Sections are generated concurrently; a failing section does not stop the
// others. When any section fails the returned set holds the successful
// sections and the error is a *PartialError.
func (g *Generator) Generate(ctx context.Context, cfg Config) (*types.QuestionSet, error) {
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}
	if cfg.MCQCount < 0 || cfg.CodingCount < 0 || cfg.SQLCount < 0 {
		return nil, fmt.Errorf("question counts must be non-negative")
	}
	if !cfg.Difficulty.Valid() {
		cfg.Difficulty = types.DifficultyMedium
	}

	set := &types.QuestionSet{
		MCQ:    []types.MCQQuestion{},
		Coding: []types.CodingQuestion{},
		SQL:    []types.SQLQuestion{},
	}

	var (
		mu       sync.Mutex
		failures []*SectionError
	)
	fail := func(section types.Section, err error) {
		mu.Lock()
		failures = append(failures, &SectionError{Section: section, Cause: err})
		mu.Unlock()
	}

	// errgroup without a shared context: one section's failure must not cancel the rest.
	var group errgroup.Group

	if cfg.MCQCount > 0 {
		group.Go(func() error {
			qs, err := g.mcq(ctx, cfg)
			if err != nil {
				fail(types.SectionMCQ, err)
				return nil
			}
			set.MCQ = qs
			return nil
		})
	}
	if cfg.CodingCount > 0 {
		group.Go(func() error {
			qs, err := g.coding(ctx, cfg)
			if err != nil {
				fail(types.SectionCoding, err)
				return nil
			}
			set.Coding = qs
			return nil
		})
	}
	if cfg.SQLCount > 0 {
		group.Go(func() error {
			qs, err := g.sql(ctx, cfg)
			if err != nil {
				fail(types.SectionSQL, err)
				return nil
			}
			set.SQL = qs
			return nil
		})
	}
	_ = group.Wait()

	if len(failures) > 0 {
		for _, f := range failures {
			log.Printf("[generation] %v", f)
		}
		return set, &PartialError{Sections: orderFailures(failures)}
	}
	return set, nil
}

func (g *Generator) mcq(ctx context.Context, cfg Config) ([]types.MCQQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, g.sectionTimeout)
	defer cancel()

	qs, err := g.bank.MCQ(ctx, Request{Section: types.SectionMCQ, Topics: cfg.Topics, Difficulty: cfg.Difficulty, Count: cfg.MCQCount})
	if err != nil {
		return nil, err
	}
	if len(qs) < cfg.MCQCount {
		return nil, fmt.Errorf("bank returned %d of %d questions", len(qs), cfg.MCQCount)
	}
	qs = qs[:cfg.MCQCount]
	for i := range qs {
		if len(qs[i].Options) < 2 {
			return nil, fmt.Errorf("question %d has fewer than two options", i)
		}
		if qs[i].CorrectAnswer < 0 || qs[i].CorrectAnswer >= len(qs[i].Options) {
			return nil, fmt.Errorf("question %d answer index %d out of range", i, qs[i].CorrectAnswer)
		}
		qs[i].ID = fmt.Sprintf("mcq_%d", i)
		qs[i].Topic = topicFor(cfg.Topics, qs[i].Topic, i)
		qs[i].Difficulty = cfg.Difficulty
	}
	return qs, nil
}

func (g *Generator) coding(ctx context.Context, cfg Config) ([]types.CodingQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, g.sectionTimeout)
	defer cancel()

	qs, err := g.bank.Coding(ctx, Request{Section: types.SectionCoding, Topics: cfg.Topics, Difficulty: cfg.Difficulty, Count: cfg.CodingCount})
	if err != nil {
		return nil, err
	}
	if len(qs) < cfg.CodingCount {
		return nil, fmt.Errorf("bank returned %d of %d questions", len(qs), cfg.CodingCount)
	}
	qs = qs[:cfg.CodingCount]
	for i := range qs {
		if len(qs[i].Examples) == 0 {
			return nil, fmt.Errorf("coding question %d has no visible example", i)
		}
		if !qs[i].HasHiddenTestCase() {
			return nil, fmt.Errorf("coding question %d has no hidden test case", i)
		}
		qs[i].ID = fmt.Sprintf("coding_%d", i)
		qs[i].Topic = topicFor(cfg.Topics, qs[i].Topic, i)
		qs[i].Difficulty = cfg.Difficulty
	}
	return qs, nil
}

func (g *Generator) sql(ctx context.Context, cfg Config) ([]types.SQLQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, g.sectionTimeout)
	defer cancel()

	qs, err := g.bank.SQL(ctx, Request{Section: types.SectionSQL, Topics: cfg.Topics, Difficulty: cfg.Difficulty, Count: cfg.SQLCount})
	if err != nil {
		return nil, err
	}
	if len(qs) < cfg.SQLCount {
		return nil, fmt.Errorf("bank returned %d of %d questions", len(qs), cfg.SQLCount)
	}
	qs = qs[:cfg.SQLCount]
	for i := range qs {
		qs[i].ID = fmt.Sprintf("sql_%d", i)
		qs[i].Topic = topicFor(cfg.Topics, qs[i].Topic, i)
		qs[i].Difficulty = cfg.Difficulty
	}
	return qs, nil
}

// topicFor keeps a bank-assigned topic when it is one of the requested topics,
// otherwise cycles through the requested topics by question index.
func topicFor(topics []string, assigned string, i int) string {
	for _, t := range topics {
		if t == assigned {
			return assigned
		}
	}
	return topics[i%len(topics)]
}

func orderFailures(failures []*SectionError) []*SectionError {
	ordered := make([]*SectionError, 0, len(failures))
	for _, section := range types.Sections {
		for _, f := range failures {
			if f.Section == section {
				ordered = append(ordered, f)
			}
		}
	}
	return ordered
}
