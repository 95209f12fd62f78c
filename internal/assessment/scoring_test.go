package assessment

import (
	"context"
	"testing"

	"github.com/jonathan/hirezaa/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionScore(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		want    float64
	}{
		{"empty section", 0, 0, 0},
		{"three of four", 3, 4, 75},
		{"all correct", 5, 5, 100},
		{"none correct", 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SectionScore(tt.correct, tt.total))
		})
	}
}

// sectionSet builds questions and responses with the given correct/total per section.
func sectionSet(mcq, mcqTotal, coding, codingTotal, sql, sqlTotal int) (*types.QuestionSet, *types.ResponseSet) {
	q := &types.QuestionSet{
		MCQ:    make([]types.MCQQuestion, mcqTotal),
		Coding: make([]types.CodingQuestion, codingTotal),
		SQL:    make([]types.SQLQuestion, sqlTotal),
	}
	r := &types.ResponseSet{}
	for i := 0; i < mcqTotal; i++ {
		r.MCQ = append(r.MCQ, types.MCQResponse{IsCorrect: i < mcq})
	}
	for i := 0; i < codingTotal; i++ {
		passed := 1
		if i < coding {
			passed = 2
		}
		r.Coding = append(r.Coding, types.CodingResponse{TestResults: types.TestResults{Passed: passed, Total: 2}})
	}
	for i := 0; i < sqlTotal; i++ {
		r.SQL = append(r.SQL, types.SQLResponse{IsCorrect: i < sql})
	}
	return q, r
}

func TestComputeScore_SimpleMean(t *testing.T) {
	// 80, 60, 100
	q, r := sectionSet(4, 5, 3, 5, 2, 2)

	score := ComputeScore(q, r, nil)
	assert.Equal(t, 80.0, score.MCQ)
	assert.Equal(t, 60.0, score.Coding)
	assert.Equal(t, 100.0, score.SQL)
	assert.Equal(t, 80.0, score.Total)
}

func TestComputeScore_EmptySectionsScoreZero(t *testing.T) {
	q, r := sectionSet(0, 0, 0, 0, 0, 0)
	score := ComputeScore(q, r, nil)
	assert.Equal(t, types.Score{}, score)
}

func TestComputeScore_CodingNeedsAllTests(t *testing.T) {
	q := &types.QuestionSet{Coding: make([]types.CodingQuestion, 2)}
	r := &types.ResponseSet{Coding: []types.CodingResponse{
		{TestResults: types.TestResults{Passed: 3, Total: 3}},
		{TestResults: types.TestResults{Passed: 2, Total: 3}},
	}}
	assert.Equal(t, 50.0, ComputeScore(q, r, nil).Coding)
}

func TestComputeScore_Weighted(t *testing.T) {
	q, r := sectionSet(4, 5, 3, 5, 2, 2)

	score := ComputeScore(q, r, &types.SectionWeights{MCQ: 1, Coding: 2, SQL: 1})
	// (80 + 120 + 100) / 4
	assert.Equal(t, 75.0, score.Total)
}

func TestComputeScore_WeightsSkipEmptySections(t *testing.T) {
	q, r := sectionSet(3, 4, 0, 0, 0, 0)

	score := ComputeScore(q, r, &types.SectionWeights{MCQ: 1, Coding: 5, SQL: 5})
	assert.Equal(t, 75.0, score.Total)

	score = ComputeScore(q, r, &types.SectionWeights{})
	assert.Equal(t, 25.0, score.Total)
}

func TestComputeScore_RoundsToTwoDecimals(t *testing.T) {
	q, r := sectionSet(1, 3, 0, 0, 0, 0)
	score := ComputeScore(q, r, nil)
	assert.Equal(t, 33.33, score.MCQ)
	assert.Equal(t, 11.11, score.Total)
}

func TestReportedResultsEvaluator(t *testing.T) {
	q := &types.CodingQuestion{TestCases: make([]types.TestCase, 3)}

	got, err := ReportedResultsEvaluator{}.Evaluate(context.Background(), q, &types.CodingResponse{TestResults: types.TestResults{Passed: -1, Total: 1}})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Passed)
	assert.Equal(t, 3, got.Total)

	got, err = ReportedResultsEvaluator{}.Evaluate(context.Background(), q, &types.CodingResponse{TestResults: types.TestResults{Passed: 2, Total: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Passed)
	assert.Equal(t, 3, got.Total)

	got, err = ReportedResultsEvaluator{}.Evaluate(context.Background(), q, &types.CodingResponse{TestResults: types.TestResults{Passed: 50, Total: 50}})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Passed, "runner cannot claim more tests than the question has")
	assert.Equal(t, 3, got.Total)
}

func TestQueryTextEvaluator(t *testing.T) {
	q := &types.SQLQuestion{ExpectedOutput: "SELECT name FROM employees WHERE salary > 50000;"}

	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT name FROM employees WHERE salary > 50000;", true},
		{"select name\n\tfrom employees   where salary > 50000", true},
		{"SELECT * FROM employees", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := QueryTextEvaluator{}.Evaluate(context.Background(), q, &types.SQLResponse{Query: tt.query})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.query)
	}

	got, err := QueryTextEvaluator{}.Evaluate(context.Background(), &types.SQLQuestion{}, &types.SQLResponse{Query: ""})
	require.NoError(t, err)
	assert.False(t, got)
}
