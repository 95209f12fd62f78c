package assessment

import (
	"context"
	"strings"

	"github.com/jonathan/hirezaa/internal/types"
)

// CodingEvaluator scores a code submission against a question's test cases.
type CodingEvaluator interface {
	Evaluate(ctx context.Context, q *types.CodingQuestion, r *types.CodingResponse) (types.TestResults, error)
}

// SQLEvaluator decides whether a query answers a SQL question.
type SQLEvaluator interface {
	Evaluate(ctx context.Context, q *types.SQLQuestion, r *types.SQLResponse) (bool, error)
}

// ReportedResultsEvaluator accepts the test results reported by the runner,
// bounded by the number of test cases the question actually has. It does not
// execute code and trusts a count the candidate's own client sends; deployments
// that rely on coding scores must replace it with WithCodingEvaluator.
type ReportedResultsEvaluator struct{}

// Evaluate implements CodingEvaluator.
func (ReportedResultsEvaluator) Evaluate(_ context.Context, q *types.CodingQuestion, r *types.CodingResponse) (types.TestResults, error) {
	total := len(q.TestCases)
	passed := r.TestResults.Passed
	if passed < 0 {
		passed = 0
	}
	if passed > total {
		passed = total
	}
	return types.TestResults{
		Passed:  passed,
		Total:   total,
		Details: r.TestResults.Details,
	}, nil
}

// QueryTextEvaluator compares the submitted query with the reference query
// after normalizing case, whitespace and a trailing semicolon.
type QueryTextEvaluator struct{}

// Evaluate implements SQLEvaluator.
func (QueryTextEvaluator) Evaluate(_ context.Context, q *types.SQLQuestion, r *types.SQLResponse) (bool, error) {
	if strings.TrimSpace(q.ExpectedOutput) == "" {
		return false, nil
	}
	return NormalizeQuery(r.Query) == NormalizeQuery(q.ExpectedOutput), nil
}

// NormalizeQuery lowercases a query, collapses whitespace and drops a trailing semicolon.
func NormalizeQuery(query string) string {
	query = strings.ToLower(strings.Join(strings.Fields(query), " "))
	query = strings.TrimSuffix(query, ";")
	return strings.TrimSpace(query)
}
