package assessment

import (
	"math"

	"github.com/jonathan/hirezaa/internal/types"
)

// SectionScore is correct/total as a percentage. A section without questions scores 0.
func SectionScore(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// ComputeScore scores every section and derives the total. Without weights the
// total is the arithmetic mean of the three section scores. With weights, the
// total is the weighted mean over sections that have questions.
func ComputeScore(questions *types.QuestionSet, responses *types.ResponseSet, weights *types.SectionWeights) types.Score {
	mcqCorrect := 0
	for _, r := range responses.MCQ {
		if r.IsCorrect {
			mcqCorrect++
		}
	}
	codingCorrect := 0
	for i := range responses.Coding {
		if responses.Coding[i].AllPassed() {
			codingCorrect++
		}
	}
	sqlCorrect := 0
	for _, r := range responses.SQL {
		if r.IsCorrect {
			sqlCorrect++
		}
	}

	score := types.Score{
		MCQ:    SectionScore(mcqCorrect, len(questions.MCQ)),
		Coding: SectionScore(codingCorrect, len(questions.Coding)),
		SQL:    SectionScore(sqlCorrect, len(questions.SQL)),
	}
	score.Total = total(score, questions, weights)

	score.MCQ = round2(score.MCQ)
	score.Coding = round2(score.Coding)
	score.SQL = round2(score.SQL)
	score.Total = round2(score.Total)
	return score
}

func total(s types.Score, questions *types.QuestionSet, weights *types.SectionWeights) float64 {
	mean := (s.MCQ + s.Coding + s.SQL) / 3
	if weights == nil {
		return mean
	}

	var sum, weightSum float64
	add := func(score, weight float64, count int) {
		if count == 0 || weight <= 0 {
			return
		}
		sum += score * weight
		weightSum += weight
	}
	add(s.MCQ, weights.MCQ, len(questions.MCQ))
	add(s.Coding, weights.Coding, len(questions.Coding))
	add(s.SQL, weights.SQL, len(questions.SQL))

	if weightSum == 0 {
		return mean
	}
	return sum / weightSum
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
