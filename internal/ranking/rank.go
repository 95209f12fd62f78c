// Package ranking orders job applicants and selects the shortlist.
package ranking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jonathan/hirezaa/internal/types"
)

// ErrInvalidTargetCount is returned when the requested shortlist size is not positive.
var ErrInvalidTargetCount = errors.New("target count must be positive")

// RankApplicants returns the top targetCount applicants by CGPA, highest first.
// Only applications in the applied state take part. Ties keep their input order,
// so callers passing applications sorted by submission time get the earliest
// submission first. The input slice is not modified.
func RankApplicants(applicants []types.Application, targetCount int) ([]types.Application, error) {
	if targetCount <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTargetCount, targetCount)
	}

	eligible := make([]types.Application, 0, len(applicants))
	for _, a := range applicants {
		if a.Status == types.ApplicationApplied {
			eligible = append(eligible, a)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].CGPA > eligible[j].CGPA
	})

	if len(eligible) > targetCount {
		eligible = eligible[:targetCount]
	}
	return eligible, nil
}

// Shortlist ranks a job's applicants against the job's shortlist target.
func Shortlist(job *types.Job, applicants []types.Application) ([]types.Application, error) {
	return RankApplicants(applicants, job.ShortlistTargetCount())
}
