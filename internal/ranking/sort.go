package ranking

import (
	"sort"
	"strings"

	"github.com/jonathan/hirezaa/internal/types"
)

// SortKey selects the field applicant lists are ordered by.
type SortKey string

// Sort keys
const (
	SortByAppliedAt SortKey = "applied_at"
	SortByCGPA      SortKey = "cgpa"
	SortByName      SortKey = "name"
)

// ParseSortKey maps a query value to a SortKey, defaulting to applied_at.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(s)) {
	case SortByCGPA:
		return SortByCGPA
	case SortByName:
		return SortByName
	default:
		return SortByAppliedAt
	}
}

// FilterByStatus keeps applications in the given status. An empty status keeps all.
func FilterByStatus(apps []types.Application, status types.ApplicationStatus) []types.Application {
	if status == "" {
		return apps
	}
	out := make([]types.Application, 0, len(apps))
	for _, a := range apps {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

// SortApplications orders a copy of apps by key. Descending unless asc is set.
func SortApplications(apps []types.Application, key SortKey, asc bool) []types.Application {
	out := make([]types.Application, len(apps))
	copy(out, apps)

	less := func(i, j int) bool {
		switch key {
		case SortByCGPA:
			return out[i].CGPA < out[j].CGPA
		case SortByName:
			return strings.ToLower(out[i].CandidateName) < strings.ToLower(out[j].CandidateName)
		default:
			return out[i].AppliedAt.Before(out[j].AppliedAt)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return less(i, j)
		}
		return less(j, i)
	})
	return out
}
