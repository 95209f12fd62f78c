package resume

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/hirezaa/internal/types"
)

// BackfillStore lists applications whose resume has never been resolved.
type BackfillStore interface {
	ApplicationStore
	ListApplicationsMissingResumeID(ctx context.Context) ([]types.Application, error)
}

// BackfillReport summarizes a backfill run.
type BackfillReport struct {
	Scanned  int `json:"scanned"`
	Updated  int `json:"updated"`
	NotFound int `json:"notFound"`
	Invalid  int `json:"invalid"`
	Failed   int `json:"failed"`
}

// Backfill resolves every application that has a resume URL but no stored
// resume id and saves the resolved id. Per-application failures are counted
// and logged; the run continues.
func Backfill(ctx context.Context, r *Resolver, store BackfillStore) (*BackfillReport, error) {
	apps, err := store.ListApplicationsMissingResumeID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	report := &BackfillReport{}
	for i := range apps {
		app := &apps[i]
		if app.Resume == nil || *app.Resume == "" {
			continue
		}
		report.Scanned++

		id, err := r.Locate(ctx, *app.Resume)
		switch {
		case errors.Is(err, ErrInvalidReference):
			log.Printf("[resume] backfill: application %s has an invalid resume reference: %v", app.ID, err)
			report.Invalid++
			continue
		case errors.Is(err, ErrNotFound):
			log.Printf("[resume] backfill: no file found for application %s", app.ID)
			report.NotFound++
			continue
		case err != nil:
			log.Printf("[resume] backfill: application %s: %v", app.ID, err)
			report.Failed++
			continue
		}

		if err := store.SetApplicationResumeID(ctx, app.ID, id); err != nil {
			log.Printf("[resume] backfill: failed to update application %s: %v", app.ID, err)
			report.Failed++
			continue
		}
		report.Updated++
	}

	log.Printf("[resume] backfill: scanned=%d updated=%d not_found=%d invalid=%d failed=%d",
		report.Scanned, report.Updated, report.NotFound, report.Invalid, report.Failed)
	return report, nil
}
