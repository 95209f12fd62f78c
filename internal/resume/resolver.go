package resume

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

// Defaults for the fallback search and signed links.
const (
	DefaultPageSize = 100
	DefaultURLTTL   = time.Hour
)

// ObjectStore is the subset of object storage the resolver needs.
type ObjectStore interface {
	// Exists reports whether an object with exactly this name exists.
	Exists(ctx context.Context, name string) (bool, error)
	// List returns up to limit object names under prefix.
	List(ctx context.Context, prefix string, limit int) ([]string, error)
	// SignedURL returns a download link for name valid until expires.
	SignedURL(ctx context.Context, name string, expires time.Time) (string, error)
}

// ResolvedArtifact is a resume file located in storage with a signed link.
type ResolvedArtifact struct {
	ID         string    `json:"actualPublicId"`
	OriginalID string    `json:"originalPublicId"`
	SignedURL  string    `json:"signedUrl"`
	ExpiresAt  time.Time `json:"expiresAt"`
	// Fallback is set when the file was found by base-name search rather than exact lookup.
	Fallback bool `json:"fallback"`
}

// Resolver maps stored references to storage objects.
type Resolver struct {
	store    ObjectStore
	prefix   string
	pageSize int
	ttl      time.Duration
	now      func() time.Time
}

// Options configures a Resolver. Zero values use the package defaults.
type Options struct {
	Prefix   string
	PageSize int
	URLTTL   time.Duration
	Now      func() time.Time
}

// NewResolver creates a Resolver over store.
func NewResolver(store ObjectStore, opts Options) *Resolver {
	r := &Resolver{
		store:    store,
		prefix:   opts.Prefix,
		pageSize: opts.PageSize,
		ttl:      opts.URLTTL,
		now:      opts.Now,
	}
	if r.prefix == "" {
		r.prefix = DefaultPrefix
	}
	if r.pageSize <= 0 {
		r.pageSize = DefaultPageSize
	}
	if r.ttl <= 0 {
		r.ttl = DefaultURLTTL
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Resolve finds the object a reference points to and signs a link to it.
// An exact lookup is tried first. Only when it finds nothing are the first
// page of objects under the namespace searched for the reference's base name;
// that path is a best-effort heuristic and is logged.
func (r *Resolver) Resolve(ctx context.Context, reference string) (*ResolvedArtifact, error) {
	name, err := ParseReference(reference, r.prefix)
	if err != nil {
		return nil, err
	}

	resolved, fallback, err := r.locate(ctx, name)
	if err != nil {
		return nil, err
	}

	expires := r.now().Add(r.ttl).UTC().Truncate(time.Second)
	signed, err := r.store.SignedURL(ctx, resolved, expires)
	if err != nil {
		return nil, &StorageError{Op: "sign", Cause: err}
	}

	return &ResolvedArtifact{
		ID:         resolved,
		OriginalID: name,
		SignedURL:  signed,
		ExpiresAt:  expires,
		Fallback:   fallback,
	}, nil
}

// Locate resolves a reference to an object name without signing a link.
func (r *Resolver) Locate(ctx context.Context, reference string) (string, error) {
	name, err := ParseReference(reference, r.prefix)
	if err != nil {
		return "", err
	}
	resolved, _, err := r.locate(ctx, name)
	return resolved, err
}

func (r *Resolver) locate(ctx context.Context, name string) (string, bool, error) {
	exists, err := r.store.Exists(ctx, name)
	if err != nil {
		return "", false, &StorageError{Op: "lookup", Cause: err}
	}
	if exists {
		return name, false, nil
	}

	base := BaseName(name)
	if base == "" {
		return "", false, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	names, err := r.store.List(ctx, r.prefix, r.pageSize)
	if err != nil {
		return "", false, &StorageError{Op: "list", Cause: err}
	}
	for _, candidate := range names {
		if strings.Contains(candidate, base) {
			log.Printf("[resume] fallback match: requested %q resolved to %q", name, candidate)
			return candidate, true, nil
		}
	}
	return "", false, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// ApplicationStore persists resolved resume ids on applications.
type ApplicationStore interface {
	SetApplicationResumeID(ctx context.Context, id uuid.UUID, resumeID string) error
}

// BelongsTo reports whether reference names one of the resume objects stored
// on app: the submitted reference or the resolved id.
func (r *Resolver) BelongsTo(reference string, app *types.Application) (bool, error) {
	name, err := ParseReference(reference, r.prefix)
	if err != nil {
		return false, err
	}
	for _, stored := range []*string{app.Resume, app.ResumeID} {
		if stored == nil {
			continue
		}
		if own, err := ParseReference(*stored, r.prefix); err == nil && own == name {
			return true, nil
		}
	}
	return false, nil
}

// ResolveApplication resolves an application's resume and stores the
// resolved id on it when it differs from the one already stored, so later
// lookups skip the fallback search.
func (r *Resolver) ResolveApplication(ctx context.Context, app *types.Application, store ApplicationStore) (*ResolvedArtifact, error) {
	ref := app.ResumeReference()
	if ref == "" {
		return nil, fmt.Errorf("%w: application %s has no resume", ErrNotFound, app.ID)
	}

	artifact, err := r.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if app.ResumeID == nil || *app.ResumeID != artifact.ID {
		if err := store.SetApplicationResumeID(ctx, app.ID, artifact.ID); err != nil {
			log.Printf("[resume] failed to persist resolved id for application %s: %v", app.ID, err)
		} else {
			id := artifact.ID
			app.ResumeID = &id
		}
	}
	return artifact, nil
}
