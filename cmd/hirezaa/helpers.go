package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/config"
	"github.com/jonathan/hirezaa/internal/db"
	"github.com/jonathan/hirezaa/internal/resume"
)

// loadConfig reads the environment, applies --config when given and validates.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := config.LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// connectDB opens the database without building the rest of the app.
func connectDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

// openResolver opens the resume bucket. The returned func closes the client.
func openResolver(ctx context.Context, cfg *config.Config) (*resume.Resolver, func() error, error) {
	if err := cfg.RequireStorage(); err != nil {
		return nil, nil, err
	}
	store, err := resume.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	r := resume.NewResolver(store, resume.Options{
		Prefix:   cfg.Storage.ResumePrefix,
		PageSize: cfg.Storage.ListPageSize,
		URLTTL:   cfg.Storage.SignedURLTTL.Std(),
	})
	return r, store.Close, nil
}

func parseIDFlag(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q: must be a UUID", name, value)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return nil
}
