// Package app assembles the services shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/hirezaa/internal/assessment"
	"github.com/jonathan/hirezaa/internal/config"
	"github.com/jonathan/hirezaa/internal/db"
	"github.com/jonathan/hirezaa/internal/dispatch"
	"github.com/jonathan/hirezaa/internal/generation"
	"github.com/jonathan/hirezaa/internal/llm"
	"github.com/jonathan/hirezaa/internal/notify"
	"github.com/jonathan/hirezaa/internal/resume"
	"github.com/jonathan/hirezaa/internal/types"
)

// App holds connected collaborators. Resumes is nil when no bucket is configured.
type App struct {
	Config      *config.Config
	DB          *db.DB
	Assessments *assessment.Manager
	Dispatcher  *dispatch.Dispatcher
	Notifier    *notify.Notifier
	Resumes     *resume.Resolver

	closers []func() error
}

// Build connects to the database and every configured backend.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a := &App{Config: cfg, DB: database}
	a.closers = append(a.closers, func() error { database.Close(); return nil })

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	bank, err := a.questionBank(ctx)
	if err != nil {
		return err
	}
	generator := generation.NewGenerator(bank, cfg.Assessment.SectionTimeout.Std())

	notifier, err := a.notifier()
	if err != nil {
		return err
	}
	a.Notifier = notifier

	a.Assessments = assessment.NewManager(a.DB, assessment.WithExpiryWindow(cfg.Assessment.ExpiryWindow.Std()))
	a.Dispatcher = dispatch.NewDispatcher(a.DB, generator, a.Assessments, notifier,
		dispatch.WithDelay(cfg.Assessment.DispatchDelay.Std()),
		dispatch.WithConcurrency(cfg.Assessment.DispatchConcurrency),
		dispatch.WithDefaultDifficulty(types.Difficulty(cfg.Assessment.Difficulty)),
	)

	if cfg.Storage.Bucket == "" {
		log.Printf("[app] GCS_BUCKET not set, resume endpoints disabled")
		return nil
	}
	store, err := resume.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, store.Close)
	a.Resumes = resume.NewResolver(store, resume.Options{
		Prefix:   cfg.Storage.ResumePrefix,
		PageSize: cfg.Storage.ListPageSize,
		URLTTL:   cfg.Storage.SignedURLTTL.Std(),
	})
	return nil
}

func (a *App) questionBank(ctx context.Context) (generation.QuestionBank, error) {
	if a.Config.Assessment.GeneratorBackend != config.BackendLLM {
		return generation.NewTemplateBank()
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), a.Config.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	return generation.NewLLMBank(client, llm.TierStandard), nil
}

func (a *App) notifier() (*notify.Notifier, error) {
	mail := a.Config.Mail

	var sender notify.Sender = notify.LogSender{}
	if mail.SMTPHost != "" {
		smtpSender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     mail.SMTPHost,
			Port:     mail.SMTPPort,
			Username: mail.Username,
			Password: mail.Password,
			From:     mail.From,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure SMTP: %w", err)
		}
		sender = smtpSender
	} else {
		log.Printf("[app] SMTP_HOST not set, emails will be logged instead of sent")
	}

	var throttle notify.Throttle
	if rc := a.Config.Redis; rc.Address != "" {
		client := redis.NewClient(&redis.Options{Addr: rc.Address, Password: rc.Password, DB: rc.DB})
		a.closers = append(a.closers, client.Close)
		throttle = notify.NewRedisThrottle(client, rc.MailPerMinute, time.Minute)
	}

	return notify.NewNotifier(sender, mail.AppBaseURL, throttle), nil
}

// Close releases every connection in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[app] close: %v", err)
		}
	}
	a.closers = nil
}
