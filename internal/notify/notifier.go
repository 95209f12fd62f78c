package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/hirezaa/internal/types"
)

// ErrNoRecipient is returned when the candidate has no email address on file.
var ErrNoRecipient = errors.New("candidate has no email address")

// Notifier renders and sends candidate emails.
type Notifier struct {
	sender   Sender
	throttle Throttle
	baseURL  string
}

// NewNotifier creates a Notifier. baseURL is the public origin that
// assessment links are built on. throttle may be nil.
func NewNotifier(sender Sender, baseURL string, throttle Throttle) *Notifier {
	return &Notifier{
		sender:   sender,
		throttle: throttle,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// AssessmentLink is the candidate-facing URL of an assessment.
func (n *Notifier) AssessmentLink(a *types.Assessment) string {
	return fmt.Sprintf("%s/assessment/%s", n.baseURL, a.ID)
}

// SendAssessmentInvite emails the assessment link and its deadline.
func (n *Notifier) SendAssessmentInvite(ctx context.Context, app *types.Application, job *types.Job, a *types.Assessment) error {
	msg, err := render(inviteTemplate, app.CandidateEmail, fmt.Sprintf("Technical Assessment for %s", job.Title), emailData{
		CandidateName:    app.CandidateName,
		JobTitle:         job.Title,
		Company:          job.Company,
		Link:             n.AssessmentLink(a),
		Deadline:         formatDeadline(a.ExpiresAt),
		TimeLimitMinutes: a.TimeLimitMinutes,
	})
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

// SendSelection tells the candidate they were selected.
func (n *Notifier) SendSelection(ctx context.Context, app *types.Application, job *types.Job) error {
	msg, err := render(selectionTemplate, app.CandidateEmail, "Congratulations! You've been selected", emailData{
		CandidateName: app.CandidateName,
		JobTitle:      job.Title,
		Company:       job.Company,
	})
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

// SendRejection tells the candidate the application will not move forward.
func (n *Notifier) SendRejection(ctx context.Context, app *types.Application, job *types.Job) error {
	msg, err := render(rejectionTemplate, app.CandidateEmail, fmt.Sprintf("Update on your application for %s", job.Title), emailData{
		CandidateName: app.CandidateName,
		JobTitle:      job.Title,
		Company:       job.Company,
	})
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

func (n *Notifier) send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if n.throttle != nil {
		ok, err := n.throttle.Allow(ctx)
		if err != nil {
			return fmt.Errorf("failed to check mail rate limit: %w", err)
		}
		if !ok {
			log.Printf("[notify] throttled: %q to %s not sent", msg.Subject, msg.To)
			return ErrThrottled
		}
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		log.Printf("[notify] send failed: %q to %s: %v", msg.Subject, msg.To, err)
		return err
	}
	log.Printf("[notify] sent %q to %s", msg.Subject, msg.To)
	return nil
}
