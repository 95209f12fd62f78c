package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hirezaa/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

type staticThrottle struct {
	allow bool
	err   error
}

func (s staticThrottle) Allow(context.Context) (bool, error) { return s.allow, s.err }

func testApp() *types.Application {
	return &types.Application{ID: uuid.New(), CandidateName: "Priya", CandidateEmail: "priya@example.com"}
}

func testJob() *types.Job {
	return &types.Job{ID: uuid.New(), Title: "Backend Engineer", Company: "Acme"}
}

func TestSendAssessmentInvite(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "https://jobs.example.com/", nil)
	a := &types.Assessment{
		ID:               uuid.MustParse("6f1c2b9e-8a43-4f7e-9d2a-0b8c1e5f7a10"),
		ExpiresAt:        time.Date(2026, 4, 8, 10, 30, 0, 0, time.UTC),
		TimeLimitMinutes: 90,
	}

	require.NoError(t, n.SendAssessmentInvite(context.Background(), testApp(), testJob(), a))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "priya@example.com", msg.To)
	assert.Equal(t, "Technical Assessment for Backend Engineer", msg.Subject)

	link := "https://jobs.example.com/assessment/6f1c2b9e-8a43-4f7e-9d2a-0b8c1e5f7a10"
	assert.Contains(t, msg.HTML, `href="`+link+`"`)
	assert.Contains(t, msg.Text, "Start assessment: "+link)
	assert.Contains(t, msg.Text, "April 8, 2026 at 10:30 UTC")
	assert.Contains(t, msg.Text, "90 minutes")
	assert.Contains(t, msg.Text, "The Hirezaa Team")
	assert.NotContains(t, msg.Text, "<p>")
}

func TestSendSelectionAndRejection(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "https://jobs.example.com", nil)

	require.NoError(t, n.SendSelection(context.Background(), testApp(), testJob()))
	require.NoError(t, n.SendRejection(context.Background(), testApp(), testJob()))
	require.Len(t, sender.sent, 2)

	assert.Equal(t, "Congratulations! You've been selected", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Text, "selected for the Backend Engineer position at Acme")
	assert.Equal(t, "Update on your application for Backend Engineer", sender.sent[1].Subject)
	assert.Contains(t, sender.sent[1].Text, "move forward with other candidates")
}

func TestSend_EscapesCandidateInput(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "https://jobs.example.com", nil)
	app := testApp()
	app.CandidateName = "<script>alert(1)</script>"

	require.NoError(t, n.SendRejection(context.Background(), app, testJob()))
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
}

func TestSend_NoRecipient(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "https://jobs.example.com", nil)
	app := testApp()
	app.CandidateEmail = " "

	err := n.SendSelection(context.Background(), app, testJob())
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Empty(t, sender.sent)
}

func TestSend_Throttled(t *testing.T) {
	sender := &captureSender{}
	n := NewNotifier(sender, "https://jobs.example.com", staticThrottle{allow: false})

	err := n.SendSelection(context.Background(), testApp(), testJob())
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Empty(t, sender.sent)

	n = NewNotifier(sender, "https://jobs.example.com", staticThrottle{err: errors.New("redis down")})
	err = n.SendSelection(context.Background(), testApp(), testJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestSend_SenderFailure(t *testing.T) {
	n := NewNotifier(&captureSender{err: errors.New("550 mailbox unavailable")}, "https://jobs.example.com", nil)
	err := n.SendSelection(context.Background(), testApp(), testJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")
}

func TestRedisThrottle_DisabledWithoutClient(t *testing.T) {
	ok, err := NewRedisThrottle(nil, 10, time.Minute).Allow(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	var nilThrottle *RedisThrottle
	ok, err = nilThrottle.Allow(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlainText(t *testing.T) {
	text, err := PlainText(`<html><body><h2>Title</h2><p>Line   one
	continues</p><p>Regards,<br>Team</p><p><a href="https://x.test/a">Open</a></p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nLine one continues\n\nRegards,\nTeam\n\nOpen: https://x.test/a", text)
}

func TestSMTPSender(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{From: "a@b.c"})
	require.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Username: "u", Password: "p", From: "hr@example.com"})
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		return nil
	}

	err = s.Send(context.Background(), Message{To: "c@example.com", Subject: "Hello", HTML: "<p>Hi</p>", Text: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "hr@example.com", gotFrom)
	assert.Equal(t, []string{"c@example.com"}, gotTo)

	body := string(gotBody)
	assert.True(t, strings.HasPrefix(body, "From: hr@example.com\r\n"))
	assert.Contains(t, body, "Subject: Hello\r\n")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain; charset=UTF-8")
	assert.Contains(t, body, "<p>Hi</p>")

	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	err = s.Send(context.Background(), Message{To: "c@example.com"})
	assert.ErrorContains(t, err, "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "c@example.com"}), context.Canceled)
}
