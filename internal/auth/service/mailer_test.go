package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []*mail.Msg
	err  error
}

func (m *fakeMailer) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msgs...)
	return nil
}

func TestEmailCodeSender(t *testing.T) {
	t.Parallel()

	u := domain.User{ID: "u1", Email: "nurse@pharmhub.test", DisplayName: "Nurse Joy"}
	c := domain.Challenge{ID: "c1", Reason: "NEW_DEVICE", IPAddress: "10.0.0.9", ExpiresAt: t0.Add(10 * time.Minute)}

	t.Run("mails the code to the user", func(t *testing.T) {
		t.Parallel()
		m := &fakeMailer{}
		s := EmailCodeSender{Mailer: m, From: "no-reply@pharmhub.test"}

		require.NoError(t, s.SendCode(context.Background(), u, c, "482913"))
		require.Len(t, m.sent, 1)

		msg := m.sent[0]
		to := msg.GetToString()
		require.Len(t, to, 1)
		require.Contains(t, to[0], "nurse@pharmhub.test")

		var buf bytes.Buffer
		_, err := msg.WriteTo(&buf)
		require.NoError(t, err)
		require.Contains(t, buf.String(), defaultCodeSubject)
		require.Contains(t, buf.String(), "482913")
		require.Contains(t, buf.String(), "10.0.0.9")
	})

	t.Run("delivery failure is returned", func(t *testing.T) {
		t.Parallel()
		m := &fakeMailer{err: errors.New("connection refused")}
		s := EmailCodeSender{Mailer: m, From: "no-reply@pharmhub.test"}
		require.ErrorContains(t, s.SendCode(context.Background(), u, c, "482913"), "connection refused")
	})

	t.Run("bad sender address", func(t *testing.T) {
		t.Parallel()
		m := &fakeMailer{}
		s := EmailCodeSender{Mailer: m, From: "not an address"}
		require.Error(t, s.SendCode(context.Background(), u, c, "482913"))
		require.Empty(t, m.sent)
	})
}

func TestLoginMailsStepUpCode(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fixtureOpts{})
	m := &fakeMailer{}
	f.challenges.Sender = EmailCodeSender{Mailer: m, From: "no-reply@pharmhub.test"}
	u := f.createUser(t, "nurse@pharmhub.test", false)

	resp := f.mustLogin(t, loginInput(u.Email, "dev-a", "10.0.0.1", chromeWindows))
	require.NotEmpty(t, resp.ChallengeID)
	require.Len(t, m.sent, 1)
	require.Contains(t, m.sent[0].GetToString()[0], "nurse@pharmhub.test")
}

func TestNewSMTPMailerNeedsHost(t *testing.T) {
	t.Parallel()
	_, err := NewSMTPMailer(SMTPConfig{Port: 587})
	require.Error(t, err)

	client, err := NewSMTPMailer(SMTPConfig{Host: "smtp.pharmhub.test", Port: 587, TLS: true, Username: "u", Password: "p"})
	require.NoError(t, err)
	require.NotNil(t, client)
}
