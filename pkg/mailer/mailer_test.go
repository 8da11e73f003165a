package mailer

import (
	"context"
	"errors"
	"testing"

	mail "github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/opr-api/pkg/config"
)

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func TestDisabledMailer(t *testing.T) {
	m := New(config.MailConfig{})
	assert.False(t, m.Enabled())
	assert.ErrorIs(t, m.Send(context.Background(), Message{To: []string{"a@b.c"}}), ErrDisabled)
}

func TestSendBuildsMessage(t *testing.T) {
	fake := &fakeSender{}
	m := &SMTPMailer{from: "OPR <no-reply@opr.test>", dialer: fake}

	err := m.Send(context.Background(), Message{To: []string{"author@opr.test"}, Subject: "New review", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, []string{"author@opr.test"}, fake.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"New review"}, fake.sent[0].GetHeader("Subject"))
}

func TestSendWrapsTransportError(t *testing.T) {
	fake := &fakeSender{err: errors.New("connection refused")}
	m := &SMTPMailer{from: "x@opr.test", dialer: fake}
	err := m.Send(context.Background(), Message{To: []string{"a@opr.test"}, Subject: "s"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewConfiguredMailer(t *testing.T) {
	m := New(config.MailConfig{Host: "smtp.opr.test", From: "x@opr.test"})
	assert.True(t, m.Enabled())
}
