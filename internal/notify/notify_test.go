package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"csvimport/csv-import/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingSender struct {
	messages []*gomail.Message
	err      error
}

func (s *recordingSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m...)
	return nil
}

var testSMTP = SMTPConfig{Host: "smtp.example.com", Port: 587, From: "import@example.com", To: []string{"ops@example.com", "backoffice@example.com"}}

func TestMailerNotify(t *testing.T) {
	sender := &recordingSender{}
	m, err := NewMailerWithSender(testSMTP, sender, logging.NewMockLogger())
	require.NoError(t, err)

	require.NoError(t, m.Notify(context.Background(), SubjectSuccess, "Import of the file 1.csv done."))
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, []string{"import@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, testSMTP.To, msg.GetHeader("To"))
	assert.Equal(t, []string{"Successful Import"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Import of the file 1.csv done.")
}

func TestMailerSendFailure(t *testing.T) {
	m, err := NewMailerWithSender(testSMTP, &recordingSender{err: errors.New("connection refused")}, nil)
	require.NoError(t, err)

	err = m.Notify(context.Background(), SubjectFailure, "body")
	assert.EqualError(t, err, `notify: send "Import CSV failed": connection refused`)
}

func TestNewMailerValidation(t *testing.T) {
	_, err := NewMailer(SMTPConfig{}, nil)
	assert.Error(t, err)

	cfg := testSMTP
	cfg.To = nil
	_, err = NewMailer(cfg, nil)
	assert.Error(t, err)

	cfg = testSMTP
	cfg.From = ""
	_, err = NewMailerWithSender(cfg, &recordingSender{}, nil)
	assert.Error(t, err)

	m, err := NewMailer(testSMTP, nil)
	require.NoError(t, err)
	assert.IsType(t, &gomail.Dialer{}, m.sender)
}

func TestLogNotifier(t *testing.T) {
	logger := logging.NewMockLogger()
	n := NewLogNotifier(logger)

	require.NoError(t, n.Notify(context.Background(), SubjectFailure, "details"))
	entries := logger.GetEntriesByLevel("INFO")
	require.Len(t, entries, 1)
	assert.Equal(t, "Import feedback", entries[0].Message)
}
