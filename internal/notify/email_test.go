package notify

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/Dan9191/account-record-service/internal/config"
	"github.com/Dan9191/account-record-service/internal/importer"
	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mailConfig() *config.Config {
	return &config.Config{
		SMTPHost:              "smtp.example.com",
		SMTPPort:              "587",
		SMTPUsername:          "mailer",
		SMTPPassword:          "pw",
		SenderEmail:           "noreply@example.com",
		ImportReportRecipient: "ops@example.com",
	}
}

func TestSendImportReport(t *testing.T) {
	s := NewSender(mailConfig(), logger.Discard())
	var (
		sent *email.Email
		addr string
	)
	s.send = func(e *email.Email, a string, auth smtp.Auth) error {
		sent, addr = e, a
		return nil
	}

	err := s.SendImportReport(importer.Result{RunID: "import-1", RecordsRead: 3, RecordsWritten: 3, Batches: 1})
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, []string{"ops@example.com"}, sent.To)
	assert.Contains(t, sent.Subject, "import-1")
	assert.Contains(t, string(sent.Text), "Records written: 3")
}

func TestSendImportReport_Disabled(t *testing.T) {
	cfg := mailConfig()
	cfg.ImportReportRecipient = ""
	s := NewSender(cfg, logger.Discard())
	s.send = func(e *email.Email, a string, auth smtp.Auth) error {
		t.Fatal("send must not be called")
		return nil
	}

	assert.NoError(t, s.SendImportReport(importer.Result{RunID: "r"}))
}

func TestSendImportReport_Failure(t *testing.T) {
	s := NewSender(mailConfig(), logger.Discard())
	s.send = func(e *email.Email, a string, auth smtp.Auth) error {
		return errors.New("connection refused")
	}

	err := s.SendImportReport(importer.Result{RunID: "r"})
	assert.ErrorContains(t, err, "failed to send import report")
}
