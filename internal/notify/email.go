package notify

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/account-record-service/internal/config"
	"github.com/Dan9191/account-record-service/internal/importer"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending import reports via SMTP
type Sender struct {
	cfg    *config.Config
	logger logrus.FieldLogger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger logrus.FieldLogger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendImportReport mails a summary of a completed import run.
// Does nothing when SMTP or the recipient is not configured.
func (s *Sender) SendImportReport(res importer.Result) error {
	if !s.cfg.MailEnabled() {
		s.logger.WithField("run_id", res.RunID).Debug("Import report mail disabled")
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.ImportReportRecipient}
	e.Subject = fmt.Sprintf("Account import %s completed", res.RunID)
	e.Text = []byte(fmt.Sprintf(
		"Import run %s finished at %s.\n\n"+
			"Records read:    %d\n"+
			"Records written: %d\n"+
			"Records skipped: %d\n"+
			"Batches:         %d\n"+
			"Duration:        %s\n",
		res.RunID, time.Now().UTC().Format("2006-01-02 15:04:05"),
		res.RecordsRead, res.RecordsWritten, res.RecordsSkipped, res.Batches, res.Duration.Round(time.Millisecond),
	))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send import report to %s: %v", s.cfg.ImportReportRecipient, err)
		return fmt.Errorf("failed to send import report: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.ImportReportRecipient, e.Subject)
	return nil
}
