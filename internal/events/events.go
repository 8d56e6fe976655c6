package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	RoutingDescriptionUpdated = "account.description.updated"
	RoutingAccountsImported   = "accounts.imported"
)

// DescriptionUpdated is published after a successful description update
type DescriptionUpdated struct {
	AccountNumber string    `json:"accountNumber"`
	Version       int64     `json:"version"`
	Description   string    `json:"description"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// AccountsImported is published after a startup import run completes
type AccountsImported struct {
	RunID          string    `json:"runId"`
	RecordsWritten int       `json:"recordsWritten"`
	RecordsSkipped int       `json:"recordsSkipped"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher is the interface implemented by types that can publish account events
type Publisher interface {
	PublishDescriptionUpdated(ctx context.Context, event DescriptionUpdated) error
	PublishAccountsImported(ctx context.Context, event AccountsImported) error
	Close()
}

// NoopPublisher is used when no broker is configured or reachable
type NoopPublisher struct {
	log logrus.FieldLogger
}

// NewNoopPublisher initializes a publisher that only logs skipped events
func NewNoopPublisher(log logrus.FieldLogger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) PublishDescriptionUpdated(ctx context.Context, event DescriptionUpdated) error {
	p.log.WithFields(logrus.Fields{
		"routing_key":    RoutingDescriptionUpdated,
		"account_number": event.AccountNumber,
	}).Debug("Event publish skipped")
	return nil
}

func (p *NoopPublisher) PublishAccountsImported(ctx context.Context, event AccountsImported) error {
	p.log.WithFields(logrus.Fields{
		"routing_key": RoutingAccountsImported,
		"run_id":      event.RunID,
	}).Debug("Event publish skipped")
	return nil
}

func (p *NoopPublisher) Close() {}
