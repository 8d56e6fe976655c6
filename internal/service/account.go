package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Dan9191/account-record-service/internal/events"
	"github.com/Dan9191/account-record-service/internal/logger"
	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/Dan9191/account-record-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// MaxDescriptionLength is the longest accepted description, in characters
const MaxDescriptionLength = 1000

// AccountService handles account reads and the description update
type AccountService struct {
	store     repository.AccountStore
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewAccountService initializes a new account service
func NewAccountService(store repository.AccountStore, publisher events.Publisher, log logrus.FieldLogger) *AccountService {
	return &AccountService{store: store, publisher: publisher, log: log}
}

func toViews(p models.Page[models.Account]) models.Page[models.AccountView] {
	return models.MapPage(p, func(a models.Account) models.AccountView { return *a.View() })
}

func checkPage(spec models.PageSpec) error {
	if err := spec.Validate(); err != nil {
		return &ValidationError{Field: "page", Message: err.Error()}
	}
	return nil
}

// List returns one page of all accounts
func (s *AccountService) List(ctx context.Context, spec models.PageSpec) (models.Page[models.AccountView], error) {
	if err := checkPage(spec); err != nil {
		return models.Page[models.AccountView]{}, err
	}
	page, err := s.store.FindAll(ctx, spec)
	if err != nil {
		return models.Page[models.AccountView]{}, err
	}
	return toViews(page), nil
}

// GetByAccountNumber returns a single account
func (s *AccountService) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountView, error) {
	account, err := s.store.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return account.View(), nil
}

// ListByCustomer returns one page of a customer's accounts
func (s *AccountService) ListByCustomer(ctx context.Context, customerID string, spec models.PageSpec) (models.Page[models.AccountView], error) {
	if err := checkPage(spec); err != nil {
		return models.Page[models.AccountView]{}, err
	}
	page, err := s.store.FindByCustomerID(ctx, customerID, spec)
	if err != nil {
		return models.Page[models.AccountView]{}, err
	}
	return toViews(page), nil
}

// ListByAccountNumbers returns one page of accounts matching any of the numbers
func (s *AccountService) ListByAccountNumbers(ctx context.Context, accountNumbers []string, spec models.PageSpec) (models.Page[models.AccountView], error) {
	if err := checkPage(spec); err != nil {
		return models.Page[models.AccountView]{}, err
	}
	page, err := s.store.FindByAccountNumbers(ctx, accountNumbers, spec)
	if err != nil {
		return models.Page[models.AccountView]{}, err
	}
	return toViews(page), nil
}

// ListByDescription returns one page of accounts whose description contains text
func (s *AccountService) ListByDescription(ctx context.Context, text string, spec models.PageSpec) (models.Page[models.AccountView], error) {
	if err := checkPage(spec); err != nil {
		return models.Page[models.AccountView]{}, err
	}
	page, err := s.store.FindByDescriptionContaining(ctx, text, spec)
	if err != nil {
		return models.Page[models.AccountView]{}, err
	}
	return toViews(page), nil
}

// UpdateDescription replaces the description under optimistic locking.
// A non-nil expectedVersion must match the stored version. Conflicts are
// returned to the caller, never retried.
func (s *AccountService) UpdateDescription(ctx context.Context, accountNumber, description string, expectedVersion *int64) (*models.AccountView, error) {
	current, err := s.store.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		return nil, invalid("description", "must be at most %d characters, got %d", MaxDescriptionLength, n)
	}
	if expectedVersion != nil && *expectedVersion != current.Version {
		return nil, fmt.Errorf("account %s at version %d, expected %d: %w",
			accountNumber, current.Version, *expectedVersion, repository.ErrVersionConflict)
	}

	updated, err := s.store.ConditionalUpdate(ctx, accountNumber, current.Version, func(a *models.Account) {
		a.Description = description
	})
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, s.log)
	log.WithFields(logrus.Fields{
		"account_number": accountNumber,
		"version":        updated.Version,
	}).Info("Account description updated")

	if err := s.publisher.PublishDescriptionUpdated(ctx, events.DescriptionUpdated{
		AccountNumber: updated.AccountNumber,
		Version:       updated.Version,
		Description:   updated.Description,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: logger.CorrelationID(ctx),
	}); err != nil {
		log.WithError(err).Warn("Failed to publish description update")
	}
	return updated.View(), nil
}
