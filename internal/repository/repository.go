package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dan9191/account-record-service/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup key
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when the stored version differs from the expected one
	ErrVersionConflict = errors.New("record was modified concurrently")
	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("duplicate record")
)

// AccountStore is the persistence contract for account records
type AccountStore interface {
	Count(ctx context.Context) (int64, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	FindAll(ctx context.Context, spec models.PageSpec) (models.Page[models.Account], error)
	FindByCustomerID(ctx context.Context, customerID string, spec models.PageSpec) (models.Page[models.Account], error)
	FindByAccountNumbers(ctx context.Context, accountNumbers []string, spec models.PageSpec) (models.Page[models.Account], error)
	FindByDescriptionContaining(ctx context.Context, text string, spec models.PageSpec) (models.Page[models.Account], error)
	// InsertBatch stores all records or none of them. IDs, versions and
	// timestamps are written back into the slice.
	InsertBatch(ctx context.Context, accounts []models.Account) (int, error)
	// ConditionalUpdate applies mutate to the record only if its stored version
	// still equals expectedVersion, and increments the version by one.
	ConditionalUpdate(ctx context.Context, accountNumber string, expectedVersion int64, mutate func(*models.Account)) (*models.Account, error)
}

// UserStore is the persistence contract for credentials
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Store combines both contracts
type Store interface {
	AccountStore
	UserStore
}

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}
