package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/Dan9191/account-record-service/internal/models"
)

const maxDescriptionLength = 1000

// MemoryRepository keeps records in process memory with the same
// semantics as the PostgreSQL repository
type MemoryRepository struct {
	mu            sync.RWMutex
	accounts      []models.Account
	users         []models.User
	nextAccountID int64
	nextUserID    int64
	now           func() time.Time
}

// NewMemoryRepository initializes an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

// Count returns the number of stored account records
func (m *MemoryRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.accounts)), nil
}

// FindByAccountNumber retrieves the earliest record with the account number
func (m *MemoryRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(accountNumber); i >= 0 {
		account := m.accounts[i]
		return &account, nil
	}
	return nil, fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
}

// indexOf relies on accounts being kept in id order
func (m *MemoryRepository) indexOf(accountNumber string) int {
	for i := range m.accounts {
		if m.accounts[i].AccountNumber == accountNumber {
			return i
		}
	}
	return -1
}

// FindAll retrieves one page of all account records
func (m *MemoryRepository) FindAll(ctx context.Context, spec models.PageSpec) (models.Page[models.Account], error) {
	return m.findPage(spec, func(*models.Account) bool { return true })
}

// FindByCustomerID retrieves one page of a customer's records
func (m *MemoryRepository) FindByCustomerID(ctx context.Context, customerID string, spec models.PageSpec) (models.Page[models.Account], error) {
	return m.findPage(spec, func(a *models.Account) bool { return a.CustomerID == customerID })
}

// FindByAccountNumbers retrieves one page of records matching any of the account numbers
func (m *MemoryRepository) FindByAccountNumbers(ctx context.Context, accountNumbers []string, spec models.PageSpec) (models.Page[models.Account], error) {
	wanted := make(map[string]struct{}, len(accountNumbers))
	for _, n := range accountNumbers {
		wanted[n] = struct{}{}
	}
	return m.findPage(spec, func(a *models.Account) bool {
		_, ok := wanted[a.AccountNumber]
		return ok
	})
}

// FindByDescriptionContaining retrieves one page of records whose description contains text, ignoring case
func (m *MemoryRepository) FindByDescriptionContaining(ctx context.Context, text string, spec models.PageSpec) (models.Page[models.Account], error) {
	needle := strings.ToLower(text)
	return m.findPage(spec, func(a *models.Account) bool {
		return strings.Contains(strings.ToLower(a.Description), needle)
	})
}

func (m *MemoryRepository) findPage(spec models.PageSpec, match func(*models.Account) bool) (models.Page[models.Account], error) {
	if err := spec.Validate(); err != nil {
		return models.Page[models.Account]{}, err
	}

	m.mu.RLock()
	matched := make([]models.Account, 0)
	for i := range m.accounts {
		if match(&m.accounts[i]) {
			matched = append(matched, m.accounts[i])
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		for _, s := range spec.Sort {
			c := compareField(&matched[i], &matched[j], s.Field)
			if c == 0 {
				continue
			}
			if s.Direction == models.Desc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	start := spec.Offset()
	if start >= len(matched) {
		return models.NewPage[models.Account](nil, spec, total), nil
	}
	end := start + spec.Size
	if end > len(matched) {
		end = len(matched)
	}
	return models.NewPage(matched[start:end], spec, total), nil
}

func compareField(a, b *models.Account, field string) int {
	switch field {
	case "id":
		return compareInt(a.ID, b.ID)
	case "accountNumber":
		return strings.Compare(a.AccountNumber, b.AccountNumber)
	case "customerId":
		return strings.Compare(a.CustomerID, b.CustomerID)
	case "balance":
		return a.Balance.Cmp(b.Balance)
	case "transactionAmount":
		return a.TransactionAmount.Cmp(b.TransactionAmount)
	case "description":
		return strings.Compare(a.Description, b.Description)
	case "transactionDate":
		return a.TransactionDate.Compare(b.TransactionDate)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// InsertBatch stores all records or none of them
func (m *MemoryRepository) InsertBatch(ctx context.Context, accounts []models.Account) (int, error) {
	for i := range accounts {
		if utf8.RuneCountInString(accounts[i].Description) > maxDescriptionLength {
			return 0, fmt.Errorf("failed to insert account %s: description exceeds %d characters",
				accounts[i].AccountNumber, maxDescriptionLength)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for i := range accounts {
		m.nextAccountID++
		accounts[i].ID = m.nextAccountID
		accounts[i].Version = 0
		accounts[i].CreatedAt = now
		accounts[i].UpdatedAt = now
		m.accounts = append(m.accounts, accounts[i])
	}
	return len(accounts), nil
}

// ConditionalUpdate writes the mutated record only if the stored version still matches
func (m *MemoryRepository) ConditionalUpdate(ctx context.Context, accountNumber string, expectedVersion int64, mutate func(*models.Account)) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(accountNumber)
	if i < 0 {
		return nil, fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
	}
	current := m.accounts[i]
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("account %s at version %d, expected %d: %w",
			accountNumber, current.Version, expectedVersion, ErrVersionConflict)
	}

	updated := current
	mutate(&updated)
	if utf8.RuneCountInString(updated.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("failed to update account %s: description exceeds %d characters",
			accountNumber, maxDescriptionLength)
	}
	updated.ID = current.ID
	updated.AccountNumber = current.AccountNumber
	updated.CreatedAt = current.CreatedAt
	updated.Version = current.Version + 1
	updated.UpdatedAt = m.now()
	m.accounts[i] = updated

	return &updated, nil
}

// CreateUser stores a new user, rejecting taken usernames and emails
func (m *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Username, ErrDuplicate)
		}
	}
	now := m.now()
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	stored.Roles = append([]string(nil), user.Roles...)
	m.users = append(m.users, stored)
	return nil
}

// FindUserByUsername retrieves a user by username
func (m *MemoryRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			found := u
			found.Roles = append([]string(nil), u.Roles...)
			return &found, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
}

// ExistsByUsername reports whether the username is taken
func (m *MemoryRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByEmail reports whether the email is taken
func (m *MemoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}
