package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/lib/pq"
)

const accountColumns = `id, account_number, customer_id, transaction_amount, balance, description,
		transaction_date, transaction_time, version, created_at, updated_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	var description sql.NullString
	err := row.Scan(
		&account.ID, &account.AccountNumber, &account.CustomerID,
		&account.TransactionAmount, &account.Balance, &description,
		&account.TransactionDate, &account.TransactionTime,
		&account.Version, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Description = description.String
	return account, nil
}

// Count returns the number of stored account records
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// FindByAccountNumber retrieves the earliest record with the account number
func (r *Repository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE account_number = $1
		ORDER BY id
		LIMIT 1`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountNumber, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// FindAll retrieves one page of all account records
func (r *Repository) FindAll(ctx context.Context, spec models.PageSpec) (models.Page[models.Account], error) {
	return r.findPage(ctx, "", nil, spec)
}

// FindByCustomerID retrieves one page of a customer's records
func (r *Repository) FindByCustomerID(ctx context.Context, customerID string, spec models.PageSpec) (models.Page[models.Account], error) {
	return r.findPage(ctx, "customer_id = $1", []any{customerID}, spec)
}

// FindByAccountNumbers retrieves one page of records matching any of the account numbers
func (r *Repository) FindByAccountNumbers(ctx context.Context, accountNumbers []string, spec models.PageSpec) (models.Page[models.Account], error) {
	if len(accountNumbers) == 0 {
		return models.NewPage[models.Account](nil, spec, 0), nil
	}
	return r.findPage(ctx, "account_number = ANY($1)", []any{pq.Array(accountNumbers)}, spec)
}

// FindByDescriptionContaining retrieves one page of records whose description contains text, ignoring case
func (r *Repository) FindByDescriptionContaining(ctx context.Context, text string, spec models.PageSpec) (models.Page[models.Account], error) {
	return r.findPage(ctx, "description ILIKE $1", []any{"%" + escapeLike(text) + "%"}, spec)
}

func (r *Repository) findPage(ctx context.Context, where string, args []any, spec models.PageSpec) (models.Page[models.Account], error) {
	if err := spec.Validate(); err != nil {
		return models.Page[models.Account]{}, err
	}
	if where != "" {
		where = "WHERE " + where
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts `+where, args...).Scan(&total); err != nil {
		return models.Page[models.Account]{}, fmt.Errorf("failed to count accounts: %w", err)
	}
	if total == 0 || int64(spec.Offset()) >= total {
		return models.NewPage[models.Account](nil, spec, total), nil
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM accounts %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		accountColumns, where, orderBy(spec.Sort), n+1, n+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, spec.Size, spec.Offset())...)
	if err != nil {
		return models.Page[models.Account]{}, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	content := make([]models.Account, 0, spec.Size)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return models.Page[models.Account]{}, fmt.Errorf("failed to scan account: %w", err)
		}
		content = append(content, *account)
	}
	if err := rows.Err(); err != nil {
		return models.Page[models.Account]{}, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return models.NewPage(content, spec, total), nil
}

// orderBy builds an ORDER BY list from validated sort orders, ending with id
func orderBy(sort []models.SortOrder) string {
	parts := make([]string, 0, len(sort)+1)
	byID := false
	for _, s := range sort {
		column := models.SortableAccountFields[s.Field]
		if column == "id" {
			byID = true
		}
		parts = append(parts, column+" "+strings.ToUpper(string(s.Direction)))
	}
	if !byID {
		parts = append(parts, "id ASC")
	}
	return strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// InsertBatch inserts all records in a single transaction
func (r *Repository) InsertBatch(ctx context.Context, accounts []models.Account) (int, error) {
	if len(accounts) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO accounts (account_number, customer_id, transaction_amount, balance, description,
			transaction_date, transaction_time, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, version, created_at, updated_at`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for i := range accounts {
		a := &accounts[i]
		err := stmt.QueryRowContext(ctx,
			a.AccountNumber, a.CustomerID, a.TransactionAmount, a.Balance, a.Description,
			a.TransactionDate, a.TransactionTime,
		).Scan(&a.ID, &a.Version, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert account %s: %w", a.AccountNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return len(accounts), nil
}

// ConditionalUpdate writes the mutated record only if the stored version still matches
func (r *Repository) ConditionalUpdate(ctx context.Context, accountNumber string, expectedVersion int64, mutate func(*models.Account)) (*models.Account, error) {
	current, err := r.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("account %s at version %d, expected %d: %w",
			accountNumber, current.Version, expectedVersion, ErrVersionConflict)
	}

	updated := *current
	mutate(&updated)

	query := `
		UPDATE accounts
		SET customer_id = $1, transaction_amount = $2, balance = $3, description = $4,
			transaction_date = $5, transaction_time = $6,
			version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		updated.CustomerID, updated.TransactionAmount, updated.Balance, updated.Description,
		updated.TransactionDate, updated.TransactionTime,
		current.ID, expectedVersion,
	).Scan(&updated.Version, &updated.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s changed since version %d: %w", accountNumber, expectedVersion, ErrVersionConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	updated.ID = current.ID
	updated.AccountNumber = current.AccountNumber
	updated.CreatedAt = current.CreatedAt
	return &updated, nil
}
