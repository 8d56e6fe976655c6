package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountRowColumns = []string{
	"id", "account_number", "customer_id", "transaction_amount", "balance", "description",
	"transaction_date", "transaction_time", "version", "created_at", "updated_at",
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func accountRow(id int64, number string, version int64) *sqlmock.Rows {
	ts := time.Date(2019, 9, 12, 11, 11, 11, 0, time.UTC)
	return sqlmock.NewRows(accountRowColumns).
		AddRow(id, number, "222", "123.45", "123.45", nil, ts, ts, version, ts, ts)
}

func TestRepository_FindByAccountNumber(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`FROM accounts\s+WHERE account_number = \$1`).
		WithArgs("8872838283").
		WillReturnRows(accountRow(7, "8872838283", 2))

	account, err := repo.FindByAccountNumber(context.Background(), "8872838283")
	require.NoError(t, err)
	assert.Equal(t, int64(7), account.ID)
	assert.Equal(t, "", account.Description)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, int64(2), account.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByAccountNumberNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`FROM accounts`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	_, err := repo.FindByAccountNumber(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_FindAllPaging(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(`ORDER BY balance DESC, id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 20).
		WillReturnRows(accountRow(21, "a", 0))

	page, err := repo.FindAll(context.Background(), models.PageSpec{
		Page: 2, Size: 10,
		Sort: []models.SortOrder{{Field: "balance", Direction: models.Desc}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Content, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindAllRejectsOverflowingOffset(t *testing.T) {
	repo, mock := newMockRepository(t)

	_, err := repo.FindAll(context.Background(), models.PageSpec{Page: math.MaxInt / 500, Size: models.MaxPageSize})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByDescriptionEscapesPattern(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE description ILIKE \$1`).
		WithArgs(`%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	page, err := repo.FindByDescriptionContaining(context.Background(), "50%_off", models.PageSpec{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByAccountNumbersEmptySet(t *testing.T) {
	repo, mock := newMockRepository(t)

	page, err := repo.FindByAccountNumbers(context.Background(), nil, models.PageSpec{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertBatch(t *testing.T) {
	repo, mock := newMockRepository(t)
	ts := time.Now()
	accounts := []models.Account{
		{AccountNumber: "1", CustomerID: "c", TransactionAmount: decimal.NewFromInt(5), Balance: decimal.NewFromInt(5)},
		{AccountNumber: "2", CustomerID: "c", TransactionAmount: decimal.NewFromInt(6), Balance: decimal.NewFromInt(6)},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO accounts`)
	prep.ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at", "updated_at"}).AddRow(1, 0, ts, ts))
	prep.ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at", "updated_at"}).AddRow(2, 0, ts, ts))
	mock.ExpectCommit()

	n, err := repo.InsertBatch(context.Background(), accounts)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(1), accounts[0].ID)
	assert.Equal(t, int64(2), accounts[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_InsertBatchRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	ts := time.Now()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO accounts`)
	prep.ExpectQuery().
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at", "updated_at"}).AddRow(1, 0, ts, ts))
	prep.ExpectQuery().WillReturnError(errors.New("value too long for type character varying(1000)"))
	mock.ExpectRollback()

	_, err := repo.InsertBatch(context.Background(), []models.Account{{AccountNumber: "1"}, {AccountNumber: "2"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ConditionalUpdate(t *testing.T) {
	repo, mock := newMockRepository(t)
	ts := time.Now()

	mock.ExpectQuery(`FROM accounts`).
		WithArgs("8872838283").
		WillReturnRows(accountRow(7, "8872838283", 3))
	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs("222", sqlmock.AnyArg(), sqlmock.AnyArg(), "new text", sqlmock.AnyArg(), sqlmock.AnyArg(), 7, 3).
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}).AddRow(4, ts))

	updated, err := repo.ConditionalUpdate(context.Background(), "8872838283", 3, func(a *models.Account) {
		a.Description = "new text"
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated.Version)
	assert.Equal(t, "new text", updated.Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ConditionalUpdateLostRace(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM accounts`).
		WithArgs("8872838283").
		WillReturnRows(accountRow(7, "8872838283", 3))
	mock.ExpectQuery(`UPDATE accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}))

	_, err := repo.ConditionalUpdate(context.Background(), "8872838283", 3, func(a *models.Account) {})
	assert.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ConditionalUpdateStaleExpectation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM accounts`).
		WithArgs("8872838283").
		WillReturnRows(accountRow(7, "8872838283", 5))

	_, err := repo.ConditionalUpdate(context.Background(), "8872838283", 3, func(a *models.Account) {})
	assert.ErrorIs(t, err, ErrVersionConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUserDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.CreateUser(context.Background(), &models.User{Username: "admin", Email: "admin@admin.com", Roles: []string{models.RoleAdmin}})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRepository_FindUserByUsername(t *testing.T) {
	repo, mock := newMockRepository(t)
	ts := time.Now()
	mock.ExpectQuery(`FROM users`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "enabled", "roles", "created_at", "updated_at"}).
			AddRow(1, "admin", "admin@admin.com", "hash", true, "{ROLE_ADMIN}", ts, ts))

	user, err := repo.FindUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleAdmin}, user.Roles)
	assert.True(t, user.Enabled)
}

func TestRepository_Migrate(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS accounts`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
