package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents one imported account transaction record
type Account struct {
	ID                int64           `json:"id"`
	AccountNumber     string          `json:"accountNumber"`
	CustomerID        string          `json:"customerId"`
	TransactionAmount decimal.Decimal `json:"transactionAmount"`
	Balance           decimal.Decimal `json:"balance"`
	Description       string          `json:"description"`
	TransactionDate   time.Time       `json:"transactionDate"`
	// TransactionTime carries the same combined date and time as TransactionDate.
	// The source file has separate columns but records have always stored the
	// combined value in both fields, and readers may depend on that.
	TransactionTime time.Time `json:"transactionTime"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AccountView is the externally visible projection of an account record
type AccountView struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	CustomerID    string          `json:"customerId"`
	Balance       decimal.Decimal `json:"balance"`
	Description   string          `json:"description"`
	Version       int64           `json:"version"`
}

// View maps the record to its read view
func (a *Account) View() *AccountView {
	if a == nil {
		return nil
	}
	return &AccountView{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		CustomerID:    a.CustomerID,
		Balance:       a.Balance,
		Description:   a.Description,
		Version:       a.Version,
	}
}
