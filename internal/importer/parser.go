package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/account-record-service/internal/models"
	"github.com/shopspring/decimal"
)

const (
	fieldCount = 6
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// LineError reports the source line that failed to parse
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// ParseLine maps one pipe-delimited line onto an account record.
// Columns: accountNumber|transactionAmount|description|transactionDate|transactionTime|customerId
func ParseLine(line string) (*models.Account, error) {
	fields := strings.SplitN(line, "|", fieldCount+1)
	if len(fields) > fieldCount {
		fields = fields[:fieldCount]
	}
	for len(fields) < fieldCount {
		fields = append(fields, "")
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	amount, err := decimal.NewFromString(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid transaction amount %q: %w", fields[1], err)
	}
	date, err := time.Parse(dateLayout, fields[3])
	if err != nil {
		return nil, fmt.Errorf("invalid transaction date %q: %w", fields[3], err)
	}
	clock, err := time.Parse(timeLayout, fields[4])
	if err != nil {
		return nil, fmt.Errorf("invalid transaction time %q: %w", fields[4], err)
	}
	ts := time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)

	// TransactionTime carries the full timestamp, same as TransactionDate.
	return &models.Account{
		AccountNumber:     fields[0],
		TransactionAmount: amount,
		Balance:           amount,
		Description:       fields[2],
		TransactionDate:   ts,
		TransactionTime:   ts,
		CustomerID:        fields[5],
	}, nil
}
