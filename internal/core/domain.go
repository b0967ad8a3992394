package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending   InvoiceStatus = "pending"
	StatusShipped   InvoiceStatus = "shipped"
	StatusReturned  InvoiceStatus = "returned"
	StatusCompleted InvoiceStatus = "completed"
	StatusCancelled InvoiceStatus = "cancelled"
)

const (
	ResultSuccess TransactionResult = "success"
	ResultFailed  TransactionResult = "failed"
)

type (
	InvoiceStatus     string
	TransactionResult string

	Merchant struct {
		ID        int64
		Name      string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Item struct {
		ID          int64
		Name        string
		Description string
		UnitPrice   Money
		MerchantID  int64 // Owning merchant (reference, not ownership)
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Invoice struct {
		ID         int64
		CustomerID int64
		MerchantID int64
		Status     InvoiceStatus
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	InvoiceItem struct {
		ID        int64
		ItemID    int64
		InvoiceID int64
		Quantity  int64
		UnitPrice Money // Price at time of sale
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Transaction struct {
		ID                       int64
		InvoiceID                int64
		CreditCardNumber         string
		CreditCardExpirationDate string
		Result                   TransactionResult
		CreatedAt                time.Time
		UpdatedAt                time.Time
	}

	Customer struct {
		ID        int64
		FirstName string
		LastName  string
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	// ErrDivisionByZero is the arithmetic failure of a mean, variance or
	// percentage whose denominator is empty.
	ErrDivisionByZero = errors.New("division by zero")

	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrUnknownStatus   = errors.New("unknown invoice status")
	ErrUnknownResult   = errors.New("unknown transaction result")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrNotFound        = errors.New("not found")
)

// DateLayout is the calendar-date form accepted by date-scoped queries.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// SameDate reports whether a and b fall on the same calendar date, each
// read in its own location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseMonth resolves an English month name ("January") case-insensitively.
func ParseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, ErrInvalidMonth
}

// ParseInvoiceStatus maps a source tag onto a known InvoiceStatus.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	st := InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrUnknownStatus
	}
	return st, nil
}

// IsValid returns true if the status is one of the known tags
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusReturned, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s InvoiceStatus) String() string {
	return string(s)
}

func ParseTransactionResult(s string) (TransactionResult, error) {
	r := TransactionResult(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case ResultSuccess, ResultFailed:
		return r, nil
	default:
		return "", ErrUnknownResult
	}
}

// Name returns the customer's full name
func (c Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (ii InvoiceItem) Validate() error {
	if ii.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if ii.UnitPrice.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Revenue is quantity × unit price of the line item.
func (ii InvoiceItem) Revenue() Money {
	return ii.UnitPrice.Mul(ii.Quantity)
}
