package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Account identifies the payment provider a transaction came from.
type Account string

const (
	AccountWise   Account = "Wise"
	AccountPayPal Account = "PayPal"
)

// AllowedCategories is the closed set of transaction categories. The AI model
// is instructed to pick from this list and validation rejects anything else.
var AllowedCategories = []string{
	"Transport",
	"Food & Dining",
	"Travel",
	"Home",
	"Utilities",
	"People",
	"Shopping",
	"Grocery",
	"Other",
}

var (
	amountPattern   = regexp.MustCompile(`^\d+\.\d{2}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	// Hours 1-12 with or without a leading zero; hour 0 does not exist on a
	// 12-hour clock.
	timePattern = regexp.MustCompile(`^(0[1-9]|1[0-2]|[1-9]):[0-5][0-9] [AP]M$`)
)

// Transaction is one fully normalized transaction produced by the model.
// All seven fields must be present and well-formed before the record counts
// as valid; see Validate.
type Transaction struct {
	Amount   string  `json:"amount"`   // decimal string, exactly 2 fractional digits
	Currency string  `json:"currency"` // 3-letter uppercase code
	Merchant string  `json:"merchant"`
	Category string  `json:"category"` // one of AllowedCategories
	Date     string  `json:"date"`     // DD-MM-YYYY
	Time     string  `json:"time"`     // HH:MM AM/PM, hours 1-12
	Account  Account `json:"account"`  // Wise or PayPal
}

// ValidationError reports every field that failed validation; records are
// accepted all-or-nothing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction validation failed: invalid field(s): %s",
		strings.Join(e.Fields, ", "))
}

// Normalize applies lossless cleanups before validation: trims whitespace and
// uppercases the currency code.
func (t *Transaction) Normalize() {
	t.Amount = strings.TrimSpace(t.Amount)
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	t.Merchant = strings.TrimSpace(t.Merchant)
	t.Category = strings.TrimSpace(t.Category)
	t.Date = strings.TrimSpace(t.Date)
	t.Time = strings.TrimSpace(t.Time)
	t.Account = Account(strings.TrimSpace(string(t.Account)))
}

// Validate checks every field against the transaction invariants. It returns
// a *ValidationError naming all offending fields, or nil when the record is
// fully well-formed.
func (t *Transaction) Validate() error {
	var bad []string

	if !amountPattern.MatchString(t.Amount) {
		bad = append(bad, "amount")
	}
	if !currencyPattern.MatchString(t.Currency) {
		bad = append(bad, "currency")
	}
	if t.Merchant == "" {
		bad = append(bad, "merchant")
	}
	if !isAllowedCategory(t.Category) {
		bad = append(bad, "category")
	}
	if _, err := time.Parse("02-01-2006", t.Date); err != nil {
		bad = append(bad, "date")
	}
	if !timePattern.MatchString(t.Time) {
		bad = append(bad, "time")
	}
	if t.Account != AccountWise && t.Account != AccountPayPal {
		bad = append(bad, "account")
	}

	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

// ToRow converts the transaction into the 7-column sheet row:
// date, time, merchant, amount, currency, category, account.
func (t *Transaction) ToRow() []string {
	return []string{
		t.Date,
		t.Time,
		t.Merchant,
		t.Amount,
		t.Currency,
		t.Category,
		string(t.Account),
	}
}

func (t *Transaction) String() string {
	return fmt.Sprintf("%s %s - %s - %s %s - %s",
		t.Date, t.Time, t.Merchant, t.Amount, t.Currency, t.Category)
}

func isAllowedCategory(category string) bool {
	for _, c := range AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}
