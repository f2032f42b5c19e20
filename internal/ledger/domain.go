package ledger

import (
	"errors"
	"time"
)

// AccountType classifies ledger accounts.
type AccountType string

const (
	TypeDistributor AccountType = "distributor"
	TypeSupplier    AccountType = "supplier"
	TypeExpense     AccountType = "expense"
	TypeBank        AccountType = "bank"
)

// IsValid checks if the type is a known value.
func (t AccountType) IsValid() bool {
	switch t {
	case TypeDistributor, TypeSupplier, TypeExpense, TypeBank:
		return true
	default:
		return false
	}
}

// Account is one ledger account row.
type Account struct {
	ID             int64       `json:"id" db:"id"`
	AccountNumber  string      `json:"account_number" db:"account_number"`
	AccountName    string      `json:"account_name" db:"account_name"`
	AccountType    AccountType `json:"account_type" db:"account_type"`
	DistributorID  *int64      `json:"distributor_id,omitempty" db:"distributor_id"`
	CreditLimit    float64     `json:"credit_limit" db:"credit_limit"`
	CurrentBalance float64     `json:"current_balance" db:"current_balance"`
	Version        int64       `json:"-" db:"version"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// CreateAccountRequest opens a ledger account.
type CreateAccountRequest struct {
	AccountNumber string      `json:"account_number" validate:"required,max=30"`
	AccountName   string      `json:"account_name" validate:"required,max=200"`
	AccountType   AccountType `json:"account_type" validate:"required,oneof=distributor supplier expense bank"`
	DistributorID *int64      `json:"distributor_id,omitempty" validate:"omitempty,gt=0"`
	CreditLimit   float64     `json:"credit_limit" validate:"gte=0"`
}

// PostEntryRequest adjusts an account balance by a signed amount.
type PostEntryRequest struct {
	Amount    float64 `json:"amount" validate:"required"`
	Narration string  `json:"narration" validate:"required,max=500"`
}

// Sortable columns for account listings. Sorting happens in SQL, so only
// whitelisted columns are accepted.
var sortColumns = map[string]string{
	"name":    "account_name",
	"number":  "account_number",
	"balance": "current_balance",
	"limit":   "credit_limit",
}

// ListAccountsRequest filters and sorts the account listing.
type ListAccountsRequest struct {
	Type    AccountType
	Search  string
	SortBy  string
	Desc    bool
	Page    int
	PerPage int
}

// ErrCreditLimitExceeded is returned when a debit would push the balance past
// the account's credit limit.
var ErrCreditLimitExceeded = errors.New("ledger: credit limit exceeded")
