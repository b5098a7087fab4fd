package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a storefront account. Admins share the table and differ by role.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Blocked      bool      `json:"blocked"`
	CreatedAt    time.Time `json:"created_at"`
}

type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

// Address is a shipping address; orders keep a copy of it.
type Address struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	Type       AddressType `json:"type"`
	FullName   string      `json:"full_name"`
	Phone      string      `json:"phone"`
	Street     string      `json:"street"`
	Apartment  string      `json:"apartment,omitempty"`
	City       string      `json:"city"`
	State      string      `json:"state"`
	Country    string      `json:"country"`
	PostalCode string      `json:"postal_code"`
	IsDefault  bool        `json:"is_default"`
}

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionFailed    TransactionStatus = "failed"
)

// WalletTransaction is one ledger entry.
type WalletTransaction struct {
	ID          string            `json:"id"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description"`
	OrderID     int64             `json:"order_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Wallet is the store-credit ledger of a user; refunds are credited here.
type Wallet struct {
	UserID       int64               `json:"user_id"`
	Balance      decimal.Decimal     `json:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
}

// Clone returns a copy with its own ledger slice.
func (w Wallet) Clone() Wallet {
	cp := w
	cp.Transactions = append([]WalletTransaction(nil), w.Transactions...)
	return cp
}
