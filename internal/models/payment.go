package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the outcome of a payment authorization.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentFailed     PaymentStatus = "failed"
)

// IsSuccessful reports whether the payment went through.
func (s PaymentStatus) IsSuccessful() bool {
	return s == PaymentAuthorized
}

// IsFinal reports whether the payment reached a terminal outcome.
func (s PaymentStatus) IsFinal() bool {
	return s == PaymentAuthorized || s == PaymentFailed
}

// Payment is created once at order-creation time, 1:1 with its order, and not
// mutated afterwards. Amount always equals the order total.
type Payment struct {
	ID                int64           `json:"id" db:"id"`
	OrderID           int64           `json:"order_id" db:"order_id"`
	CardID            int64           `json:"card_id" db:"card_id"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	AuthorizationCode string          `json:"authorization_code" db:"authorization_code"`
	Status            PaymentStatus   `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// Card is a stored payment method. Ownership is checked at checkout.
type Card struct {
	ID           int64  `json:"id" db:"id"`
	UserID       int64  `json:"user_id" db:"user_id"`
	MaskedNumber string `json:"masked_number" db:"masked_number"`
}
