package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "CREATED"
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus maps a raw status string to a known status value.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch PaymentStatus(raw) {
	case PaymentStatusCreated,
		PaymentStatusPending,
		PaymentStatusSuccess,
		PaymentStatusFailed,
		PaymentStatusCancelled,
		PaymentStatusRefunded:
		return PaymentStatus(raw), true
	default:
		return "", false
	}
}

type Payment struct {
	// ID is assigned by the repository on first insert and never changes.
	ID string

	OrderID string
	UserID  string

	Status PaymentStatus

	// Timestamp is set once when the payment is first persisted. Only the
	// status field is mutated afterwards.
	Timestamp time.Time

	// PaymentAmount may be absent for payments opened from order events;
	// aggregation skips absent amounts.
	PaymentAmount decimal.NullDecimal
}
