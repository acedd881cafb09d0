package model

import (
    "strings"
    "time"

    "github.com/google/uuid"
)

// PaymentStatus tracks a payment through the (simulated) gateway.
type PaymentStatus string

const (
    PaymentPending    PaymentStatus = "pending"
    PaymentProcessing PaymentStatus = "processing"
    PaymentCompleted  PaymentStatus = "completed"
    PaymentFailed     PaymentStatus = "failed"
    PaymentRefunded   PaymentStatus = "refunded"
)

// PaymentMethod enumerates how a user pays for a session.
type PaymentMethod string

const (
    PaymentMethodCard   PaymentMethod = "card"
    PaymentMethodMobile PaymentMethod = "mobile"
    PaymentMethodCash   PaymentMethod = "cash"
)

// Payment is a ledger entry for a charging session.  A payment may
// reference at most one reservation; standalone payments (e.g. pay at
// station) carry no reservation.  The ID and TransactionID are
// assigned by NewPayment before the record is considered valid, never
// as a side effect of persistence.
//
// Fields:
//  ID            – uuid primary key.
//  UserID        – paying user.
//  ReservationID – linked reservation, nil when standalone.
//  AmountCents   – charged amount in cents.
//  Currency      – ISO currency code, e.g. "MAD".
//  Method        – payment method.
//  Status        – gateway state, see PaymentStatus.
//  TransactionID – externally visible id, "TXN-" + 8 hex chars.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Payment struct {
    ID            string        `json:"id"`
    UserID        uint64        `json:"user_id"`
    ReservationID *uint64       `json:"reservation_id,omitempty"`
    AmountCents   uint32        `json:"amount_cents"`
    Currency      string        `json:"currency"`
    Method        PaymentMethod `json:"method"`
    Status        PaymentStatus `json:"status"`
    TransactionID string        `json:"transaction_id"`
    CreatedAt     time.Time     `json:"created_at"`
    UpdatedAt     time.Time     `json:"updated_at"`
}

// NewPayment builds a payment in the pending state with its identifiers
// already generated.  The currency defaults to MAD when empty.
func NewPayment(userID uint64, reservationID *uint64, amountCents uint32, currency string, method PaymentMethod) *Payment {
    currency = strings.ToUpper(strings.TrimSpace(currency))
    if currency == "" {
        currency = "MAD"
    }
    return &Payment{
        ID:            uuid.NewString(),
        UserID:        userID,
        ReservationID: reservationID,
        AmountCents:   amountCents,
        Currency:      currency,
        Method:        method,
        Status:        PaymentPending,
        TransactionID: NewTransactionID(),
        CreatedAt:     time.Now().UTC(),
    }
}

// NewTransactionID returns a fresh externally visible transaction id of
// the form "TXN-" followed by 8 uppercase hex characters.
func NewTransactionID() string {
    return "TXN-" + strings.ToUpper(uuid.NewString()[:8])
}
