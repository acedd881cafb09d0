package model

import (
    "regexp"
    "testing"

    "github.com/google/uuid"
)

var txnPattern = regexp.MustCompile(`^TXN-[0-9A-F]{8}$`)

func TestNewTransactionID(t *testing.T) {
    a := NewTransactionID()
    if !txnPattern.MatchString(a) {
        t.Fatalf("transaction id %q does not match %s", a, txnPattern)
    }
    if b := NewTransactionID(); a == b {
        t.Fatalf("two transaction ids collided: %s", a)
    }
}

func TestNewPaymentDefaults(t *testing.T) {
    rid := uint64(42)
    p := NewPayment(7, &rid, 1500, "", PaymentMethodCard)

    if _, err := uuid.Parse(p.ID); err != nil {
        t.Fatalf("payment id %q is not a uuid: %v", p.ID, err)
    }
    if p.Currency != "MAD" {
        t.Errorf("default currency: got %q, want MAD", p.Currency)
    }
    if p.Status != PaymentPending {
        t.Errorf("initial status: got %s, want pending", p.Status)
    }
    if p.ReservationID == nil || *p.ReservationID != rid {
        t.Errorf("reservation id not carried: %v", p.ReservationID)
    }
    if !txnPattern.MatchString(p.TransactionID) {
        t.Errorf("transaction id %q does not match %s", p.TransactionID, txnPattern)
    }
    if p.CreatedAt.IsZero() {
        t.Error("created_at not set")
    }

    lower := NewPayment(7, nil, 100, "eur", PaymentMethodCash)
    if lower.Currency != "EUR" {
        t.Errorf("currency normalization: got %q, want EUR", lower.Currency)
    }
    if lower.ReservationID != nil {
        t.Error("standalone payment must carry no reservation")
    }
}
