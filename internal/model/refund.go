package model

import "time"

// RefundReason classifies why a payment was returned.
type RefundReason string

const (
    RefundStationDefective   RefundReason = "station_defective"
    RefundUserCancelled      RefundReason = "user_cancelled"
    RefundTechnicalIssue     RefundReason = "technical_issue"
    RefundServiceUnavailable RefundReason = "service_unavailable"
    RefundOther              RefundReason = "other"
)

// RefundStatus tracks refund processing.
type RefundStatus string

const (
    RefundPending    RefundStatus = "pending"
    RefundProcessing RefundStatus = "processing"
    RefundCompleted  RefundStatus = "completed"
    RefundFailed     RefundStatus = "failed"
)

// Refund is a child record of a payment.  Refunds are pure ledger
// bookkeeping; they never touch station or reservation state beyond
// what cancellation already does.
type Refund struct {
    ID          uint64       `json:"id"`
    PaymentID   string       `json:"payment_id"`
    Reason      RefundReason `json:"reason"`
    AmountCents uint32       `json:"amount_cents"`
    Status      RefundStatus `json:"status"`
    AdminNotes  string       `json:"admin_notes,omitempty"`
    ProcessedAt *time.Time   `json:"processed_at,omitempty"`
    CreatedAt   time.Time    `json:"created_at"`
}
