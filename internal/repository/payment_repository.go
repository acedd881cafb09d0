package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// PaymentRepo persists payments and their refunds.  Payment IDs and
// transaction IDs are generated by the model.NewPayment factory before
// insertion; the repository never invents identifiers.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, user_id, reservation_id, amount_cents, currency, method, status,
       transaction_id, created_at, updated_at`

// Create inserts a payment built by model.NewPayment.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
    const q = `INSERT INTO payments
        (id, user_id, reservation_id, amount_cents, currency, method, status, transaction_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    var reservationID interface{}
    if p.ReservationID != nil {
        reservationID = *p.ReservationID
    }
    _, err := r.db.ExecContext(ctx, q,
        p.ID, p.UserID, reservationID, p.AmountCents, p.Currency, p.Method, p.Status, p.TransactionID)
    if err != nil {
        return err
    }
    got, err := r.GetByID(ctx, p.ID)
    if err != nil {
        return err
    }
    *p = *got
    return nil
}

// GetByID loads one payment.  sql.ErrNoRows is returned when it does
// not exist.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
    const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
    return scanPayment(r.db.QueryRowContext(ctx, q, id))
}

// ListByUser returns a user's payments, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Payment, error) {
    const q = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    payments := make([]model.Payment, 0)
    for rows.Next() {
        p, err := scanPayment(rows)
        if err != nil {
            return nil, err
        }
        payments = append(payments, *p)
    }
    return payments, rows.Err()
}

// SetStatus updates a payment's gateway state.
func (r *PaymentRepo) SetStatus(ctx context.Context, id string, status model.PaymentStatus) error {
    res, err := r.db.ExecContext(ctx, `UPDATE payments SET status = ? WHERE id = ?`, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists string
        if err := r.db.QueryRowContext(ctx, `SELECT id FROM payments WHERE id = ?`, id).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}

// CreateRefund inserts a refund row for a payment and populates its
// ID.
func (r *PaymentRepo) CreateRefund(ctx context.Context, rf *model.Refund) error {
    const q = `INSERT INTO refunds (payment_id, reason, amount_cents, status, admin_notes, processed_at)
               VALUES (?, ?, ?, ?, ?, ?)`
    var processedAt interface{}
    if rf.ProcessedAt != nil {
        processedAt = rf.ProcessedAt.UTC()
    }
    res, err := r.db.ExecContext(ctx, q,
        rf.PaymentID, rf.Reason, rf.AmountCents, rf.Status, rf.AdminNotes, processedAt)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rf.ID = uint64(id)
    return nil
}

// ListRefunds returns the refunds recorded against a payment.
func (r *PaymentRepo) ListRefunds(ctx context.Context, paymentID string) ([]model.Refund, error) {
    const q = `SELECT id, payment_id, reason, amount_cents, status, admin_notes, processed_at, created_at
               FROM refunds WHERE payment_id = ? ORDER BY created_at`
    rows, err := r.db.QueryContext(ctx, q, paymentID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    refunds := make([]model.Refund, 0)
    for rows.Next() {
        var rf model.Refund
        var notes sql.NullString
        var processed sql.NullTime
        if err := rows.Scan(&rf.ID, &rf.PaymentID, &rf.Reason, &rf.AmountCents, &rf.Status,
            &notes, &processed, &rf.CreatedAt); err != nil {
            return nil, err
        }
        if notes.Valid {
            rf.AdminNotes = notes.String
        }
        if processed.Valid {
            t := processed.Time.UTC()
            rf.ProcessedAt = &t
        }
        refunds = append(refunds, rf)
    }
    return refunds, rows.Err()
}

func scanPayment(row scanner) (*model.Payment, error) {
    var p model.Payment
    var reservationID sql.NullInt64
    if err := row.Scan(
        &p.ID, &p.UserID, &reservationID, &p.AmountCents, &p.Currency, &p.Method,
        &p.Status, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    if reservationID.Valid {
        rid := uint64(reservationID.Int64)
        p.ReservationID = &rid
    }
    return &p, nil
}
