package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations.  Status
// changes go through SetStatus, which carries compare-and-swap
// semantics so racing transitions resolve to exactly one winner.  All
// timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, station_id, start_time, end_time, status,
       estimated_cost_cents, created_at, updated_at`

// Create inserts a new reservation and populates its ID and
// timestamps.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    const q = `INSERT INTO reservations
        (user_id, station_id, start_time, end_time, status, estimated_cost_cents)
        VALUES (?, ?, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q,
        res.UserID, res.StationID, res.StartTime.UTC(), res.EndTime.UTC(), res.Status, res.EstimatedCostCents)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    got, err := r.GetByID(ctx, res.ID)
    if err != nil {
        return err
    }
    *res = *got
    return nil
}

// GetByID loads one reservation.  sql.ErrNoRows is returned when it
// does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
    var res model.Reservation
    if err := r.db.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.UserID, &res.StationID, &res.StartTime, &res.EndTime,
        &res.Status, &res.EstimatedCostCents, &res.CreatedAt, &res.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    return &res, nil
}

// Delete removes a reservation.  Used only to roll back a failed
// admission.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
    _, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    return err
}

// SetStatus updates the status only when the current value matches
// from, and reports whether the swap took effect.
func (r *ReservationRepo) SetStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
        to, id, from)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// CountOverlapping counts occupying reservations on a station whose
// window intersects [start, end) under half-open semantics, regardless
// of owner.
func (r *ReservationRepo) CountOverlapping(ctx context.Context, stationID uint64, start, end time.Time) (uint32, error) {
    const q = `SELECT COUNT(*) FROM reservations
               WHERE station_id = ?
                 AND status IN ('pending','confirmed','active')
                 AND start_time < ? AND end_time > ?`
    var n uint32
    err := r.db.QueryRowContext(ctx, q, stationID, end.UTC(), start.UTC()).Scan(&n)
    return n, err
}

// CountOccupiedPorts counts port-units occupied at the given instant:
// active sessions unconditionally, pending/confirmed only while their
// window covers the instant.
func (r *ReservationRepo) CountOccupiedPorts(ctx context.Context, stationID uint64, at time.Time) (uint32, error) {
    const q = `SELECT COUNT(*) FROM reservations
               WHERE station_id = ?
                 AND (status = 'active'
                      OR (status IN ('pending','confirmed') AND start_time <= ? AND end_time > ?))`
    var n uint32
    t := at.UTC()
    err := r.db.QueryRowContext(ctx, q, stationID, t, t).Scan(&n)
    return n, err
}

// ListSweepCandidates returns reservations the sweeper may force:
// pending/confirmed more than grace past their start, and active
// sessions past their end.
func (r *ReservationRepo) ListSweepCandidates(ctx context.Context, now time.Time, grace time.Duration) ([]*model.Reservation, error) {
    const q = `SELECT ` + reservationColumns + ` FROM reservations
               WHERE (status IN ('pending','confirmed') AND start_time < ?)
                  OR (status = 'active' AND end_time < ?)`
    t := now.UTC()
    rows, err := r.db.QueryContext(ctx, q, t.Add(-grace), t)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []*model.Reservation
    for rows.Next() {
        var res model.Reservation
        if err := rows.Scan(
            &res.ID, &res.UserID, &res.StationID, &res.StartTime, &res.EndTime,
            &res.Status, &res.EstimatedCostCents, &res.CreatedAt, &res.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        out = append(out, &res)
    }
    return out, rows.Err()
}

// ReservationDetail is a reservation joined with its station's name
// and address, plus the derived can_cancel flag, as returned to
// drivers listing their bookings.
type ReservationDetail struct {
    model.Reservation
    StationName    string `json:"station_name"`
    StationAddress string `json:"station_address"`
    CanCancel      bool   `json:"can_cancel"`
}

// ListByUser returns all of a user's reservations, newest first, with
// station details attached.  CanCancel reflects the same 1-hour cutoff
// the booking engine enforces.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, now time.Time, cancelCutoff time.Duration) ([]ReservationDetail, error) {
    const q = `SELECT r.id, r.user_id, r.station_id, r.start_time, r.end_time, r.status,
                      r.estimated_cost_cents, r.created_at, r.updated_at,
                      s.name, s.address
               FROM reservations r
               JOIN stations s ON s.id = r.station_id
               WHERE r.user_id = ?
               ORDER BY r.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]ReservationDetail, 0)
    for rows.Next() {
        var d ReservationDetail
        if err := rows.Scan(
            &d.ID, &d.UserID, &d.StationID, &d.StartTime, &d.EndTime, &d.Status,
            &d.EstimatedCostCents, &d.CreatedAt, &d.UpdatedAt,
            &d.StationName, &d.StationAddress,
        ); err != nil {
            return nil, err
        }
        d.CanCancel = (d.Status == model.ReservationPending || d.Status == model.ReservationConfirmed) &&
            now.Before(d.StartTime.Add(-cancelCutoff))
        details = append(details, d)
    }
    return details, rows.Err()
}

// GetDetailForUser loads one reservation with station details,
// enforcing ownership.  ErrForbidden is returned when the reservation
// belongs to someone else and sql.ErrNoRows when it does not exist.
func (r *ReservationRepo) GetDetailForUser(ctx context.Context, reservationID, userID uint64, now time.Time, cancelCutoff time.Duration) (*ReservationDetail, error) {
    const q = `SELECT r.id, r.user_id, r.station_id, r.start_time, r.end_time, r.status,
                      r.estimated_cost_cents, r.created_at, r.updated_at,
                      s.name, s.address
               FROM reservations r
               JOIN stations s ON s.id = r.station_id
               WHERE r.id = ?`
    var d ReservationDetail
    if err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
        &d.ID, &d.UserID, &d.StationID, &d.StartTime, &d.EndTime, &d.Status,
        &d.EstimatedCostCents, &d.CreatedAt, &d.UpdatedAt,
        &d.StationName, &d.StationAddress,
    ); err != nil {
        return nil, err
    }
    if d.UserID != userID {
        return nil, ErrForbidden
    }
    d.CanCancel = (d.Status == model.ReservationPending || d.Status == model.ReservationConfirmed) &&
        now.Before(d.StartTime.Add(-cancelCutoff))
    return &d, nil
}
