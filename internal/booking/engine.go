package booking

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// Domain timeouts.  These are evaluated against the current time at the
// moment of each request; no background timer owns an individual
// reservation, only the sweeper forces transitions on its own cadence.
const (
    // GracePeriod bounds both sides of start_time: a session may start
    // up to GracePeriod early, and a reservation never started is
    // force-expired once start_time is more than GracePeriod in the
    // past.
    GracePeriod = 15 * time.Minute

    // CancelCutoff is how long before start_time a reservation can
    // still be cancelled.
    CancelCutoff = time.Hour
)

// Engine owns the reservation lifecycle and the station port pool.  All
// admission checks and pool-mutating transitions for a station run
// under that station's lock, so concurrent requests against the same
// station serialize while different stations proceed independently.
//
// Admission is overlap-authoritative: a request is accepted when the
// number of occupying reservations intersecting its window is below
// the station's total ports.  The available_ports counter is a
// denormalized cache of occupancy at the current instant, reconciled
// after every transition and refreshed by each sweep, and is never
// independently decremented for a future window.
type Engine struct {
    store Store
    locks *stationLocks

    // Clock returns the current time and exists so tests can pin it.
    Clock func() time.Time
}

// NewEngine builds an engine over the given store.
func NewEngine(store Store) *Engine {
    return &Engine{
        store: store,
        locks: newStationLocks(),
        Clock: func() time.Time { return time.Now().UTC() },
    }
}

// Request admits a new reservation for user userID on station stationID
// over the half-open window [start, end).  On success the reservation
// is created in the pending state.  Every occupying reservation counts
// toward capacity, the requesting user's own included; a user holding a
// port for a window cannot hold the same port twice.
func (e *Engine) Request(ctx context.Context, userID, stationID uint64, start, end time.Time, estimatedCostCents uint32) (*model.Reservation, error) {
    now := e.Clock()
    if !end.After(start) {
        return nil, ErrInvalidWindow
    }
    if !start.After(now) {
        return nil, ErrWindowInPast
    }

    mu := e.locks.get(stationID)
    mu.Lock()
    defer mu.Unlock()

    st, err := e.store.GetStation(ctx, stationID)
    if err != nil {
        return nil, err
    }
    if st.Status != model.StationActive {
        return nil, fmt.Errorf("station %d is %s: %w", stationID, st.Status, ErrGuardViolation)
    }
    overlapping, err := e.store.CountOverlapping(ctx, stationID, start, end)
    if err != nil {
        return nil, err
    }
    if overlapping >= st.TotalPorts {
        return nil, ErrStationFullyBooked
    }

    r := &model.Reservation{
        UserID:             userID,
        StationID:          stationID,
        StartTime:          start.UTC(),
        EndTime:            end.UTC(),
        Status:             model.ReservationPending,
        EstimatedCostCents: estimatedCostCents,
        CreatedAt:          now,
    }
    if err := e.store.CreateReservation(ctx, r); err != nil {
        return nil, err
    }
    // Admission and pool adjustment are one failure-atomic unit: if the
    // counter cannot be reconciled the reservation must not survive.
    if err := e.reconcilePorts(ctx, st); err != nil {
        if delErr := e.store.DeleteReservation(ctx, r.ID); delErr != nil {
            log.Printf("booking: rollback of reservation %d failed: %v", r.ID, delErr)
        }
        return nil, err
    }
    return r, nil
}

// Cancel moves a pending or confirmed reservation to cancelled.  Only
// the owning user may cancel, and only strictly more than CancelCutoff
// before start_time.
func (e *Engine) Cancel(ctx context.Context, id, actingUser uint64) (*model.Reservation, error) {
    r, err := e.store.GetReservation(ctx, id)
    if err != nil {
        return nil, err
    }
    if r.UserID != actingUser {
        return nil, ErrForbidden
    }
    if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
        return nil, fmt.Errorf("cannot cancel a %s reservation: %w", r.Status, ErrGuardViolation)
    }
    // Signed time comparison: a start already in the past has long
    // blown past the cutoff and must reject as well.
    if !e.Clock().Before(r.StartTime.Add(-CancelCutoff)) {
        return nil, fmt.Errorf("cancellation closes %s before start: %w", CancelCutoff, ErrGuardViolation)
    }
    return e.transition(ctx, r, r.Status, model.ReservationCancelled)
}

// Start moves a pending or confirmed reservation to active.  Starting
// more than GracePeriod before start_time is rejected.
func (e *Engine) Start(ctx context.Context, id uint64) (*model.Reservation, error) {
    r, err := e.store.GetReservation(ctx, id)
    if err != nil {
        return nil, err
    }
    if r.Status != model.ReservationPending && r.Status != model.ReservationConfirmed {
        return nil, fmt.Errorf("cannot start a %s reservation: %w", r.Status, ErrGuardViolation)
    }
    if e.Clock().Before(r.StartTime.Add(-GracePeriod)) {
        return nil, fmt.Errorf("charging cannot start more than %s early: %w", GracePeriod, ErrGuardViolation)
    }
    return e.transition(ctx, r, r.Status, model.ReservationActive)
}

// Complete moves an active session to completed and releases its port.
func (e *Engine) Complete(ctx context.Context, id uint64) (*model.Reservation, error) {
    r, err := e.store.GetReservation(ctx, id)
    if err != nil {
        return nil, err
    }
    if r.Status != model.ReservationActive {
        return nil, fmt.Errorf("cannot complete a %s reservation: %w", r.Status, ErrGuardViolation)
    }
    return e.transition(ctx, r, r.Status, model.ReservationCompleted)
}

// ConfirmPayment is the payment bridge's entry point: a completed
// payment drives its reservation from pending to confirmed.  The pool
// is unaffected by this transition.
func (e *Engine) ConfirmPayment(ctx context.Context, reservationID uint64) (*model.Reservation, error) {
    r, err := e.store.GetReservation(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    if r.Status != model.ReservationPending {
        return nil, fmt.Errorf("cannot confirm a %s reservation: %w", r.Status, ErrGuardViolation)
    }
    return e.transition(ctx, r, model.ReservationPending, model.ReservationConfirmed)
}

// transition performs the compare-and-swap status update under the
// station's lock and reconciles the port counter afterwards.  When the
// swap loses a race the current (typically terminal) state is reported
// as a guard violation and the pool is left untouched, so retries can
// never double-release a port.
func (e *Engine) transition(ctx context.Context, r *model.Reservation, from, to model.ReservationStatus) (*model.Reservation, error) {
    if !model.CanTransition(from, to) {
        return nil, fmt.Errorf("%s -> %s: %w", from, to, ErrGuardViolation)
    }

    mu := e.locks.get(r.StationID)
    mu.Lock()
    defer mu.Unlock()

    ok, err := e.store.SetReservationStatus(ctx, r.ID, from, to)
    if err != nil {
        return nil, err
    }
    if !ok {
        cur, err := e.store.GetReservation(ctx, r.ID)
        if err != nil {
            return nil, err
        }
        return nil, fmt.Errorf("reservation %d is already %s: %w", r.ID, cur.Status, ErrGuardViolation)
    }
    r.Status = to

    // The status swap is committed at this point.  A reconcile failure
    // means the counter and the occupancy disagree, which is an
    // invariant breach to report loudly, but it must not make a
    // transition that happened look like one that did not: the caller
    // gets the reservation back, and the next sweep retries the
    // counter.
    st, err := e.store.GetStation(ctx, r.StationID)
    if err != nil {
        log.Printf("booking: load station %d after reservation %d -> %s: %v", r.StationID, r.ID, to, err)
        return r, nil
    }
    if err := e.reconcilePorts(ctx, st); err != nil {
        log.Printf("booking: port reconcile after reservation %d -> %s: %v", r.ID, to, err)
    }
    return r, nil
}

// SweepResult summarizes one reconciliation pass.
type SweepResult struct {
    Expired   int // pending/confirmed forced to expired
    Completed int // active forced to completed
    Failed    int // transitions or refreshes that errored
}

// RunSweep is the periodic reconciliation pass.  It forces expired on
// pending/confirmed reservations whose start_time is more than
// GracePeriod in the past, forces completed on active sessions whose
// end_time has passed, and refreshes every station's port counter so
// windows that became live since the last pass are reflected.  The
// sweep is idempotent and safe to run concurrently with user actions
// and with itself: a candidate that turns terminal under its feet is
// skipped, and a single failure never aborts the rest of the scan.
// Staleness is bounded by the sweep cadence.
func (e *Engine) RunSweep(ctx context.Context) (SweepResult, error) {
    var res SweepResult
    now := e.Clock()

    candidates, err := e.store.ListSweepCandidates(ctx, now, GracePeriod)
    if err != nil {
        return res, err
    }
    for _, r := range candidates {
        var target model.ReservationStatus
        switch {
        case (r.Status == model.ReservationPending || r.Status == model.ReservationConfirmed) &&
            now.After(r.StartTime.Add(GracePeriod)):
            target = model.ReservationExpired
        case r.Status == model.ReservationActive && now.After(r.EndTime):
            target = model.ReservationCompleted
        default:
            continue
        }
        if _, err := e.transition(ctx, r, r.Status, target); err != nil {
            if errors.Is(err, ErrGuardViolation) {
                continue // lost the race to an explicit action; nothing to do
            }
            res.Failed++
            log.Printf("booking: sweep: reservation %d: %v", r.ID, err)
            continue
        }
        if target == model.ReservationExpired {
            res.Expired++
        } else {
            res.Completed++
        }
    }

    ids, err := e.store.ListStationIDs(ctx)
    if err != nil {
        return res, err
    }
    for _, id := range ids {
        mu := e.locks.get(id)
        mu.Lock()
        st, err := e.store.GetStation(ctx, id)
        if err == nil {
            err = e.reconcilePorts(ctx, st)
        }
        mu.Unlock()
        if err != nil {
            res.Failed++
            log.Printf("booking: sweep: station %d: %v", id, err)
        }
    }
    return res, nil
}
