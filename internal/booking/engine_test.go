package booking_test

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/booking/memstore"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newEngine(totalPorts uint32) (*booking.Engine, *memstore.MemStore, *model.Station) {
    store := memstore.New()
    st := store.AddStation(&model.Station{
        Name:       "Marina Plaza",
        TotalPorts: totalPorts,
    })
    e := booking.NewEngine(store)
    e.Clock = func() time.Time { return base }
    return e, store, st
}

func pin(e *booking.Engine, at time.Time) {
    e.Clock = func() time.Time { return at }
}

func TestRequestWindowValidation(t *testing.T) {
    e, _, st := newEngine(2)
    ctx := context.Background()

    start := base.Add(2 * time.Hour)
    if _, err := e.Request(ctx, 1, st.ID, start, start, 0); !errors.Is(err, booking.ErrInvalidWindow) {
        t.Fatalf("zero-length window: got %v, want ErrInvalidWindow", err)
    }
    if _, err := e.Request(ctx, 1, st.ID, start, start.Add(-time.Minute), 0); !errors.Is(err, booking.ErrInvalidWindow) {
        t.Fatalf("inverted window: got %v, want ErrInvalidWindow", err)
    }
    if _, err := e.Request(ctx, 1, st.ID, base, base.Add(time.Hour), 0); !errors.Is(err, booking.ErrWindowInPast) {
        t.Fatalf("start == now: got %v, want ErrWindowInPast", err)
    }
    if _, err := e.Request(ctx, 1, st.ID, base.Add(-time.Hour), base.Add(time.Hour), 0); !errors.Is(err, booking.ErrWindowInPast) {
        t.Fatalf("start in past: got %v, want ErrWindowInPast", err)
    }
}

func TestRequestAdmission(t *testing.T) {
    e, _, st := newEngine(2)
    ctx := context.Background()

    start := base.Add(2 * time.Hour)
    end := start.Add(time.Hour)

    if _, err := e.Request(ctx, 1, st.ID, start, end, 0); err != nil {
        t.Fatalf("first request: %v", err)
    }
    if _, err := e.Request(ctx, 2, st.ID, start, end, 0); err != nil {
        t.Fatalf("second request: %v", err)
    }
    // Both ports taken over this window.
    if _, err := e.Request(ctx, 3, st.ID, start, end, 0); !errors.Is(err, booking.ErrStationFullyBooked) {
        t.Fatalf("third request: got %v, want ErrStationFullyBooked", err)
    }
    // A partially overlapping window is still blocked.
    if _, err := e.Request(ctx, 3, st.ID, start.Add(30*time.Minute), end.Add(30*time.Minute), 0); !errors.Is(err, booking.ErrStationFullyBooked) {
        t.Fatalf("overlapping request: got %v, want ErrStationFullyBooked", err)
    }
    // Half-open windows: [start, end) and [end, ...) share an instant
    // boundary but do not overlap.
    if _, err := e.Request(ctx, 3, st.ID, end, end.Add(time.Hour), 0); err != nil {
        t.Fatalf("adjacent request: %v", err)
    }
}

func TestRequestOwnOverlapDenied(t *testing.T) {
    e, store, st := newEngine(1)
    ctx := context.Background()

    start := base.Add(2 * time.Hour)
    end := start.Add(time.Hour)
    if _, err := e.Request(ctx, 7, st.ID, start, end, 0); err != nil {
        t.Fatalf("first request: %v", err)
    }
    // A user's own reservations consume capacity like anyone else's.
    // Admitting a second overlapping window on a one-port station would
    // make occupancy exceed total_ports once the window goes live.
    if _, err := e.Request(ctx, 7, st.ID, start.Add(15*time.Minute), end, 0); !errors.Is(err, booking.ErrStationFullyBooked) {
        t.Fatalf("self-overlap request: got %v, want ErrStationFullyBooked", err)
    }
    // A disjoint window by the same user is still fine.
    if _, err := e.Request(ctx, 7, st.ID, end, end.Add(time.Hour), 0); err != nil {
        t.Fatalf("disjoint request: %v", err)
    }

    // With the live window occupied the counter settles at zero and the
    // sweep keeps reconciling cleanly.
    pin(e, start.Add(time.Minute))
    res, err := e.RunSweep(ctx)
    if err != nil || res.Failed != 0 {
        t.Fatalf("sweep: res=%+v err=%v", res, err)
    }
    got, err := store.GetStation(ctx, st.ID)
    if err != nil {
        t.Fatalf("station: %v", err)
    }
    if got.AvailablePorts != 0 {
        t.Fatalf("available ports: got %d, want 0", got.AvailablePorts)
    }
}

func TestRequestInactiveStation(t *testing.T) {
    e, store, _ := newEngine(2)
    down := store.AddStation(&model.Station{
        Name:       "Depot",
        Status:     model.StationMaintenance,
        TotalPorts: 4,
    })
    _, err := e.Request(context.Background(), 1, down.ID, base.Add(time.Hour), base.Add(2*time.Hour), 0)
    if !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("maintenance station: got %v, want ErrGuardViolation", err)
    }
}

func TestRequestUnknownStation(t *testing.T) {
    e, _, _ := newEngine(1)
    _, err := e.Request(context.Background(), 1, 999, base.Add(time.Hour), base.Add(2*time.Hour), 0)
    if !errors.Is(err, booking.ErrNotFound) {
        t.Fatalf("unknown station: got %v, want ErrNotFound", err)
    }
}

func TestAvailablePortsTracksInstantaneousOccupancy(t *testing.T) {
    e, store, st := newEngine(2)
    ctx := context.Background()

    start := base.Add(2 * time.Hour)
    end := start.Add(time.Hour)
    if _, err := e.Request(ctx, 1, st.ID, start, end, 0); err != nil {
        t.Fatalf("request: %v", err)
    }

    // The window is in the future, so no port is occupied right now.
    got, err := store.GetStation(ctx, st.ID)
    if err != nil {
        t.Fatalf("get station: %v", err)
    }
    if got.AvailablePorts != 2 {
        t.Fatalf("available before window: got %d, want 2", got.AvailablePorts)
    }

    // Once the window is live, the sweep's refresh pass picks it up.
    pin(e, start.Add(time.Minute))
    if _, err := e.RunSweep(ctx); err != nil {
        t.Fatalf("sweep: %v", err)
    }
    got, _ = store.GetStation(ctx, st.ID)
    if got.AvailablePorts != 1 {
        t.Fatalf("available inside window: got %d, want 1", got.AvailablePorts)
    }
}

func TestStartGuards(t *testing.T) {
    e, _, st := newEngine(1)
    ctx := context.Background()

    start := base.Add(2 * time.Hour)
    r, err := e.Request(ctx, 1, st.ID, start, start.Add(time.Hour), 0)
    if err != nil {
        t.Fatalf("request: %v", err)
    }

    // More than the grace period before start_time is too early.
    if _, err := e.Start(ctx, r.ID); !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("early start: got %v, want ErrGuardViolation", err)
    }

    // Exactly at the grace boundary starting is allowed.
    pin(e, start.Add(-booking.GracePeriod))
    got, err := e.Start(ctx, r.ID)
    if err != nil {
        t.Fatalf("start within grace: %v", err)
    }
    if got.Status != model.ReservationActive {
        t.Fatalf("status after start: got %s, want active", got.Status)
    }
}

func TestActiveSessionOccupiesPort(t *testing.T) {
    e, store, st := newEngine(2)
    ctx := context.Background()

    start := base.Add(time.Hour)
    r, err := e.Request(ctx, 1, st.ID, start, start.Add(time.Hour), 0)
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    pin(e, start)
    if _, err := e.Start(ctx, r.ID); err != nil {
        t.Fatalf("start: %v", err)
    }
    got, _ := store.GetStation(ctx, st.ID)
    if got.AvailablePorts != 1 {
        t.Fatalf("available during session: got %d, want 1", got.AvailablePorts)
    }

    if _, err := e.Complete(ctx, r.ID); err != nil {
        t.Fatalf("complete: %v", err)
    }
    got, _ = store.GetStation(ctx, st.ID)
    if got.AvailablePorts != 2 {
        t.Fatalf("available after completion: got %d, want 2", got.AvailablePorts)
    }

    // Completing twice cannot release a second port-unit.
    if _, err := e.Complete(ctx, r.ID); !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("double complete: got %v, want ErrGuardViolation", err)
    }
    got, _ = store.GetStation(ctx, st.ID)
    if got.AvailablePorts != 2 {
        t.Fatalf("available after double complete: got %d, want 2", got.AvailablePorts)
    }
}

func TestCancelGuards(t *testing.T) {
    e, _, st := newEngine(1)
    ctx := context.Background()

    start := base.Add(3 * time.Hour)
    r, err := e.Request(ctx, 1, st.ID, start, start.Add(time.Hour), 0)
    if err != nil {
        t.Fatalf("request: %v", err)
    }

    if _, err := e.Cancel(ctx, r.ID, 2); !errors.Is(err, booking.ErrForbidden) {
        t.Fatalf("foreign cancel: got %v, want ErrForbidden", err)
    }

    // Inside the cutoff hour cancellation is closed.
    pin(e, start.Add(-30*time.Minute))
    if _, err := e.Cancel(ctx, r.ID, 1); !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("late cancel: got %v, want ErrGuardViolation", err)
    }

    pin(e, start.Add(-2*time.Hour))
    got, err := e.Cancel(ctx, r.ID, 1)
    if err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if got.Status != model.ReservationCancelled {
        t.Fatalf("status after cancel: got %s, want cancelled", got.Status)
    }

    // Terminal states reject further transitions.
    if _, err := e.Cancel(ctx, r.ID, 1); !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("double cancel: got %v, want ErrGuardViolation", err)
    }
    if _, err := e.Start(ctx, r.ID); !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("start after cancel: got %v, want ErrGuardViolation", err)
    }
}

func TestConfirmPayment(t *testing.T) {
    e, _, st := newEngine(1)
    ctx := context.Background()

    start := base.Add(2 * time.Hour)
    r, err := e.Request(ctx, 1, st.ID, start, start.Add(time.Hour), 0)
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    got, err := e.ConfirmPayment(ctx, r.ID)
    if err != nil {
        t.Fatalf("confirm: %v", err)
    }
    if got.Status != model.ReservationConfirmed {
        t.Fatalf("status after confirm: got %s, want confirmed", got.Status)
    }
    if _, err := e.ConfirmPayment(ctx, r.ID); !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("double confirm: got %v, want ErrGuardViolation", err)
    }

    // A confirmed reservation can still start.
    pin(e, start)
    if _, err := e.Start(ctx, r.ID); err != nil {
        t.Fatalf("start after confirm: %v", err)
    }
}

func TestSweepExpiresAbandonedReservations(t *testing.T) {
    e, _, st := newEngine(2)
    ctx := context.Background()

    start := base.Add(time.Hour)
    r1, err := e.Request(ctx, 1, st.ID, start, start.Add(time.Hour), 0)
    if err != nil {
        t.Fatalf("request r1: %v", err)
    }
    r2, err := e.Request(ctx, 2, st.ID, start, start.Add(time.Hour), 0)
    if err != nil {
        t.Fatalf("request r2: %v", err)
    }
    if _, err := e.ConfirmPayment(ctx, r2.ID); err != nil {
        t.Fatalf("confirm r2: %v", err)
    }

    // Within the grace period nothing is forced.
    pin(e, start.Add(booking.GracePeriod))
    res, err := e.RunSweep(ctx)
    if err != nil {
        t.Fatalf("sweep: %v", err)
    }
    if res.Expired != 0 {
        t.Fatalf("expired inside grace: got %d, want 0", res.Expired)
    }

    // Past the grace period both no-shows are expired.
    pin(e, start.Add(booking.GracePeriod+time.Second))
    res, err = e.RunSweep(ctx)
    if err != nil {
        t.Fatalf("sweep: %v", err)
    }
    if res.Expired != 2 || res.Failed != 0 {
        t.Fatalf("sweep result: got %+v, want Expired=2 Failed=0", res)
    }
    for _, id := range []uint64{r1.ID, r2.ID} {
        got, err := e.Cancel(ctx, id, id) // any transition attempt now reports the terminal state
        if got != nil || !errors.Is(err, booking.ErrGuardViolation) {
            t.Fatalf("reservation %d not terminal after sweep: %v", id, err)
        }
    }

    // The sweep is idempotent.
    res, err = e.RunSweep(ctx)
    if err != nil {
        t.Fatalf("second sweep: %v", err)
    }
    if res.Expired != 0 || res.Completed != 0 || res.Failed != 0 {
        t.Fatalf("second sweep result: got %+v, want zeroes", res)
    }
}

func TestSweepCompletesOverrunningSessions(t *testing.T) {
    e, store, st := newEngine(1)
    ctx := context.Background()

    start := base.Add(time.Hour)
    end := start.Add(time.Hour)
    r, err := e.Request(ctx, 1, st.ID, start, end, 0)
    if err != nil {
        t.Fatalf("request: %v", err)
    }
    pin(e, start)
    if _, err := e.Start(ctx, r.ID); err != nil {
        t.Fatalf("start: %v", err)
    }

    pin(e, end.Add(time.Minute))
    res, err := e.RunSweep(ctx)
    if err != nil {
        t.Fatalf("sweep: %v", err)
    }
    if res.Completed != 1 {
        t.Fatalf("completed: got %d, want 1", res.Completed)
    }
    got, _ := store.GetStation(ctx, st.ID)
    if got.AvailablePorts != 1 {
        t.Fatalf("available after forced completion: got %d, want 1", got.AvailablePorts)
    }
}

func TestConcurrentAdmissionSinglePort(t *testing.T) {
    e, _, st := newEngine(1)
    ctx := context.Background()

    start := base.Add(2 * time.Hour)
    end := start.Add(time.Hour)

    const workers = 16
    var wg sync.WaitGroup
    errs := make([]error, workers)
    for i := 0; i < workers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = e.Request(ctx, uint64(i+1), st.ID, start, end, 0)
        }(i)
    }
    wg.Wait()

    admitted := 0
    for i, err := range errs {
        switch {
        case err == nil:
            admitted++
        case errors.Is(err, booking.ErrStationFullyBooked):
        default:
            t.Fatalf("worker %d: unexpected error %v", i, err)
        }
    }
    if admitted != 1 {
        t.Fatalf("admitted: got %d, want exactly 1", admitted)
    }
}

func TestCompleteCommitsWhenCounterCannotReconcile(t *testing.T) {
    e, store, st := newEngine(1)
    ctx := context.Background()

    // Seed more active sessions than the station has ports, the kind of
    // corruption only a broken store migration could produce.  The
    // counter cannot reconcile, but a completed session is completed
    // regardless.
    sessions := make([]*model.Reservation, 3)
    for i := range sessions {
        r := &model.Reservation{
            UserID:    uint64(i + 1),
            StationID: st.ID,
            StartTime: base.Add(-time.Hour),
            EndTime:   base.Add(time.Hour),
            Status:    model.ReservationActive,
        }
        if err := store.CreateReservation(ctx, r); err != nil {
            t.Fatalf("seed: %v", err)
        }
        sessions[i] = r
    }

    r, err := e.Complete(ctx, sessions[0].ID)
    if err != nil {
        t.Fatalf("complete: %v", err)
    }
    if r.Status != model.ReservationCompleted {
        t.Fatalf("status: got %s, want completed", r.Status)
    }
    cur, err := store.GetReservation(ctx, sessions[0].ID)
    if err != nil {
        t.Fatalf("reload: %v", err)
    }
    if cur.Status != model.ReservationCompleted {
        t.Fatalf("persisted status: got %s, want completed", cur.Status)
    }

    // A retry still sees the terminal state.
    if _, err := e.Complete(ctx, sessions[0].ID); !errors.Is(err, booking.ErrGuardViolation) {
        t.Fatalf("double complete: got %v, want ErrGuardViolation", err)
    }
}
