package memstore

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

func TestAddStationDefaults(t *testing.T) {
    s := New()
    st := s.AddStation(&model.Station{Name: "A", TotalPorts: 3})
    if st.ID == 0 {
        t.Fatal("id not assigned")
    }
    if st.Status != model.StationActive {
        t.Fatalf("default status: got %s, want active", st.Status)
    }
    if st.AvailablePorts != 3 {
        t.Fatalf("available: got %d, want 3", st.AvailablePorts)
    }
}

func TestCopyOutIsolation(t *testing.T) {
    s := New()
    st := s.AddStation(&model.Station{Name: "A", TotalPorts: 2})

    got, err := s.GetStation(context.Background(), st.ID)
    if err != nil {
        t.Fatalf("get: %v", err)
    }
    got.AvailablePorts = 0 // mutate the copy

    again, _ := s.GetStation(context.Background(), st.ID)
    if again.AvailablePorts != 2 {
        t.Fatalf("store state leaked through a returned copy: %d", again.AvailablePorts)
    }
}

func TestGetMissing(t *testing.T) {
    s := New()
    if _, err := s.GetStation(context.Background(), 1); !errors.Is(err, booking.ErrNotFound) {
        t.Fatalf("missing station: got %v, want ErrNotFound", err)
    }
    if _, err := s.GetReservation(context.Background(), 1); !errors.Is(err, booking.ErrNotFound) {
        t.Fatalf("missing reservation: got %v, want ErrNotFound", err)
    }
}

func TestSetReservationStatusCAS(t *testing.T) {
    s := New()
    ctx := context.Background()
    r := &model.Reservation{UserID: 1, StationID: 1, Status: model.ReservationPending}
    if err := s.CreateReservation(ctx, r); err != nil {
        t.Fatalf("create: %v", err)
    }

    ok, err := s.SetReservationStatus(ctx, r.ID, model.ReservationPending, model.ReservationConfirmed)
    if err != nil || !ok {
        t.Fatalf("first swap: ok=%v err=%v", ok, err)
    }
    // The stale from-state loses.
    ok, err = s.SetReservationStatus(ctx, r.ID, model.ReservationPending, model.ReservationCancelled)
    if err != nil {
        t.Fatalf("second swap: %v", err)
    }
    if ok {
        t.Fatal("swap with stale from-state must not apply")
    }
    cur, _ := s.GetReservation(ctx, r.ID)
    if cur.Status != model.ReservationConfirmed {
        t.Fatalf("status: got %s, want confirmed", cur.Status)
    }
}

func TestCountOverlappingCountsAllOwners(t *testing.T) {
    s := New()
    ctx := context.Background()
    at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

    mk := func(user uint64, status model.ReservationStatus) {
        r := &model.Reservation{
            UserID:    user,
            StationID: 1,
            StartTime: at,
            EndTime:   at.Add(time.Hour),
            Status:    status,
        }
        if err := s.CreateReservation(ctx, r); err != nil {
            t.Fatalf("create: %v", err)
        }
    }
    mk(1, model.ReservationPending)
    mk(1, model.ReservationConfirmed) // same owner, still counted
    mk(2, model.ReservationActive)
    mk(3, model.ReservationCancelled) // non-occupying, never counted

    n, err := s.CountOverlapping(ctx, 1, at, at.Add(time.Hour))
    if err != nil {
        t.Fatalf("count: %v", err)
    }
    if n != 3 {
        t.Fatalf("count: got %d, want 3", n)
    }
    // Adjacent half-open window never overlaps.
    n, _ = s.CountOverlapping(ctx, 1, at.Add(time.Hour), at.Add(2*time.Hour))
    if n != 0 {
        t.Fatalf("adjacent window: got %d, want 0", n)
    }
}

func TestListSweepCandidates(t *testing.T) {
    s := New()
    ctx := context.Background()
    at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
    grace := 15 * time.Minute

    overdue := &model.Reservation{UserID: 1, StationID: 1, StartTime: at, EndTime: at.Add(time.Hour), Status: model.ReservationPending}
    fresh := &model.Reservation{UserID: 2, StationID: 1, StartTime: at.Add(2 * time.Hour), EndTime: at.Add(3 * time.Hour), Status: model.ReservationConfirmed}
    running := &model.Reservation{UserID: 3, StationID: 1, StartTime: at, EndTime: at.Add(10 * time.Minute), Status: model.ReservationActive}
    for _, r := range []*model.Reservation{overdue, fresh, running} {
        if err := s.CreateReservation(ctx, r); err != nil {
            t.Fatalf("create: %v", err)
        }
    }

    now := at.Add(grace + time.Minute) // overdue past grace, running past its end
    got, err := s.ListSweepCandidates(ctx, now, grace)
    if err != nil {
        t.Fatalf("list: %v", err)
    }
    ids := map[uint64]bool{}
    for _, r := range got {
        ids[r.ID] = true
    }
    if len(got) != 2 || !ids[overdue.ID] || !ids[running.ID] {
        t.Fatalf("candidates: got %v, want {%d, %d}", ids, overdue.ID, running.ID)
    }
}
