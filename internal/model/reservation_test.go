package model

import (
    "testing"
    "time"
)

var allStatuses = []ReservationStatus{
    ReservationPending,
    ReservationConfirmed,
    ReservationActive,
    ReservationCompleted,
    ReservationCancelled,
    ReservationExpired,
}

func TestTransitionTable(t *testing.T) {
    allowed := map[ReservationStatus][]ReservationStatus{
        ReservationPending:   {ReservationConfirmed, ReservationActive, ReservationCancelled, ReservationExpired},
        ReservationConfirmed: {ReservationActive, ReservationCancelled, ReservationExpired},
        ReservationActive:    {ReservationCompleted},
    }
    for _, from := range allStatuses {
        want := map[ReservationStatus]bool{}
        for _, to := range allowed[from] {
            want[to] = true
        }
        for _, to := range allStatuses {
            if got := CanTransition(from, to); got != want[to] {
                t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want[to])
            }
        }
    }
}

func TestTerminalStates(t *testing.T) {
    for _, s := range allStatuses {
        terminal := s == ReservationCompleted || s == ReservationCancelled || s == ReservationExpired
        if s.Terminal() != terminal {
            t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), terminal)
        }
        // A terminal state allows no transition at all.
        if terminal {
            for _, to := range allStatuses {
                if CanTransition(s, to) {
                    t.Errorf("terminal %s allows transition to %s", s, to)
                }
            }
        }
    }
}

func TestWindowOverlapsHalfOpen(t *testing.T) {
    at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
    r := Reservation{StartTime: at, EndTime: at.Add(time.Hour)}

    cases := []struct {
        name       string
        start, end time.Time
        want       bool
    }{
        {"identical", at, at.Add(time.Hour), true},
        {"contained", at.Add(10 * time.Minute), at.Add(20 * time.Minute), true},
        {"straddles start", at.Add(-10 * time.Minute), at.Add(10 * time.Minute), true},
        {"straddles end", at.Add(50 * time.Minute), at.Add(70 * time.Minute), true},
        {"ends at start", at.Add(-time.Hour), at, false},
        {"starts at end", at.Add(time.Hour), at.Add(2 * time.Hour), false},
        {"disjoint before", at.Add(-2 * time.Hour), at.Add(-time.Hour), false},
        {"disjoint after", at.Add(2 * time.Hour), at.Add(3 * time.Hour), false},
    }
    for _, tc := range cases {
        if got := r.WindowOverlaps(tc.start, tc.end); got != tc.want {
            t.Errorf("%s: WindowOverlaps = %v, want %v", tc.name, got, tc.want)
        }
    }
}

func TestOccupiesAt(t *testing.T) {
    at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
    win := Reservation{StartTime: at, EndTime: at.Add(time.Hour)}

    for _, s := range []ReservationStatus{ReservationPending, ReservationConfirmed} {
        r := win
        r.Status = s
        if r.OccupiesAt(at.Add(-time.Minute)) {
            t.Errorf("%s occupies before window", s)
        }
        if !r.OccupiesAt(at) {
            t.Errorf("%s does not occupy at start", s)
        }
        if r.OccupiesAt(at.Add(time.Hour)) {
            t.Errorf("%s occupies at end (window is half-open)", s)
        }
    }

    // An active session holds its port regardless of the clock.
    r := win
    r.Status = ReservationActive
    if !r.OccupiesAt(at.Add(-time.Hour)) || !r.OccupiesAt(at.Add(2*time.Hour)) {
        t.Error("active session must occupy at any instant")
    }

    for _, s := range []ReservationStatus{ReservationCompleted, ReservationCancelled, ReservationExpired} {
        r := win
        r.Status = s
        if r.OccupiesAt(at.Add(30 * time.Minute)) {
            t.Errorf("%s occupies inside window", s)
        }
    }
}
