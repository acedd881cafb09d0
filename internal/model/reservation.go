package model

import "time"

// ReservationStatus is the closed set of states a reservation moves
// through.  The happy path is pending -> confirmed -> active ->
// completed; pending and confirmed may also exit to cancelled (user
// action) or expired (time-forced by the sweeper).  Completed,
// cancelled and expired are terminal.
type ReservationStatus string

const (
    ReservationPending   ReservationStatus = "pending"
    ReservationConfirmed ReservationStatus = "confirmed"
    ReservationActive    ReservationStatus = "active"
    ReservationCompleted ReservationStatus = "completed"
    ReservationCancelled ReservationStatus = "cancelled"
    ReservationExpired   ReservationStatus = "expired"
)

// reservationTransitions lists, for every status, the statuses it may
// legally move to.  The table is total: a (from, to) pair absent here
// is a disallowed transition, including every pair out of a terminal
// state.
var reservationTransitions = map[ReservationStatus]map[ReservationStatus]bool{
    ReservationPending: {
        ReservationConfirmed: true,
        ReservationActive:    true,
        ReservationCancelled: true,
        ReservationExpired:   true,
    },
    ReservationConfirmed: {
        ReservationActive:    true,
        ReservationCancelled: true,
        ReservationExpired:   true,
    },
    ReservationActive: {
        ReservationCompleted: true,
    },
    ReservationCompleted: {},
    ReservationCancelled: {},
    ReservationExpired:   {},
}

// CanTransition reports whether a reservation may move from one status
// to another.  Unknown statuses never transition.
func CanTransition(from, to ReservationStatus) bool {
    return reservationTransitions[from][to]
}

// Valid reports whether s is one of the defined statuses.
func (s ReservationStatus) Valid() bool {
    _, ok := reservationTransitions[s]
    return ok
}

// Terminal reports whether no further transitions are possible.
func (s ReservationStatus) Terminal() bool {
    m, ok := reservationTransitions[s]
    return ok && len(m) == 0
}

// Occupying reports whether a reservation in this status counts
// against its station's port capacity for its time window.
func (s ReservationStatus) Occupying() bool {
    switch s {
    case ReservationPending, ReservationConfirmed, ReservationActive:
        return true
    }
    return false
}

// Reservation records one user's claim on one port-unit at a station
// for the half-open window [StartTime, EndTime).  The status field is
// owned by the booking engine after creation; nothing else mutates it.
//
// Fields:
//  ID                 – primary key identifier.
//  UserID             – user who made the reservation.
//  StationID          – station being reserved.
//  StartTime          – window start (UTC).
//  EndTime            – window end (UTC), strictly after StartTime.
//  Status             – lifecycle state, see ReservationStatus.
//  EstimatedCostCents – estimated session cost in cents.
//  CreatedAt          – creation timestamp.
//  UpdatedAt          – last update timestamp.
type Reservation struct {
    ID                 uint64            `json:"id"`
    UserID             uint64            `json:"user_id"`
    StationID          uint64            `json:"station_id"`
    StartTime          time.Time         `json:"start_time"`
    EndTime            time.Time         `json:"end_time"`
    Status             ReservationStatus `json:"status"`
    EstimatedCostCents uint32            `json:"estimated_cost_cents"`
    CreatedAt          time.Time         `json:"created_at"`
    UpdatedAt          time.Time         `json:"updated_at"`
}

// WindowOverlaps reports whether the reservation's window intersects
// [start, end) under half-open interval semantics.
func (r *Reservation) WindowOverlaps(start, end time.Time) bool {
    return r.StartTime.Before(end) && r.EndTime.After(start)
}

// OccupiesAt reports whether the reservation holds a port-unit at the
// given instant.  An active session occupies its port regardless of
// the booked window (it may have started early or run long); a pending
// or confirmed reservation occupies only while the window covers t.
func (r *Reservation) OccupiesAt(t time.Time) bool {
    if !r.Status.Occupying() {
        return false
    }
    if r.Status == ReservationActive {
        return true
    }
    return !t.Before(r.StartTime) && t.Before(r.EndTime)
}
