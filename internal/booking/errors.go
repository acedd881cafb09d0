// Package booking implements the reservation/availability core: the
// reservation lifecycle state machine, the per-station port pool and
// the time-window overlap admission algorithm.  Handlers translate the
// sentinel errors defined here into HTTP responses.
package booking

import "errors"

// Admission errors returned by Engine.Request.
var (
    // ErrInvalidWindow is returned when end_time is not strictly after
    // start_time.
    ErrInvalidWindow = errors.New("invalid window")

    // ErrWindowInPast is returned when start_time is not strictly in
    // the future.
    ErrWindowInPast = errors.New("window in past")

    // ErrStationFullyBooked is returned when the requested window
    // already has as many overlapping occupying reservations as the
    // station has ports.
    ErrStationFullyBooked = errors.New("station fully booked")
)

// Pool and lifecycle errors.
var (
    // ErrNoCapacity signals port-pool exhaustion.  It should never
    // surface from a guarded admission; when it does it indicates an
    // invariant breach and is logged loudly rather than swallowed.
    ErrNoCapacity = errors.New("no capacity")

    // ErrPortOverRelease signals an attempt to release a port beyond
    // the station's total.  The counter is clamped at the total and
    // the condition reported: a transition released a port-unit it
    // did not hold.
    ErrPortOverRelease = errors.New("port released beyond capacity")

    // ErrGuardViolation is returned when a transition's guard does not
    // hold: cancelling too late, starting too early, or acting on a
    // reservation that is already terminal.
    ErrGuardViolation = errors.New("guard violation")

    // ErrNotFound is returned when a station or reservation does not
    // exist in the store.
    ErrNotFound = errors.New("not found")

    // ErrForbidden is returned when the acting user does not own the
    // reservation being mutated.
    ErrForbidden = errors.New("forbidden")
)
