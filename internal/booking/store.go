package booking

import (
    "context"
    "time"

    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// Store is the persistence surface the engine needs.  The MySQL
// implementation lives in internal/repository; memstore provides an
// in-memory implementation for tests.  Implementations return
// ErrNotFound for missing stations or reservations and must be safe
// for concurrent use; the engine supplies per-station serialization on
// top.
type Store interface {
    // GetStation loads a station by id.
    GetStation(ctx context.Context, id uint64) (*model.Station, error)

    // UpdateStationPorts persists a recomputed available_ports value.
    UpdateStationPorts(ctx context.Context, id uint64, available uint32) error

    // ListStationIDs returns the ids of all stations, for the sweep's
    // port-counter refresh.
    ListStationIDs(ctx context.Context) ([]uint64, error)

    // GetReservation loads a reservation by id.
    GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)

    // CreateReservation inserts a new reservation and fills in its ID.
    CreateReservation(ctx context.Context, r *model.Reservation) error

    // DeleteReservation removes a reservation.  The engine uses it only
    // to roll back an admission whose pool reconciliation failed.
    DeleteReservation(ctx context.Context, id uint64) error

    // SetReservationStatus updates the status if and only if the
    // current value equals from.  It reports whether the swap took
    // effect; a false result means another transition won the race.
    SetReservationStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error)

    // CountOverlapping counts occupying reservations on a station whose
    // window intersects [start, end) half-open, regardless of owner.
    CountOverlapping(ctx context.Context, stationID uint64, start, end time.Time) (uint32, error)

    // CountOccupiedPorts counts the port-units occupied on a station at
    // the given instant: active sessions plus pending/confirmed
    // reservations whose window covers the instant.
    CountOccupiedPorts(ctx context.Context, stationID uint64, at time.Time) (uint32, error)

    // ListSweepCandidates returns reservations the sweeper may need to
    // force: pending/confirmed whose start is more than grace in the
    // past, and active sessions whose end has passed.
    ListSweepCandidates(ctx context.Context, now time.Time, grace time.Duration) ([]*model.Reservation, error)
}
