package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// BookingStore adapts the station and reservation repositories to the
// booking.Store interface, translating sql.ErrNoRows into the engine's
// ErrNotFound.
type BookingStore struct {
    Stations     *StationRepo
    Reservations *ReservationRepo
}

// NewBookingStore builds the adapter over both repositories.
func NewBookingStore(stations *StationRepo, reservations *ReservationRepo) *BookingStore {
    return &BookingStore{Stations: stations, Reservations: reservations}
}

var _ booking.Store = (*BookingStore)(nil)

func notFound(err error) error {
    if errors.Is(err, sql.ErrNoRows) {
        return booking.ErrNotFound
    }
    return err
}

func (s *BookingStore) GetStation(ctx context.Context, id uint64) (*model.Station, error) {
    st, err := s.Stations.GetByID(ctx, id)
    if err != nil {
        return nil, notFound(err)
    }
    return st, nil
}

func (s *BookingStore) UpdateStationPorts(ctx context.Context, id uint64, available uint32) error {
    return notFound(s.Stations.UpdatePorts(ctx, id, available))
}

func (s *BookingStore) ListStationIDs(ctx context.Context) ([]uint64, error) {
    return s.Stations.ListIDs(ctx)
}

func (s *BookingStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    r, err := s.Reservations.GetByID(ctx, id)
    if err != nil {
        return nil, notFound(err)
    }
    return r, nil
}

func (s *BookingStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
    return s.Reservations.Create(ctx, r)
}

func (s *BookingStore) DeleteReservation(ctx context.Context, id uint64) error {
    return s.Reservations.Delete(ctx, id)
}

func (s *BookingStore) SetReservationStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error) {
    return s.Reservations.SetStatus(ctx, id, from, to)
}

func (s *BookingStore) CountOverlapping(ctx context.Context, stationID uint64, start, end time.Time) (uint32, error) {
    return s.Reservations.CountOverlapping(ctx, stationID, start, end)
}

func (s *BookingStore) CountOccupiedPorts(ctx context.Context, stationID uint64, at time.Time) (uint32, error) {
    return s.Reservations.CountOccupiedPorts(ctx, stationID, at)
}

func (s *BookingStore) ListSweepCandidates(ctx context.Context, now time.Time, grace time.Duration) ([]*model.Reservation, error) {
    return s.Reservations.ListSweepCandidates(ctx, now, grace)
}
