// Package memstore provides an in-memory booking.Store.  It backs the
// engine's tests and is handy for local development without MySQL.
package memstore

import (
    "context"
    "sync"
    "time"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// MemStore keeps stations and reservations in maps guarded by one
// RWMutex.  All accessors copy records in and out so callers can never
// alias internal state.
type MemStore struct {
    mu              sync.RWMutex
    stations        map[uint64]*model.Station
    reservations    map[uint64]*model.Reservation
    nextStationID   uint64
    nextReservation uint64
}

// New returns an empty store.
func New() *MemStore {
    return &MemStore{
        stations:     make(map[uint64]*model.Station),
        reservations: make(map[uint64]*model.Reservation),
    }
}

// AddStation inserts a station, assigning its ID.  A zero
// AvailablePorts is initialized to TotalPorts.  The stored copy is
// returned.
func (s *MemStore) AddStation(st *model.Station) *model.Station {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.nextStationID++
    cp := *st
    cp.ID = s.nextStationID
    if cp.Status == "" {
        cp.Status = model.StationActive
    }
    if cp.AvailablePorts == 0 {
        cp.AvailablePorts = cp.TotalPorts
    }
    s.stations[cp.ID] = &cp
    out := cp
    return &out
}

// GetStation implements booking.Store.
func (s *MemStore) GetStation(ctx context.Context, id uint64) (*model.Station, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    st, ok := s.stations[id]
    if !ok {
        return nil, booking.ErrNotFound
    }
    cp := *st
    return &cp, nil
}

// UpdateStationPorts implements booking.Store.
func (s *MemStore) UpdateStationPorts(ctx context.Context, id uint64, available uint32) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.stations[id]
    if !ok {
        return booking.ErrNotFound
    }
    st.AvailablePorts = available
    st.UpdatedAt = time.Now().UTC()
    return nil
}

// ListStationIDs implements booking.Store.
func (s *MemStore) ListStationIDs(ctx context.Context) ([]uint64, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    ids := make([]uint64, 0, len(s.stations))
    for id := range s.stations {
        ids = append(ids, id)
    }
    return ids, nil
}

// GetReservation implements booking.Store.
func (s *MemStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    r, ok := s.reservations[id]
    if !ok {
        return nil, booking.ErrNotFound
    }
    cp := *r
    return &cp, nil
}

// CreateReservation implements booking.Store.
func (s *MemStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.nextReservation++
    r.ID = s.nextReservation
    cp := *r
    s.reservations[cp.ID] = &cp
    return nil
}

// DeleteReservation implements booking.Store.
func (s *MemStore) DeleteReservation(ctx context.Context, id uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.reservations[id]; !ok {
        return booking.ErrNotFound
    }
    delete(s.reservations, id)
    return nil
}

// SetReservationStatus implements booking.Store with compare-and-swap
// semantics.
func (s *MemStore) SetReservationStatus(ctx context.Context, id uint64, from, to model.ReservationStatus) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.reservations[id]
    if !ok {
        return false, booking.ErrNotFound
    }
    if r.Status != from {
        return false, nil
    }
    r.Status = to
    r.UpdatedAt = time.Now().UTC()
    return true, nil
}

// CountOverlapping implements booking.Store.
func (s *MemStore) CountOverlapping(ctx context.Context, stationID uint64, start, end time.Time) (uint32, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var n uint32
    for _, r := range s.reservations {
        if r.StationID != stationID {
            continue
        }
        if r.Status.Occupying() && r.WindowOverlaps(start, end) {
            n++
        }
    }
    return n, nil
}

// CountOccupiedPorts implements booking.Store.
func (s *MemStore) CountOccupiedPorts(ctx context.Context, stationID uint64, at time.Time) (uint32, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var n uint32
    for _, r := range s.reservations {
        if r.StationID == stationID && r.OccupiesAt(at) {
            n++
        }
    }
    return n, nil
}

// ListSweepCandidates implements booking.Store.
func (s *MemStore) ListSweepCandidates(ctx context.Context, now time.Time, grace time.Duration) ([]*model.Reservation, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var out []*model.Reservation
    for _, r := range s.reservations {
        switch r.Status {
        case model.ReservationPending, model.ReservationConfirmed:
            if now.After(r.StartTime.Add(grace)) {
                cp := *r
                out = append(out, &cp)
            }
        case model.ReservationActive:
            if now.After(r.EndTime) {
                cp := *r
                out = append(out, &cp)
            }
        }
    }
    return out, nil
}
