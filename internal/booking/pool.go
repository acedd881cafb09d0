package booking

import (
    "context"
    "fmt"

    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// AcquirePort claims one port-unit on the station.  It fails with
// ErrNoCapacity when no port is free.
func AcquirePort(st *model.Station) error {
    if st.AvailablePorts == 0 {
        return ErrNoCapacity
    }
    st.AvailablePorts--
    return nil
}

// ReleasePort returns one port-unit to the station.  Releasing beyond
// TotalPorts clamps the counter at the total and reports
// ErrPortOverRelease.
func ReleasePort(st *model.Station) error {
    if st.AvailablePorts >= st.TotalPorts {
        st.AvailablePorts = st.TotalPorts
        return ErrPortOverRelease
    }
    st.AvailablePorts++
    return nil
}

// reconcilePorts recomputes the station's available_ports from the
// authoritative occupancy count at the current instant and persists it.
// The caller must hold the station's lock.  The counter is stepped
// through the pool primitives so that corruption stays observable: more
// occupying reservations than ports surfaces ErrNoCapacity instead of
// being clamped away silently.
func (e *Engine) reconcilePorts(ctx context.Context, st *model.Station) error {
    occ, err := e.store.CountOccupiedPorts(ctx, st.ID, e.Clock())
    if err != nil {
        return err
    }
    if occ > st.TotalPorts {
        return fmt.Errorf("station %d has %d occupied port-units with total_ports=%d: %w",
            st.ID, occ, st.TotalPorts, ErrNoCapacity)
    }
    target := st.TotalPorts - occ
    for st.AvailablePorts > target {
        if err := AcquirePort(st); err != nil {
            return fmt.Errorf("station %d: %w", st.ID, err)
        }
    }
    for st.AvailablePorts < target {
        if err := ReleasePort(st); err != nil {
            return fmt.Errorf("station %d: %w", st.ID, err)
        }
    }
    return e.store.UpdateStationPorts(ctx, st.ID, st.AvailablePorts)
}
