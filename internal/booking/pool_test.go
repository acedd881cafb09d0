package booking_test

import (
    "errors"
    "testing"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

func TestAcquirePortExhaustion(t *testing.T) {
    st := &model.Station{TotalPorts: 2, AvailablePorts: 2}

    if err := booking.AcquirePort(st); err != nil {
        t.Fatalf("first acquire: %v", err)
    }
    if err := booking.AcquirePort(st); err != nil {
        t.Fatalf("second acquire: %v", err)
    }
    if st.AvailablePorts != 0 {
        t.Fatalf("available: got %d, want 0", st.AvailablePorts)
    }
    if err := booking.AcquirePort(st); !errors.Is(err, booking.ErrNoCapacity) {
        t.Fatalf("exhausted acquire: got %v, want ErrNoCapacity", err)
    }
    if st.AvailablePorts != 0 {
        t.Fatalf("failed acquire must not change the counter: got %d", st.AvailablePorts)
    }
}

func TestReleasePortClampsAtTotal(t *testing.T) {
    st := &model.Station{TotalPorts: 2, AvailablePorts: 1}

    if err := booking.ReleasePort(st); err != nil {
        t.Fatalf("release: %v", err)
    }
    if st.AvailablePorts != 2 {
        t.Fatalf("available: got %d, want 2", st.AvailablePorts)
    }
    // Releasing beyond capacity clamps and reports the breach.
    if err := booking.ReleasePort(st); !errors.Is(err, booking.ErrPortOverRelease) {
        t.Fatalf("over-release: got %v, want ErrPortOverRelease", err)
    }
    if st.AvailablePorts != 2 {
        t.Fatalf("counter must stay clamped at total: got %d", st.AvailablePorts)
    }
}
