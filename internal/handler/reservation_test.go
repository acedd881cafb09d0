package handler

import (
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

func TestEstimateCostCents(t *testing.T) {
    st := &model.Station{PowerKW: 22, PricePerKWhMilli: 3500}
    start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

    // 2h at 22kW = 44kWh; 44 * 3.5 currency units = 15400 cents.
    if got := estimateCostCents(st, start, start.Add(2*time.Hour)); got != 15400 {
        t.Fatalf("estimate: got %d, want 15400", got)
    }
    if got := estimateCostCents(st, start, start); got != 0 {
        t.Fatalf("zero window: got %d, want 0", got)
    }
    if got := estimateCostCents(st, start.Add(time.Hour), start); got != 0 {
        t.Fatalf("inverted window: got %d, want 0", got)
    }
}

func TestBookingErrorStatusCodes(t *testing.T) {
    cases := []struct {
        err  error
        code int
    }{
        {booking.ErrInvalidWindow, http.StatusBadRequest},
        {booking.ErrWindowInPast, http.StatusBadRequest},
        {booking.ErrStationFullyBooked, http.StatusConflict},
        {booking.ErrGuardViolation, http.StatusConflict},
        {fmt.Errorf("cannot cancel: %w", booking.ErrGuardViolation), http.StatusConflict},
        {booking.ErrForbidden, http.StatusForbidden},
        {booking.ErrNotFound, http.StatusNotFound},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    e := echo.New()
    for _, tc := range cases {
        req := httptest.NewRequest(http.MethodPost, "/", nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        if err := bookingError(c, tc.err); err != nil {
            t.Fatalf("%v: handler returned %v", tc.err, err)
        }
        if rec.Code != tc.code {
            t.Errorf("%v: got status %d, want %d", tc.err, rec.Code, tc.code)
        }
    }
}
