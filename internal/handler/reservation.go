package handler

import (
    "context"
    "database/sql"
    "errors"
    "math"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
    "github.com/iliyamo/ev-charging-reservation/internal/repository"
)

// ReservationHandler exposes the reservation lifecycle to drivers. All
// state changes go through the booking engine; this layer only parses
// requests, checks ownership where the engine does not, and maps the
// engine's sentinel errors onto HTTP status codes.
type ReservationHandler struct {
    Engine       *booking.Engine
    Reservations *repository.ReservationRepo
    Stations     *repository.StationRepo
}

func NewReservationHandler(engine *booking.Engine, reservations *repository.ReservationRepo, stations *repository.StationRepo) *ReservationHandler {
    if engine == nil || reservations == nil || stations == nil {
        panic("nil dependency passed to NewReservationHandler")
    }
    return &ReservationHandler{Engine: engine, Reservations: reservations, Stations: stations}
}

type createReservationReq struct {
    StationID uint64    `json:"station_id"`
    StartTime time.Time `json:"start_time"`
    EndTime   time.Time `json:"end_time"`
}

// bookingError translates booking sentinels into an HTTP response.
func bookingError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, booking.ErrInvalidWindow):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start_time"})
    case errors.Is(err, booking.ErrWindowInPast):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be in the future"})
    case errors.Is(err, booking.ErrStationFullyBooked):
        return c.JSON(http.StatusConflict, echo.Map{"error": "station fully booked for this window"})
    case errors.Is(err, booking.ErrGuardViolation):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, booking.ErrNotFound), errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// estimateCostCents projects the session cost from station power and
// price over the reserved window.
func estimateCostCents(st *model.Station, start, end time.Time) uint32 {
    hours := end.Sub(start).Hours()
    if hours <= 0 {
        return 0
    }
    energyKWh := float64(st.PowerKW) * hours
    cents := energyKWh * float64(st.PricePerKWhMilli) / 10.0
    if cents < 0 || cents > math.MaxUint32 {
        return 0
    }
    return uint32(math.Round(cents))
}

// Create handles POST /v1/reservations. The reservation is admitted in
// the pending state; payment confirms it.
func (h *ReservationHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createReservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.StationID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "station_id is required"})
    }
    if req.StartTime.IsZero() || req.EndTime.IsZero() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time and end_time are required"})
    }
    ctx := c.Request().Context()
    st, err := h.Stations.GetByID(ctx, req.StationID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load station failed"})
    }
    estimated := estimateCostCents(st, req.StartTime, req.EndTime)
    r, err := h.Engine.Request(ctx, userID, req.StationID, req.StartTime, req.EndTime, estimated)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"reservation": r})
}

// List handles GET /v1/reservations and returns the caller's
// reservations with station details and a can_cancel hint.
func (h *ReservationHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    items, err := h.Reservations.ListByUser(ctx, userID, h.Engine.Clock(), booking.CancelCutoff)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservations failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    ctx := c.Request().Context()
    detail, err := h.Reservations.GetDetailForUser(ctx, id, userID, h.Engine.Clock(), booking.CancelCutoff)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
        }
        if errors.Is(err, repository.ErrForbidden) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Cancel handles POST /v1/reservations/:id/cancel. Cancellation closes
// one hour before start_time.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    r, err := h.Engine.Cancel(c.Request().Context(), id, userID)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": r})
}

// Start handles POST /v1/reservations/:id/start and begins the charging
// session. Starting is allowed up to fifteen minutes early.
func (h *ReservationHandler) Start(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    ctx := c.Request().Context()
    if err := h.requireOwnership(ctx, id, userID); err != nil {
        return bookingError(c, err)
    }
    r, err := h.Engine.Start(ctx, id)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": r})
}

// Complete handles POST /v1/reservations/:id/complete and ends the
// charging session, freeing the port.
func (h *ReservationHandler) Complete(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    ctx := c.Request().Context()
    if err := h.requireOwnership(ctx, id, userID); err != nil {
        return bookingError(c, err)
    }
    r, err := h.Engine.Complete(ctx, id)
    if err != nil {
        return bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": r})
}

// requireOwnership checks the reservation belongs to the acting user.
// The engine enforces this for Cancel; Start and Complete need it here.
func (h *ReservationHandler) requireOwnership(ctx context.Context, id, userID uint64) error {
    r, err := h.Reservations.GetByID(ctx, id)
    if err != nil {
        return err
    }
    if r.UserID != userID {
        return booking.ErrForbidden
    }
    return nil
}
