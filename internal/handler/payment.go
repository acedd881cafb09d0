package handler

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-charging-reservation/internal/booking"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
    "github.com/iliyamo/ev-charging-reservation/internal/queue"
    "github.com/iliyamo/ev-charging-reservation/internal/repository"
    queue_publisher "github.com/iliyamo/ev-charging-reservation/internal/service"
)

// PaymentHandler records payments against reservations and drives the
// pending -> confirmed transition when a payment settles. The gateway
// is simulated: a created payment settles immediately. A confirmed
// reservation is announced on the message broker; publish failures are
// logged and ignored so a broker outage never blocks payments.
type PaymentHandler struct {
    Payments     *repository.PaymentRepo
    Reservations *repository.ReservationRepo
    Stations     *repository.StationRepo
    Engine       *booking.Engine
}

func NewPaymentHandler(payments *repository.PaymentRepo, reservations *repository.ReservationRepo, stations *repository.StationRepo, engine *booking.Engine) *PaymentHandler {
    if payments == nil || reservations == nil || stations == nil || engine == nil {
        panic("nil dependency passed to NewPaymentHandler")
    }
    return &PaymentHandler{Payments: payments, Reservations: reservations, Stations: stations, Engine: engine}
}

type createPaymentReq struct {
    ReservationID *uint64 `json:"reservation_id"`
    AmountCents   uint32  `json:"amount_cents"`
    Currency      string  `json:"currency"`
    Method        string  `json:"method"`
}

type refundReq struct {
    Reason      string `json:"reason"`
    AmountCents uint32 `json:"amount_cents"`
    AdminNotes  string `json:"admin_notes"`
}

var paymentMethods = map[model.PaymentMethod]bool{
    model.PaymentMethodCard:   true,
    model.PaymentMethodMobile: true,
    model.PaymentMethodCash:   true,
}

var refundReasons = map[model.RefundReason]bool{
    model.RefundStationDefective:   true,
    model.RefundUserCancelled:      true,
    model.RefundTechnicalIssue:     true,
    model.RefundServiceUnavailable: true,
    model.RefundOther:              true,
}

// Create handles POST /v1/payments. A payment referencing a pending
// reservation confirms it on settlement.
func (h *PaymentHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createPaymentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    method := model.PaymentMethodCard
    if req.Method != "" {
        method = model.PaymentMethod(req.Method)
        if !paymentMethods[method] {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment method"})
        }
    }

    ctx := c.Request().Context()
    amount := req.AmountCents
    var res *model.Reservation
    if req.ReservationID != nil {
        res, err = h.Reservations.GetByID(ctx, *req.ReservationID)
        if err != nil {
            if errors.Is(err, sql.ErrNoRows) {
                return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
        }
        if res.UserID != userID {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
        }
        if res.Status != model.ReservationPending {
            return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not awaiting payment"})
        }
        if amount == 0 {
            amount = res.EstimatedCostCents
        }
    }
    if amount == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents is required"})
    }

    p := model.NewPayment(userID, req.ReservationID, amount, req.Currency, method)
    if err := h.Payments.Create(ctx, p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create payment failed"})
    }

    // Simulated gateway: settle immediately.
    if err := h.Payments.SetStatus(ctx, p.ID, model.PaymentCompleted); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settle payment failed"})
    }
    p.Status = model.PaymentCompleted

    if res != nil {
        confirmed, err := h.Engine.ConfirmPayment(ctx, res.ID)
        if err != nil {
            // The money settled but the reservation moved on; record
            // the failure so support can reconcile the ledger.
            _ = h.Payments.SetStatus(ctx, p.ID, model.PaymentFailed)
            p.Status = model.PaymentFailed
            return bookingError(c, err)
        }
        res = confirmed
        h.announceConfirmed(res, p)
    }

    resp := echo.Map{"payment": p}
    if res != nil {
        resp["reservation"] = res
    }
    return c.JSON(http.StatusCreated, resp)
}

// announceConfirmed publishes the reservation.confirmed event. Best
// effort only.
func (h *PaymentHandler) announceConfirmed(res *model.Reservation, p *model.Payment) {
    ev := queue.ReservationConfirmedEvent{
        ReservationID: res.ID,
        UserID:        res.UserID,
        StationID:     res.StationID,
        StartTime:     res.StartTime.Format(time.RFC3339),
        EndTime:       res.EndTime.Format(time.RFC3339),
        AmountCents:   p.AmountCents,
        TransactionID: p.TransactionID,
        ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
    }
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if st, err := h.Stations.GetByID(ctx, res.StationID); err == nil {
        ev.StationName = st.Name
        ev.ChargerType = string(st.ChargerType)
    }
    if err := queue_publisher.PublishReservationConfirmed(ctx, ev); err != nil {
        log.Printf("payment: publish reservation.confirmed for %d failed: %v", res.ID, err)
    }
}

// List handles GET /v1/payments and returns the caller's ledger.
func (h *PaymentHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Payments.ListByUser(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payments failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/payments/:id, including any refunds.
func (h *PaymentHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
    }
    ctx := c.Request().Context()
    p, err := h.Payments.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
    }
    if p.UserID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    refunds, err := h.Payments.ListRefunds(ctx, p.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load refunds failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"payment": p, "refunds": refunds})
}

// Refund handles POST /v1/payments/:id/refund. Only completed payments
// can be refunded, at most once, for at most the settled amount.
func (h *PaymentHandler) Refund(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id := c.Param("id")
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
    }
    var req refundReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    reason := model.RefundOther
    if req.Reason != "" {
        reason = model.RefundReason(req.Reason)
        if !refundReasons[reason] {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown refund reason"})
        }
    }

    ctx := c.Request().Context()
    p, err := h.Payments.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load payment failed"})
    }
    if p.UserID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    if p.Status != model.PaymentCompleted {
        return c.JSON(http.StatusConflict, echo.Map{"error": "only completed payments can be refunded"})
    }
    amount := req.AmountCents
    if amount == 0 {
        amount = p.AmountCents
    }
    if amount > p.AmountCents {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refund exceeds payment amount"})
    }

    now := time.Now().UTC()
    rf := &model.Refund{
        PaymentID:   p.ID,
        Reason:      reason,
        AmountCents: amount,
        Status:      model.RefundCompleted, // simulated gateway settles refunds too
        AdminNotes:  req.AdminNotes,
        ProcessedAt: &now,
    }
    if err := h.Payments.CreateRefund(ctx, rf); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create refund failed"})
    }
    if err := h.Payments.SetStatus(ctx, p.ID, model.PaymentRefunded); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update payment failed"})
    }
    p.Status = model.PaymentRefunded
    return c.JSON(http.StatusCreated, echo.Map{"refund": rf, "payment": p})
}
