package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ev-charging-reservation/internal/model"
    "github.com/iliyamo/ev-charging-reservation/internal/repository"
)

// ReviewHandler lets drivers rate stations. One review per user per
// station; ratings run 1 to 5.
type ReviewHandler struct {
    Reviews  *repository.ReviewRepo
    Stations *repository.StationRepo
}

func NewReviewHandler(reviews *repository.ReviewRepo, stations *repository.StationRepo) *ReviewHandler {
    if reviews == nil || stations == nil {
        panic("nil repository passed to NewReviewHandler")
    }
    return &ReviewHandler{Reviews: reviews, Stations: stations}
}

type createReviewReq struct {
    Rating  uint8  `json:"rating"`
    Comment string `json:"comment"`
}

// Create handles POST /v1/stations/:id/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    stationID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
    }
    var req createReviewReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Rating < 1 || req.Rating > 5 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
    }
    ctx := c.Request().Context()
    if _, err := h.Stations.GetByID(ctx, stationID); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load station failed"})
    }
    rv := &model.StationReview{
        StationID: stationID,
        UserID:    userID,
        Rating:    req.Rating,
        Comment:   strings.TrimSpace(req.Comment),
    }
    if err := h.Reviews.Create(ctx, rv); err != nil {
        if errors.Is(err, repository.ErrDuplicateReview) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "station already reviewed"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"review": rv})
}

// List handles GET /v1/stations/:id/reviews.
func (h *ReviewHandler) List(c echo.Context) error {
    stationID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
    }
    ctx := c.Request().Context()
    reviews, err := h.Reviews.ListByStation(ctx, stationID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
    }
    avg, count, err := h.Reviews.AverageRating(ctx, stationID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items":          reviews,
        "average_rating": avg,
        "review_count":   count,
    })
}
