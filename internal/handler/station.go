package handler

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/ev-charging-reservation/internal/config"
    "github.com/iliyamo/ev-charging-reservation/internal/model"
    "github.com/iliyamo/ev-charging-reservation/internal/repository"
)

// StationHandler serves the station catalog: operator CRUD plus the
// public browse and nearby-search endpoints. Read endpoints are cached
// in Redis when a client is configured; mutations invalidate the list
// entries while geo lookups simply age out with the TTL.
type StationHandler struct {
    Stations *repository.StationRepo
    Reviews  *repository.ReviewRepo
    Cache    *redis.Client // nil disables caching
    CacheCfg config.CacheConfig
}

func NewStationHandler(stations *repository.StationRepo, reviews *repository.ReviewRepo, cache *redis.Client, cfg config.CacheConfig) *StationHandler {
    if stations == nil || reviews == nil {
        panic("nil repository passed to NewStationHandler")
    }
    return &StationHandler{Stations: stations, Reviews: reviews, Cache: cache, CacheCfg: cfg}
}

type stationReq struct {
    Name             string   `json:"name"`
    Address          string   `json:"address"`
    Latitude         float64  `json:"latitude"`
    Longitude        float64  `json:"longitude"`
    Status           string   `json:"status"`
    ChargerType      string   `json:"charger_type"`
    PowerKW          uint32   `json:"power_kw"`
    PricePerKWhMilli uint32   `json:"price_per_kwh_milli"`
    Amenities        []string `json:"amenities"`
    TotalPorts       uint32   `json:"total_ports"`
}

var chargerTypes = map[model.ChargerType]bool{
    model.ChargerType1:   true,
    model.ChargerType2:   true,
    model.ChargerCCS:     true,
    model.ChargerCHAdeMO: true,
    model.ChargerTesla:   true,
}

var stationStatuses = map[model.StationStatus]bool{
    model.StationActive:      true,
    model.StationMaintenance: true,
    model.StationOffline:     true,
    model.StationDefective:   true,
}

func (req *stationReq) validate() (string, bool) {
    if strings.TrimSpace(req.Name) == "" {
        return "name is required", false
    }
    if req.TotalPorts == 0 {
        return "total_ports must be at least 1", false
    }
    if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
        return "invalid coordinates", false
    }
    if req.ChargerType != "" && !chargerTypes[model.ChargerType(req.ChargerType)] {
        return "unknown charger_type", false
    }
    if req.Status != "" && !stationStatuses[model.StationStatus(req.Status)] {
        return "unknown status", false
    }
    return "", true
}

// Create handles POST /v1/stations (operator only). New stations start
// with every port available.
func (h *StationHandler) Create(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req stationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg, ok := req.validate(); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    st := &model.Station{
        OwnerID:          ownerID,
        Name:             strings.TrimSpace(req.Name),
        Address:          strings.TrimSpace(req.Address),
        Latitude:         req.Latitude,
        Longitude:        req.Longitude,
        Status:           model.StationActive,
        ChargerType:      model.ChargerType2,
        PowerKW:          req.PowerKW,
        PricePerKWhMilli: req.PricePerKWhMilli,
        Amenities:        req.Amenities,
        TotalPorts:       req.TotalPorts,
        AvailablePorts:   req.TotalPorts,
    }
    if req.Status != "" {
        st.Status = model.StationStatus(req.Status)
    }
    if req.ChargerType != "" {
        st.ChargerType = model.ChargerType(req.ChargerType)
    }
    if err := h.Stations.Create(c.Request().Context(), st); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create station failed"})
    }
    h.invalidateLists(c.Request().Context())
    return c.JSON(http.StatusCreated, echo.Map{"station": st})
}

// Update handles PUT /v1/stations/:id (operator only, own stations).
func (h *StationHandler) Update(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
    }
    var req stationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx := c.Request().Context()
    st, err := h.Stations.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load station failed"})
    }
    if req.TotalPorts == 0 {
        req.TotalPorts = st.TotalPorts // capacity is not editable here
    }
    if msg, ok := req.validate(); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    st.Name = strings.TrimSpace(req.Name)
    st.Address = strings.TrimSpace(req.Address)
    st.Latitude = req.Latitude
    st.Longitude = req.Longitude
    st.PowerKW = req.PowerKW
    st.PricePerKWhMilli = req.PricePerKWhMilli
    st.Amenities = req.Amenities
    if req.Status != "" {
        st.Status = model.StationStatus(req.Status)
    }
    if req.ChargerType != "" {
        st.ChargerType = model.ChargerType(req.ChargerType)
    }
    // Port capacity is fixed at creation; the counters belong to the
    // booking engine and are never edited through this endpoint.
    if err := h.Stations.Update(ctx, ownerID, st); err != nil {
        if errors.Is(err, repository.ErrForbidden) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your station"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update station failed"})
    }
    h.invalidateLists(ctx)
    return c.JSON(http.StatusOK, echo.Map{"station": st})
}

// Delete handles DELETE /v1/stations/:id (operator only, own stations).
// Stations with occupying reservations cannot be removed.
func (h *StationHandler) Delete(c echo.Context) error {
    ownerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
    }
    ctx := c.Request().Context()
    if err := h.Stations.Delete(ctx, ownerID, id); err != nil {
        switch {
        case errors.Is(err, sql.ErrNoRows):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "not your station"})
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "station has active reservations"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete station failed"})
    }
    h.invalidateLists(ctx)
    return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/stations. An optional ?status= filter narrows
// the result; responses are cached per filter value.
func (h *StationHandler) List(c echo.Context) error {
    status := model.StationStatus(strings.TrimSpace(c.QueryParam("status")))
    if status != "" && !stationStatuses[status] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    ctx := c.Request().Context()
    key := h.cacheKey("list", string(status))
    if body, ok := h.cacheGet(ctx, key); ok {
        return c.JSONBlob(http.StatusOK, body)
    }
    stations, err := h.Stations.List(ctx, status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list stations failed"})
    }
    resp := echo.Map{"items": stations}
    h.cacheSet(ctx, key, resp)
    return c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/stations/:id and includes the review summary.
func (h *StationHandler) Get(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
    }
    ctx := c.Request().Context()
    st, err := h.Stations.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load station failed"})
    }
    avg, count, err := h.Reviews.AverageRating(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "station":        st,
        "average_rating": avg,
        "review_count":   count,
    })
}

// Nearby handles GET /v1/stations/nearby?lat=&lng=&radius_km=. The
// radius defaults to 10km and is capped at 500km.
func (h *StationHandler) Nearby(c echo.Context) error {
    lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
    lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
    if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat and lng are required"})
    }
    radius := 10.0
    if raw := c.QueryParam("radius_km"); raw != "" {
        r, err := strconv.ParseFloat(raw, 64)
        if err != nil || r <= 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid radius_km"})
        }
        radius = r
    }
    if radius > 500 {
        radius = 500
    }
    ctx := c.Request().Context()
    key := h.cacheKey("nearby", c.QueryParam("lat"), c.QueryParam("lng"), strconv.FormatFloat(radius, 'f', -1, 64))
    if body, ok := h.cacheGet(ctx, key); ok {
        return c.JSONBlob(http.StatusOK, body)
    }
    stations, err := h.Stations.Nearby(ctx, lat, lng, radius)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "nearby lookup failed"})
    }
    resp := echo.Map{"items": stations, "radius_km": radius}
    h.cacheSet(ctx, key, resp)
    return c.JSON(http.StatusOK, resp)
}

// ----- cache helpers -----

func (h *StationHandler) cacheEnabled() bool {
    return h.Cache != nil && h.CacheCfg.Enabled
}

func (h *StationHandler) cacheKey(parts ...string) string {
    return h.CacheCfg.Prefix + ":" + strings.Join(parts, ":")
}

func (h *StationHandler) cacheGet(ctx context.Context, key string) ([]byte, bool) {
    if !h.cacheEnabled() {
        return nil, false
    }
    body, err := h.Cache.Get(ctx, key).Bytes()
    if err != nil {
        return nil, false // miss or redis down; serve from MySQL
    }
    return body, true
}

func (h *StationHandler) cacheSet(ctx context.Context, key string, v interface{}) {
    if !h.cacheEnabled() {
        return
    }
    body, err := json.Marshal(v)
    if err != nil {
        return
    }
    _ = h.Cache.Set(ctx, key, body, h.CacheCfg.TTL).Err()
}

// invalidateLists drops the per-filter list entries after a catalog
// mutation. Nearby entries are left to expire with the TTL.
func (h *StationHandler) invalidateLists(ctx context.Context) {
    if !h.cacheEnabled() {
        return
    }
    keys := []string{h.cacheKey("list", "")}
    for s := range stationStatuses {
        keys = append(keys, h.cacheKey("list", string(s)))
    }
    _ = h.Cache.Del(ctx, keys...).Err()
}
