package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"

    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// StationRepo provides CRUD and lookup operations for charging
// stations.  Amenities are stored as a JSON array in a TEXT column.
// All timestamp fields are stored in UTC.
type StationRepo struct {
    db *sql.DB
}

// NewStationRepo returns a new StationRepo bound to the given database.
func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *StationRepo) DB() *sql.DB { return r.db }

const stationColumns = `id, owner_id, name, address, latitude, longitude, status, charger_type,
       power_kw, price_per_kwh_milli, amenities, total_ports, available_ports, created_at, updated_at`

// Create inserts a station and populates its ID and timestamps.  A new
// station starts with all ports available.
func (r *StationRepo) Create(ctx context.Context, st *model.Station) error {
    amenities, err := marshalAmenities(st.Amenities)
    if err != nil {
        return err
    }
    if st.Status == "" {
        st.Status = model.StationActive
    }
    st.AvailablePorts = st.TotalPorts
    const q = `INSERT INTO stations
        (owner_id, name, address, latitude, longitude, status, charger_type,
         power_kw, price_per_kwh_milli, amenities, total_ports, available_ports)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        st.OwnerID, st.Name, st.Address, st.Latitude, st.Longitude, st.Status, st.ChargerType,
        st.PowerKW, st.PricePerKWhMilli, amenities, st.TotalPorts, st.AvailablePorts)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    st.ID = uint64(id)
    got, err := r.GetByID(ctx, st.ID)
    if err != nil {
        return err
    }
    *st = *got
    return nil
}

// GetByID loads a single station.  sql.ErrNoRows is returned when the
// station does not exist.
func (r *StationRepo) GetByID(ctx context.Context, id uint64) (*model.Station, error) {
    const q = `SELECT ` + stationColumns + ` FROM stations WHERE id = ?`
    return r.scanStation(r.db.QueryRowContext(ctx, q, id))
}

// Update rewrites the catalog fields of a station owned by ownerID.
// Port counters are deliberately not touched here; they belong to the
// booking engine.  ErrForbidden is returned on an ownership mismatch
// and sql.ErrNoRows when the station does not exist.
func (r *StationRepo) Update(ctx context.Context, ownerID uint64, st *model.Station) error {
    var actualOwner uint64
    if err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM stations WHERE id = ?`, st.ID).Scan(&actualOwner); err != nil {
        return err
    }
    if actualOwner != ownerID {
        return ErrForbidden
    }
    amenities, err := marshalAmenities(st.Amenities)
    if err != nil {
        return err
    }
    const q = `UPDATE stations SET name = ?, address = ?, latitude = ?, longitude = ?, status = ?,
               charger_type = ?, power_kw = ?, price_per_kwh_milli = ?, amenities = ?
               WHERE id = ?`
    _, err = r.db.ExecContext(ctx, q,
        st.Name, st.Address, st.Latitude, st.Longitude, st.Status,
        st.ChargerType, st.PowerKW, st.PricePerKWhMilli, amenities, st.ID)
    return err
}

// Delete removes a station owned by ownerID.  ErrConflict is returned
// while occupying reservations still reference it.
func (r *StationRepo) Delete(ctx context.Context, ownerID, stationID uint64) error {
    var actualOwner uint64
    if err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM stations WHERE id = ?`, stationID).Scan(&actualOwner); err != nil {
        return err
    }
    if actualOwner != ownerID {
        return ErrForbidden
    }
    var occupying uint32
    const countQ = `SELECT COUNT(*) FROM reservations
                    WHERE station_id = ? AND status IN ('pending','confirmed','active')`
    if err := r.db.QueryRowContext(ctx, countQ, stationID).Scan(&occupying); err != nil {
        return err
    }
    if occupying > 0 {
        return ErrConflict
    }
    _, err := r.db.ExecContext(ctx, `DELETE FROM stations WHERE id = ?`, stationID)
    return err
}

// List returns all stations, optionally filtered by status.
func (r *StationRepo) List(ctx context.Context, status model.StationStatus) ([]model.Station, error) {
    q := `SELECT ` + stationColumns + ` FROM stations`
    args := []interface{}{}
    if status != "" {
        q += ` WHERE status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    stations := make([]model.Station, 0)
    for rows.Next() {
        st, err := r.scanStation(rows)
        if err != nil {
            return nil, err
        }
        stations = append(stations, *st)
    }
    return stations, rows.Err()
}

// Nearby returns active stations within radiusKM of the given point,
// closest first.  Distance is computed with the haversine formula in
// SQL; precision beyond city scale is not a goal here.
func (r *StationRepo) Nearby(ctx context.Context, lat, lng, radiusKM float64) ([]model.Station, error) {
    const q = `SELECT ` + stationColumns + `,
        (6371 * ACOS(LEAST(1.0,
            COS(RADIANS(?)) * COS(RADIANS(latitude)) * COS(RADIANS(longitude) - RADIANS(?)) +
            SIN(RADIANS(?)) * SIN(RADIANS(latitude))))) AS distance_km
        FROM stations
        WHERE status = 'active'
        HAVING distance_km <= ?
        ORDER BY distance_km`
    rows, err := r.db.QueryContext(ctx, q, lat, lng, lat, radiusKM)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    stations := make([]model.Station, 0)
    for rows.Next() {
        var st model.Station
        var amenities sql.NullString
        var distance float64
        if err := rows.Scan(
            &st.ID, &st.OwnerID, &st.Name, &st.Address, &st.Latitude, &st.Longitude,
            &st.Status, &st.ChargerType, &st.PowerKW, &st.PricePerKWhMilli,
            &amenities, &st.TotalPorts, &st.AvailablePorts, &st.CreatedAt, &st.UpdatedAt,
            &distance,
        ); err != nil {
            return nil, err
        }
        st.Amenities = unmarshalAmenities(amenities)
        stations = append(stations, st)
    }
    return stations, rows.Err()
}

// UpdatePorts persists a recomputed available_ports value.
func (r *StationRepo) UpdatePorts(ctx context.Context, id uint64, available uint32) error {
    res, err := r.db.ExecContext(ctx, `UPDATE stations SET available_ports = ? WHERE id = ?`, available, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // RowsAffected is also 0 when the value did not change, so
        // verify existence before reporting a missing station.
        var exists uint64
        if err := r.db.QueryRowContext(ctx, `SELECT id FROM stations WHERE id = ?`, id).Scan(&exists); err != nil {
            return err
        }
    }
    return nil
}

// ListIDs returns the ids of all stations.
func (r *StationRepo) ListIDs(ctx context.Context) ([]uint64, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT id FROM stations ORDER BY id`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanStation.
type scanner interface {
    Scan(dest ...interface{}) error
}

func (r *StationRepo) scanStation(row scanner) (*model.Station, error) {
    var st model.Station
    var amenities sql.NullString
    if err := row.Scan(
        &st.ID, &st.OwnerID, &st.Name, &st.Address, &st.Latitude, &st.Longitude,
        &st.Status, &st.ChargerType, &st.PowerKW, &st.PricePerKWhMilli,
        &amenities, &st.TotalPorts, &st.AvailablePorts, &st.CreatedAt, &st.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    st.Amenities = unmarshalAmenities(amenities)
    return &st, nil
}

func marshalAmenities(a []string) (string, error) {
    if len(a) == 0 {
        return "[]", nil
    }
    b, err := json.Marshal(a)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

func unmarshalAmenities(s sql.NullString) []string {
    if !s.Valid || strings.TrimSpace(s.String) == "" {
        return []string{}
    }
    var out []string
    if err := json.Unmarshal([]byte(s.String), &out); err != nil {
        return []string{}
    }
    return out
}
