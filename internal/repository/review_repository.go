package repository // package repository provides persistence for station reviews

import (
    "context"      // context carries deadlines across query calls
    "database/sql" // sql gives access to the MySQL connection pool
    "strings"      // strings inspects driver errors for duplicate keys

    "github.com/iliyamo/ev-charging-reservation/internal/model"
)

// ReviewRepo stores user ratings of stations. A (station, user) pair is
// unique, enforced by a composite index in the schema.
type ReviewRepo struct {
    DB *sql.DB
}

// NewReviewRepo binds the repository to a database handle.
func NewReviewRepo(db *sql.DB) *ReviewRepo {
    return &ReviewRepo{DB: db}
}

// Create inserts a review and fills in the generated id and timestamp.
// A second review from the same user for the same station returns
// ErrDuplicateReview.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.StationReview) error {
    res, err := r.DB.ExecContext(ctx,
        `INSERT INTO station_reviews (station_id, user_id, rating, comment)
         VALUES (?, ?, ?, ?)`,
        rv.StationID, rv.UserID, rv.Rating, rv.Comment,
    )
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") { // mysql duplicate entry
            return ErrDuplicateReview
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rv.ID = uint64(id)
    return r.DB.QueryRowContext(ctx,
        `SELECT created_at FROM station_reviews WHERE id = ?`, rv.ID,
    ).Scan(&rv.CreatedAt)
}

// ListByStation returns all reviews for a station, newest first.
func (r *ReviewRepo) ListByStation(ctx context.Context, stationID uint64) ([]*model.StationReview, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT id, station_id, user_id, rating, comment, created_at
         FROM station_reviews
         WHERE station_id = ?
         ORDER BY created_at DESC`,
        stationID,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var reviews []*model.StationReview
    for rows.Next() {
        var rv model.StationReview
        if err := rows.Scan(&rv.ID, &rv.StationID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
            return nil, err
        }
        reviews = append(reviews, &rv)
    }
    return reviews, rows.Err()
}

// AverageRating returns the mean rating and review count for a station.
// A station with no reviews yields a zero average and zero count.
func (r *ReviewRepo) AverageRating(ctx context.Context, stationID uint64) (float64, uint32, error) {
    var (
        avg   sql.NullFloat64
        count uint32
    )
    err := r.DB.QueryRowContext(ctx,
        `SELECT AVG(rating), COUNT(*) FROM station_reviews WHERE station_id = ?`,
        stationID,
    ).Scan(&avg, &count)
    if err != nil {
        return 0, 0, err
    }
    return avg.Float64, count, nil
}
