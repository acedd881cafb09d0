package model

import "time"

// StationReview is a user's rating of a station.  Each user may review
// a station at most once; the rating is an integer from 1 to 5.
type StationReview struct {
    ID        uint64    `json:"id"`
    StationID uint64    `json:"station_id"`
    UserID    uint64    `json:"user_id"`
    Rating    uint8     `json:"rating"`
    Comment   string    `json:"comment,omitempty"`
    CreatedAt time.Time `json:"created_at"`
}
