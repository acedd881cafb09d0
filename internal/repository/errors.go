// Package repository defines the MySQL data access layer.  Sentinel
// errors declared here let handlers distinguish failure scenarios
// without inspecting driver errors: ErrForbidden maps to HTTP 403,
// ErrConflict and ErrDuplicateReview to 409.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent state, such as removing a station that still
// has occupying reservations.
var ErrConflict = errors.New("conflict")

// ErrDuplicateReview is returned when a user reviews the same station
// twice; the (station, user) pair is unique.
var ErrDuplicateReview = errors.New("station already reviewed by user")
