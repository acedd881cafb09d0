// Package queue defines the payloads exchanged over the message broker
// and the background consumer that drains the reservation.confirmed
// queue into logs/reservation.log.
package queue

// ReservationConfirmedEvent is published when a paid reservation reaches
// the confirmed state. It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationConfirmedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    UserID        uint64 `json:"user_id"`
    StationID     uint64 `json:"station_id"`
    StationName   string `json:"station_name"`
    ChargerType   string `json:"charger_type"`
    StartTime     string `json:"start_time"`
    EndTime       string `json:"end_time"`
    AmountCents   uint32 `json:"amount_cents"`
    TransactionID string `json:"transaction_id"`
    ConfirmedAt   string `json:"confirmed_at"`
}
