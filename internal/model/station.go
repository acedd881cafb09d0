package model

import "time"

// StationStatus describes the operational state of a charging station.
// Only active stations accept new reservations.
type StationStatus string

const (
    StationActive      StationStatus = "active"
    StationMaintenance StationStatus = "maintenance"
    StationOffline     StationStatus = "offline"
    StationDefective   StationStatus = "defective"
)

// ChargerType enumerates the connector standards a station exposes.
type ChargerType string

const (
    ChargerType1   ChargerType = "type1"   // J1772
    ChargerType2   ChargerType = "type2"   // Mennekes
    ChargerCCS     ChargerType = "ccs"     // Combined Charging System
    ChargerCHAdeMO ChargerType = "chademo"
    ChargerTesla   ChargerType = "tesla"
)

// Station represents a charging station with a finite pool of ports.
// TotalPorts is the concurrent charging capacity; AvailablePorts is a
// denormalized view of how many ports are free at this instant and is
// mutated only through the booking pool operations.  The invariant
// 0 <= AvailablePorts <= TotalPorts always holds.
//
// Fields:
//  ID               – primary key identifier.
//  OwnerID          – operator account that manages the station.
//  Name             – display name.
//  Address          – street address.
//  Latitude         – decimal latitude used by the nearby lookup.
//  Longitude        – decimal longitude used by the nearby lookup.
//  Status           – operational state (active, maintenance, ...).
//  ChargerType      – connector standard.
//  PowerKW          – charging power in kW.
//  PricePerKWhMilli – price per kWh in thousandths of a currency unit.
//  Amenities        – free-form amenity labels (wifi, cafe, ...).
//  TotalPorts       – number of ports, at least 1.
//  AvailablePorts   – free ports right now.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Station struct {
    ID               uint64        `json:"id"`
    OwnerID          uint64        `json:"owner_id"`
    Name             string        `json:"name"`
    Address          string        `json:"address"`
    Latitude         float64       `json:"latitude"`
    Longitude        float64       `json:"longitude"`
    Status           StationStatus `json:"status"`
    ChargerType      ChargerType   `json:"charger_type"`
    PowerKW          uint32        `json:"power_kw"`
    PricePerKWhMilli uint32        `json:"price_per_kwh_milli"`
    Amenities        []string      `json:"amenities"`
    TotalPorts       uint32        `json:"total_ports"`
    AvailablePorts   uint32        `json:"available_ports"`
    CreatedAt        time.Time     `json:"created_at"`
    UpdatedAt        time.Time     `json:"updated_at"`
}
