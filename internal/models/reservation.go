package models

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ReservationStatus represents the status of a table reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

// Terminal reports whether the reservation can no longer change
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCompleted || s == ReservationCancelled
}

// Open reports whether the reservation still holds its table
func (s ReservationStatus) Open() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// Reservation is a customer's booking of a table in a zone
type Reservation struct {
	ID         int64             `json:"id"`
	CustomerID string            `json:"customer_id"`
	TableID    int64             `json:"table_id"`
	ZoneID     int64             `json:"zone_id"`
	Date       string            `json:"date"`
	Time       string            `json:"time"`
	GuestCount int               `json:"guest_count"`
	Status     ReservationStatus `json:"status"`
	Notes      *string           `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// StartsAt returns the reservation date and time in loc
func (r *Reservation) StartsAt(loc *time.Location) (time.Time, error) {
	return ParseSlot(r.Date, r.Time, loc)
}

// CreateReservationRequest is the body of a reservation booking
type CreateReservationRequest struct {
	ZoneID     int64   `json:"zone_id"`
	TableID    int64   `json:"table_id"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	GuestCount int     `json:"guest_count"`
	Notes      *string `json:"notes,omitempty"`
}

// UpdateReservationStatusRequest is the body of a reservation status change
type UpdateReservationStatusRequest struct {
	Status ReservationStatus `json:"status"`
}

// ReservationFilter narrows reservation listings. Zero values are ignored.
type ReservationFilter struct {
	CustomerID string
	Status     ReservationStatus
	Date       string
}

// Table is a restaurant table inside a zone
type Table struct {
	ID       int64 `json:"id"`
	ZoneID   int64 `json:"zone_id"`
	Number   int   `json:"number"`
	Capacity int   `json:"capacity"`
}

// ParseSlot combines a YYYY-MM-DD date and HH:MM time into an instant in loc
func ParseSlot(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reservation slot %q %q: %w", date, clock, err)
	}
	return t, nil
}
