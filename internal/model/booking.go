package model

import "time"

// Booking records one seat reserved by a user for a screening. At most one
// booking exists per (ScreeningID, SeatNumber); the schema enforces it.
type Booking struct {
	ID          uint64    // bookings.id
	UserID      uint64    // bookings.user_id
	ScreeningID uint64    // bookings.screening_id
	SeatNumber  string    // bookings.seat_number
	CreatedAt   time.Time // bookings.created_at
}

// BookingDetail is a booking joined with its screening for listings.
type BookingDetail struct {
	Booking
	Screening Screening
}
