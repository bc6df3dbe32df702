package model

// Seat is a labelled seat offered for one screening. The set of seat rows
// of a screening is its labeling scheme. IsAvailable is derived on read
// from the bookings table and is never stored.
type Seat struct {
	ID          uint64 // seats.id
	ScreeningID uint64 // seats.screening_id
	SeatNumber  string // seats.seat_number, e.g. "A5"
	IsAvailable bool
}
