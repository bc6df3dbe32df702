// Package queue defines the messages exchanged over RabbitMQ and the
// background consumer that records them.
package queue

import (
	"fmt"
	"time"
)

// BookingCreatedQueue is the durable queue booking events are routed to.
const BookingCreatedQueue = "booking.created"

// BookingCreatedEvent is published after a booking commits. It carries
// enough detail for consumers to log or notify without querying the
// primary database.
type BookingCreatedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	ScreeningID uint64 `json:"screening_id"`
	MovieTitle  string `json:"movie_title"`
	CinemaName  string `json:"cinema_name"`
	HallName    string `json:"hall_name"`
	StartsAt    string `json:"starts_at"`
	Seat        string `json:"seat"`
	PriceCents  uint32 `json:"price_cents"`
	CreatedAt   string `json:"created_at"`
}

// TimeLayout formats the event timestamps.
const TimeLayout = time.RFC3339

// LogLine renders the event as one line of the booking log.
func (ev BookingCreatedEvent) LogLine() string {
	return fmt.Sprintf("[%s] Booking created | booking_id=%d | user_id=%d | screening_id=%d | movie=%q | cinema=%q | hall=%q | starts_at=%s | seat=%s | price=%d cents\n",
		ev.CreatedAt, ev.BookingID, ev.UserID, ev.ScreeningID, ev.MovieTitle, ev.CinemaName, ev.HallName,
		ev.StartsAt, ev.Seat, ev.PriceCents)
}
