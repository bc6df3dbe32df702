package model

import "time"

// Screening is a scheduled showing of a movie in a hall (the
// `screenings` table). The name fields are filled by queries that join the
// movie, cinema and hall.
type Screening struct {
	ID         uint64    // screenings.id
	MovieID    uint64    // screenings.movie_id
	CinemaID   uint64    // screenings.cinema_id
	HallID     uint64    // screenings.hall_id
	StartsAt   time.Time // screenings.starts_at (UTC)
	PriceCents uint32    // screenings.price_cents

	MovieTitle string
	CinemaName string
	HallName   string
}

// Price returns the ticket price in currency units.
func (s Screening) Price() float64 { return float64(s.PriceCents) / 100.0 }
