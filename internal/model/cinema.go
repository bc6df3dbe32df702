package model

// Cinema represents a movie theatre venue. A cinema contains halls and
// hosts screenings.
type Cinema struct {
	ID       uint64 // cinemas.id
	Name     string // cinemas.name
	Location string // cinemas.location (nullable)
}

// CinemaMovies pairs a cinema with the distinct current movies that have a
// screening there. It backs the admin overview.
type CinemaMovies struct {
	Cinema Cinema
	Movies []Movie
}
