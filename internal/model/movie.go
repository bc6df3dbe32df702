package model

import "time"

// Movie is a row in the `movies` table. IsCurrent is stored and edited by
// admins. Rating and CommentsCount are not columns: repositories compute
// them from the movie's reviews whenever a movie is read.
type Movie struct {
	ID            uint64    // movies.id
	Title         string    // movies.title
	Description   string    // movies.description (nullable, empty when NULL)
	Genre         string    // movies.genre (nullable)
	ReleaseDate   string    // movies.release_date (nullable, free text)
	PosterURL     string    // movies.poster_url (nullable)
	IsCurrent     bool      // movies.is_current
	CreatedAt     time.Time // movies.created_at
	Rating        float64   // AVG(reviews.rate), 0 without reviews
	CommentsCount int64     // COUNT(reviews.id)
}

// Review is a user's comment and numeric rate for a movie.
type Review struct {
	ID        uint64    // reviews.id
	UserID    uint64    // reviews.user_id
	MovieID   uint64    // reviews.movie_id
	Content   string    // reviews.content
	Rate      float64   // reviews.rate (1..5)
	CreatedAt time.Time // reviews.created_at
	Username  string    // users.username of the author, filled on reads
}
