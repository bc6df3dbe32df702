package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SearchLimit caps the number of rows returned by SearchByTitle.
const SearchLimit = 50

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes s safe to embed in a LIKE pattern that declares
// ESCAPE '!'.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

// SearchByTitle returns movies whose title contains q, ignoring case.
// Wildcards in q match literally.
func (r *MovieRepo) SearchByTitle(ctx context.Context, q string) ([]model.Movie, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	return r.list(ctx, movieSelect+` WHERE LOWER(m.title) LIKE ? ESCAPE '!' ORDER BY m.title, m.id LIMIT ?`,
		pattern, SearchLimit)
}
