// Package seed fills an empty database with sample cinemas, halls, movies,
// screenings and seats, and ensures an admin account exists.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// Options controls what Run inserts.
type Options struct {
	AdminEmail    string
	AdminUsername string
	AdminPassword string
	BcryptCost    int
	// Now anchors screening start times; zero means time.Now().
	Now time.Time
}

// Result counts the rows Run created.
type Result struct {
	AdminID    uint64
	Cinemas    int
	Halls      int
	Movies     int
	Screenings int
	Seats      int
}

type hallPlan struct {
	name       string
	rows, cols int
}

type cinemaPlan struct {
	name, location string
	halls          []hallPlan
}

var cinemas = []cinemaPlan{
	{"Galaxy Downtown", "12 Main Street", []hallPlan{{"A1", 5, 10}, {"B1", 4, 8}}},
	{"Riverside Cineplex", "3 River Road", []hallPlan{{"Main", 6, 12}}},
}

var movies = []model.Movie{
	{Title: "The Long Night", Genre: "Drama", ReleaseDate: "2024-03-01", IsCurrent: true,
		Description: "A night shift nurse uncovers a secret."},
	{Title: "Orbit", Genre: "Sci-Fi", ReleaseDate: "2024-05-17", IsCurrent: true,
		Description: "Two astronauts, one escape pod."},
	{Title: "Laugh Track", Genre: "Comedy", ReleaseDate: "2024-06-07", IsCurrent: true,
		Description: "A sitcom writer gets stuck inside his own show."},
	{Title: "Quiet Harbor", Genre: "Romance", ReleaseDate: "2023-11-10", IsCurrent: false,
		Description: "A fishing town and a summer that changed everything."},
}

// Run creates the admin user and, when no cinema exists yet, the sample
// catalogue. Running it again only re-asserts the admin role.
func Run(ctx context.Context, db *sql.DB, opts Options, log *logrus.Logger) (Result, error) {
	var res Result
	adminID, err := ensureAdmin(ctx, repository.NewUserRepo(db), repository.NewSessionRepo(db), opts)
	if err != nil {
		return res, err
	}
	res.AdminID = adminID

	cinemaRepo := repository.NewCinemaRepo(db)
	existing, err := cinemaRepo.ListAll(ctx)
	if err != nil {
		return res, err
	}
	if len(existing) > 0 {
		log.WithField("cinemas", len(existing)).Info("catalogue already present, skipping")
		return res, nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	day := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	movieRepo := repository.NewMovieRepo(db)
	movieIDs := make([]uint64, 0, len(movies))
	for _, m := range movies {
		m := m
		if err := movieRepo.Create(ctx, &m); err != nil {
			return res, err
		}
		res.Movies++
		if m.IsCurrent {
			movieIDs = append(movieIDs, m.ID)
		}
	}

	hallRepo := repository.NewHallRepo(db)
	screeningRepo := repository.NewScreeningRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	slot := 0
	for _, cp := range cinemas {
		c := model.Cinema{Name: cp.name, Location: cp.location}
		if err := cinemaRepo.Create(ctx, &c); err != nil {
			return res, err
		}
		res.Cinemas++
		for _, hp := range cp.halls {
			h := model.Hall{CinemaID: c.ID, Name: hp.name, Size: uint32(hp.rows * hp.cols)}
			if err := hallRepo.Create(ctx, &h); err != nil {
				return res, err
			}
			res.Halls++
			for i, movieID := range movieIDs {
				sc := model.Screening{
					MovieID:    movieID,
					CinemaID:   c.ID,
					HallID:     h.ID,
					StartsAt:   day.Add(time.Duration(14+3*i) * time.Hour).Add(time.Duration(slot) * 24 * time.Hour),
					PriceCents: 1200 + uint32(i)*150,
				}
				if err := screeningRepo.Create(ctx, &sc); err != nil {
					return res, err
				}
				res.Screenings++
				labels := SeatGrid(hp.rows, hp.cols)
				if err := seatRepo.CreateBulk(ctx, sc.ID, labels); err != nil {
					return res, err
				}
				res.Seats += len(labels)
			}
			slot++
		}
	}
	log.WithFields(logrus.Fields{
		"cinemas":    res.Cinemas,
		"halls":      res.Halls,
		"movies":     res.Movies,
		"screenings": res.Screenings,
		"seats":      res.Seats,
	}).Info("sample catalogue inserted")
	return res, nil
}

// ensureAdmin creates the admin account or promotes the user owning
// AdminEmail. A promoted user's sessions are revoked so every client
// signs in again under the new role.
func ensureAdmin(ctx context.Context, users *repository.UserRepo, sessions *repository.SessionRepo, opts Options) (uint64, error) {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return 0, nil
	}
	u, err := users.GetByEmail(ctx, opts.AdminEmail)
	switch {
	case err == nil:
		if u.Role != model.RoleAdmin {
			if err := users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
				return 0, err
			}
			if err := sessions.RevokeAllForUser(ctx, u.ID); err != nil {
				return 0, fmt.Errorf("revoke sessions: %w", err)
			}
		}
		return u.ID, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return 0, err
	}
	hash, err := utils.HashPassword(opts.AdminPassword, opts.BcryptCost)
	if err != nil {
		return 0, err
	}
	username := opts.AdminUsername
	if username == "" {
		username = "admin"
	}
	switch other, err := users.GetByUsername(ctx, username); {
	case err == nil:
		return 0, fmt.Errorf("admin username %q already belongs to %s", username, other.Email)
	case !errors.Is(err, repository.ErrUserNotFound):
		return 0, err
	}
	u = &model.User{Username: username, Email: opts.AdminEmail, PasswordHash: hash, Role: model.RoleAdmin}
	if err := users.Create(ctx, u); err != nil {
		return 0, err
	}
	return u.ID, nil
}
