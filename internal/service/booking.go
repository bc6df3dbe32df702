package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
	q "github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// MaxSeatLabelLen bounds the length of a seat label such as "A5".
const MaxSeatLabelLen = 10

// NormalizeSeat trims and upper-cases a seat label.
func NormalizeSeat(label string) (string, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return "", invalid("seat_number", "seat is required")
	}
	if len(label) > MaxSeatLabelLen {
		return "", invalid("seat_number", "seat label is too long")
	}
	return label, nil
}

// MaxPendingEvents bounds the booking events being published at once.
// Events past the bound are dropped and logged.
const MaxPendingEvents = 64

// BookingService records seat bookings. Build it with NewBookingService.
type BookingService struct {
	DB         *sql.DB
	Screenings *repository.ScreeningRepo
	Seats      *repository.SeatRepo
	Bookings   *repository.BookingRepo
	Events     EventPublisher
	Log        *logrus.Logger

	pending chan struct{}
}

func NewBookingService(db *sql.DB, screenings *repository.ScreeningRepo, seats *repository.SeatRepo,
	bookings *repository.BookingRepo, events EventPublisher, log *logrus.Logger) *BookingService {
	if events == nil {
		events = NopPublisher{}
	}
	return &BookingService{
		DB: db, Screenings: screenings, Seats: seats, Bookings: bookings, Events: events, Log: log,
		pending: make(chan struct{}, MaxPendingEvents),
	}
}

// Book reserves seatLabel on a screening for the user. The label must be
// one of the screening's seats when the screening defines any. A seat
// that is already taken, including by a concurrent request that commits
// first, yields ErrSeatAlreadyBooked.
func (s *BookingService) Book(ctx context.Context, userID, screeningID uint64, seatLabel string) (*model.Booking, error) {
	seat, err := NormalizeSeat(seatLabel)
	if err != nil {
		return nil, err
	}

	var (
		b  = &model.Booking{UserID: userID, ScreeningID: screeningID, SeatNumber: seat}
		sc *model.Screening
	)
	err = repository.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		var err error
		sc, err = s.Screenings.GetByIDTx(ctx, tx, screeningID)
		if err != nil {
			if errors.Is(err, repository.ErrScreeningNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load screening: %w", err)
		}

		n, err := s.Seats.CountForScreeningTx(ctx, tx, screeningID)
		if err != nil {
			return fmt.Errorf("count seats: %w", err)
		}
		if n > 0 {
			ok, err := s.Seats.ExistsTx(ctx, tx, screeningID, seat)
			if err != nil {
				return fmt.Errorf("check seat: %w", err)
			}
			if !ok {
				return invalid("seat_number", "no such seat for this screening")
			}
		}

		taken, err := s.Bookings.ExistsTx(ctx, tx, screeningID, seat)
		if err != nil {
			return fmt.Errorf("check booking: %w", err)
		}
		if taken {
			return ErrSeatAlreadyBooked
		}
		if err := s.Bookings.CreateTx(ctx, tx, b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrSeatAlreadyBooked
			}
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.WithFields(logrus.Fields{
		"booking_id": b.ID, "user_id": userID, "screening_id": screeningID, "seat": seat,
	}).Info("booking created")
	s.publish(b, sc)
	return b, nil
}

// publish sends the event in the background so a slow broker never delays
// the response. At most MaxPendingEvents sends run at once.
func (s *BookingService) publish(b *model.Booking, sc *model.Screening) {
	ev := q.BookingCreatedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ScreeningID: b.ScreeningID,
		MovieTitle:  sc.MovieTitle,
		CinemaName:  sc.CinemaName,
		HallName:    sc.HallName,
		StartsAt:    sc.StartsAt.UTC().Format(q.TimeLayout),
		Seat:        b.SeatNumber,
		PriceCents:  sc.PriceCents,
		CreatedAt:   b.CreatedAt.UTC().Format(q.TimeLayout),
	}
	select {
	case s.pending <- struct{}{}:
	default:
		s.Log.WithField("booking_id", ev.BookingID).Warn("booking event dropped, publisher backlog full")
		return
	}
	go func() {
		defer func() { <-s.pending }()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Events.PublishBookingCreated(ctx, ev); err != nil {
			s.Log.WithError(err).WithField("booking_id", ev.BookingID).Warn("publish booking event failed")
		}
	}()
}
