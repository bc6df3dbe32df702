package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const (
	minRate = 1
	maxRate = 5
)

type reviewInput struct {
	Content string  `json:"content" validate:"required,max=2000"`
	Rate    float64 `json:"rate" validate:"gte=1,lte=5"`
}

// ReviewService accepts user reviews. A movie's rating and comment count
// follow from its reviews.
type ReviewService struct {
	Movies  *repository.MovieRepo
	Reviews *repository.ReviewRepo
}

func NewReviewService(movies *repository.MovieRepo, reviews *repository.ReviewRepo) *ReviewService {
	return &ReviewService{Movies: movies, Reviews: reviews}
}

// AddReview stores a review with a rate between 1 and 5.
func (s *ReviewService) AddReview(ctx context.Context, userID, movieID uint64, content string, rate float64) (*model.Review, error) {
	content = strings.TrimSpace(content)
	// gte and lte both fail for NaN.
	if err := check(reviewInput{Content: content, Rate: rate}); err != nil {
		return nil, err
	}
	if _, err := s.Movies.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load movie: %w", err)
	}
	rv := &model.Review{UserID: userID, MovieID: movieID, Content: content, Rate: rate}
	if err := s.Reviews.Create(ctx, rv); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return rv, nil
}
