package app

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"cleanplate/internal/domain"
)

// ReviewInput is the anonymous submission payload.
type ReviewInput struct {
	Rating  *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=3,max=4000"`
}

// ReviewService owns UserReview writes. The restaurant reference is
// weak: submissions against identities that were never ingested (or were
// later deleted) are accepted.
type ReviewService struct {
	repo     domain.InspectionRepository
	validate *validator.Validate
}

func NewReviewService(r domain.InspectionRepository) *ReviewService {
	return &ReviewService{
		repo:     r,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Submit validates and persists one review. Validation failures come
// back as validator.ValidationErrors so the transport can map them to a
// 400 with field detail.
func (s *ReviewService) Submit(ctx context.Context, id domain.Identity, in ReviewInput) (domain.UserReview, error) {
	if err := s.validate.Struct(in); err != nil {
		return domain.UserReview{}, err
	}

	rv := domain.UserReview{
		RestaurantKey: id,
		Rating:        in.Rating,
		Comment:       in.Comment,
		CreatedAt:     time.Now().UTC(),
	}
	rid, err := s.repo.AddReview(ctx, rv)
	if err != nil {
		return domain.UserReview{}, err
	}
	rv.ID = rid
	return rv, nil
}
