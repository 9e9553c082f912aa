package domain

import "time"

// UserReview references a restaurant by identity only. The reference is
// weak: a review may point at a restaurant that was never ingested or
// was later removed, and that is tolerated.
type UserReview struct {
	ID            int64
	RestaurantKey Identity
	Rating        *int // 1..5, optional
	Comment       string
	CreatedAt     time.Time
}
