package entities

import (
	"fmt"

	apperrors "github.com/vigility/dashboard/pkg/errors"
)

// FilterSnapshot is the restorable subset of FilterState kept per user.
// Unset fields are encoded as JSON null.
type FilterSnapshot struct {
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	AgeGroup  *string `json:"ageGroup"`
	Gender    *string `json:"gender"`
}

// Validate rejects snapshots whose enum fields hold unknown values
func (s FilterSnapshot) Validate() error {
	if s.AgeGroup != nil && !AgeGroup(*s.AgeGroup).Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown age group %q", *s.AgeGroup))
	}
	if s.Gender != nil && !Gender(*s.Gender).Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown gender %q", *s.Gender))
	}
	return nil
}

// Equal reports whether both snapshots hold the same values
func (s FilterSnapshot) Equal(o FilterSnapshot) bool {
	return sameValue(s.StartDate, o.StartDate) &&
		sameValue(s.EndDate, o.EndDate) &&
		sameValue(s.AgeGroup, o.AgeGroup) &&
		sameValue(s.Gender, o.Gender)
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
