package entities

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/vigility/dashboard/pkg/errors"
)

// AgeGroup is one of the fixed audience age buckets
type AgeGroup string

const (
	AgeGroupUnder18 AgeGroup = "<18"
	AgeGroup18To40  AgeGroup = "18-40"
	AgeGroupOver40  AgeGroup = ">40"
)

// AgeGroups lists the accepted age groups in display order
var AgeGroups = []AgeGroup{AgeGroupUnder18, AgeGroup18To40, AgeGroupOver40}

// Valid reports whether a is a known age group
func (a AgeGroup) Valid() bool {
	for _, g := range AgeGroups {
		if a == g {
			return true
		}
	}
	return false
}

// ParseAgeGroup converts user input into an AgeGroup. Empty input clears the
// filter and is not an error.
func ParseAgeGroup(value string) (AgeGroup, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if g := AgeGroup(value); g.Valid() {
		return g, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown age group %q", value))
}

// Gender is one of the fixed audience genders
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// Genders lists the accepted genders in display order
var Genders = []Gender{GenderMale, GenderFemale, GenderOther}

// Valid reports whether g is a known gender
func (g Gender) Valid() bool {
	for _, known := range Genders {
		if g == known {
			return true
		}
	}
	return false
}

// ParseGender converts user input into a Gender, accepting any letter case.
// Empty input clears the filter and is not an error.
func ParseGender(value string) (Gender, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, g := range Genders {
		if strings.EqualFold(string(g), value) {
			return g, nil
		}
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown gender %q", value))
}

// DateRange holds the raw date strings exactly as the user entered them.
// An empty string means the bound is unset.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// HasStart reports whether the start bound is set
func (r DateRange) HasStart() bool { return strings.TrimSpace(r.Start) != "" }

// HasEnd reports whether the end bound is set
func (r DateRange) HasEnd() bool { return strings.TrimSpace(r.End) != "" }

// IsEmpty reports whether neither bound is set
func (r DateRange) IsEmpty() bool { return !r.HasStart() && !r.HasEnd() }

// IsComplete reports whether the range is queryable: both bounds set or both
// unset. A half-set range is a transient selection state.
func (r DateRange) IsComplete() bool {
	return r.HasStart() == r.HasEnd()
}

// FilterState is the full set of dashboard filter inputs
type FilterState struct {
	DateRange       DateRange `json:"date_range"`
	AgeGroup        AgeGroup  `json:"age_group,omitempty"`
	Gender          Gender    `json:"gender,omitempty"`
	SelectedFeature string    `json:"selected_feature,omitempty"`
}

// IsZero reports whether no filter is set
func (s FilterState) IsZero() bool {
	return s.DateRange.IsEmpty() && s.AgeGroup == "" && s.Gender == "" && s.SelectedFeature == ""
}

// Snapshot returns the persistable subset of the state. The selected feature
// is never part of a snapshot.
func (s FilterState) Snapshot() FilterSnapshot {
	return FilterSnapshot{
		StartDate: optional(s.DateRange.Start),
		EndDate:   optional(s.DateRange.End),
		AgeGroup:  optional(string(s.AgeGroup)),
		Gender:    optional(string(s.Gender)),
	}
}

// ApplySnapshot overwrites the persisted fields with the snapshot's values and
// leaves the selected feature untouched.
func (s *FilterState) ApplySnapshot(snap FilterSnapshot) {
	s.DateRange = DateRange{Start: deref(snap.StartDate), End: deref(snap.EndDate)}
	s.AgeGroup = AgeGroup(deref(snap.AgeGroup))
	s.Gender = Gender(deref(snap.Gender))
}

// Query projects the state onto an AnalyticsQuery. Dates are read as midnight
// in loc. Both date bounds are sent together or not at all, so a half-set or
// partly unparsable range produces an unfiltered-by-date query. Every input
// that was dropped is reported as a validation error; none of them is fatal.
func (s FilterState) Query(loc *time.Location) (AnalyticsQuery, []error) {
	var problems []error
	q := AnalyticsQuery{FeatureName: strings.TrimSpace(s.SelectedFeature)}

	if s.DateRange.HasStart() && s.DateRange.HasEnd() {
		start, startErr := ParseFilterDate(s.DateRange.Start, loc)
		end, endErr := ParseFilterDate(s.DateRange.End, loc)
		switch {
		case startErr != nil:
			problems = append(problems, startErr)
		case endErr != nil:
			problems = append(problems, endErr)
		default:
			q.StartDate = &start
			q.EndDate = &end
		}
	}

	if s.AgeGroup != "" {
		if s.AgeGroup.Valid() {
			q.AgeGroup = s.AgeGroup
		} else {
			problems = append(problems, apperrors.NewValidationError(fmt.Sprintf("unknown age group %q", s.AgeGroup)))
		}
	}
	if s.Gender != "" {
		if s.Gender.Valid() {
			q.Gender = s.Gender
		} else {
			problems = append(problems, apperrors.NewValidationError(fmt.Sprintf("unknown gender %q", s.Gender)))
		}
	}

	return q, problems
}

// ParseFilterDate reads a date-only value (YYYY-MM-DD) as midnight in loc, or
// a full RFC 3339 timestamp as-is.
func ParseFilterDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation(time.DateOnly, value, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("invalid date %q", value))
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
