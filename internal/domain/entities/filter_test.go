package entities

import (
	"testing"
	"time"
)

func TestDateRange_IsComplete(t *testing.T) {
	cases := []struct {
		name  string
		r     DateRange
		wants bool
	}{
		{"both unset", DateRange{}, true},
		{"both set", DateRange{Start: "2024-01-01", End: "2024-01-31"}, true},
		{"start only", DateRange{Start: "2024-01-01"}, false},
		{"end only", DateRange{End: "2024-01-31"}, false},
		{"whitespace counts as unset", DateRange{Start: "  ", End: ""}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.IsComplete(); got != tc.wants {
				t.Errorf("IsComplete() = %v, want %v", got, tc.wants)
			}
		})
	}
}

func TestFilterState_Query_HalfRangeIsOmitted(t *testing.T) {
	state := FilterState{
		DateRange: DateRange{Start: "2024-01-01"},
		Gender:    GenderMale,
	}

	q, problems := state.Query(time.UTC)

	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if q.StartDate != nil || q.EndDate != nil {
		t.Errorf("expected no date bounds, got %v / %v", q.StartDate, q.EndDate)
	}
	if q.Gender != GenderMale {
		t.Errorf("expected gender Male, got %q", q.Gender)
	}
	if q.AgeGroup != "" || q.FeatureName != "" {
		t.Errorf("expected only gender to be set, got %+v", q)
	}
}

func TestFilterState_Query_DatesAreLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	state := FilterState{
		DateRange:       DateRange{Start: "2024-01-01", End: "2024-01-31"},
		AgeGroup:        AgeGroup18To40,
		SelectedFeature: "chart_bar",
	}

	q, problems := state.Query(loc)

	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if q.StartDate == nil || q.EndDate == nil {
		t.Fatal("expected both date bounds")
	}
	if got := q.StartDate.UTC().Format(time.RFC3339); got != "2023-12-31T22:00:00Z" {
		t.Errorf("start = %s", got)
	}
	if got := q.EndDate.UTC().Format(time.RFC3339); got != "2024-01-30T22:00:00Z" {
		t.Errorf("end = %s", got)
	}
	if q.AgeGroup != AgeGroup18To40 || q.FeatureName != "chart_bar" {
		t.Errorf("unexpected query %+v", q)
	}
}

func TestFilterState_Query_InvalidDateDropsBothBounds(t *testing.T) {
	state := FilterState{DateRange: DateRange{Start: "2024-01-01", End: "not-a-date"}}

	q, problems := state.Query(time.UTC)

	if q.StartDate != nil || q.EndDate != nil {
		t.Error("expected an unparsable bound to drop the whole range")
	}
	if len(problems) != 1 {
		t.Fatalf("expected one validation problem, got %v", problems)
	}
	// the raw input is preserved
	if state.DateRange.End != "not-a-date" {
		t.Error("state must keep the raw string")
	}
}

func TestFilterState_Query_UnknownEnumsAreDropped(t *testing.T) {
	state := FilterState{AgeGroup: "65+", Gender: "Robot"}

	q, problems := state.Query(time.UTC)

	if q.AgeGroup != "" || q.Gender != "" {
		t.Errorf("expected unknown enums to be omitted, got %+v", q)
	}
	if len(problems) != 2 {
		t.Errorf("expected two problems, got %d", len(problems))
	}
}

func TestFilterState_SnapshotRoundTrip(t *testing.T) {
	state := FilterState{
		DateRange:       DateRange{Start: "2024-02-01", End: "2024-02-29"},
		AgeGroup:        AgeGroupOver40,
		Gender:          GenderFemale,
		SelectedFeature: "filter_age",
	}

	snap := state.Snapshot()
	var restored FilterState
	restored.SelectedFeature = "keep-me"
	restored.ApplySnapshot(snap)

	if restored.DateRange != state.DateRange || restored.AgeGroup != state.AgeGroup || restored.Gender != state.Gender {
		t.Errorf("restored %+v from %+v", restored, state)
	}
	if restored.SelectedFeature != "keep-me" {
		t.Error("ApplySnapshot must not touch the selected feature")
	}
}

func TestFilterState_SnapshotUsesNullForUnset(t *testing.T) {
	snap := FilterState{Gender: GenderOther}.Snapshot()

	if snap.StartDate != nil || snap.EndDate != nil || snap.AgeGroup != nil {
		t.Errorf("expected nil pointers for unset fields, got %+v", snap)
	}
	if snap.Gender == nil || *snap.Gender != "Other" {
		t.Errorf("expected gender Other, got %v", snap.Gender)
	}
}

func TestParseAgeGroupAndGender(t *testing.T) {
	if g, err := ParseAgeGroup(">40"); err != nil || g != AgeGroupOver40 {
		t.Errorf("ParseAgeGroup(>40) = %q, %v", g, err)
	}
	if g, err := ParseAgeGroup(""); err != nil || g != "" {
		t.Errorf("ParseAgeGroup(empty) = %q, %v", g, err)
	}
	if _, err := ParseAgeGroup("40+"); err == nil {
		t.Error("expected an error for an unknown age group")
	}
	if g, err := ParseGender("female"); err != nil || g != GenderFemale {
		t.Errorf("ParseGender(female) = %q, %v", g, err)
	}
	if _, err := ParseGender("x"); err == nil {
		t.Error("expected an error for an unknown gender")
	}
}

func TestFilterSnapshot_Validate(t *testing.T) {
	bad := "teen"
	if err := (FilterSnapshot{AgeGroup: &bad}).Validate(); err == nil {
		t.Error("expected invalid age group to fail validation")
	}
	good := "18-40"
	if err := (FilterSnapshot{AgeGroup: &good}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFilterSnapshot_Equal(t *testing.T) {
	a := FilterState{Gender: GenderMale, DateRange: DateRange{Start: "2024-01-01"}}.Snapshot()
	b := FilterState{Gender: GenderMale, DateRange: DateRange{Start: "2024-01-01"}, SelectedFeature: "x"}.Snapshot()
	if !a.Equal(b) {
		t.Error("snapshots with the same values must be equal")
	}
	c := FilterState{Gender: GenderFemale}.Snapshot()
	if a.Equal(c) {
		t.Error("snapshots with different values must differ")
	}
}
