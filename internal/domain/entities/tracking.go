package entities

// Feature names reported to the tracking endpoint
const (
	FeatureDatePicker   = "date_picker"
	FeatureAgeFilter    = "filter_age"
	FeatureGenderFilter = "filter_gender"
	FeatureChartBar     = "chart_bar"
)

// TrackEvent is the body of a tracking ping
type TrackEvent struct {
	FeatureName string `json:"feature_name"`
}

// FilterChange names the kind of filter mutation that was committed
type FilterChange string

const (
	ChangeDateRange     FilterChange = "date_range"
	ChangeAgeGroup      FilterChange = "age_group"
	ChangeGender        FilterChange = "gender"
	ChangeFeatureToggle FilterChange = "feature_toggle"
	ChangeFeatureClear  FilterChange = "feature_clear"
	ChangeClearAll      FilterChange = "clear_all"
	ChangeBatch         FilterChange = "batch"
	ChangeRestore       FilterChange = "restore"
)
