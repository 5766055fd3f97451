package entities

import "time"

// AnalyticsQuery is the backend query derived from a FilterState. Zero-valued
// fields are omitted from the request.
type AnalyticsQuery struct {
	StartDate   *time.Time
	EndDate     *time.Time
	AgeGroup    AgeGroup
	Gender      Gender
	FeatureName string
}

// FeatureCount is the total number of clicks recorded for one feature
type FeatureCount struct {
	FeatureName string `json:"feature_name"`
	Count       int    `json:"count"`
}

// DailyCount is the number of clicks recorded on one day
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsResult is the aggregated response of the analytics endpoint.
// FeatureCounts keep the server's order; DailyCounts are chronological.
type AnalyticsResult struct {
	FeatureCounts []FeatureCount `json:"feature_counts"`
	DailyCounts   []DailyCount   `json:"daily_counts"`
}

// DerivedStats are the summary figures shown above the charts
type DerivedStats struct {
	TotalClicks   int           `json:"total_clicks"`
	TopFeature    *FeatureCount `json:"top_feature"`
	AvgDaily      int           `json:"avg_daily"`
	FeaturesCount int           `json:"features_count"`
}
