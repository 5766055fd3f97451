package services

import (
	"math"

	"github.com/vigility/dashboard/internal/domain/entities"
)

// ComputeStats derives the summary figures from an analytics result. The top
// feature is the leftmost entry with the highest count, and the daily average
// is rounded half up.
func ComputeStats(featureCounts []entities.FeatureCount, dailyCounts []entities.DailyCount) entities.DerivedStats {
	stats := entities.DerivedStats{FeaturesCount: len(featureCounts)}

	for i := range featureCounts {
		stats.TotalClicks += featureCounts[i].Count
		if stats.TopFeature == nil || featureCounts[i].Count > stats.TopFeature.Count {
			top := featureCounts[i]
			stats.TopFeature = &top
		}
	}

	if len(dailyCounts) > 0 {
		sum := 0
		for _, d := range dailyCounts {
			sum += d.Count
		}
		stats.AvgDaily = int(math.Floor(float64(sum)/float64(len(dailyCounts)) + 0.5))
	}

	return stats
}
