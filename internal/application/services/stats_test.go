package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vigility/dashboard/internal/application/services"
	"github.com/vigility/dashboard/internal/domain/entities"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := services.ComputeStats(nil, nil)

	assert.Equal(t, entities.DerivedStats{}, stats)
	assert.Nil(t, stats.TopFeature)
}

func TestComputeStats_TieGoesToFirst(t *testing.T) {
	stats := services.ComputeStats([]entities.FeatureCount{
		{FeatureName: "a", Count: 5},
		{FeatureName: "b", Count: 5},
	}, nil)

	require.NotNil(t, stats.TopFeature)
	assert.Equal(t, entities.FeatureCount{FeatureName: "a", Count: 5}, *stats.TopFeature)
	assert.Equal(t, 10, stats.TotalClicks)
	assert.Equal(t, 2, stats.FeaturesCount)
	assert.Equal(t, 0, stats.AvgDaily)
}

func TestComputeStats_AverageRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name   string
		counts []int
		want   int
	}{
		{"3.5 rounds up", []int{3, 4}, 4},
		{"2.5 rounds up", []int{2, 3}, 3},
		{"1.33 rounds down", []int{1, 1, 2}, 1},
		{"1.67 rounds up", []int{1, 2, 2}, 2},
		{"single day", []int{7}, 7},
		{"all zero", []int{0, 0}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			daily := make([]entities.DailyCount, len(tc.counts))
			for i, c := range tc.counts {
				daily[i] = entities.DailyCount{Date: "d", Count: c}
			}
			assert.Equal(t, tc.want, services.ComputeStats(nil, daily).AvgDaily)
		})
	}
}

func TestComputeStats_TopFeatureIsACopy(t *testing.T) {
	counts := []entities.FeatureCount{{FeatureName: "x", Count: 1}, {FeatureName: "y", Count: 9}}

	stats := services.ComputeStats(counts, nil)
	counts[1].Count = 0

	assert.Equal(t, "y", stats.TopFeature.FeatureName)
	assert.Equal(t, 9, stats.TopFeature.Count)
}
