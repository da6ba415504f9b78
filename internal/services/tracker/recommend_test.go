package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

func monthEntry(days int) *models.Entry {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return &models.Entry{
		ID:              1,
		UserID:          1,
		AppName:         "Spotify",
		StartDate:       start,
		NextBillingDate: start.AddDate(0, 0, days),
		IsActive:        true,
	}
}

func usageHistory(activeDays, totalRecords, usagePerDay int) []*models.UsageRecord {
	records := make([]*models.UsageRecord, 0, totalRecords)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range totalRecords {
		records = append(records, &models.UsageRecord{
			UserID:     1,
			AppName:    "Spotify",
			Date:       start.AddDate(0, 0, i),
			IsActive:   i < activeDays,
			TotalUsage: usagePerDay,
		})
	}
	return records
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name        string
		entry       *models.Entry
		records     []*models.UsageRecord
		wantVerdict models.Verdict
		wantPct     float64
	}{
		{
			name:        "rare steady usage is omitted",
			entry:       monthEntry(30),
			records:     usageHistory(5, 30, 3),
			wantVerdict: models.VerdictOmit,
			wantPct:     float64(5) / 30 * 100,
		},
		{
			name:  "rare erratic usage is kept",
			entry: monthEntry(30),
			records: func() []*models.UsageRecord {
				records := usageHistory(5, 30, 0)
				// Большой разброс объёмов: score заведомо выше 15
				for i, r := range records {
					r.TotalUsage = i * 10
				}
				return records
			}(),
			wantVerdict: models.VerdictKeep,
			wantPct:     float64(5) / 30 * 100,
		},
		{
			name:        "heavy usage is kept",
			entry:       monthEntry(30),
			records:     usageHistory(20, 30, 3),
			wantVerdict: models.VerdictKeep,
			wantPct:     float64(20) / 30 * 100,
		},
		{
			name:        "middle band is kept regardless of spread",
			entry:       monthEntry(30),
			records:     usageHistory(15, 30, 3),
			wantVerdict: models.VerdictKeep,
			wantPct:     50,
		},
		{
			name:        "no history at all is omitted",
			entry:       monthEntry(30),
			records:     nil,
			wantVerdict: models.VerdictOmit,
			wantPct:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(tt.entry, tt.records)
			assert.Equal(t, tt.wantVerdict, got.Verdict)
			assert.InDelta(t, tt.wantPct, got.ActivePercentage, 0.0001)
		})
	}
}

func TestRecommendZeroLengthWindow(t *testing.T) {
	entry := monthEntry(0)
	got := Recommend(entry, usageHistory(2, 2, 3))

	assert.Equal(t, models.VerdictKeep, got.Verdict)
	assert.Equal(t, 0, got.TotalDays)
	assert.Equal(t, 2, got.ActiveDays)
}

func TestRecommendActivePercentageAboveHundred(t *testing.T) {
	// Записей может быть больше, чем дней в окне: значение не обрезается.
	entry := monthEntry(10)
	got := Recommend(entry, usageHistory(12, 12, 3))

	assert.Equal(t, models.VerdictKeep, got.Verdict)
	assert.InDelta(t, 120.0, got.ActivePercentage, 0.0001)
}

func TestSampleStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "empty", values: nil, want: 0.0},
		{name: "single value", values: []float64{7}, want: 0.0},
		{name: "identical values", values: []float64{3, 3, 3, 3}, want: 0.0},
		{name: "two values", values: []float64{1, 3}, want: 1.4142135623},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, sampleStdDev(tt.values), 0.0001)
		})
	}
}

func TestRecommendVerdictOmitFlagsSubscription(t *testing.T) {
	// omit ниже обеих границ: stddev идентичных объёмов равен нулю
	entry := monthEntry(30)
	got := Recommend(entry, usageHistory(0, 30, 0))

	assert.Equal(t, models.VerdictOmit, got.Verdict)
	assert.Equal(t, 0, got.ActiveDays)
	assert.Equal(t, 30, got.TotalDays)
}
