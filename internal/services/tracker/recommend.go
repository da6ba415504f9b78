package services

import (
	"math"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// Recommend вычисляет рекомендацию по подписке из её истории использования.
// Чистая функция: ни хранилища, ни побочных эффектов.
//
// Окно нулевой длины (next_billing_date == start_date) не делится на ноль:
// возвращается консервативное "keep".
func Recommend(entry *models.Entry, records []*models.UsageRecord) models.UsageSummary {
	totalDays := int(entry.NextBillingDate.Sub(entry.StartDate).Hours() / 24)

	activeDays := 0
	usages := make([]float64, 0, len(records))
	for _, r := range records {
		if r.IsActive {
			activeDays++
		}
		usages = append(usages, float64(r.TotalUsage))
	}

	score := sampleStdDev(usages)

	if totalDays == 0 {
		return models.UsageSummary{
			TotalDays:        0,
			ActiveDays:       activeDays,
			ConsistencyScore: score,
			Verdict:          models.VerdictKeep,
		}
	}

	pct := float64(activeDays) / float64(totalDays) * 100

	return models.UsageSummary{
		TotalDays:        totalDays,
		ActiveDays:       activeDays,
		ActivePercentage: pct,
		ConsistencyScore: score,
		Verdict:          decide(pct, score),
	}
}

// decide применяет таблицу решений сверху вниз, первое совпадение побеждает.
// В диапазоне [40,60) обе ветки дают "keep" независимо от разброса —
// таблица сохранена как есть до подтверждения продуктом.
func decide(pct, score float64) models.Verdict {
	switch {
	case pct < 30 && score < 15:
		return models.VerdictOmit
	case pct < 30:
		return models.VerdictKeep
	case pct >= 60:
		return models.VerdictKeep
	case pct >= 40 && score < 30:
		return models.VerdictKeep
	case pct >= 40:
		return models.VerdictKeep
	default:
		return models.VerdictKeep
	}
}

// sampleStdDev выборочное стандартное отклонение, 0.0 при менее чем двух значениях.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0.0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, v := range values {
		sqDiff += (v - mean) * (v - mean)
	}
	return math.Sqrt(sqDiff / float64(n-1))
}
