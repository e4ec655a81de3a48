package forecast

import (
	"context"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/datastore/repository"
)

// ContextScorer folds active contextual signals for a region into a single
// multiplicative demand-impact factor.
type ContextScorer struct {
	repo repository.ContextRepository
	now  func() time.Time
}

// NewContextScorer creates a new ContextScorer.
func NewContextScorer(repo repository.ContextRepository) *ContextScorer {
	return &ContextScorer{repo: repo, now: time.Now}
}

// Impact returns the compound demand multiplier for signals active within
// [now, now+horizonDays]. The base value is 1.0; qualifying signals
// multiply onto it, so order of application is irrelevant. Signals with no
// matching rule leave the score unchanged.
func (s *ContextScorer) Impact(ctx context.Context, region string, horizonDays int) (float64, error) {
	now := s.now()
	horizon := now.AddDate(0, 0, horizonDays)

	signals, err := s.repo.ActiveSignals(ctx, region, now, horizon)
	if err != nil {
		return 0, err
	}

	impact := 1.0
	for i := range signals {
		impact *= signalMultiplier(&signals[i])
	}
	return impact, nil
}

// signalMultiplier maps one signal to its demand multiplier, 1.0 when no
// rule applies.
func signalMultiplier(sig *entities.ContextSignal) float64 {
	switch sig.SignalType {
	case entities.SignalTypeDiseaseTrend:
		if sig.TrendDirection == entities.TrendUp {
			return diseaseTrendUpMultiplier
		}
	case entities.SignalTypePublicHealthAlert:
		if sig.AlertLevel == entities.AlertLevelHigh {
			return healthAlertHighMultiplier
		}
	case entities.SignalTypeWeather:
		if sig.Rainfall != nil && *sig.Rainfall > heavyRainfallThresholdMM {
			return heavyRainfallMultiplier
		}
	}
	return 1.0
}
