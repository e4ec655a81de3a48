package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault/medvault-go/internal/datastore/entities"
)

func signalAt(region, signalType string, effective time.Time, expiry *time.Time) *entities.ContextSignal {
	return &entities.ContextSignal{
		Region:        region,
		SignalType:    signalType,
		EffectiveDate: effective,
		ExpiryDate:    expiry,
		Confidence:    1.0,
	}
}

func TestContextRepository_ActiveSignalsWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContextRepository(db)

	past := testDay(-10)
	expired := testDay(-1)
	future := testDay(20)
	within := testDay(5)

	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypeWeather, past, &expired)))      // expired
	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypeDiseaseTrend, past, &future)))  // active
	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypeSeasonal, past, nil)))          // open-ended
	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypeEconomic, future, nil)))        // not yet effective
	require.NoError(t, repo.Create(t.Context(), signalAt("Abuja", entities.SignalTypeDiseaseTrend, past, &future)))  // other region
	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypePublicHealthAlert, within, nil))) // becomes effective inside window

	signals, err := repo.ActiveSignals(t.Context(), "Lagos", testDay(0), testDay(14))
	require.NoError(t, err)

	var types []string
	for i := range signals {
		types = append(types, signals[i].SignalType)
	}
	assert.ElementsMatch(t, []string{
		entities.SignalTypeDiseaseTrend,
		entities.SignalTypeSeasonal,
		entities.SignalTypePublicHealthAlert,
	}, types)
}

func TestContextRepository_DeleteExpiredBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContextRepository(db)

	longGone := testDay(-30)
	recent := testDay(-1)

	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypeWeather, testDay(-40), &longGone)))
	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypeWeather, testDay(-2), &recent)))
	require.NoError(t, repo.Create(t.Context(), signalAt("Lagos", entities.SignalTypeSeasonal, testDay(-40), nil))) // open-ended stays

	deleted, err := repo.DeleteExpiredBefore(t.Context(), testDay(-7))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var count int64
	require.NoError(t, db.Model(&entities.ContextSignal{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestContextSignal_ActiveAt(t *testing.T) {
	t.Parallel()

	expiry := testDay(10)
	sig := entities.ContextSignal{EffectiveDate: testDay(0), ExpiryDate: &expiry}

	assert.False(t, sig.ActiveAt(testDay(-1)))
	assert.True(t, sig.ActiveAt(testDay(0)))
	assert.True(t, sig.ActiveAt(testDay(10)))
	assert.False(t, sig.ActiveAt(testDay(11)))

	openEnded := entities.ContextSignal{EffectiveDate: testDay(0)}
	assert.True(t, openEnded.ActiveAt(testDay(1000)))
}
