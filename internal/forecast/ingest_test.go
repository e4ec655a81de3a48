package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault/medvault-go/internal/events"
)

func newTestIngestor(inventory *mockInventoryRepo, demand *mockDemandRepo) *DemandIngestor {
	ing := NewDemandIngestor(NewItemMatcher(inventory), demand, "Lagos", testLogger())
	ing.now = fixedNow
	return ing
}

func TestDemandIngestor_RecordsDayBucket(t *testing.T) {
	t.Parallel()

	demand := &mockDemandRepo{}
	ing := newTestIngestor(catalogueRepo(), demand)

	at := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)
	ing.HandleEvent(&events.DemandEvent{ItemName: "Insulin", Region: "Abuja", Quantity: 3, Timestamp: at})

	require.Len(t, demand.records, 1)
	rec := demand.records[0]
	assert.Equal(t, uint(1), rec.MedicalItemID)
	assert.Equal(t, "Abuja", rec.Region)
	assert.Equal(t, 3, rec.Count)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), rec.PeriodStart)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), rec.PeriodEnd)
}

func TestDemandIngestor_SameDayEventsAccumulate(t *testing.T) {
	t.Parallel()

	demand := &mockDemandRepo{}
	ing := newTestIngestor(catalogueRepo(), demand)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ing.HandleEvent(&events.DemandEvent{ItemName: "Insulin", Region: "Lagos", Quantity: 2, Timestamp: at})
	ing.HandleEvent(&events.DemandEvent{ItemName: "insulin pen", Region: "Lagos", Quantity: 1, Timestamp: at.Add(3 * time.Hour)})

	require.Len(t, demand.records, 1, "same item, region and day share one bucket")
	assert.Equal(t, 3, demand.records[0].Count)
}

func TestDemandIngestor_BlankRegionDefaults(t *testing.T) {
	t.Parallel()

	demand := &mockDemandRepo{}
	ing := newTestIngestor(catalogueRepo(), demand)

	ing.HandleEvent(&events.DemandEvent{ItemName: "Paracetamol", Timestamp: fixedNow()})

	require.Len(t, demand.records, 1)
	assert.Equal(t, "Lagos", demand.records[0].Region)
	assert.Equal(t, 1, demand.records[0].Count, "missing quantity counts as one dispense")
}

func TestDemandIngestor_UnmatchedItemDropped(t *testing.T) {
	t.Parallel()

	demand := &mockDemandRepo{}
	ing := newTestIngestor(catalogueRepo(), demand)

	ing.HandleEvent(&events.DemandEvent{ItemName: "Unknown Elixir", Region: "Lagos", Quantity: 5, Timestamp: fixedNow()})

	assert.Empty(t, demand.records)
}

func TestDemandIngestor_RepoFailureDoesNotPanic(t *testing.T) {
	t.Parallel()

	demand := &mockDemandRepo{err: errors.New("db down")}
	ing := newTestIngestor(catalogueRepo(), demand)

	assert.NotPanics(t, func() {
		ing.HandleEvent(&events.DemandEvent{ItemName: "Insulin", Region: "Lagos", Quantity: 1, Timestamp: fixedNow()})
	})
}

func TestDemandIngestor_EndToEndViaBus(t *testing.T) {
	bus := events.NewDemandEventBus()
	defer bus.Stop()

	demand := &mockDemandRepo{}
	ing := newTestIngestor(catalogueRepo(), demand)
	ing.Subscribe(bus)

	bus.Publish(&events.DemandEvent{ItemName: "Insulin", Region: "Lagos", Quantity: 2, Timestamp: fixedNow()})

	require.Eventually(t, func() bool {
		demand.mu.Lock()
		defer demand.mu.Unlock()
		return len(demand.records) == 1
	}, time.Second, 10*time.Millisecond)
}
