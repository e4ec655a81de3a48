package forecast

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

// mockDemandRepo is a minimal in-memory mock of DemandRepository.
type mockDemandRepo struct {
	records []entities.DemandRecord
	regions []string
	err     error
	mu      sync.Mutex
}

func (m *mockDemandRepo) RecordDemand(_ context.Context, rec *entities.DemandRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		r := &m.records[i]
		if r.MedicalItemID == rec.MedicalItemID && r.Region == rec.Region && r.PeriodStart.Equal(rec.PeriodStart) {
			r.Count += rec.Count
			return nil
		}
	}
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockDemandRepo) ListWindow(_ context.Context, itemID uint, region string, from, to time.Time) ([]entities.DemandRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.DemandRecord
	for i := range m.records {
		r := m.records[i]
		if r.MedicalItemID == itemID && r.Region == region &&
			!r.PeriodStart.Before(from) && !r.PeriodEnd.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockDemandRepo) DistinctRegions(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.regions, nil
}

// mockInventoryRepo is a minimal in-memory mock of InventoryRepository.
type mockInventoryRepo struct {
	items  []entities.MedicalItem
	supply map[string]int // "itemID/region" → stock
	err    error
}

func supplyKey(itemID uint, region string) string {
	return fmt.Sprintf("%d/%s", itemID, region)
}

func (m *mockInventoryRepo) GetItem(_ context.Context, id uint) (*entities.MedicalItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (m *mockInventoryRepo) GetItemByName(_ context.Context, name string) (*entities.MedicalItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if strings.EqualFold(m.items[i].Name, name) {
			return &m.items[i], nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (m *mockInventoryRepo) SearchItemsByName(_ context.Context, fragment string) ([]entities.MedicalItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []entities.MedicalItem
	for i := range m.items {
		if strings.Contains(strings.ToLower(m.items[i].Name), strings.ToLower(fragment)) {
			out = append(out, m.items[i])
		}
	}
	return out, nil
}

func (m *mockInventoryRepo) ItemsWithStock(_ context.Context) ([]entities.MedicalItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockInventoryRepo) CurrentSupply(_ context.Context, itemID uint, region string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.supply[supplyKey(itemID, region)], nil
}

// mockContextRepo is a minimal in-memory mock of ContextRepository.
type mockContextRepo struct {
	signals []entities.ContextSignal
	err     error
}

func (m *mockContextRepo) Create(_ context.Context, signal *entities.ContextSignal) error {
	if m.err != nil {
		return m.err
	}
	m.signals = append(m.signals, *signal)
	return nil
}

func (m *mockContextRepo) ActiveSignals(_ context.Context, region string, _, to time.Time) ([]entities.ContextSignal, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []entities.ContextSignal
	for i := range m.signals {
		s := m.signals[i]
		if s.Region == region && !s.EffectiveDate.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockContextRepo) DeleteExpiredBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, m.err
}

// mockConfigRepo returns a fixed config.
type mockConfigRepo struct {
	cfg *entities.EngineConfig
	err error
}

func (m *mockConfigRepo) GetOrCreate(_ context.Context, name string) (*entities.EngineConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cfg != nil {
		return m.cfg, nil
	}
	return &entities.EngineConfig{
		Name:                   name,
		ShortageAlertThreshold: entities.DefaultShortageAlertThreshold,
		CriticalAlertThreshold: entities.DefaultCriticalAlertThreshold,
		DemandWeight:           entities.DefaultDemandWeight,
		SupplyWeight:           entities.DefaultSupplyWeight,
		ContextWeight:          entities.DefaultContextWeight,
		HorizonDays:            entities.DefaultHorizonDays,
		RetrainEveryHours:      entities.DefaultRetrainEveryHours,
		Active:                 true,
	}, nil
}

func (m *mockConfigRepo) List(_ context.Context) ([]entities.EngineConfig, error) {
	return nil, m.err
}

// mockPredictionRepo captures upserted predictions, simulating the store's
// key-based idempotence.
type mockPredictionRepo struct {
	stored []entities.ShortagePrediction
	alerts []entities.PredictionAlert
	err    error
	nextID uint
}

func (m *mockPredictionRepo) UpsertBatch(_ context.Context, preds []entities.ShortagePrediction, alertFor repository.AlertFunc) ([]entities.ShortagePrediction, []entities.PredictionAlert, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	var out []entities.ShortagePrediction
	var alerts []entities.PredictionAlert
	for i := range preds {
		p := preds[i]
		idx := m.findStored(&p)
		if idx >= 0 {
			p.ID = m.stored[idx].ID
			m.stored[idx] = p
		} else {
			m.nextID++
			p.ID = m.nextID
			m.stored = append(m.stored, p)
		}
		if alertFor != nil {
			if alert := alertFor(&p); alert != nil {
				alert.PredictionID = p.ID
				m.alerts = append(m.alerts, *alert)
				alerts = append(alerts, *alert)
			}
		}
		out = append(out, p)
	}
	return out, alerts, nil
}

func (m *mockPredictionRepo) findStored(p *entities.ShortagePrediction) int {
	for i := range m.stored {
		s := &m.stored[i]
		if s.MedicalItemID == p.MedicalItemID && s.Region == p.Region && s.ShortageDate.Equal(p.ShortageDate) {
			return i
		}
	}
	return -1
}

func (m *mockPredictionRepo) Get(_ context.Context, _ uint) (*entities.ShortagePrediction, error) {
	return nil, repository.ErrPredictionNotFound
}

func (m *mockPredictionRepo) List(_ context.Context, _ repository.PredictionFilter) ([]entities.ShortagePrediction, error) {
	return m.stored, nil
}

func (m *mockPredictionRepo) ListCritical(_ context.Context, _ string, _ time.Time) ([]entities.ShortagePrediction, error) {
	return nil, nil
}

func (m *mockPredictionRepo) Stats(_ context.Context, _ time.Time) (*repository.PredictionStats, error) {
	return &repository.PredictionStats{}, nil
}

func (m *mockPredictionRepo) ListAlerts(_ context.Context, _ repository.AlertFilter) ([]entities.PredictionAlert, int64, error) {
	return m.alerts, int64(len(m.alerts)), nil
}

func (m *mockPredictionRepo) MarkAlertSent(_ context.Context, alertID uint, at time.Time) error {
	for i := range m.alerts {
		if m.alerts[i].ID == alertID {
			m.alerts[i].Sent = true
			m.alerts[i].SentAt = at
		}
	}
	return nil
}

// mockNotifier records handed-off alerts.
type mockNotifier struct {
	received []entities.PredictionAlert
	err      error
}

func (m *mockNotifier) AlertCreated(alert *entities.PredictionAlert, _ *entities.ShortagePrediction) error {
	m.received = append(m.received, *alert)
	return m.err
}
