// Package notify hands committed prediction alerts to the downstream
// notification subsystem. Per-user delivery (push/SMS/email) happens outside
// the engine; this service resolves audiences from the alert's notify flags
// and stamps the handoff.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/logger"
)

// Audience labels attached to outgoing alerts.
const (
	AudienceVendors     = "vendors"
	AudienceAuthorities = "authorities"
	AudiencePublic      = "public"
)

// markSentTimeout is the context deadline for stamping an alert as sent.
const markSentTimeout = 3 * time.Second

var (
	instance *Service
	once     sync.Once
	mu       sync.RWMutex
)

// Initialize sets up the global notification service instance.
func Initialize(predictions repository.PredictionRepository, log logger.Logger) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		instance = NewService(predictions, log)
	})
}

// GetService returns the global notification service instance, or nil if
// not initialized.
func GetService() *Service {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Service routes prediction alerts to their audiences.
type Service struct {
	predictions repository.PredictionRepository
	log         logger.Logger
	now         func() time.Time
}

// NewService creates a new Service.
func NewService(predictions repository.PredictionRepository, log logger.Logger) *Service {
	return &Service{
		predictions: predictions,
		log:         log,
		now:         time.Now,
	}
}

// AlertCreated implements forecast.AlertNotifier. Alerts are delivered
// regardless of quiet hours; the audience set comes from the alert's notify
// flags. The handoff is stamped on the alert row so operational queries can
// separate pending from dispatched alerts.
func (s *Service) AlertCreated(alert *entities.PredictionAlert, prediction *entities.ShortagePrediction) error {
	audiences := Audiences(alert)

	fields := []logger.Field{
		logger.Uint64("alert_id", uint64(alert.ID)),
		logger.String("type", alert.AlertType),
		logger.String("audiences", strings.Join(audiences, ",")),
		logger.String("message", alert.Message),
	}
	if prediction != nil {
		fields = append(fields,
			logger.String("region", prediction.Region),
			logger.String("severity", prediction.Severity))
	}
	s.log.Info("dispatching prediction alert", fields...)

	ctx, cancel := context.WithTimeout(context.Background(), markSentTimeout)
	defer cancel()
	return s.predictions.MarkAlertSent(ctx, alert.ID, s.now())
}

// Audiences resolves the audience list for an alert from its notify flags.
func Audiences(alert *entities.PredictionAlert) []string {
	var audiences []string
	if alert.NotifyVendors {
		audiences = append(audiences, AudienceVendors)
	}
	if alert.NotifyAuthorities {
		audiences = append(audiences, AudienceAuthorities)
	}
	if alert.NotifyPublic {
		audiences = append(audiences, AudiencePublic)
	}
	return audiences
}
