// Package ingest subscribes to external feeds over MQTT: demand events from
// dispensing systems and context signals from weather/disease collectors.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/medvault/medvault-go/internal/conf"
	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/datastore/repository"
	"github.com/medvault/medvault-go/internal/events"
	"github.com/medvault/medvault-go/internal/logger"
	"github.com/medvault/medvault-go/internal/metrics"
)

const (
	connectTimeout = 10 * time.Second
	subscribeQoS   = 1
	disconnectMs   = 250
)

// Default signal lifetimes applied when the feed does not carry an expiry.
// Weather observations go stale within hours; disease trends and health
// alerts stay relevant for days.
const (
	weatherSignalTTL    = 6 * time.Hour
	diseaseTrendTTL     = 7 * 24 * time.Hour
	healthAlertTTL      = 3 * 24 * time.Hour
	defaultSignalTTL    = 24 * time.Hour
	signalHandleTimeout = 5 * time.Second
)

// contextPayload is the wire shape of a context signal message. ExpiryDate
// is optional; a missing value gets the per-type default TTL.
type contextPayload struct {
	Region     string `json:"region"`
	SignalType string `json:"signal_type"`

	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Rainfall    *float64 `json:"rainfall,omitempty"`

	DiseaseName    string `json:"disease_name,omitempty"`
	CaseCount      *int   `json:"case_count,omitempty"`
	TrendDirection string `json:"trend_direction,omitempty"`

	AlertLevel   string `json:"alert_level,omitempty"`
	AlertMessage string `json:"alert_message,omitempty"`

	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`

	Confidence *float64 `json:"confidence,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// Subscriber bridges MQTT topics into the demand event bus and the context
// signal store.
type Subscriber struct {
	cfg      *conf.MQTT
	bus      *events.DemandEventBus
	contexts repository.ContextRepository
	log      logger.Logger
	client   paho.Client
	now      func() time.Time
}

// NewSubscriber creates a new Subscriber.
func NewSubscriber(cfg *conf.MQTT, bus *events.DemandEventBus, contexts repository.ContextRepository, log logger.Logger) *Subscriber {
	return &Subscriber{
		cfg:      cfg,
		bus:      bus,
		contexts: contexts,
		log:      log,
		now:      time.Now,
	}
}

// Start connects to the broker and subscribes to the demand and context
// topics. Subscriptions are re-established automatically on reconnect.
func (s *Subscriber) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(s.cfg.Broker).
		SetClientID(s.cfg.ClientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetCleanSession(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			s.log.Warn("mqtt connection lost", logger.Error(err))
		})

	s.client = paho.NewClient(opts)

	token := s.client.Connect()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker %s: %w", s.cfg.Broker, err)
	}
	return nil
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(disconnectMs)
	}
}

// onConnect subscribes on every (re)connect; with clean sessions the broker
// forgets subscriptions between connections.
func (s *Subscriber) onConnect(client paho.Client) {
	s.log.Info("mqtt connected",
		logger.String("broker", s.cfg.Broker),
		logger.String("client_id", s.cfg.ClientID))

	if token := client.Subscribe(s.cfg.TopicDemand, subscribeQoS, s.handleDemand); token.Wait() && token.Error() != nil {
		s.log.Error("failed to subscribe to demand topic",
			logger.String("topic", s.cfg.TopicDemand),
			logger.Error(token.Error()))
	}
	if token := client.Subscribe(s.cfg.TopicContext, subscribeQoS, s.handleContext); token.Wait() && token.Error() != nil {
		s.log.Error("failed to subscribe to context topic",
			logger.String("topic", s.cfg.TopicContext),
			logger.Error(token.Error()))
	}
}

// handleDemand decodes a demand event and publishes it on the bus. The bus
// takes over from here; a full buffer drops the event rather than blocking
// the paho callback goroutine.
func (s *Subscriber) handleDemand(_ paho.Client, msg paho.Message) {
	var event events.DemandEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		metrics.MQTTMessages.WithLabelValues("demand", "invalid").Inc()
		s.log.Warn("discarding malformed demand message",
			logger.String("topic", msg.Topic()),
			logger.Error(err))
		return
	}
	if event.ItemName == "" {
		metrics.MQTTMessages.WithLabelValues("demand", "invalid").Inc()
		s.log.Warn("discarding demand message without item name",
			logger.String("topic", msg.Topic()))
		return
	}

	s.bus.Publish(&event)
	metrics.MQTTMessages.WithLabelValues("demand", "accepted").Inc()
}

// handleContext decodes a context signal and stores it.
func (s *Subscriber) handleContext(_ paho.Client, msg paho.Message) {
	var payload contextPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		metrics.MQTTMessages.WithLabelValues("context", "invalid").Inc()
		s.log.Warn("discarding malformed context message",
			logger.String("topic", msg.Topic()),
			logger.Error(err))
		return
	}
	signal, err := s.signalFromPayload(&payload)
	if err != nil {
		metrics.MQTTMessages.WithLabelValues("context", "invalid").Inc()
		s.log.Warn("discarding invalid context message",
			logger.String("topic", msg.Topic()),
			logger.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), signalHandleTimeout)
	defer cancel()
	if err := s.contexts.Create(ctx, signal); err != nil {
		metrics.MQTTMessages.WithLabelValues("context", "error").Inc()
		s.log.Error("failed to store context signal",
			logger.String("region", signal.Region),
			logger.String("signal_type", signal.SignalType),
			logger.Error(err))
		return
	}
	metrics.MQTTMessages.WithLabelValues("context", "accepted").Inc()
}

func (s *Subscriber) signalFromPayload(p *contextPayload) (*entities.ContextSignal, error) {
	if p.Region == "" {
		return nil, fmt.Errorf("context signal missing region")
	}
	switch p.SignalType {
	case entities.SignalTypeWeather, entities.SignalTypeDiseaseTrend,
		entities.SignalTypePublicHealthAlert, entities.SignalTypeSeasonal,
		entities.SignalTypeEconomic:
	default:
		return nil, fmt.Errorf("unknown signal type %q", p.SignalType)
	}

	now := s.now()
	effective := now
	if p.EffectiveDate != nil {
		effective = *p.EffectiveDate
	}
	expiry := p.ExpiryDate
	if expiry == nil {
		e := effective.Add(defaultTTL(p.SignalType))
		expiry = &e
	}
	confidence := 1.0
	if p.Confidence != nil {
		confidence = *p.Confidence
	}

	return &entities.ContextSignal{
		Region:         p.Region,
		SignalType:     p.SignalType,
		Temperature:    p.Temperature,
		Humidity:       p.Humidity,
		Rainfall:       p.Rainfall,
		DiseaseName:    p.DiseaseName,
		CaseCount:      p.CaseCount,
		TrendDirection: p.TrendDirection,
		AlertLevel:     p.AlertLevel,
		AlertMessage:   p.AlertMessage,
		EffectiveDate:  effective,
		ExpiryDate:     expiry,
		Confidence:     confidence,
		Source:         p.Source,
	}, nil
}

func defaultTTL(signalType string) time.Duration {
	switch signalType {
	case entities.SignalTypeWeather:
		return weatherSignalTTL
	case entities.SignalTypeDiseaseTrend:
		return diseaseTrendTTL
	case entities.SignalTypePublicHealthAlert:
		return healthAlertTTL
	default:
		return defaultSignalTTL
	}
}
