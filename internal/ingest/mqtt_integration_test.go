//go:build integration

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medvault/medvault-go/internal/conf"
	"github.com/medvault/medvault-go/internal/datastore/entities"
	"github.com/medvault/medvault-go/internal/events"
	"github.com/medvault/medvault-go/internal/logger"
	"github.com/medvault/medvault-go/internal/testutil/containers"
)

// Mosquitto broker shared by all integration tests in this package.
var broker *containers.MosquittoContainer

func TestMain(m *testing.M) {
	os.Exit(runWithBroker(m))
}

func runWithBroker(m *testing.M) int {
	var err error
	broker, err = containers.NewMosquittoContainer(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mosquitto container: %v\n", err)
		return 1
	}
	defer func() {
		if err := broker.Terminate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate mosquitto container: %v\n", err)
		}
	}()

	return m.Run()
}

// recordingContextRepo captures stored signals for assertions.
type recordingContextRepo struct {
	mu      sync.Mutex
	signals []entities.ContextSignal
}

func (r *recordingContextRepo) Create(_ context.Context, signal *entities.ContextSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, *signal)
	return nil
}

func (r *recordingContextRepo) ActiveSignals(_ context.Context, _ string, _, _ time.Time) ([]entities.ContextSignal, error) {
	return nil, nil
}

func (r *recordingContextRepo) DeleteExpiredBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingContextRepo) stored() []entities.ContextSignal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.ContextSignal, len(r.signals))
	copy(out, r.signals)
	return out
}

func newTestSubscriber(t *testing.T, clientID string) (*events.DemandEventBus, *recordingContextRepo) {
	t.Helper()

	cfg := &conf.MQTT{
		Enabled:      true,
		Broker:       broker.BrokerURL(),
		ClientID:     clientID,
		TopicDemand:  clientID + "/events/demand",
		TopicContext: clientID + "/signals/context",
	}
	bus := events.NewDemandEventBus()
	contexts := &recordingContextRepo{}
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)

	sub := NewSubscriber(cfg, bus, contexts, log)
	require.NoError(t, sub.Start(t.Context()))
	t.Cleanup(func() {
		sub.Stop()
		bus.Stop()
	})

	return bus, contexts
}

func publishJSON(t *testing.T, topic string, payload any) {
	t.Helper()
	client, err := broker.NewClient("publisher-" + t.Name())
	require.NoError(t, err)
	defer client.Disconnect(250)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	token := client.Publish(topic, 1, false, data)
	require.True(t, token.WaitTimeout(5*time.Second), "publish timed out")
	require.NoError(t, token.Error())
}

func TestSubscriber_DemandEventsReachBus(t *testing.T) {
	bus, _ := newTestSubscriber(t, "demand-bridge")

	var mu sync.Mutex
	var received []events.DemandEvent
	bus.Subscribe(func(event *events.DemandEvent) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, *event)
	})

	publishJSON(t, "demand-bridge/events/demand", map[string]any{
		"item_name": "Insulin",
		"region":    "Lagos",
		"quantity":  3,
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 10*time.Second, 100*time.Millisecond, "demand event never arrived")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Insulin", received[0].ItemName)
	assert.Equal(t, "Lagos", received[0].Region)
	assert.Equal(t, 3, received[0].Quantity)
	assert.False(t, received[0].Timestamp.IsZero(), "bus must stamp missing timestamps")
}

func TestSubscriber_MalformedDemandIsDropped(t *testing.T) {
	bus, _ := newTestSubscriber(t, "demand-malformed")

	var mu sync.Mutex
	count := 0
	bus.Subscribe(func(*events.DemandEvent) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	client, err := broker.NewClient("publisher-malformed")
	require.NoError(t, err)
	defer client.Disconnect(250)
	token := client.Publish("demand-malformed/events/demand", 1, false, []byte("not json"))
	require.True(t, token.WaitTimeout(5*time.Second))

	// Missing item name is also dropped.
	publishJSON(t, "demand-malformed/events/demand", map[string]any{"region": "Lagos", "quantity": 2})
	// A valid event proves the subscription survived the bad messages.
	publishJSON(t, "demand-malformed/events/demand", map[string]any{"item_name": "Paracetamol", "quantity": 1})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, 10*time.Second, 100*time.Millisecond)
}

func TestSubscriber_ContextSignalsAreStored(t *testing.T) {
	_, contexts := newTestSubscriber(t, "context-bridge")

	publishJSON(t, "context-bridge/signals/context", map[string]any{
		"region":      "Lagos",
		"signal_type": "weather",
		"rainfall":    82.5,
	})

	require.Eventually(t, func() bool {
		return len(contexts.stored()) == 1
	}, 10*time.Second, 100*time.Millisecond, "context signal never stored")

	signal := contexts.stored()[0]
	assert.Equal(t, entities.SignalTypeWeather, signal.SignalType)
	assert.Equal(t, "Lagos", signal.Region)
	require.NotNil(t, signal.Rainfall)
	assert.InDelta(t, 82.5, *signal.Rainfall, 1e-9)
	require.NotNil(t, signal.ExpiryDate, "weather signals get a default expiry")
	assert.WithinDuration(t, signal.EffectiveDate.Add(6*time.Hour), *signal.ExpiryDate, time.Second)
}

func TestSubscriber_UnknownSignalTypeIsDropped(t *testing.T) {
	_, contexts := newTestSubscriber(t, "context-invalid")

	publishJSON(t, "context-invalid/signals/context", map[string]any{
		"region":      "Lagos",
		"signal_type": "volcano",
	})
	publishJSON(t, "context-invalid/signals/context", map[string]any{
		"region":      "Lagos",
		"signal_type": "seasonal",
	})

	require.Eventually(t, func() bool {
		return len(contexts.stored()) == 1
	}, 10*time.Second, 100*time.Millisecond)
	assert.Equal(t, entities.SignalTypeSeasonal, contexts.stored()[0].SignalType)
}
