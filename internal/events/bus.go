// Package events provides the async pub/sub contract between dispensing
// write paths and the demand aggregation consumer.
package events

import (
	"sync"
	"time"
)

// DemandEvent is published whenever a medication is dispensed. ItemName is
// the free-text name reported by the dispensing system, not a catalogue key;
// Region may be empty when the source carries no location signal.
type DemandEvent struct {
	ItemName  string    `json:"item_name"`
	Region    string    `json:"region"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// DemandEventHandler processes demand events.
type DemandEventHandler func(event *DemandEvent)

// Package-level singleton for the demand event bus.
var (
	globalDemandBus *DemandEventBus
	demandBusMu     sync.RWMutex
)

// SetGlobalBus installs the process-wide demand event bus. Wired once at
// startup, before any publisher runs.
func SetGlobalBus(bus *DemandEventBus) {
	demandBusMu.Lock()
	defer demandBusMu.Unlock()
	globalDemandBus = bus
}

// GetGlobalBus returns the process-wide demand event bus, or nil before
// SetGlobalBus has run.
func GetGlobalBus() *DemandEventBus {
	demandBusMu.RLock()
	defer demandBusMu.RUnlock()
	return globalDemandBus
}

// TryPublish hands the event to the global bus. It reports false when no
// bus has been installed yet, letting early callers degrade gracefully.
func TryPublish(event *DemandEvent) bool {
	bus := GetGlobalBus()
	if bus == nil {
		return false
	}
	bus.Publish(event)
	return true
}

const (
	// eventBusBufferSize bounds the async event channel. Once full,
	// further publishes drop their event rather than block.
	eventBusBufferSize = 1000
)

// DemandEventBus is an async pub/sub for demand events. Publish is
// non-blocking: events are sent to a buffered channel and processed by a
// worker goroutine, so dispensing write paths are never blocked by the
// aggregation consumer's DB writes.
type DemandEventBus struct {
	handlers []DemandEventHandler
	mu       sync.RWMutex
	eventCh  chan *DemandEvent
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewDemandEventBus builds a demand event bus with its worker goroutine
// already running.
func NewDemandEventBus() *DemandEventBus {
	b := &DemandEventBus{
		handlers: make([]DemandEventHandler, 0),
		eventCh:  make(chan *DemandEvent, eventBusBufferSize),
		stopCh:   make(chan struct{}),
	}
	go b.processLoop()
	return b
}

// Subscribe adds a handler. Handlers run sequentially on the worker
// goroutine, in subscription order.
func (b *DemandEventBus) Subscribe(handler DemandEventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish queues an event for the worker and returns immediately. A zero
// Timestamp is stamped with the current time. Publishing to a full or
// stopped bus quietly loses the event; demand aggregation tolerates gaps.
func (b *DemandEventBus) Publish(event *DemandEvent) {
	select {
	case <-b.stopCh:
		// Nothing will drain the channel after shutdown.
		return
	default:
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	default:
		// Channel at capacity: the caller wins, the event is lost.
	}
}

// Stop tells the worker to finish up. Idempotent.
func (b *DemandEventBus) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// processLoop is the worker: it feeds queued events to the handlers until
// Stop, then flushes whatever is still buffered.
func (b *DemandEventBus) processLoop() {
	for {
		select {
		case event := <-b.eventCh:
			b.dispatch(event)
		case <-b.stopCh:
			for {
				select {
				case event := <-b.eventCh:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *DemandEventBus) dispatch(event *DemandEvent) {
	b.mu.RLock()
	handlers := make([]DemandEventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.safeCall(handler, event)
	}
}

// safeCall shields the worker goroutine from handler panics.
func (b *DemandEventBus) safeCall(handler DemandEventHandler, event *DemandEvent) {
	defer func() {
		// No logger is plumbed down here; handlers report their own
		// failures.
		recover() //nolint:errcheck // a panicking handler must not take down the worker
	}()
	handler(event)
}
