package events

import (
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	EventBookingCreated  = "booking_created"
	EventBookingApproved = "booking_approved"
	EventBookingRejected = "booking_rejected"
	EventCommentCreated  = "comment_created"
)

// All lists every event type published by the services.
var All = []string{
	EventBookingCreated,
	EventBookingApproved,
	EventBookingRejected,
	EventCommentCreated,
}

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64     `json:"booking_id"`
	ItemID      int64     `json:"item_id"`
	BookerID    int64     `json:"booker_id"`
	OwnerID     int64     `json:"owner_id"`
	Status      string    `json:"status"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	ChangedByID int64     `json:"changed_by_id,omitempty"`
}

// CommentEventPayload is published when a comment is accepted.
type CommentEventPayload struct {
	CommentID int64     `json:"comment_id"`
	ItemID    int64     `json:"item_id"`
	AuthorID  int64     `json:"author_id"`
	Created   time.Time `json:"created"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// ErrorHandler receives handler failures. It must not block.
type ErrorHandler func(event *Event, err error)

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	onError     ErrorHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError installs a callback for failing handlers.
func (b *EventBus) OnError(h ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = h
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	// Handlers run synchronously; caller decides concurrency model.
	for _, handler := range handlers {
		if err := safeCall(handler, event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// SubscribeAll registers handler for each of eventTypes.
func (b *EventBus) SubscribeAll(eventTypes []string, handler EventHandler) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, handler)
	}
}

// safeCall turns a handler panic into an error so publishers never see it.
func safeCall(handler EventHandler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
	}()
	return handler(event)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
