// Package messaging provides broker-agnostic publish/subscribe abstractions
// so services are not coupled to a specific message bus implementation.
package messaging

import (
	"context"
	"time"
)

// Message represents a message received from or sent to the message bus.
type Message struct {
	// Subject is the topic the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Reply is an optional subject for request/reply patterns.
	Reply string

	// Metadata contains optional key-value headers.
	Metadata map[string]string

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// WithHeader sets a metadata header on the message and returns it.
func (m *Message) WithHeader(key, value string) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = value
	return m
}

// MessageHandler processes a received message. Returning an error signals
// processing failure; whether that triggers redelivery depends on the broker.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription represents an active subscription to a subject.
type Subscription interface {
	// Unsubscribe stops delivery on this subscription.
	Unsubscribe() error

	// Subject returns the subject this subscription listens on.
	Subject() string

	// IsValid reports whether the subscription is still active.
	IsValid() bool
}

// Publisher publishes messages to subjects.
type Publisher interface {
	// Publish sends a fire-and-forget message to the subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishJSON marshals data to JSON and publishes it.
	PublishJSON(ctx context.Context, subject string, data interface{}) error

	// Close releases any resources held by the publisher.
	Close() error
}

// Subscriber subscribes to subjects.
type Subscriber interface {
	// Subscribe creates a subscription delivering every message on subject.
	Subscribe(subject string, handler MessageHandler) (Subscription, error)

	// QueueSubscribe creates a load-balanced subscription: workers sharing a
	// queue name each receive a disjoint subset of messages.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)
}

// Client combines publishing and subscribing over one broker connection.
type Client interface {
	Publisher
	Subscriber

	// IsConnected reports whether the client is connected to the broker.
	IsConnected() bool
}
