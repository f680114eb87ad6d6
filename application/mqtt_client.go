package application

import (
	"context"
	"time"
)

type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

type MQTTStatus struct {
	MessageCount      uint64
	ReceivedCount     uint64
	LastTimePublished time.Time
	Subscriptions     int
	State             ConnectionState
	Connected         bool
}

// MessageHandler receives every inbound message, whichever subscription it
// arrived through.
type MessageHandler func(topic string, payload []byte)

type MQTTClient interface {
	// Connect starts the connection in the background. It is a no-op while
	// a connection exists; failures only show up through State.
	Connect()
	// Disconnect closes the connection and keeps the subscription registry.
	Disconnect()
	// Close disconnects and forgets every subscription.
	Close()

	Subscribe(subs ...Subscription) error
	Unsubscribe(topics ...string) error
	Subscriptions() []Subscription

	Publish(topic string, qos byte, retained bool, msg any) error

	IsConnected() bool
	State() ConnectionState
	WatchState() (<-chan ConnectionState, func())
	Status() MQTTStatus
}

// WaitConnected blocks until client reports StateConnected, ctx ends or
// timeout elapses.
func WaitConnected(ctx context.Context, client MQTTClient, timeout time.Duration) error {
	states, stop := client.WatchState()
	defer stop()

	tc := time.NewTimer(timeout)
	defer tc.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tc.C:
			return ErrTimeout
		case state := <-states:
			if state == StateConnected {
				return nil
			}
		}
	}
}
