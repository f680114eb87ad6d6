package application

import "errors"

// Use errors.Is to match these; adapters wrap them with the transport cause.
var (
	ErrNotConnected      = errors.New("mqtt: client not connected")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrTimeout           = errors.New("mqtt: operation timed out")
	ErrInvalidTopic      = errors.New("mqtt: topic cannot be empty")
	ErrInvalidQoS        = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
)
