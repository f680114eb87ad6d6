package adapters

import (
	"fmt"
	"sync/atomic"
	"time"

	"blynk-telemetry/application"
)

// Publish sends msg only while connected. Nothing is queued for later.
func (m *MQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	if topic == "" {
		return application.ErrInvalidTopic
	}
	if !application.QoS(qos).Valid() {
		return application.ErrInvalidQoS
	}

	client, ok := m.connectedClient()
	if !ok {
		return application.ErrNotConnected
	}

	if err := waitToken(client.Publish(topic, qos, retained, msg), m.params.PublishTimeout); err != nil {
		return fmt.Errorf("%w: %w", application.ErrPublishFailed, err)
	}

	t := time.Now()
	m.msgCountUpdateTime.Store(&t)
	atomic.AddUint64(&m.msgCount, 1)
	return nil
}
