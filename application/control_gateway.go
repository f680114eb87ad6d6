package application

import (
	"fmt"

	"github.com/rs/zerolog"
)

const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

type ControlGatewayParams struct {
	MQTTClient MQTTClient

	ControlTopic string
	TestTopic    string

	Log zerolog.Logger
}

// ControlGateway publishes control commands immediately or not at all:
// nothing is queued while disconnected and nothing is retried.
type ControlGateway struct {
	params ControlGatewayParams

	log zerolog.Logger
}

func NewControlGateway(params ControlGatewayParams) (*ControlGateway, error) {
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	if params.ControlTopic == "" {
		return nil, fmt.Errorf("control topic is empty")
	}
	return &ControlGateway{params: params, log: params.Log}, nil
}

func (g *ControlGateway) Publish(topic string, payload string) error {
	if !g.params.MQTTClient.IsConnected() {
		g.log.Warn().Str("topic", topic).Msg("not connected, dropping publish")
		return ErrNotConnected
	}

	err := g.params.MQTTClient.Publish(topic, byte(QoSAtMostOnce), false, payload)
	if err != nil {
		g.log.Error().Err(err).Str("topic", topic).Str("payload", payload).Msg("publish failed")
		return err
	}

	g.log.Info().Str("topic", topic).Str("payload", payload).Msg("published")
	return nil
}

// SetOutput switches the remote binary output.
func (g *ControlGateway) SetOutput(on bool) error {
	payload := PayloadOff
	if on {
		payload = PayloadOn
	}
	return g.Publish(g.params.ControlTopic, payload)
}

func (g *ControlGateway) PublishTest(payload string) error {
	if g.params.TestTopic == "" {
		return ErrInvalidTopic
	}
	return g.Publish(g.params.TestTopic, payload)
}
