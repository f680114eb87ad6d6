package application

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, client MQTTClient) *ControlGateway {
	t.Helper()

	gateway, err := NewControlGateway(ControlGatewayParams{
		MQTTClient:   client,
		ControlTopic: "blynk/control",
		TestTopic:    "blynk/test",
		Log:          zerolog.Nop(),
	})
	require.NoError(t, err)
	return gateway
}

func TestNewControlGateway(t *testing.T) {
	gateway, err := NewControlGateway(ControlGatewayParams{ControlTopic: "blynk/control"})
	require.Error(t, err)
	require.Nil(t, gateway)

	gateway, err = NewControlGateway(ControlGatewayParams{MQTTClient: NewMockMQTTClient()})
	require.Error(t, err)
	require.Nil(t, gateway)
}

func TestControlGateway_SetOutput(t *testing.T) {
	client := NewMockMQTTClient()
	client.SetState(StateConnected)
	gateway := newTestGateway(t, client)

	client.On("Publish", "blynk/control", byte(0), false, "ON").Return(nil).Once()
	client.On("Publish", "blynk/control", byte(0), false, "OFF").Return(nil).Once()

	require.NoError(t, gateway.SetOutput(true))
	require.NoError(t, gateway.SetOutput(false))

	client.AssertExpectations(t)
}

func TestControlGateway_Publish_NotConnected(t *testing.T) {
	client := NewMockMQTTClient()
	gateway := newTestGateway(t, client)

	for _, state := range []ConnectionState{StateDisconnected, StateConnecting} {
		client.SetState(state)
		err := gateway.SetOutput(true)
		require.ErrorIs(t, err, ErrNotConnected)
	}

	client.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestControlGateway_Publish_Error(t *testing.T) {
	client := NewMockMQTTClient()
	client.SetState(StateConnected)
	gateway := newTestGateway(t, client)

	client.On("Publish", "blynk/test", byte(0), false, "hello").
		Return(fmt.Errorf("%w: broker rejected", ErrPublishFailed)).Once()

	err := gateway.PublishTest("hello")
	assert.ErrorIs(t, err, ErrPublishFailed)

	client.AssertExpectations(t)
}

func TestControlGateway_PublishTest_NoTopic(t *testing.T) {
	client := NewMockMQTTClient()
	client.SetState(StateConnected)

	gateway, err := NewControlGateway(ControlGatewayParams{MQTTClient: client, ControlTopic: "blynk/control"})
	require.NoError(t, err)

	assert.ErrorIs(t, gateway.PublishTest("hello"), ErrInvalidTopic)
}
