package application

import (
	"github.com/stretchr/testify/mock"
)

type MockMQTTClient struct {
	mock.Mock

	state *Observable[ConnectionState]
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{state: NewObservable(StateDisconnected)}
}

func (m *MockMQTTClient) Connect() {
	m.Called()
}

func (m *MockMQTTClient) Disconnect() {
	m.Called()
}

func (m *MockMQTTClient) Close() {
	m.Called()
}

func (m *MockMQTTClient) Subscribe(subs ...Subscription) error {
	return m.Called(subs).Error(0)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) error {
	return m.Called(topics).Error(0)
}

func (m *MockMQTTClient) Subscriptions() []Subscription {
	return m.Called().Get(0).([]Subscription)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	return m.Called(topic, qos, retained, msg).Error(0)
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.state.Get() == StateConnected
}

func (m *MockMQTTClient) State() ConnectionState {
	return m.state.Get()
}

func (m *MockMQTTClient) WatchState() (<-chan ConnectionState, func()) {
	return m.state.Watch()
}

func (m *MockMQTTClient) Status() MQTTStatus {
	return m.Called().Get(0).(MQTTStatus)
}

// SetState drives the connection state the way transport events would.
func (m *MockMQTTClient) SetState(state ConnectionState) {
	m.state.Set(state)
}

var _ MQTTClient = &MockMQTTClient{}

type MockStateSink struct {
	mock.Mock
}

func (m *MockStateSink) SetConnected(connected bool) {
	m.Called(connected)
}

func (m *MockStateSink) SetTemp(v float64) {
	m.Called(v)
}

func (m *MockStateSink) SetHumi(v float64) {
	m.Called(v)
}

func (m *MockStateSink) SetRssid(v string) {
	m.Called(v)
}

func (m *MockStateSink) SetCheckStatus(v string) {
	m.Called(v)
}

var _ StateSink = &MockStateSink{}
