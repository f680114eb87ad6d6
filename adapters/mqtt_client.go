package adapters

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"blynk-telemetry/application"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	MQTTDefaultConnectTimeout   = 30 * time.Second
	MQTTDefaultPublishTimeout   = 5 * time.Second
	MQTTDefaultSubscribeTimeout = 5 * time.Second
	MQTTDefaultReconnectPeriod  = 3 * time.Second
	MQTTDefaultKeepAlive        = 60 * time.Second

	// milliseconds granted to in-flight work on Disconnect
	mqttDisconnectQuiesce = 250
)

type MQTTClientParams struct {
	ClientID string
	Username string
	Password string
	MQTTUrl  string

	ConnectTimeout   time.Duration
	PublishTimeout   time.Duration
	SubscribeTimeout time.Duration
	ReconnectPeriod  time.Duration
	KeepAlive        time.Duration

	// Registry survives Disconnect; a fresh one is created when nil.
	Registry *application.TopicRegistry
	// OnMessage receives every inbound message.
	OnMessage application.MessageHandler

	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client

	Log zerolog.Logger
}

func (m *MQTTClientParams) EnsureDefaults() {
	if m.ConnectTimeout == 0 {
		m.ConnectTimeout = MQTTDefaultConnectTimeout
	}

	if m.PublishTimeout == 0 {
		m.PublishTimeout = MQTTDefaultPublishTimeout
	}

	if m.SubscribeTimeout == 0 {
		m.SubscribeTimeout = MQTTDefaultSubscribeTimeout
	}

	if m.ReconnectPeriod == 0 {
		m.ReconnectPeriod = MQTTDefaultReconnectPeriod
	}

	if m.KeepAlive == 0 {
		m.KeepAlive = MQTTDefaultKeepAlive
	}

	if m.Registry == nil {
		m.Registry = application.NewTopicRegistry()
	}

	if m.OnMessage == nil {
		m.OnMessage = func(string, []byte) {}
	}

	if m.NewClientFunc == nil {
		m.NewClientFunc = mqtt.NewClient
	}
}

// MQTTClient owns the single live broker connection of the process.
//
// The paho client is created on Connect and dropped on Disconnect. Every
// transport callback carries the paho client it belongs to; callbacks for a
// client that is no longer current are ignored, so a late connect completion
// can never resurrect a connection that was torn down.
type MQTTClient struct {
	params MQTTClientParams

	client   mqtt.Client
	clientMu sync.Mutex

	state    *application.Observable[application.ConnectionState]
	registry *application.TopicRegistry

	msgCount           uint64
	receivedCount      uint64
	msgCountUpdateTime atomic.Pointer[time.Time]

	log zerolog.Logger
}

func NewMQTTClient(params MQTTClientParams) *MQTTClient {
	params.EnsureDefaults()

	m := &MQTTClient{
		params:   params,
		state:    application.NewObservable(application.StateDisconnected),
		registry: params.Registry,
		log:      params.Log,
	}

	t := time.Unix(0, 0)
	m.msgCountUpdateTime.Store(&t)

	return m
}

func (m *MQTTClient) Connect() {
	m.clientMu.Lock()
	if m.client != nil {
		m.clientMu.Unlock()
		m.log.Debug().Str("state", m.State().String()).Msg("connect ignored, connection already exists")
		return
	}
	client := m.newMqttClient()
	m.client = client
	m.state.Set(application.StateConnecting)
	m.clientMu.Unlock()

	m.log.Info().Str("broker", m.params.MQTTUrl).Msg("connecting")
	go m.awaitConnect(client, client.Connect())
}

// awaitConnect only has to deal with failures; success is reported through
// OnConnect.
func (m *MQTTClient) awaitConnect(client mqtt.Client, token mqtt.Token) {
	tc := time.NewTimer(m.params.ConnectTimeout)
	defer tc.Stop()

	select {
	case <-tc.C:
		m.log.Warn().Dur("timeout", m.params.ConnectTimeout).Msg("broker not reachable yet, retrying in background")
		return
	case <-token.Done():
	}

	err := token.Error()
	if err == nil {
		return
	}

	m.clientMu.Lock()
	current := m.client == client
	if current {
		m.client = nil
		m.state.Set(application.StateDisconnected)
	}
	m.clientMu.Unlock()

	if current {
		m.log.Error().Err(err).Msg("connect failed")
	}
}

func (m *MQTTClient) Disconnect() {
	m.clientMu.Lock()
	client := m.client
	m.client = nil
	m.state.Set(application.StateDisconnected)
	m.clientMu.Unlock()

	if client == nil {
		return
	}

	client.Disconnect(mqttDisconnectQuiesce)
	m.log.Info().Msg("disconnected")
}

func (m *MQTTClient) Close() {
	m.Disconnect()
	m.registry.Clear()
}

func (m *MQTTClient) IsConnected() bool {
	return m.State() == application.StateConnected
}

func (m *MQTTClient) State() application.ConnectionState {
	return m.state.Get()
}

func (m *MQTTClient) WatchState() (<-chan application.ConnectionState, func()) {
	return m.state.Watch()
}

func (m *MQTTClient) Status() application.MQTTStatus {
	state := m.State()
	return application.MQTTStatus{
		MessageCount:      atomic.LoadUint64(&m.msgCount),
		ReceivedCount:     atomic.LoadUint64(&m.receivedCount),
		LastTimePublished: *m.msgCountUpdateTime.Load(),
		Subscriptions:     m.registry.Len(),
		State:             state,
		Connected:         state == application.StateConnected,
	}
}

func (m *MQTTClient) Subscriptions() []application.Subscription {
	return m.registry.List()
}

// connectedClient returns the current paho client if the connection is up.
func (m *MQTTClient) connectedClient() (mqtt.Client, bool) {
	m.clientMu.Lock()
	defer m.clientMu.Unlock()
	if m.client == nil || !m.IsConnected() {
		return nil, false
	}
	return m.client, true
}

func (m *MQTTClient) isCurrent(client mqtt.Client) bool {
	m.clientMu.Lock()
	defer m.clientMu.Unlock()
	return m.client != nil && m.client == client
}

func (m *MQTTClient) OnConnect(client mqtt.Client) {
	if !m.isCurrent(client) {
		m.log.Debug().Msg("ignoring connect of stale client")
		return
	}

	m.log.Info().Msg("connected")
	m.restoreSubscriptions(client)

	m.clientMu.Lock()
	if m.client == client {
		m.state.Set(application.StateConnected)
	}
	m.clientMu.Unlock()
}

func (m *MQTTClient) OnConnectionLost(client mqtt.Client, err error) {
	if !m.isCurrent(client) {
		return
	}
	m.log.Warn().Err(err).Msg("connection lost")

	m.clientMu.Lock()
	if m.client == client {
		m.state.Set(application.StateDisconnected)
	}
	m.clientMu.Unlock()
}

func (m *MQTTClient) OnReconnecting(client mqtt.Client, _ *mqtt.ClientOptions) {
	if !m.isCurrent(client) {
		return
	}
	m.log.Info().Dur("period", m.params.ReconnectPeriod).Msg("reconnecting")

	m.clientMu.Lock()
	if m.client == client {
		m.state.Set(application.StateConnecting)
	}
	m.clientMu.Unlock()
}

func (m *MQTTClient) newMqttClient() mqtt.Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(m.params.MQTTUrl)
	opts.SetClientID(m.params.ClientID)
	opts.SetUsername(m.params.Username)
	opts.SetPassword(m.params.Password)

	// Subscriptions are replayed from the registry, not kept by the broker.
	opts.SetCleanSession(true)
	opts.SetKeepAlive(m.params.KeepAlive)
	opts.SetConnectTimeout(m.params.ConnectTimeout)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(m.params.ReconnectPeriod)
	// reconnects back off from 1s and are capped at the period
	opts.SetMaxReconnectInterval(m.params.ReconnectPeriod)

	opts.SetOrderMatters(true)
	opts.SetDefaultPublishHandler(m.PublishHandler)
	opts.SetOnConnectHandler(m.OnConnect)
	opts.SetConnectionLostHandler(m.OnConnectionLost)
	opts.SetReconnectingHandler(m.OnReconnecting)

	return m.params.NewClientFunc(opts)
}

func waitToken(token mqtt.Token, timeout time.Duration) error {
	tc := time.NewTimer(timeout)
	defer tc.Stop()

	select {
	case <-tc.C:
		return fmt.Errorf("%w after %v", application.ErrTimeout, timeout)
	case <-token.Done():
		return token.Error()
	}
}

var _ application.MQTTClient = &MQTTClient{}
