package adapters

import (
	"fmt"
	"strings"
	"sync/atomic"

	"blynk-telemetry/application"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// subackFailure is the SUBACK return code for a refused topic filter.
const subackFailure = 0x80

// subscribeResult is implemented by *mqtt.SubscribeToken.
type subscribeResult interface {
	Result() map[string]byte
}

// Subscribe sends the subscriptions that are new, changed QoS or were not
// taken back after a reconnect in a single SUBSCRIBE and records the ones the
// broker grants. Without a live connection nothing is recorded.
func (m *MQTTClient) Subscribe(subs ...application.Subscription) error {
	for _, sub := range subs {
		if sub.Topic == "" {
			return application.ErrInvalidTopic
		}
		if !sub.QoS.Valid() {
			return application.ErrInvalidQoS
		}
	}

	client, ok := m.connectedClient()
	if !ok {
		m.log.Warn().Int("topics", len(subs)).Msg("subscribe skipped, not connected")
		return application.ErrNotConnected
	}

	pending := m.registry.Pending(subs)
	if len(pending) == 0 {
		return nil
	}

	granted, rejected, err := m.subscribe(client, pending)
	if err != nil {
		m.log.Error().Err(err).Int("topics", len(pending)).Msg("subscribe failed")
		return fmt.Errorf("%w: %w", application.ErrSubscribeFailed, err)
	}

	// the connection may have been torn down while waiting for the ack
	if !m.isCurrent(client) {
		m.log.Warn().Int("topics", len(pending)).Msg("subscribe ack arrived for a closed connection")
		return application.ErrNotConnected
	}

	m.registry.Put(granted...)
	for _, sub := range granted {
		m.log.Info().Str("topic", sub.Topic).Uint8("qos", uint8(sub.QoS)).Msg("subscribed")
	}

	if len(rejected) > 0 {
		m.log.Error().Strs("topics", rejected).Msg("subscribe refused by broker")
		return fmt.Errorf("%w: broker refused %s", application.ErrSubscribeFailed, strings.Join(rejected, ", "))
	}
	return nil
}

// subscribe sends one SUBSCRIBE and splits subs by the SUBACK return codes.
// Topics the broker did not report on count as granted.
func (m *MQTTClient) subscribe(client mqtt.Client, subs []application.Subscription) ([]application.Subscription, []string, error) {
	filters := make(map[string]byte, len(subs))
	for _, sub := range subs {
		filters[sub.Topic] = byte(sub.QoS)
	}

	token := client.SubscribeMultiple(filters, m.PublishHandler)
	if err := waitToken(token, m.params.SubscribeTimeout); err != nil {
		return nil, nil, err
	}

	var codes map[string]byte
	if res, ok := token.(subscribeResult); ok {
		codes = res.Result()
	}

	granted := make([]application.Subscription, 0, len(subs))
	var rejected []string
	for _, sub := range subs {
		if code, ok := codes[sub.Topic]; ok && code >= subackFailure {
			rejected = append(rejected, sub.Topic)
			continue
		}
		granted = append(granted, sub)
	}
	return granted, rejected, nil
}

// restoreSubscriptions replays the whole registry on a fresh session. Topics
// the broker does not take back are flagged so the next Subscribe for them
// goes on the wire again.
func (m *MQTTClient) restoreSubscriptions(client mqtt.Client) {
	subs := m.registry.List()
	if len(subs) == 0 {
		return
	}

	_, rejected, err := m.subscribe(client, subs)
	if err != nil {
		topics := make([]string, 0, len(subs))
		for _, sub := range subs {
			topics = append(topics, sub.Topic)
		}
		m.registry.MarkUnreplayed(topics...)
		m.log.Error().Err(err).Int("topics", len(subs)).Msg("restoring subscriptions failed")
		return
	}

	if len(rejected) > 0 {
		m.registry.MarkUnreplayed(rejected...)
		m.log.Error().Strs("topics", rejected).Msg("broker refused restored subscriptions")
	}
	m.log.Info().Int("topics", len(subs)-len(rejected)).Msg("subscriptions restored")
}

// Unsubscribe removes topics from the registry once the broker acknowledges.
func (m *MQTTClient) Unsubscribe(topics ...string) error {
	for _, topic := range topics {
		if topic == "" {
			return application.ErrInvalidTopic
		}
	}

	client, ok := m.connectedClient()
	if !ok {
		m.log.Warn().Strs("topics", topics).Msg("unsubscribe skipped, not connected")
		return application.ErrNotConnected
	}

	if err := waitToken(client.Unsubscribe(topics...), m.params.SubscribeTimeout); err != nil {
		m.log.Error().Err(err).Strs("topics", topics).Msg("unsubscribe failed")
		return fmt.Errorf("%w: %w", application.ErrUnsubscribeFailed, err)
	}

	m.registry.Remove(topics...)
	m.log.Info().Strs("topics", topics).Msg("unsubscribed")
	return nil
}

// PublishHandler receives every inbound message and hands it to OnMessage.
func (m *MQTTClient) PublishHandler(_ mqtt.Client, msg mqtt.Message) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Str("topic", msg.Topic()).Interface("panic", r).Msg("message handler panic recovered")
		}
	}()

	atomic.AddUint64(&m.receivedCount, 1)
	m.params.OnMessage(msg.Topic(), msg.Payload())
}
