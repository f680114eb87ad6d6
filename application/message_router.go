package application

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// TelemetryTopics names the inbound topic for each telemetry field.
type TelemetryTopics struct {
	Temp        string
	Humi        string
	Rssid       string
	CheckStatus string
}

func DefaultTelemetryTopics() TelemetryTopics {
	return TelemetryTopics{
		Temp:        "blynk/temp",
		Humi:        "blynk/humi",
		Rssid:       "blynk/rssid",
		CheckStatus: "blynk/checkStatus",
	}
}

func (t TelemetryTopics) List() []string {
	return []string{t.Temp, t.Humi, t.Rssid, t.CheckStatus}
}

type fieldHandler func(sink StateSink, value string) error

func numberField(set func(StateSink, float64)) fieldHandler {
	return func(sink StateSink, value string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%q is not a finite number", value)
		}
		set(sink, v)
		return nil
	}
}

func textField(set func(StateSink, string)) fieldHandler {
	return func(sink StateSink, value string) error {
		set(sink, value)
		return nil
	}
}

type MessageRouterParams struct {
	Topics TelemetryTopics
	Sink   StateSink

	Log zerolog.Logger
}

// MessageRouter maps inbound telemetry messages onto StateSink fields
// through a fixed topic table built once at construction.
type MessageRouter struct {
	sink     StateSink
	handlers map[string]fieldHandler

	log zerolog.Logger
}

func NewMessageRouter(params MessageRouterParams) (*MessageRouter, error) {
	if params.Sink == nil {
		return nil, fmt.Errorf("state sink is nil")
	}

	table := []struct {
		topic   string
		handler fieldHandler
	}{
		{params.Topics.Temp, numberField(StateSink.SetTemp)},
		{params.Topics.Humi, numberField(StateSink.SetHumi)},
		{params.Topics.Rssid, textField(StateSink.SetRssid)},
		{params.Topics.CheckStatus, textField(StateSink.SetCheckStatus)},
	}

	handlers := make(map[string]fieldHandler, len(table))
	for _, entry := range table {
		if entry.topic == "" {
			return nil, fmt.Errorf("telemetry topic cannot be empty")
		}
		if strings.ContainsAny(entry.topic, "+#") {
			return nil, fmt.Errorf("telemetry topic %q must not contain wildcards", entry.topic)
		}
		if _, dup := handlers[entry.topic]; dup {
			return nil, fmt.Errorf("telemetry topic %q mapped twice", entry.topic)
		}
		handlers[entry.topic] = entry.handler
	}

	return &MessageRouter{sink: params.Sink, handlers: handlers, log: params.Log}, nil
}

// Route applies one inbound message. It reports whether the message updated
// the sink; unknown topics and undecodable payloads are dropped and the
// previous value is kept.
func (r *MessageRouter) Route(topic string, payload []byte) bool {
	handler, ok := r.handlers[topic]
	if !ok {
		return false
	}

	if !utf8.Valid(payload) {
		r.log.Warn().Str("topic", topic).Msg("dropping non utf-8 payload")
		return false
	}

	value := string(payload)
	if err := handler(r.sink, value); err != nil {
		r.log.Warn().Err(err).Str("topic", topic).Str("payload", value).Msg("dropping undecodable payload")
		return false
	}

	r.log.Debug().Str("topic", topic).Str("payload", value).Msg("telemetry updated")
	return true
}

// Handle adapts Route to the MQTT client's message callback.
func (r *MessageRouter) Handle(topic string, payload []byte) {
	r.Route(topic, payload)
}
