package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicRegistry_Pending(t *testing.T) {
	r := NewTopicRegistry()

	pending := r.Pending(Topics(QoSAtMostOnce, "blynk/temp"))
	assert.Equal(t, []Subscription{{Topic: "blynk/temp", QoS: QoSAtMostOnce}}, pending)

	r.Put(pending...)
	assert.Equal(t, []Subscription{{Topic: "blynk/temp", QoS: QoSAtMostOnce}}, r.List())

	// same QoS again is free
	assert.Empty(t, r.Pending(Topics(QoSAtMostOnce, "blynk/temp")))

	// a new QoS is sent again
	assert.Equal(t,
		[]Subscription{{Topic: "blynk/temp", QoS: QoSAtLeastOnce}},
		r.Pending(Topics(QoSAtLeastOnce, "blynk/temp")),
	)
}

func TestTopicRegistry_Pending_DuplicatesInBatch(t *testing.T) {
	r := NewTopicRegistry()

	pending := r.Pending([]Subscription{
		{Topic: "a", QoS: QoSAtMostOnce},
		{Topic: "b", QoS: QoSAtMostOnce},
		{Topic: "a", QoS: QoSExactlyOnce},
	})

	assert.Equal(t, []Subscription{
		{Topic: "a", QoS: QoSExactlyOnce},
		{Topic: "b", QoS: QoSAtMostOnce},
	}, pending)
}

func TestTopicRegistry_LatestQoSWins(t *testing.T) {
	r := NewTopicRegistry()

	calls := []Subscription{
		{Topic: "blynk/temp", QoS: QoSAtMostOnce},
		{Topic: "blynk/humi", QoS: QoSAtLeastOnce},
		{Topic: "blynk/temp", QoS: QoSExactlyOnce},
		{Topic: "blynk/humi", QoS: QoSAtLeastOnce},
		{Topic: "blynk/temp", QoS: QoSAtLeastOnce},
	}
	for _, call := range calls {
		r.Put(r.Pending([]Subscription{call})...)
	}

	assert.Equal(t, 2, r.Len())
	qos, ok := r.Lookup("blynk/temp")
	assert.True(t, ok)
	assert.Equal(t, QoSAtLeastOnce, qos)

	qos, ok = r.Lookup("blynk/humi")
	assert.True(t, ok)
	assert.Equal(t, QoSAtLeastOnce, qos)
}

func TestTopicRegistry_RemoveAndClear(t *testing.T) {
	r := NewTopicRegistry()
	r.Put(Topics(QoSAtMostOnce, "c", "a", "b")...)

	assert.Equal(t, Topics(QoSAtMostOnce, "a", "b", "c"), r.List())

	r.Remove("b", "missing")
	assert.Equal(t, Topics(QoSAtMostOnce, "a", "c"), r.List())

	_, ok := r.Lookup("b")
	assert.False(t, ok)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.List())
}

func TestQoS_Valid(t *testing.T) {
	assert.True(t, QoSAtMostOnce.Valid())
	assert.True(t, QoSExactlyOnce.Valid())
	assert.False(t, QoS(3).Valid())
}

func TestTopicRegistry_MarkUnreplayed(t *testing.T) {
	r := NewTopicRegistry()
	r.Put(Topics(QoSAtMostOnce, "blynk/temp", "blynk/humi")...)

	r.MarkUnreplayed("blynk/temp", "missing")

	// still registered, so the next reconnect replays it
	assert.Equal(t, Topics(QoSAtMostOnce, "blynk/humi", "blynk/temp"), r.List())
	assert.Equal(t, 2, r.Len())

	// but the same request goes on the wire again
	assert.Equal(t,
		Topics(QoSAtMostOnce, "blynk/temp"),
		r.Pending(Topics(QoSAtMostOnce, "blynk/temp", "blynk/humi")),
	)

	r.Put(Topics(QoSAtMostOnce, "blynk/temp")...)
	assert.Empty(t, r.Pending(Topics(QoSAtMostOnce, "blynk/temp", "blynk/humi")))

	_, ok := r.Lookup("missing")
	assert.False(t, ok)
}
