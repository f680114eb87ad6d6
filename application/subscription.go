package application

import "sort"

// QoS is the MQTT delivery guarantee tier.
type QoS byte

const (
	QoSAtMostOnce QoS = iota
	QoSAtLeastOnce
	QoSExactlyOnce
)

func (q QoS) Valid() bool {
	return q <= QoSExactlyOnce
}

type Subscription struct {
	Topic string
	QoS   QoS
}

// Topics builds subscriptions for several topics sharing one QoS.
func Topics(qos QoS, topics ...string) []Subscription {
	subs := make([]Subscription, 0, len(topics))
	for _, topic := range topics {
		subs = append(subs, Subscription{Topic: topic, QoS: qos})
	}
	return subs
}

func sortSubscriptions(subs []Subscription) {
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Topic < subs[j].Topic
	})
}
