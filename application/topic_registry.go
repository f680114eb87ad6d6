package application

import "sync"

// TopicRegistry remembers which topics are subscribed and at which QoS so
// they can be replayed after the broker drops a clean session.
//
// Entries are only removed by Remove or Clear, never on disconnect.
type TopicRegistry struct {
	entries map[string]registryEntry
	mu      sync.RWMutex
}

type registryEntry struct {
	qos QoS
	// unreplayed is set when the broker did not take the entry back after a
	// reconnect; the next Subscribe for the topic goes on the wire again.
	unreplayed bool
}

func NewTopicRegistry() *TopicRegistry {
	return &TopicRegistry{entries: make(map[string]registryEntry)}
}

// Pending returns the subscriptions that still need a SUBSCRIBE: topics not
// yet present, present with a different QoS, or left unreplayed by the last
// reconnect. Duplicates in subs collapse to the last occurrence.
func (r *TopicRegistry) Pending(subs []Subscription) []Subscription {
	last := make(map[string]QoS, len(subs))
	order := make([]string, 0, len(subs))
	for _, sub := range subs {
		if _, seen := last[sub.Topic]; !seen {
			order = append(order, sub.Topic)
		}
		last[sub.Topic] = sub.QoS
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []Subscription
	for _, topic := range order {
		qos := last[topic]
		if current, ok := r.entries[topic]; ok && current.qos == qos && !current.unreplayed {
			continue
		}
		pending = append(pending, Subscription{Topic: topic, QoS: qos})
	}
	return pending
}

func (r *TopicRegistry) Put(subs ...Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range subs {
		r.entries[sub.Topic] = registryEntry{qos: sub.QoS}
	}
}

// MarkUnreplayed flags registered topics whose replay the broker did not
// acknowledge. Unknown topics are ignored.
func (r *TopicRegistry) MarkUnreplayed(topics ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, topic := range topics {
		if entry, ok := r.entries[topic]; ok {
			entry.unreplayed = true
			r.entries[topic] = entry
		}
	}
}

func (r *TopicRegistry) Remove(topics ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, topic := range topics {
		delete(r.entries, topic)
	}
}

func (r *TopicRegistry) Lookup(topic string) (QoS, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[topic]
	return entry.qos, ok
}

// List returns a snapshot sorted by topic.
func (r *TopicRegistry) List() []Subscription {
	r.mu.RLock()
	subs := make([]Subscription, 0, len(r.entries))
	for topic, entry := range r.entries {
		subs = append(subs, Subscription{Topic: topic, QoS: entry.qos})
	}
	r.mu.RUnlock()

	sortSubscriptions(subs)
	return subs
}

func (r *TopicRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *TopicRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]registryEntry)
}
