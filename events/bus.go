package events

import (
	"fmt"
	"strings"
	"sync"
)

// Topic names follow the pattern:
//
//	queue:<name>   — all events for one queue
//	caller:<id>    — events for a specific caller channel
//	queues         — all queue lifecycle events
//	firehose       — everything
const (
	TopicQueues   = "queues"
	TopicFirehose = "firehose"
)

// QueueTopic returns the topic name for a queue.
func QueueTopic(name string) string { return "queue:" + name }

// CallerTopic returns the topic name for a specific caller channel.
func CallerTopic(channelID string) string { return "caller:" + channelID }

// Bus is the process-wide event bus. Grounded on stream.TopicRegistry,
// kept nearly unchanged in mechanism (map of topic to subscriber set,
// copy-then-send to avoid holding the lock during delivery).
type Bus struct {
	mu     sync.RWMutex
	topics map[string]map[string]*Subscriber
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{topics: make(map[string]map[string]*Subscriber)}
}

// Subscribe adds sub to topic, creating the topic if absent.
func (b *Bus) Subscribe(topic string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[string]*Subscriber)
		b.topics[topic] = subs
	}
	subs[sub.ID()] = sub
	sub.addTopic(topic)
}

// Unsubscribe removes a subscriber from topic.
func (b *Bus) Unsubscribe(topic, subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	if sub, exists := subs[subscriberID]; exists {
		sub.removeTopic(topic)
		delete(subs, subscriberID)
	}
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
}

// UnsubscribeAll removes a subscriber from every topic it joined.
func (b *Bus) UnsubscribeAll(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.topics {
		if sub, ok := subs[subscriberID]; ok {
			sub.removeTopic(topic)
			delete(subs, subscriberID)
		}
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}
}

// Publish delivers evt to every topic it should reach: its own Topic
// field, the queue-wide "queues" topic if it is a queue lifecycle
// event, and the firehose. Returns the number of subscribers reached
// (deduplicated across topics).
func (b *Bus) Publish(evt *Event) int {
	topics := []string{TopicFirehose, TopicQueues}
	if evt.Topic != "" {
		topics = append(topics, evt.Topic)
	}

	b.mu.RLock()
	seen := make(map[string]*Subscriber)
	for _, topic := range topics {
		for id, sub := range b.topics[topic] {
			seen[id] = sub
		}
	}
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range seen {
		if sub.send(evt) {
			delivered++
		}
	}
	return delivered
}

// TopicCount returns the number of active topics.
func (b *Bus) TopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// SubscriberCount returns the number of subscribers on topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// ParseTopicEntity splits a "kind:id" topic into its parts. Returns
// ("", "") for global topics like "queues" or "firehose".
func ParseTopicEntity(topic string) (kind, id string) {
	idx := strings.IndexByte(topic, ':')
	if idx < 0 {
		return "", ""
	}
	return topic[:idx], topic[idx+1:]
}

// ValidateTopic checks whether a topic string is well-formed.
func ValidateTopic(topic string) error {
	switch topic {
	case TopicQueues, TopicFirehose:
		return nil
	}
	kind, id := ParseTopicEntity(topic)
	if kind == "" || id == "" {
		return fmt.Errorf("events: invalid topic %q", topic)
	}
	switch kind {
	case "queue", "caller":
		return nil
	default:
		return fmt.Errorf("events: unknown topic kind %q", kind)
	}
}
