package events

import (
	"context"
	"sync"
)

// Memory records published events in-process. Used by tests.
type Memory struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

type RecordedEvent struct {
	Topic string
	Key   string
	Event interface{}
}

func (m *Memory) PublishEvent(_ context.Context, topic, key string, event interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, RecordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (m *Memory) ByTopic(topic string) []RecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RecordedEvent
	for _, e := range m.Events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}
