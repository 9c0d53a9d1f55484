package events

import (
	"sync"
)

// DefaultRetention is how many events a stream keeps by default
const DefaultRetention = 100

type stream struct {
	events  []Event
	version int
}

// InMemoryEventStore keeps the most recent events of each stream in memory
type InMemoryEventStore struct {
	streams   map[string]*stream
	retention int
	mutex     sync.RWMutex
}

// NewInMemoryEventStore creates a store keeping at most retention events per
// stream. Older events are dropped but versions keep counting.
func NewInMemoryEventStore(retention int) *InMemoryEventStore {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &InMemoryEventStore{
		streams:   make(map[string]*stream),
		retention: retention,
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st, exists := s.streams[streamID]
	if !exists {
		st = &stream{}
		s.streams[streamID] = st
	}
	st.version++

	eventWithVersion := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: st.version,
	}

	st.events = append(st.events, eventWithVersion)
	if overflow := len(st.events) - s.retention; overflow > 0 {
		st.events = append([]Event(nil), st.events[overflow:]...)
	}

	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	st, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	result := make([]Event, 0, len(st.events))
	for _, event := range st.events {
		if event.Version() >= fromVersion {
			result = append(result, event)
		}
	}
	return result, nil
}
