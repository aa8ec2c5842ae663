package storage

import (
	"context"
	"sync"
)

// Memory keeps every profile's slots in process memory.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{profiles: map[string]map[string]string{}}
}

func (m *Memory) Scope(profileID string) Store {
	return &memoryScope{m: m, profileID: profileID}
}

type memoryScope struct {
	m         *Memory
	profileID string
}

func (s *memoryScope) Get(_ context.Context, key string) (string, bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	v, ok := s.m.profiles[s.profileID][key]
	return v, ok, nil
}

func (s *memoryScope) Set(_ context.Context, key, value string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	slots, ok := s.m.profiles[s.profileID]
	if !ok {
		slots = map[string]string{}
		s.m.profiles[s.profileID] = slots
	}
	slots[key] = value
	return nil
}

func (s *memoryScope) Delete(_ context.Context, key string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.profiles[s.profileID], key)
	return nil
}
