package localstore

import (
	"context"
	"sync"
)

// Memory keeps every session's keys in process.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*memorySession)}
}

func (m *Memory) For(sessionID string) Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &memorySession{values: make(map[string]string), watchers: make(map[int]func(string))}
		m.sessions[sessionID] = s
	}
	return s
}

type memorySession struct {
	mu       sync.Mutex
	values   map[string]string
	watchers map[int]func(string)
	next     int
}

func (s *memorySession) ReadKey(ctx context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok, nil
}

func (s *memorySession) WriteKey(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
	return nil
}

func (s *memorySession) RemoveKey(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
	return nil
}

func (s *memorySession) Broadcast(ctx context.Context, name string) error {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(name)
	}
	return nil
}

func (s *memorySession) Watch(ctx context.Context, onChange func(name string)) (func(), error) {
	s.mu.Lock()
	s.next++
	id := s.next
	s.watchers[id] = onChange
	s.mu.Unlock()

	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			stop()
		}()
	}
	return stop, nil
}
