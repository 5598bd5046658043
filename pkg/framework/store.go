package framework

import (
	"context"
	"sync"

	"github.com/gruyaume/oai-5g-cu-operator/pkg/hooktools"
)

// StateStore persists the serialized deferred notice queue between hook
// invocations.
type StateStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// JujuStateStore keeps the queue in Juju unit state under a single key.
type JujuStateStore struct {
	Tools *hooktools.Tools
	Key   string
}

func (s *JujuStateStore) Load(ctx context.Context) ([]byte, error) {
	value, ok, err := s.Tools.StateGet(ctx, s.Key)
	if err != nil || !ok {
		return nil, err
	}
	return []byte(value), nil
}

func (s *JujuStateStore) Save(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return s.Tools.StateDelete(ctx, s.Key)
	}
	return s.Tools.StateSet(ctx, s.Key, string(data))
}

// MemoryStore is a StateStore backed by a byte slice.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Save(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}
