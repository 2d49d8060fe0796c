package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/studiosim/studio-engine/pkg/event"
	"github.com/studiosim/studio-engine/pkg/market"
	"github.com/studiosim/studio-engine/pkg/sim"
)

// MockStorage is an in-memory Storage for tests. Errors can be injected
// per call site via the Err field.
type MockStorage struct {
	mu sync.RWMutex

	Talents      map[int64]*sim.Talent
	Scenes       map[int64]*sim.Scene
	Blocs        map[int64]*sim.ShootingBloc
	MarketStates map[string]*market.GroupState
	Pending      map[uuid.UUID]*event.Pending
	Counters     map[string]int64

	// Err, when set, is returned from every operation.
	Err error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty in-memory store.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Talents:      make(map[int64]*sim.Talent),
		Scenes:       make(map[int64]*sim.Scene),
		Blocs:        make(map[int64]*sim.ShootingBloc),
		MarketStates: make(map[string]*market.GroupState),
		Pending:      make(map[uuid.UUID]*event.Pending),
		Counters:     make(map[string]int64),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.Err }
func (m *MockStorage) Close() error                   { return m.Err }

func (m *MockStorage) GetTalent(ctx context.Context, id int64) (*sim.Talent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	t, ok := m.Talents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *MockStorage) SaveTalent(ctx context.Context, t *sim.Talent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Talents[t.ID] = t
	return nil
}

func (m *MockStorage) ListTalents(ctx context.Context) ([]*sim.Talent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*sim.Talent, 0, len(m.Talents))
	for _, t := range m.Talents {
		out = append(out, t)
	}
	return out, nil
}

func (m *MockStorage) GetScene(ctx context.Context, id int64) (*sim.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Scenes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MockStorage) SaveScene(ctx context.Context, s *sim.Scene) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Scenes[s.ID] = s
	return nil
}

func (m *MockStorage) ListScenes(ctx context.Context) ([]*sim.Scene, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*sim.Scene, 0, len(m.Scenes))
	for _, s := range m.Scenes {
		out = append(out, s)
	}
	return out, nil
}

func (m *MockStorage) DeleteScene(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Scenes, id)
	return nil
}

func (m *MockStorage) GetBloc(ctx context.Context, id int64) (*sim.ShootingBloc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	b, ok := m.Blocs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MockStorage) SaveBloc(ctx context.Context, b *sim.ShootingBloc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Blocs[b.ID] = b
	return nil
}

func (m *MockStorage) ListBlocs(ctx context.Context) ([]*sim.ShootingBloc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]*sim.ShootingBloc, 0, len(m.Blocs))
	for _, b := range m.Blocs {
		out = append(out, b)
	}
	return out, nil
}

func (m *MockStorage) GetMarketState(ctx context.Context, name string) (*market.GroupState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.MarketStates[name]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *MockStorage) SaveMarketState(ctx context.Context, s *market.GroupState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.MarketStates[s.Name] = s
	return nil
}

func (m *MockStorage) SavePendingEvent(ctx context.Context, p *event.Pending) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Pending[p.Token] = p
	return nil
}

func (m *MockStorage) LoadPendingEvent(ctx context.Context, token uuid.UUID) (*event.Pending, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.Pending[token]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *MockStorage) DeletePendingEvent(ctx context.Context, token uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.Pending, token)
	return nil
}

func (m *MockStorage) GetCounter(ctx context.Context, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Counters[name], nil
}

func (m *MockStorage) SetCounter(ctx context.Context, name string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Counters[name] = value
	return nil
}

func (m *MockStorage) IncrCounter(ctx context.Context, name string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.Counters[name] += delta
	return m.Counters[name], nil
}
