package vesting

import "sync"

// Update is the complete set of record changes produced by one engine
// operation. Backends apply it atomically.
type Update struct {
	Config   *Config
	Schedule *Schedule
	Registry *Registry
}

type engineState interface {
	VestingConfigGet() (*Config, bool, error)
	ScheduleGet(beneficiary [20]byte) (*Schedule, bool, error)
	RegistryGet() (*Registry, bool, error)
	Commit(update *Update) error
}

// MemState is the default in-memory store owned by a single engine.
type MemState struct {
	mu        sync.RWMutex
	config    *Config
	schedules map[[20]byte]*Schedule
	registry  *Registry
}

// NewMemState constructs an empty in-memory store.
func NewMemState() *MemState {
	return &MemState{schedules: make(map[[20]byte]*Schedule)}
}

func (m *MemState) VestingConfigGet() (*Config, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil, false, nil
	}
	clone := *m.config
	return &clone, true, nil
}

func (m *MemState) ScheduleGet(beneficiary [20]byte) (*Schedule, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.schedules[beneficiary]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *MemState) RegistryGet() (*Registry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.registry == nil {
		return nil, false, nil
	}
	return m.registry.Clone(), true, nil
}

func (m *MemState) Commit(update *Update) error {
	if update == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if update.Config != nil {
		clone := *update.Config
		m.config = &clone
	}
	if update.Schedule != nil {
		m.schedules[update.Schedule.Beneficiary] = update.Schedule.Clone()
	}
	if update.Registry != nil {
		m.registry = update.Registry.Clone()
	}
	return nil
}
