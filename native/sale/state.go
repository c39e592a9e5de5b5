package sale

import "sync"

// Update is the complete set of record changes produced by one engine
// operation. Backends apply it atomically.
type Update struct {
	Config        *Config
	Sale          *Sale
	Contributions []*Contribution
	Referrals     []*ReferralStats
}

type engineState interface {
	SaleConfigGet() (*Config, bool, error)
	SaleGet() (*Sale, bool, error)
	ContributionGet(participant [20]byte) (*Contribution, bool, error)
	ReferralGet(referrer [20]byte) (*ReferralStats, bool, error)
	Commit(update *Update) error
}

// MemState is the default in-memory store owned by a single engine.
type MemState struct {
	mu            sync.RWMutex
	config        *Config
	sale          *Sale
	contributions map[[20]byte]*Contribution
	referrals     map[[20]byte]*ReferralStats
}

// NewMemState constructs an empty in-memory store.
func NewMemState() *MemState {
	return &MemState{
		contributions: make(map[[20]byte]*Contribution),
		referrals:     make(map[[20]byte]*ReferralStats),
	}
}

func (m *MemState) SaleConfigGet() (*Config, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return nil, false, nil
	}
	clone := *m.config
	return &clone, true, nil
}

func (m *MemState) SaleGet() (*Sale, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sale == nil {
		return nil, false, nil
	}
	return m.sale.Clone(), true, nil
}

func (m *MemState) ContributionGet(participant [20]byte) (*Contribution, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.contributions[participant]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *MemState) ReferralGet(referrer [20]byte) (*ReferralStats, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.referrals[referrer]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
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
	if update.Sale != nil {
		m.sale = update.Sale.Clone()
	}
	for _, record := range update.Contributions {
		if record != nil {
			m.contributions[record.Participant] = record.Clone()
		}
	}
	for _, record := range update.Referrals {
		if record != nil {
			m.referrals[record.Referrer] = record.Clone()
		}
	}
	return nil
}
