package vesting

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"launchpad/storage"
)

var (
	keyConfig      = []byte("vesting/config")
	keyRegistry    = []byte("vesting/registry")
	prefixSchedule = []byte("vesting/schedule/")
)

// KVState persists vesting records as JSON in a storage.Database. Each Commit
// is written as a single batch.
type KVState struct {
	db storage.Database
}

// NewKVState wraps db.
func NewKVState(db storage.Database) *KVState {
	return &KVState{db: db}
}

func scheduleKey(beneficiary [20]byte) []byte {
	key := make([]byte, 0, len(prefixSchedule)+40)
	key = append(key, prefixSchedule...)
	return append(key, hex.EncodeToString(beneficiary[:])...)
}

func (s *KVState) load(key []byte, dst interface{}) (bool, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("vesting store: read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("vesting store: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *KVState) VestingConfigGet() (*Config, bool, error) {
	var cfg Config
	ok, err := s.load(keyConfig, &cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	return &cfg, true, nil
}

func (s *KVState) ScheduleGet(beneficiary [20]byte) (*Schedule, bool, error) {
	var record Schedule
	ok, err := s.load(scheduleKey(beneficiary), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &record, true, nil
}

func (s *KVState) RegistryGet() (*Registry, bool, error) {
	var record Registry
	ok, err := s.load(keyRegistry, &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &record, true, nil
}

func (s *KVState) Commit(update *Update) error {
	if update == nil {
		return nil
	}
	batch := storage.NewBatch()
	put := func(key []byte, record interface{}) error {
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("vesting store: encode %s: %w", key, err)
		}
		batch.Put(key, raw)
		return nil
	}
	if update.Config != nil {
		if err := put(keyConfig, update.Config); err != nil {
			return err
		}
	}
	if update.Schedule != nil {
		if err := put(scheduleKey(update.Schedule.Beneficiary), update.Schedule); err != nil {
			return err
		}
	}
	if update.Registry != nil {
		if err := put(keyRegistry, update.Registry); err != nil {
			return err
		}
	}
	if err := s.db.Write(batch); err != nil {
		return fmt.Errorf("vesting store: commit: %w", err)
	}
	return nil
}

// Schedules returns every stored schedule in key order.
func (s *KVState) Schedules() ([]*Schedule, error) {
	var out []*Schedule
	err := s.db.Iterate(prefixSchedule, func(key, value []byte) error {
		var record Schedule
		if err := json.Unmarshal(value, &record); err != nil {
			return fmt.Errorf("vesting store: decode %s: %w", key, err)
		}
		out = append(out, &record)
		return nil
	})
	return out, err
}
