package sale

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"launchpad/storage"
)

var (
	keyConfig          = []byte("sale/config")
	keySale            = []byte("sale/state")
	prefixContribution = []byte("sale/contribution/")
	prefixReferral     = []byte("sale/referral/")
)

// KVState persists sale records as JSON in a storage.Database. Each Commit is
// written as a single batch.
type KVState struct {
	db storage.Database
}

// NewKVState wraps db.
func NewKVState(db storage.Database) *KVState {
	return &KVState{db: db}
}

func identityKey(prefix []byte, id [20]byte) []byte {
	key := make([]byte, 0, len(prefix)+40)
	key = append(key, prefix...)
	return append(key, hex.EncodeToString(id[:])...)
}

func (s *KVState) load(key []byte, dst interface{}) (bool, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sale store: read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("sale store: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *KVState) SaleConfigGet() (*Config, bool, error) {
	var cfg Config
	ok, err := s.load(keyConfig, &cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	return &cfg, true, nil
}

func (s *KVState) SaleGet() (*Sale, bool, error) {
	var record Sale
	ok, err := s.load(keySale, &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &record, true, nil
}

func (s *KVState) ContributionGet(participant [20]byte) (*Contribution, bool, error) {
	var record Contribution
	ok, err := s.load(identityKey(prefixContribution, participant), &record)
	if err != nil || !ok {
		return nil, false, err
	}
	return &record, true, nil
}

func (s *KVState) ReferralGet(referrer [20]byte) (*ReferralStats, bool, error) {
	var record ReferralStats
	ok, err := s.load(identityKey(prefixReferral, referrer), &record)
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
			return fmt.Errorf("sale store: encode %s: %w", key, err)
		}
		batch.Put(key, raw)
		return nil
	}
	if update.Config != nil {
		if err := put(keyConfig, update.Config); err != nil {
			return err
		}
	}
	if update.Sale != nil {
		if err := put(keySale, update.Sale); err != nil {
			return err
		}
	}
	for _, record := range update.Contributions {
		if record == nil {
			continue
		}
		if err := put(identityKey(prefixContribution, record.Participant), record); err != nil {
			return err
		}
	}
	for _, record := range update.Referrals {
		if record == nil {
			continue
		}
		if err := put(identityKey(prefixReferral, record.Referrer), record); err != nil {
			return err
		}
	}
	if err := s.db.Write(batch); err != nil {
		return fmt.Errorf("sale store: commit: %w", err)
	}
	return nil
}

// Participants lists every participant with a recorded contribution in key
// order.
func (s *KVState) Participants() ([][20]byte, error) {
	var out [][20]byte
	err := s.db.Iterate(prefixContribution, func(key, _ []byte) error {
		raw, err := hex.DecodeString(string(key[len(prefixContribution):]))
		if err != nil || len(raw) != 20 {
			return fmt.Errorf("sale store: malformed key %q", key)
		}
		var id [20]byte
		copy(id[:], raw)
		out = append(out, id)
		return nil
	})
	return out, err
}
