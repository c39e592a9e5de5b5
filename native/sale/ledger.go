package sale

import (
	"fmt"

	"launchpad/core/amount"
)

// Config returns the installed sale parameters.
func (e *Engine) Config() (Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, _, err := e.load()
	return cfg, err
}

// Info returns a snapshot of the sale totals as observed at now.
func (e *Engine) Info(now int64) (*Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return nil, err
	}
	remaining, err := remainingTokens(cfg, record)
	if err != nil {
		return nil, err
	}
	return &Info{
		Phase:            effectivePhase(cfg, record, now),
		StoredPhase:      record.Phase,
		StartTime:        record.StartTime,
		EndTime:          record.EndTime,
		TotalRaised:      record.TotalRaised,
		TotalAllocated:   record.TotalAllocated,
		RemainingTokens:  remaining,
		SoftCap:          cfg.SoftCap,
		HardCap:          cfg.HardCap,
		TokenPrice:       cfg.TokenPrice,
		ParticipantCount: record.ParticipantCount,
		ClaimedCount:     record.ClaimedCount,
		RefundedCount:    record.RefundedCount,
		Finalized:        record.Finalized,
		Successful:       record.Successful,
		Paused:           record.Paused,
		HasEnded:         hasEnded(cfg, record, now),
	}, nil
}

// Sale returns a copy of the stored sale record.
func (e *Engine) Sale() (*Sale, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, record, err := e.load()
	if err != nil {
		return nil, err
	}
	return record, nil
}

func remainingTokens(cfg Config, record *Sale) (amount.Amount, error) {
	if record.TotalAllocated.Cmp(cfg.TokensForSale) >= 0 {
		return amount.Zero(cfg.TokenDecimals), nil
	}
	remaining, err := cfg.TokensForSale.Sub(record.TotalAllocated)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("sale engine: remaining tokens: %w", err)
	}
	return remaining, nil
}

// RemainingTokens reports the sale inventory not yet allocated.
func (e *Engine) RemainingTokens() (amount.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return amount.Amount{}, err
	}
	return remainingTokens(cfg, record)
}

// Contribution returns the participant's ledger entry. Participants that never
// purchased yield a zero entry.
func (e *Engine) Contribution(participant [20]byte) (*Contribution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, _, err := e.load()
	if err != nil {
		return nil, err
	}
	record, _, err := e.contribution(cfg, participant)
	return record, err
}

// AllocatedTokens returns the participant's token allocation.
func (e *Engine) AllocatedTokens(participant [20]byte) (amount.Amount, error) {
	record, err := e.Contribution(participant)
	if err != nil {
		return amount.Amount{}, err
	}
	return record.AllocatedTokens, nil
}

// HasClaimed reports whether the participant claimed tokens.
func (e *Engine) HasClaimed(participant [20]byte) (bool, error) {
	record, err := e.Contribution(participant)
	if err != nil {
		return false, err
	}
	return record.Claimed, nil
}

// HasRefunded reports whether the participant took a refund.
func (e *Engine) HasRefunded(participant [20]byte) (bool, error) {
	record, err := e.Contribution(participant)
	if err != nil {
		return false, err
	}
	return record.Refunded, nil
}

// ClaimableTokens returns what ClaimTokens would release right now: the
// allocation of an unclaimed participant in a successful sale, else zero.
func (e *Engine) ClaimableTokens(participant [20]byte) (amount.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return amount.Amount{}, err
	}
	contribution, _, err := e.contribution(cfg, participant)
	if err != nil {
		return amount.Amount{}, err
	}
	if !record.Finalized || !record.Successful || contribution.Claimed {
		return amount.Zero(cfg.TokenDecimals), nil
	}
	return contribution.AllocatedTokens, nil
}

// Referral returns the stats for referrer. Unknown referrers yield zero stats.
func (e *Engine) Referral(referrer [20]byte) (*ReferralStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, _, err := e.load()
	if err != nil {
		return nil, err
	}
	stats, ok, err := e.state.ReferralGet(referrer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ReferralStats{Referrer: referrer, ReferredAmount: amount.Zero(cfg.PaymentDecimals())}, nil
	}
	return stats, nil
}
