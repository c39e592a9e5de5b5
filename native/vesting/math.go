package vesting

import (
	"fmt"

	"github.com/holiman/uint256"

	"launchpad/core/amount"
)

// vestedAt returns floor(total * (t - start) / duration) between the cliff and
// the end of the schedule, zero before the cliff and the full grant after.
// Revoked schedules are evaluated at their revocation time.
func vestedAt(s *Schedule, now int64) (amount.Amount, error) {
	t := now
	if s.Revoked {
		t = s.RevokedAt
	}
	decimals := s.TotalAmount.Decimals()
	if t < s.CliffEnd() {
		return amount.Zero(decimals), nil
	}
	if t >= s.End() {
		return s.TotalAmount, nil
	}
	elapsed := uint256.NewInt(uint64(t - s.StartTime))
	vested, err := s.TotalAmount.MulDiv(elapsed, uint256.NewInt(uint64(s.Duration)), decimals)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("vesting: vested amount: %w", err)
	}
	return vested, nil
}

func releasableAt(s *Schedule, now int64) (amount.Amount, error) {
	vested, err := vestedAt(s, now)
	if err != nil {
		return amount.Amount{}, err
	}
	if vested.Cmp(s.ReleasedAmount) <= 0 {
		return amount.Zero(vested.Decimals()), nil
	}
	return vested.Sub(s.ReleasedAmount)
}

// forfeitedOf is the part of a revoked grant that never vests.
func forfeitedOf(s *Schedule) (amount.Amount, error) {
	if !s.Revoked {
		return amount.Zero(s.TotalAmount.Decimals()), nil
	}
	vested, err := vestedAt(s, s.RevokedAt)
	if err != nil {
		return amount.Amount{}, err
	}
	return s.TotalAmount.Sub(vested)
}

// isActive reports whether the schedule can still release tokens: it is not
// fully released, and if revoked it still holds vested but unreleased tokens.
func isActive(s *Schedule) (bool, error) {
	if s == nil {
		return false, nil
	}
	if s.ReleasedAmount.Cmp(s.TotalAmount) >= 0 {
		return false, nil
	}
	if !s.Revoked {
		return true, nil
	}
	releasable, err := releasableAt(s, s.RevokedAt)
	if err != nil {
		return false, err
	}
	return !releasable.IsZero(), nil
}
