package vesting

import (
	"fmt"

	"launchpad/core/amount"
	"launchpad/core/events"
)

// Config carries the engine-wide vesting parameters.
type Config struct {
	Controller    [20]byte `json:"controller"`
	TokenDecimals uint8    `json:"tokenDecimals"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Controller == ([20]byte{}) {
		return fmt.Errorf("%w: controller required", ErrInvalidConfig)
	}
	if c.TokenDecimals > amount.MaxDecimals {
		return fmt.Errorf("%w: token decimals %d too large", ErrInvalidConfig, c.TokenDecimals)
	}
	return nil
}

// Schedule is a beneficiary's cliff-and-linear grant. Once revoked, vesting is
// computed at RevokedAt instead of the supplied time.
type Schedule struct {
	Beneficiary    [20]byte      `json:"beneficiary"`
	TotalAmount    amount.Amount `json:"totalAmount"`
	ReleasedAmount amount.Amount `json:"releasedAmount"`
	StartTime      int64         `json:"startTime"`
	Cliff          int64         `json:"cliff"`
	Duration       int64         `json:"duration"`
	Revocable      bool          `json:"revocable"`
	Revoked        bool          `json:"revoked"`
	RevokedAt      int64         `json:"revokedAt,omitempty"`
}

// Clone returns a copy of the schedule.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// CliffEnd is the first instant at which anything vests.
func (s *Schedule) CliffEnd() int64 { return s.StartTime + s.Cliff }

// End is the instant at which the whole grant has vested.
func (s *Schedule) End() int64 { return s.StartTime + s.Duration }

// Registry tracks engine-wide totals and the beneficiary index.
type Registry struct {
	TotalVesting  amount.Amount `json:"totalVesting"`
	TotalReleased amount.Amount `json:"totalReleased"`
	Beneficiaries [][20]byte    `json:"beneficiaries"`
}

func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Beneficiaries = append([][20]byte(nil), r.Beneficiaries...)
	return &clone
}

func (r *Registry) contains(beneficiary [20]byte) bool {
	for _, b := range r.Beneficiaries {
		if b == beneficiary {
			return true
		}
	}
	return false
}

// Totals summarises every schedule managed by the engine.
type Totals struct {
	TotalVesting     amount.Amount `json:"totalVestingAmount"`
	TotalReleased    amount.Amount `json:"totalReleasedAmount"`
	BeneficiaryCount int           `json:"beneficiaryCount"`
}

// Status is a schedule together with amounts computed at a point in time.
type Status struct {
	Schedule   *Schedule     `json:"schedule"`
	Vested     amount.Amount `json:"vested"`
	Releasable amount.Amount `json:"releasable"`
	Forfeited  amount.Amount `json:"forfeited"`
	Active     bool          `json:"active"`
}

// Receipt is returned by mutating operations. Amount is the value released to
// the beneficiary, when any.
type Receipt struct {
	Amount   amount.Amount
	Schedule *Schedule
	Events   []events.Event
}
