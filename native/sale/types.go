package sale

import (
	"fmt"
	"strings"

	"launchpad/core/amount"
	"launchpad/core/events"
)

// Phase is one of the mutually exclusive lifecycle stages of a sale.
type Phase uint8

const (
	PhasePreparation Phase = iota
	PhaseActive
	PhaseFinalization
	PhaseClaim
	PhaseEnded
)

var phaseNames = [...]string{"PREPARATION", "ACTIVE", "FINALIZATION", "CLAIM", "ENDED"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("sale: unknown phase %d", uint8(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText decodes a phase name, case-insensitively.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase resolves a phase name.
func ParsePhase(name string) (Phase, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for i, candidate := range phaseNames {
		if candidate == normalized {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("sale: unknown phase %q", name)
}

// Config carries the immutable parameters of a sale. TokenPrice, caps and
// contribution limits are expressed at the payment scale; TokensForSale at
// TokenDecimals. TokenPrice is the payment needed for one whole token.
type Config struct {
	TokenPrice      amount.Amount `json:"tokenPrice"`
	TokensForSale   amount.Amount `json:"tokensForSale"`
	SoftCap         amount.Amount `json:"softCap"`
	HardCap         amount.Amount `json:"hardCap"`
	MinContribution amount.Amount `json:"minContribution"`
	MaxContribution amount.Amount `json:"maxContribution"`
	TokenDecimals   uint8         `json:"tokenDecimals"`
	SaleDuration    int64         `json:"saleDuration"`
	Controller      [20]byte      `json:"controller"`
}

// PaymentDecimals reports the scale of the payment unit.
func (c Config) PaymentDecimals() uint8 { return c.TokenPrice.Decimals() }

// Validate checks internal consistency of the configuration.
func (c Config) Validate() error {
	scale := c.PaymentDecimals()
	for _, field := range []struct {
		name  string
		value amount.Amount
	}{
		{"softCap", c.SoftCap},
		{"hardCap", c.HardCap},
		{"minContribution", c.MinContribution},
		{"maxContribution", c.MaxContribution},
	} {
		if field.value.Decimals() != scale {
			return fmt.Errorf("%w: %s scale %d does not match payment scale %d", ErrInvalidConfig, field.name, field.value.Decimals(), scale)
		}
	}
	if c.TokensForSale.Decimals() != c.TokenDecimals {
		return fmt.Errorf("%w: tokensForSale scale %d does not match token decimals %d", ErrInvalidConfig, c.TokensForSale.Decimals(), c.TokenDecimals)
	}
	if c.TokenDecimals > amount.MaxDecimals {
		return fmt.Errorf("%w: token decimals %d too large", ErrInvalidConfig, c.TokenDecimals)
	}
	switch {
	case c.TokenPrice.IsZero():
		return fmt.Errorf("%w: token price must be positive", ErrInvalidConfig)
	case c.TokensForSale.IsZero():
		return fmt.Errorf("%w: tokens for sale must be positive", ErrInvalidConfig)
	case c.HardCap.IsZero():
		return fmt.Errorf("%w: hard cap must be positive", ErrInvalidConfig)
	case c.SoftCap.Cmp(c.HardCap) > 0:
		return fmt.Errorf("%w: soft cap exceeds hard cap", ErrInvalidConfig)
	case c.MaxContribution.IsZero():
		return fmt.Errorf("%w: max contribution must be positive", ErrInvalidConfig)
	case c.MinContribution.Cmp(c.MaxContribution) > 0:
		return fmt.Errorf("%w: min contribution exceeds max contribution", ErrInvalidConfig)
	case c.MaxContribution.Cmp(c.HardCap) > 0:
		return fmt.Errorf("%w: max contribution exceeds hard cap", ErrInvalidConfig)
	case c.SaleDuration <= 0:
		return fmt.Errorf("%w: sale duration must be positive", ErrInvalidConfig)
	case c.Controller == ([20]byte{}):
		return fmt.Errorf("%w: controller required", ErrInvalidConfig)
	}
	inventory, err := allocationFor(c, c.HardCap)
	if err != nil {
		return fmt.Errorf("%w: hard cap allocation: %v", ErrInvalidConfig, err)
	}
	if inventory.Cmp(c.TokensForSale) > 0 {
		return fmt.Errorf("%w: hard cap buys %s tokens but only %s are for sale", ErrInvalidConfig, inventory, c.TokensForSale)
	}
	smallest := c.MinContribution
	if smallest.IsZero() {
		smallest = amount.FromUint64(1, scale)
	}
	least, err := allocationFor(c, smallest)
	if err != nil {
		return fmt.Errorf("%w: minimum purchase allocation: %v", ErrInvalidConfig, err)
	}
	if least.IsZero() {
		return fmt.Errorf("%w: minimum purchase of %s buys no tokens", ErrInvalidConfig, smallest)
	}
	return nil
}

// Sale holds the global totals and lifecycle flags of a sale.
type Sale struct {
	Phase            Phase         `json:"phase"`
	StartTime        int64         `json:"startTime"`
	EndTime          int64         `json:"endTime"`
	TotalRaised      amount.Amount `json:"totalRaised"`
	TotalAllocated   amount.Amount `json:"totalAllocated"`
	ParticipantCount uint64        `json:"participantCount"`
	ClaimedCount     uint64        `json:"claimedCount"`
	RefundedCount    uint64        `json:"refundedCount"`
	Finalized        bool          `json:"finalized"`
	Successful       bool          `json:"successful"`
	Paused           bool          `json:"paused"`
}

// Clone returns a copy of the sale record.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// Contribution tracks one participant's cumulative payment and derived
// allocation.
type Contribution struct {
	Participant      [20]byte      `json:"participant"`
	CumulativeAmount amount.Amount `json:"cumulativeAmount"`
	AllocatedTokens  amount.Amount `json:"allocatedTokens"`
	Claimed          bool          `json:"claimed"`
	Refunded         bool          `json:"refunded"`
	Referrer         [20]byte      `json:"referrer"`
}

// Clone returns a copy of the contribution record.
func (c *Contribution) Clone() *Contribution {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// HasReferrer reports whether a referrer has been attributed.
func (c *Contribution) HasReferrer() bool {
	return c != nil && c.Referrer != ([20]byte{})
}

// ReferralStats aggregates purchases attributed to a referrer.
type ReferralStats struct {
	Referrer       [20]byte      `json:"referrer"`
	ReferredAmount amount.Amount `json:"referredAmount"`
	ReferredCount  uint64        `json:"referredCount"`
}

// Clone returns a copy of the referral record.
func (r *ReferralStats) Clone() *ReferralStats {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// Info is a read-only snapshot of the sale as observed at a point in time.
type Info struct {
	Phase            Phase         `json:"phase"`
	StoredPhase      Phase         `json:"storedPhase"`
	StartTime        int64         `json:"startTime"`
	EndTime          int64         `json:"endTime"`
	TotalRaised      amount.Amount `json:"totalRaised"`
	TotalAllocated   amount.Amount `json:"totalAllocated"`
	RemainingTokens  amount.Amount `json:"remainingTokens"`
	SoftCap          amount.Amount `json:"softCap"`
	HardCap          amount.Amount `json:"hardCap"`
	TokenPrice       amount.Amount `json:"tokenPrice"`
	ParticipantCount uint64        `json:"participantCount"`
	ClaimedCount     uint64        `json:"claimedCount"`
	RefundedCount    uint64        `json:"refundedCount"`
	Finalized        bool          `json:"finalized"`
	Successful       bool          `json:"successful"`
	Paused           bool          `json:"paused"`
	HasEnded         bool          `json:"hasEnded"`
}

// Receipt is returned by administrative and settlement operations. Amount is
// the value the transfer layer must move, when the operation releases any.
type Receipt struct {
	Amount amount.Amount
	Sale   *Sale
	Events []events.Event
}

// PurchaseReceipt is returned by a successful purchase.
type PurchaseReceipt struct {
	Contribution *Contribution
	// TokenAmount is the growth of the participant's allocation.
	TokenAmount amount.Amount
	Sale        *Sale
	Events      []events.Event
}
