package events

import (
	"launchpad/core/amount"
	"launchpad/core/types"
)

const (
	TypeVestingScheduleCreated = "vesting.schedule.created"
	TypeTokensReleased         = "vesting.tokens.released"
	TypeVestingRevoked         = "vesting.revoked"
)

type VestingScheduleCreated struct {
	Beneficiary [20]byte
	TotalAmount amount.Amount
	StartTime   int64
	Cliff       int64
	Duration    int64
	Revocable   bool
}

func (VestingScheduleCreated) EventType() string { return TypeVestingScheduleCreated }

func (e VestingScheduleCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingScheduleCreated,
		Attributes: map[string]string{
			"beneficiary": formatIdentity(e.Beneficiary),
			"totalAmount": formatAmount(e.TotalAmount),
			"startTime":   intToString(e.StartTime),
			"cliff":       intToString(e.Cliff),
			"duration":    intToString(e.Duration),
			"revocable":   boolToString(e.Revocable),
		},
	}
}

type TokensReleased struct {
	Beneficiary [20]byte
	Amount      amount.Amount
}

func (TokensReleased) EventType() string { return TypeTokensReleased }

func (e TokensReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeTokensReleased,
		Attributes: map[string]string{
			"beneficiary": formatIdentity(e.Beneficiary),
			"amount":      formatAmount(e.Amount),
		},
	}
}

// VestingRevoked freezes a schedule at At. Vested is the amount that remains
// releasable in total; Forfeited is the part of the grant that never vests.
type VestingRevoked struct {
	Beneficiary [20]byte
	At          int64
	Vested      amount.Amount
	Forfeited   amount.Amount
}

func (VestingRevoked) EventType() string { return TypeVestingRevoked }

func (e VestingRevoked) Event() *types.Event {
	return &types.Event{
		Type: TypeVestingRevoked,
		Attributes: map[string]string{
			"beneficiary": formatIdentity(e.Beneficiary),
			"at":          intToString(e.At),
			"vested":      formatAmount(e.Vested),
			"forfeited":   formatAmount(e.Forfeited),
		},
	}
}
