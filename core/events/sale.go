package events

import (
	"launchpad/core/amount"
	"launchpad/core/types"
)

const (
	TypeSaleStarted     = "sale.started"
	TypeTokensPurchased = "sale.tokens.purchased"
	TypeSaleFinalized   = "sale.finalized"
	TypeTokensClaimed   = "sale.tokens.claimed"
	TypeRefundClaimed   = "sale.refund.claimed"
	TypeSalePaused      = "sale.paused"
	TypeSaleUnpaused    = "sale.unpaused"
)

type SaleStarted struct {
	StartTime int64
	EndTime   int64
}

func (SaleStarted) EventType() string { return TypeSaleStarted }

func (e SaleStarted) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleStarted,
		Attributes: map[string]string{
			"startTime": intToString(e.StartTime),
			"endTime":   intToString(e.EndTime),
		},
	}
}

// TokensPurchased reports a purchase. TokenAmount is the growth of the
// participant's allocation caused by this purchase.
type TokensPurchased struct {
	Participant   [20]byte
	Referrer      *[20]byte
	PaymentAmount amount.Amount
	TokenAmount   amount.Amount
}

func (TokensPurchased) EventType() string { return TypeTokensPurchased }

func (e TokensPurchased) Event() *types.Event {
	attrs := map[string]string{
		"participant":   formatIdentity(e.Participant),
		"paymentAmount": formatAmount(e.PaymentAmount),
		"tokenAmount":   formatAmount(e.TokenAmount),
	}
	if e.Referrer != nil {
		attrs["referrer"] = formatIdentity(*e.Referrer)
	}
	return &types.Event{Type: TypeTokensPurchased, Attributes: attrs}
}

type SaleFinalized struct {
	Successful  bool
	TotalRaised amount.Amount
}

func (SaleFinalized) EventType() string { return TypeSaleFinalized }

func (e SaleFinalized) Event() *types.Event {
	return &types.Event{
		Type: TypeSaleFinalized,
		Attributes: map[string]string{
			"successful":  boolToString(e.Successful),
			"totalRaised": formatAmount(e.TotalRaised),
		},
	}
}

type TokensClaimed struct {
	Participant [20]byte
	Amount      amount.Amount
}

func (TokensClaimed) EventType() string { return TypeTokensClaimed }

func (e TokensClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeTokensClaimed,
		Attributes: map[string]string{
			"participant": formatIdentity(e.Participant),
			"amount":      formatAmount(e.Amount),
		},
	}
}

type RefundClaimed struct {
	Participant [20]byte
	Amount      amount.Amount
}

func (RefundClaimed) EventType() string { return TypeRefundClaimed }

func (e RefundClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeRefundClaimed,
		Attributes: map[string]string{
			"participant": formatIdentity(e.Participant),
			"amount":      formatAmount(e.Amount),
		},
	}
}

type SalePaused struct {
	By [20]byte
}

func (SalePaused) EventType() string { return TypeSalePaused }

func (e SalePaused) Event() *types.Event {
	return &types.Event{
		Type:       TypeSalePaused,
		Attributes: map[string]string{"by": formatIdentity(e.By)},
	}
}

type SaleUnpaused struct {
	By [20]byte
}

func (SaleUnpaused) EventType() string { return TypeSaleUnpaused }

func (e SaleUnpaused) Event() *types.Event {
	return &types.Event{
		Type:       TypeSaleUnpaused,
		Attributes: map[string]string{"by": formatIdentity(e.By)},
	}
}
