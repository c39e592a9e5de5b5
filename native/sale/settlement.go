package sale

import (
	"launchpad/core/events"
)

// ClaimTokens releases the participant's allocation after a successful sale.
// It succeeds at most once per participant.
func (e *Engine) ClaimTokens(participant [20]byte) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return nil, err
	}
	if !record.Finalized {
		return nil, ErrNotFinalized
	}
	if !record.Successful {
		return nil, ErrSaleFailed
	}
	contribution, _, err := e.contribution(cfg, participant)
	if err != nil {
		return nil, err
	}
	if contribution.AllocatedTokens.IsZero() {
		return nil, ErrNoAllocation
	}
	if contribution.Claimed {
		return nil, ErrAlreadyClaimed
	}
	contribution.Claimed = true
	record.ClaimedCount++
	if record.Phase == PhaseClaim && record.ClaimedCount >= record.ParticipantCount {
		record.Phase = PhaseEnded
	}
	if err := e.state.Commit(&Update{Sale: record, Contributions: []*Contribution{contribution}}); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.TokensClaimed{Participant: participant, Amount: contribution.AllocatedTokens}}
	e.emit(emitted)
	return &Receipt{Amount: contribution.AllocatedTokens, Sale: record.Clone(), Events: emitted}, nil
}

// ClaimRefund returns the participant's full contribution after a failed
// sale. It succeeds at most once per participant.
func (e *Engine) ClaimRefund(participant [20]byte) (*Receipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, record, err := e.load()
	if err != nil {
		return nil, err
	}
	if !record.Finalized {
		return nil, ErrNotFinalized
	}
	if record.Successful {
		return nil, ErrSaleSucceeded
	}
	contribution, _, err := e.contribution(cfg, participant)
	if err != nil {
		return nil, err
	}
	if contribution.CumulativeAmount.IsZero() {
		return nil, ErrNoContribution
	}
	if contribution.Refunded {
		return nil, ErrAlreadyRefunded
	}
	contribution.Refunded = true
	record.RefundedCount++
	if err := e.state.Commit(&Update{Sale: record, Contributions: []*Contribution{contribution}}); err != nil {
		return nil, err
	}
	emitted := []events.Event{events.RefundClaimed{Participant: participant, Amount: contribution.CumulativeAmount}}
	e.emit(emitted)
	return &Receipt{Amount: contribution.CumulativeAmount, Sale: record.Clone(), Events: emitted}, nil
}
