package rpc

import (
	"launchpad/core/events"
	"launchpad/core/types"
	"launchpad/crypto"
	"launchpad/native/sale"
	"launchpad/native/vesting"
)

type SaleResult struct {
	Phase            string `json:"phase"`
	StartTime        int64  `json:"startTime"`
	EndTime          int64  `json:"endTime"`
	TotalRaised      string `json:"totalRaised"`
	TotalAllocated   string `json:"totalAllocated"`
	ParticipantCount uint64 `json:"participantCount"`
	ClaimedCount     uint64 `json:"claimedCount"`
	RefundedCount    uint64 `json:"refundedCount"`
	Finalized        bool   `json:"finalized"`
	Successful       bool   `json:"successful"`
	Paused           bool   `json:"paused"`
}

type SaleInfoResult struct {
	Phase            string `json:"phase"`
	StoredPhase      string `json:"storedPhase"`
	StartTime        int64  `json:"startTime"`
	EndTime          int64  `json:"endTime"`
	TotalRaised      string `json:"totalRaised"`
	TotalAllocated   string `json:"totalAllocated"`
	RemainingTokens  string `json:"remainingTokens"`
	SoftCap          string `json:"softCap"`
	HardCap          string `json:"hardCap"`
	TokenPrice       string `json:"tokenPrice"`
	ParticipantCount uint64 `json:"participantCount"`
	ClaimedCount     uint64 `json:"claimedCount"`
	RefundedCount    uint64 `json:"refundedCount"`
	Finalized        bool   `json:"finalized"`
	Successful       bool   `json:"successful"`
	Paused           bool   `json:"paused"`
	HasEnded         bool   `json:"hasEnded"`
}

type ContributionResult struct {
	Participant      string `json:"participant"`
	CumulativeAmount string `json:"cumulativeAmount"`
	AllocatedTokens  string `json:"allocatedTokens"`
	ClaimableTokens  string `json:"claimableTokens"`
	Claimed          bool   `json:"claimed"`
	Refunded         bool   `json:"refunded"`
	Referrer         string `json:"referrer,omitempty"`
}

type ReferralResult struct {
	Referrer       string `json:"referrer"`
	ReferredAmount string `json:"referredAmount"`
	ReferredCount  uint64 `json:"referredCount"`
}

// ReceiptResult is returned by every mutating method.
type ReceiptResult struct {
	Amount       string              `json:"amount,omitempty"`
	TokenAmount  string              `json:"tokenAmount,omitempty"`
	Sale         *SaleResult         `json:"sale,omitempty"`
	Contribution *ContributionResult `json:"contribution,omitempty"`
	Schedule     *ScheduleResult     `json:"schedule,omitempty"`
	Events       []*types.Event      `json:"events"`
}

type ScheduleResult struct {
	Beneficiary    string `json:"beneficiary"`
	TotalAmount    string `json:"totalAmount"`
	ReleasedAmount string `json:"releasedAmount"`
	StartTime      int64  `json:"startTime"`
	Cliff          int64  `json:"cliff"`
	Duration       int64  `json:"duration"`
	Revocable      bool   `json:"revocable"`
	Revoked        bool   `json:"revoked"`
	RevokedAt      int64  `json:"revokedAt,omitempty"`
}

type ScheduleStatusResult struct {
	ScheduleResult
	Vested     string `json:"vested"`
	Releasable string `json:"releasable"`
	Forfeited  string `json:"forfeited"`
	Active     bool   `json:"active"`
}

type VestingTotalsResult struct {
	TotalVesting     string `json:"totalVestingAmount"`
	TotalReleased    string `json:"totalReleasedAmount"`
	BeneficiaryCount int    `json:"beneficiaryCount"`
}

func renderEvents(list []events.Event) []*types.Event {
	rendered := events.RenderAll(list)
	if rendered == nil {
		return []*types.Event{}
	}
	return rendered
}

func toSaleResult(record *sale.Sale) *SaleResult {
	if record == nil {
		return nil
	}
	return &SaleResult{
		Phase:            record.Phase.String(),
		StartTime:        record.StartTime,
		EndTime:          record.EndTime,
		TotalRaised:      record.TotalRaised.String(),
		TotalAllocated:   record.TotalAllocated.String(),
		ParticipantCount: record.ParticipantCount,
		ClaimedCount:     record.ClaimedCount,
		RefundedCount:    record.RefundedCount,
		Finalized:        record.Finalized,
		Successful:       record.Successful,
		Paused:           record.Paused,
	}
}

func toSaleInfoResult(info *sale.Info) *SaleInfoResult {
	return &SaleInfoResult{
		Phase:            info.Phase.String(),
		StoredPhase:      info.StoredPhase.String(),
		StartTime:        info.StartTime,
		EndTime:          info.EndTime,
		TotalRaised:      info.TotalRaised.String(),
		TotalAllocated:   info.TotalAllocated.String(),
		RemainingTokens:  info.RemainingTokens.String(),
		SoftCap:          info.SoftCap.String(),
		HardCap:          info.HardCap.String(),
		TokenPrice:       info.TokenPrice.String(),
		ParticipantCount: info.ParticipantCount,
		ClaimedCount:     info.ClaimedCount,
		RefundedCount:    info.RefundedCount,
		Finalized:        info.Finalized,
		Successful:       info.Successful,
		Paused:           info.Paused,
		HasEnded:         info.HasEnded,
	}
}

func toContributionResult(c *sale.Contribution, claimable string) *ContributionResult {
	if c == nil {
		return nil
	}
	out := &ContributionResult{
		Participant:      crypto.FormatIdentity(c.Participant),
		CumulativeAmount: c.CumulativeAmount.String(),
		AllocatedTokens:  c.AllocatedTokens.String(),
		ClaimableTokens:  claimable,
		Claimed:          c.Claimed,
		Refunded:         c.Refunded,
	}
	if c.HasReferrer() {
		out.Referrer = crypto.FormatIdentity(c.Referrer)
	}
	return out
}

func toReferralResult(r *sale.ReferralStats) *ReferralResult {
	return &ReferralResult{
		Referrer:       crypto.FormatIdentity(r.Referrer),
		ReferredAmount: r.ReferredAmount.String(),
		ReferredCount:  r.ReferredCount,
	}
}

func toScheduleResult(s *vesting.Schedule) *ScheduleResult {
	if s == nil {
		return nil
	}
	return &ScheduleResult{
		Beneficiary:    crypto.FormatIdentity(s.Beneficiary),
		TotalAmount:    s.TotalAmount.String(),
		ReleasedAmount: s.ReleasedAmount.String(),
		StartTime:      s.StartTime,
		Cliff:          s.Cliff,
		Duration:       s.Duration,
		Revocable:      s.Revocable,
		Revoked:        s.Revoked,
		RevokedAt:      s.RevokedAt,
	}
}

func toStatusResult(st *vesting.Status) *ScheduleStatusResult {
	return &ScheduleStatusResult{
		ScheduleResult: *toScheduleResult(st.Schedule),
		Vested:         st.Vested.String(),
		Releasable:     st.Releasable.String(),
		Forfeited:      st.Forfeited.String(),
		Active:         st.Active,
	}
}
