package rpc

import (
	"net/http"
	"strings"

	"launchpad/crypto"
	"launchpad/native/vesting"
)

type vestingCreateParams struct {
	Caller      string `json:"caller,omitempty"`
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"`
	Cliff       int64  `json:"cliff"`
	Duration    int64  `json:"duration"`
	Revocable   bool   `json:"revocable"`
}

type beneficiaryParams struct {
	Caller      string `json:"caller,omitempty"`
	Beneficiary string `json:"beneficiary"`
}

func vestingReceipt(receipt *vesting.Receipt, withAmount bool) *ReceiptResult {
	out := &ReceiptResult{Schedule: toScheduleResult(receipt.Schedule), Events: renderEvents(receipt.Events)}
	if withAmount {
		out.Amount = receipt.Amount.String()
	}
	return out
}

func (s *Server) handleVestingCreate(r *http.Request, req *RPCRequest) (interface{}, error) {
	var params vestingCreateParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	caller, err := s.callerIdentity(r, params.Caller)
	if err != nil {
		return nil, err
	}
	beneficiary, err := parseIdentityParam("beneficiary", params.Beneficiary)
	if err != nil {
		return nil, err
	}
	cfg, err := s.vesting.Config()
	if err != nil {
		return nil, err
	}
	total, err := parseAmountParam("amount", params.Amount, cfg.TokenDecimals)
	if err != nil {
		return nil, err
	}
	receipt, err := s.vesting.CreateSchedule(caller, beneficiary, total, params.Cliff, params.Duration, params.Revocable, s.now())
	if err != nil {
		return nil, err
	}
	return vestingReceipt(receipt, false), nil
}

// handleVestingRelease releases for the named beneficiary, defaulting to the
// caller. Release is permissionless so any authenticated caller may trigger
// it on someone else's behalf.
func (s *Server) handleVestingRelease(r *http.Request, req *RPCRequest) (interface{}, error) {
	var params beneficiaryParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	var beneficiary [20]byte
	var err error
	if strings.TrimSpace(params.Beneficiary) != "" {
		if s.auth.Enabled() {
			if _, err := s.callerIdentity(r, ""); err != nil {
				return nil, err
			}
		}
		beneficiary, err = parseIdentityParam("beneficiary", params.Beneficiary)
	} else {
		beneficiary, err = s.callerIdentity(r, params.Caller)
	}
	if err != nil {
		return nil, err
	}
	receipt, err := s.vesting.Release(beneficiary, s.now())
	if err != nil {
		return nil, err
	}
	return vestingReceipt(receipt, true), nil
}

func (s *Server) handleVestingRevoke(r *http.Request, req *RPCRequest) (interface{}, error) {
	var params beneficiaryParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	caller, err := s.callerIdentity(r, params.Caller)
	if err != nil {
		return nil, err
	}
	beneficiary, err := parseIdentityParam("beneficiary", params.Beneficiary)
	if err != nil {
		return nil, err
	}
	receipt, err := s.vesting.Revoke(caller, beneficiary, s.now())
	if err != nil {
		return nil, err
	}
	return vestingReceipt(receipt, false), nil
}

func (s *Server) handleVestingSchedule(_ *http.Request, req *RPCRequest) (interface{}, error) {
	var params beneficiaryParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	beneficiary, err := parseIdentityParam("beneficiary", params.Beneficiary)
	if err != nil {
		return nil, err
	}
	status, err := s.vesting.Status(beneficiary, s.now())
	if err != nil {
		return nil, err
	}
	return toStatusResult(status), nil
}

func (s *Server) handleVestingBeneficiaries(_ *http.Request, _ *RPCRequest) (interface{}, error) {
	list, err := s.vesting.Beneficiaries()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list))
	for _, id := range list {
		out = append(out, crypto.FormatIdentity(id))
	}
	return out, nil
}

func (s *Server) handleVestingTotals(_ *http.Request, _ *RPCRequest) (interface{}, error) {
	totals, err := s.vesting.Totals()
	if err != nil {
		return nil, err
	}
	return &VestingTotalsResult{
		TotalVesting:     totals.TotalVesting.String(),
		TotalReleased:    totals.TotalReleased.String(),
		BeneficiaryCount: totals.BeneficiaryCount,
	}, nil
}
