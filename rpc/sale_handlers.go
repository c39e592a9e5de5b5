package rpc

import (
	"net/http"
	"strings"

	"launchpad/native/sale"
)

type callerParams struct {
	Caller string `json:"caller,omitempty"`
}

type purchaseParams struct {
	Caller   string `json:"caller,omitempty"`
	Amount   string `json:"amount"`
	Referrer string `json:"referrer,omitempty"`
}

type participantParams struct {
	Participant string `json:"participant"`
}

type referrerParams struct {
	Referrer string `json:"referrer"`
}

func saleReceipt(receipt *sale.Receipt, withAmount bool) *ReceiptResult {
	out := &ReceiptResult{Sale: toSaleResult(receipt.Sale), Events: renderEvents(receipt.Events)}
	if withAmount {
		out.Amount = receipt.Amount.String()
	}
	return out
}

// adminCall decodes the caller and runs a controller operation.
func (s *Server) adminCall(r *http.Request, req *RPCRequest, op func(caller [20]byte) (*sale.Receipt, error)) (interface{}, error) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	caller, err := s.callerIdentity(r, params.Caller)
	if err != nil {
		return nil, err
	}
	receipt, err := op(caller)
	if err != nil {
		return nil, err
	}
	return saleReceipt(receipt, false), nil
}

func (s *Server) handleSaleStart(r *http.Request, req *RPCRequest) (interface{}, error) {
	return s.adminCall(r, req, func(caller [20]byte) (*sale.Receipt, error) {
		return s.sale.Start(caller, s.now())
	})
}

func (s *Server) handleSaleFinalize(r *http.Request, req *RPCRequest) (interface{}, error) {
	return s.adminCall(r, req, func(caller [20]byte) (*sale.Receipt, error) {
		return s.sale.Finalize(caller, s.now())
	})
}

func (s *Server) handleSalePause(r *http.Request, req *RPCRequest) (interface{}, error) {
	return s.adminCall(r, req, s.sale.Pause)
}

func (s *Server) handleSaleUnpause(r *http.Request, req *RPCRequest) (interface{}, error) {
	return s.adminCall(r, req, s.sale.Unpause)
}

func (s *Server) handleSalePurchase(r *http.Request, req *RPCRequest) (interface{}, error) {
	var params purchaseParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	participant, err := s.callerIdentity(r, params.Caller)
	if err != nil {
		return nil, err
	}
	cfg, err := s.sale.Config()
	if err != nil {
		return nil, err
	}
	payment, err := parseAmountParam("amount", params.Amount, cfg.PaymentDecimals())
	if err != nil {
		return nil, err
	}
	var receipt *sale.PurchaseReceipt
	if strings.TrimSpace(params.Referrer) != "" {
		referrer, err := parseIdentityParam("referrer", params.Referrer)
		if err != nil {
			return nil, err
		}
		receipt, err = s.sale.PurchaseWithReferral(participant, referrer, payment, s.now())
		if err != nil {
			return nil, err
		}
	} else {
		receipt, err = s.sale.Purchase(participant, payment, s.now())
		if err != nil {
			return nil, err
		}
	}
	return &ReceiptResult{
		TokenAmount:  receipt.TokenAmount.String(),
		Sale:         toSaleResult(receipt.Sale),
		Contribution: toContributionResult(receipt.Contribution, "0"),
		Events:       renderEvents(receipt.Events),
	}, nil
}

func (s *Server) settlementCall(r *http.Request, req *RPCRequest, op func(participant [20]byte) (*sale.Receipt, error)) (interface{}, error) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	participant, err := s.callerIdentity(r, params.Caller)
	if err != nil {
		return nil, err
	}
	receipt, err := op(participant)
	if err != nil {
		return nil, err
	}
	return saleReceipt(receipt, true), nil
}

func (s *Server) handleSaleClaimTokens(r *http.Request, req *RPCRequest) (interface{}, error) {
	return s.settlementCall(r, req, s.sale.ClaimTokens)
}

func (s *Server) handleSaleClaimRefund(r *http.Request, req *RPCRequest) (interface{}, error) {
	return s.settlementCall(r, req, s.sale.ClaimRefund)
}

func (s *Server) handleSaleInfo(_ *http.Request, _ *RPCRequest) (interface{}, error) {
	info, err := s.sale.Info(s.now())
	if err != nil {
		return nil, err
	}
	return toSaleInfoResult(info), nil
}

func (s *Server) handleSaleHasEnded(_ *http.Request, _ *RPCRequest) (interface{}, error) {
	ended, err := s.sale.HasEnded(s.now())
	if err != nil {
		return nil, err
	}
	return map[string]bool{"hasEnded": ended}, nil
}

func (s *Server) handleSaleContribution(_ *http.Request, req *RPCRequest) (interface{}, error) {
	var params participantParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	participant, err := parseIdentityParam("participant", params.Participant)
	if err != nil {
		return nil, err
	}
	record, err := s.sale.Contribution(participant)
	if err != nil {
		return nil, err
	}
	claimable, err := s.sale.ClaimableTokens(participant)
	if err != nil {
		return nil, err
	}
	return toContributionResult(record, claimable.String()), nil
}

func (s *Server) handleSaleReferral(_ *http.Request, req *RPCRequest) (interface{}, error) {
	var params referrerParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	referrer, err := parseIdentityParam("referrer", params.Referrer)
	if err != nil {
		return nil, err
	}
	stats, err := s.sale.Referral(referrer)
	if err != nil {
		return nil, err
	}
	return toReferralResult(stats), nil
}
