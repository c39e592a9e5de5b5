package rpc

import "net/http"

const (
	moduleSale    = "sale"
	moduleVesting = "vesting"
)

type method struct {
	module string
	// write marks state-changing methods, which the module pause guard halts.
	write   bool
	handler func(r *http.Request, req *RPCRequest) (interface{}, error)
}

func (s *Server) registerMethods() map[string]method {
	return map[string]method{
		"sale_start":        {moduleSale, true, s.handleSaleStart},
		"sale_finalize":     {moduleSale, true, s.handleSaleFinalize},
		"sale_pause":        {moduleSale, true, s.handleSalePause},
		"sale_unpause":      {moduleSale, true, s.handleSaleUnpause},
		"sale_purchase":     {moduleSale, true, s.handleSalePurchase},
		"sale_claimTokens":  {moduleSale, true, s.handleSaleClaimTokens},
		"sale_claimRefund":  {moduleSale, true, s.handleSaleClaimRefund},
		"sale_info":         {moduleSale, false, s.handleSaleInfo},
		"sale_hasEnded":     {moduleSale, false, s.handleSaleHasEnded},
		"sale_contribution": {moduleSale, false, s.handleSaleContribution},
		"sale_referral":     {moduleSale, false, s.handleSaleReferral},

		"vesting_create":        {moduleVesting, true, s.handleVestingCreate},
		"vesting_release":       {moduleVesting, true, s.handleVestingRelease},
		"vesting_revoke":        {moduleVesting, true, s.handleVestingRevoke},
		"vesting_schedule":      {moduleVesting, false, s.handleVestingSchedule},
		"vesting_beneficiaries": {moduleVesting, false, s.handleVestingBeneficiaries},
		"vesting_totals":        {moduleVesting, false, s.handleVestingTotals},
	}
}
