package sale

import (
	"errors"
	"fmt"

	"launchpad/native/common"
)

var (
	ErrUnauthorized = fmt.Errorf("sale: %w", common.ErrUnauthorized)

	ErrNotConfigured    = errors.New("sale: not configured")
	ErrInvalidConfig    = errors.New("sale: invalid config")
	ErrConfigLocked     = errors.New("sale: config locked once started")
	ErrAlreadyStarted   = errors.New("sale: already started")
	ErrSaleNotActive    = errors.New("sale: not active")
	ErrSalePaused       = fmt.Errorf("%w: paused", ErrSaleNotActive)
	ErrNotPaused        = errors.New("sale: not paused")
	ErrSaleNotEnded     = errors.New("sale: not ended")
	ErrAlreadyFinalized = errors.New("sale: already finalized")
	ErrNotFinalized     = errors.New("sale: not finalized")

	ErrBelowMinContribution   = errors.New("sale: below minimum contribution")
	ErrExceedsMaxContribution = errors.New("sale: exceeds maximum contribution")
	ErrHardCapReached         = errors.New("sale: hard cap reached")
	ErrInvalidAmount          = errors.New("sale: invalid amount")
	ErrInvalidParticipant     = errors.New("sale: invalid participant")
	ErrInvalidReferrer        = errors.New("sale: invalid referrer")

	ErrSaleFailed      = errors.New("sale: sale failed")
	ErrSaleSucceeded   = errors.New("sale: sale succeeded")
	ErrNoAllocation    = errors.New("sale: no allocation")
	ErrNoContribution  = errors.New("sale: no contribution")
	ErrAlreadyClaimed  = errors.New("sale: already claimed")
	ErrAlreadyRefunded = errors.New("sale: already refunded")
)

var codes = []struct {
	err  error
	code string
}{
	// ErrSalePaused wraps ErrSaleNotActive so it must be matched first.
	{ErrSalePaused, "SalePaused"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrNotConfigured, "NotConfigured"},
	{ErrInvalidConfig, "InvalidConfig"},
	{ErrConfigLocked, "ConfigLocked"},
	{ErrAlreadyStarted, "AlreadyStarted"},
	{ErrSaleNotActive, "SaleNotActive"},
	{ErrNotPaused, "NotPaused"},
	{ErrSaleNotEnded, "SaleNotEnded"},
	{ErrAlreadyFinalized, "AlreadyFinalized"},
	{ErrNotFinalized, "NotFinalized"},
	{ErrBelowMinContribution, "BelowMinContribution"},
	{ErrExceedsMaxContribution, "ExceedsMaxContribution"},
	{ErrHardCapReached, "HardCapReached"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrInvalidParticipant, "InvalidParticipant"},
	{ErrInvalidReferrer, "InvalidReferrer"},
	{ErrSaleFailed, "SaleFailed"},
	{ErrSaleSucceeded, "SaleSucceeded"},
	{ErrNoAllocation, "NoAllocation"},
	{ErrNoContribution, "NoContribution"},
	{ErrAlreadyClaimed, "AlreadyClaimed"},
	{ErrAlreadyRefunded, "AlreadyRefunded"},
}

// Code returns the stable code name for a sale error, or "" when err is not a
// sale precondition failure.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range codes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return ""
}
