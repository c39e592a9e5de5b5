package rpc

import (
	"errors"
	"net/http"

	"launchpad/core/amount"
	"launchpad/native/common"
	"launchpad/native/sale"
	"launchpad/native/vesting"
)

var (
	notFoundErrors = []error{
		sale.ErrNoAllocation,
		sale.ErrNoContribution,
		vesting.ErrNoSchedule,
	}
	invalidParamErrors = []error{
		sale.ErrBelowMinContribution,
		sale.ErrExceedsMaxContribution,
		sale.ErrInvalidAmount,
		sale.ErrInvalidParticipant,
		sale.ErrInvalidReferrer,
		sale.ErrInvalidConfig,
		vesting.ErrInvalidAmount,
		vesting.ErrInvalidDuration,
		vesting.ErrInvalidConfig,
		amount.ErrInvalidFormat,
		amount.ErrTooPrecise,
		amount.ErrScaleMismatch,
	}
)

// mapError converts an engine or handler error into its RPC form. Engine
// precondition failures keep their message and carry the stable engine code
// in data.code; anything unrecognised is reported as an internal error.
func mapError(module string, err error) *ModuleError {
	var moduleErr *ModuleError
	if errors.As(err, &moduleErr) {
		return moduleErr
	}
	if errors.Is(err, common.ErrModulePaused) {
		return &ModuleError{HTTPStatus: http.StatusServiceUnavailable, Code: codeModulePaused, Message: module + " module paused"}
	}
	code := engineCode(module, err)
	if code == "" {
		return &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: "internal error"}
	}
	out := &ModuleError{
		HTTPStatus: http.StatusConflict,
		Code:       codeInvalidState,
		Message:    err.Error(),
		Data:       map[string]string{"code": code},
		EngineCode: code,
	}
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		out.HTTPStatus, out.Code = http.StatusForbidden, codeUnauthorized
	case matchesAny(err, notFoundErrors):
		out.HTTPStatus, out.Code = http.StatusNotFound, codeNotFound
	case matchesAny(err, invalidParamErrors):
		out.HTTPStatus, out.Code = http.StatusBadRequest, codeInvalidParams
	}
	return out
}

func engineCode(module string, err error) string {
	switch module {
	case moduleSale:
		return sale.Code(err)
	case moduleVesting:
		return vesting.Code(err)
	}
	return ""
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
