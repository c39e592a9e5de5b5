package vesting

import (
	"errors"
	"fmt"

	"launchpad/native/common"
)

var (
	ErrUnauthorized = fmt.Errorf("vesting: %w", common.ErrUnauthorized)

	ErrNotConfigured   = errors.New("vesting: not configured")
	ErrInvalidConfig   = errors.New("vesting: invalid config")
	ErrScheduleExists  = errors.New("vesting: active schedule exists")
	ErrNoSchedule      = errors.New("vesting: no schedule")
	ErrInvalidDuration = errors.New("vesting: invalid duration")
	ErrInvalidAmount   = errors.New("vesting: invalid amount")
	ErrNotRevocable    = errors.New("vesting: schedule not revocable")
	ErrAlreadyRevoked  = errors.New("vesting: already revoked")
	ErrCliffNotReached = errors.New("vesting: cliff not reached")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, "Unauthorized"},
	{ErrNotConfigured, "NotConfigured"},
	{ErrInvalidConfig, "InvalidConfig"},
	{ErrScheduleExists, "ScheduleExists"},
	{ErrNoSchedule, "NoSchedule"},
	{ErrInvalidDuration, "InvalidDuration"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrNotRevocable, "NotRevocable"},
	{ErrAlreadyRevoked, "AlreadyRevoked"},
	{ErrCliffNotReached, "CliffNotReached"},
}

// Code returns the stable code name for a vesting error, or "" when err is
// not a vesting precondition failure.
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
