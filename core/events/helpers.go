package events

import (
	"strconv"

	"launchpad/core/amount"
	"launchpad/crypto"
)

func formatAmount(v amount.Amount) string {
	return v.String()
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func boolToString(v bool) string {
	return strconv.FormatBool(v)
}

func formatIdentity(id [20]byte) string {
	return crypto.FormatIdentity(id)
}
