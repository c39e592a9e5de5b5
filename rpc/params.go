package rpc

import (
	"encoding/json"
	"net/http"
	"strings"

	"launchpad/core/amount"
	"launchpad/crypto"
	"launchpad/gateway/middleware"
)

// decodeParams unmarshals the single parameter object of a request into dst.
// Methods without required fields accept an empty parameter list.
func decodeParams(req *RPCRequest, dst interface{}) error {
	switch len(req.Params) {
	case 0:
		return nil
	case 1:
		if err := json.Unmarshal(req.Params[0], dst); err != nil {
			return invalidParams("invalid parameter object", err.Error())
		}
		return nil
	default:
		return invalidParams("expected a single parameter object", nil)
	}
}

func parseIdentityParam(name, value string) ([20]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return [20]byte{}, invalidParams(name+" required", nil)
	}
	id, err := crypto.ParseIdentity(value)
	if err != nil {
		return [20]byte{}, invalidParams("invalid "+name, err.Error())
	}
	return id, nil
}

func parseAmountParam(name, value string, decimals uint8) (amount.Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return amount.Amount{}, invalidParams(name+" required", nil)
	}
	parsed, err := amount.Parse(value, decimals)
	if err != nil {
		return amount.Amount{}, invalidParams("invalid "+name, err.Error())
	}
	return parsed, nil
}

// callerIdentity resolves who is acting. With authentication enabled the
// token subject is authoritative and a conflicting caller parameter is
// rejected; otherwise the caller parameter is required.
func (s *Server) callerIdentity(r *http.Request, param string) ([20]byte, error) {
	if s.auth.Enabled() {
		subject, ok := middleware.Subject(r.Context())
		if !ok {
			return [20]byte{}, &ModuleError{HTTPStatus: http.StatusUnauthorized, Code: codeUnauthorized, Message: "authenticated caller required"}
		}
		caller, err := crypto.ParseIdentity(subject)
		if err != nil {
			return [20]byte{}, &ModuleError{HTTPStatus: http.StatusUnauthorized, Code: codeUnauthorized, Message: "token subject is not a valid identity", Data: err.Error()}
		}
		if strings.TrimSpace(param) != "" {
			claimed, err := crypto.ParseIdentity(param)
			if err != nil || claimed != caller {
				return [20]byte{}, &ModuleError{HTTPStatus: http.StatusForbidden, Code: codeUnauthorized, Message: "caller does not match token subject"}
			}
		}
		return caller, nil
	}
	return parseIdentityParam("caller", param)
}
