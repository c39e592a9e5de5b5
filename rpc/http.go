package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launchpad/gateway/middleware"
	"launchpad/native/common"
	"launchpad/native/sale"
	"launchpad/native/vesting"
	"launchpad/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	rateLimitKey    = "rpc"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeInvalidState   = -32002
	codeModulePaused   = -32003
	codeNotFound       = -32004
)

// ServerConfig wires the HTTP surface. Zero values disable the optional
// layers.
type ServerConfig struct {
	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimit
	// Pauses halts write methods per module ("sale", "vesting").
	Pauses common.PauseView
	Logger *slog.Logger
	// Clock supplies the time passed to the engines. Defaults to time.Now.
	Clock func() time.Time
}

type Server struct {
	sale    *sale.Engine
	vesting *vesting.Engine

	auth    *middleware.Authenticator
	limiter *middleware.RateLimiter
	pauses  common.PauseView
	logger  *slog.Logger
	clock   func() time.Time
	methods map[string]method
}

func NewServer(saleEngine *sale.Engine, vestingEngine *vesting.Engine, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	limits := map[string]middleware.RateLimit{}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limits[rateLimitKey] = cfg.RateLimit
	}
	limiter := middleware.NewRateLimiter(limits)
	limiter.OnThrottle = func(key string) {
		observability.ModuleMetrics().RecordThrottle(key, "rate_limit")
	}
	s := &Server{
		sale:    saleEngine,
		vesting: vestingEngine,
		auth:    middleware.NewAuthenticator(cfg.Auth, logger),
		limiter: limiter,
		pauses:  cfg.Pauses,
		logger:  logger,
		clock:   clock,
	}
	s.methods = s.registerMethods()
	return s
}

// Router mounts /rpc, /healthz and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(rateLimitKey))
		r.Use(s.auth.Middleware())
		r.Post("/rpc", s.handle)
	})
	return r
}

func (s *Server) now() int64 { return s.clock().Unix() }

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ModuleError carries a fully mapped failure out of a method handler.
type ModuleError struct {
	HTTPStatus int
	Code       int
	Message    string
	Data       interface{}
	// EngineCode is the stable engine error code, when any.
	EngineCode string
}

func (e *ModuleError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidParams(message string, data interface{}) *ModuleError {
	return &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: message, Data: data}
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handle decodes one JSON-RPC request and dispatches it to the method table.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	req.Method = strings.TrimSpace(req.Method)
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}

	started := time.Now()
	var result interface{}
	if m.write {
		if guardErr := common.Guard(s.pauses, m.module); guardErr != nil {
			err = guardErr
		}
	}
	if err == nil {
		result, err = m.handler(r, req)
	}
	if err != nil {
		mapped := mapError(m.module, err)
		observability.ModuleMetrics().Observe(m.module, req.Method, metricCode(mapped), time.Since(started))
		logger := s.logger.With("method", req.Method, "request_id", middleware.RequestIDFrom(r.Context()))
		if mapped.Code == codeServerError {
			logger.Error("rpc: request failed", "error", err)
		} else {
			logger.Debug("rpc: request rejected", "code", mapped.EngineCode, "error", err)
		}
		writeError(w, mapped.HTTPStatus, req.ID, mapped.Code, mapped.Message, mapped.Data)
		return
	}
	observability.ModuleMetrics().Observe(m.module, req.Method, "", time.Since(started))
	if m.write {
		s.publishGauges(m.module)
	}
	writeResult(w, req.ID, result)
}

func metricCode(e *ModuleError) string {
	if e.EngineCode != "" {
		return e.EngineCode
	}
	switch e.Code {
	case codeInvalidParams:
		return "InvalidParams"
	case codeModulePaused:
		return "ModulePaused"
	case codeUnauthorized:
		return "Unauthorized"
	default:
		return "Internal"
	}
}

// publishGauges refreshes the module gauges after a successful write.
func (s *Server) publishGauges(module string) {
	switch module {
	case moduleSale:
		if err := PublishSaleMetrics(s.sale); err != nil {
			s.logger.Warn("rpc: refresh sale metrics", "error", err)
		}
	case moduleVesting:
		if err := PublishVestingMetrics(s.vesting); err != nil {
			s.logger.Warn("rpc: refresh vesting metrics", "error", err)
		}
	}
}

// PublishSaleMetrics copies the stored sale record into the sale gauges.
func PublishSaleMetrics(engine *sale.Engine) error {
	record, err := engine.Sale()
	if err != nil {
		return err
	}
	observability.Sale().Update(observability.SaleSnapshot{
		Phase:          uint8(record.Phase),
		Paused:         record.Paused,
		TotalRaised:    record.TotalRaised,
		TotalAllocated: record.TotalAllocated,
		Participants:   record.ParticipantCount,
		Claimed:        record.ClaimedCount,
		Refunded:       record.RefundedCount,
	})
	return nil
}

// PublishVestingMetrics copies the vesting totals into the vesting gauges.
func PublishVestingMetrics(engine *vesting.Engine) error {
	totals, err := engine.Totals()
	if err != nil {
		return err
	}
	observability.Vesting().Update(totals.TotalVesting, totals.TotalReleased, totals.BeneficiaryCount)
	return nil
}
