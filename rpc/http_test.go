package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"launchpad/core/amount"
	"launchpad/crypto"
	"launchpad/gateway/middleware"
	"launchpad/native/sale"
	"launchpad/native/vesting"
)

const (
	testStart     = int64(1_700_000_000)
	testDay       = int64(24 * 60 * 60)
	testJWTSecret = "rpc-test-secret"
)

var (
	controllerID  = [20]byte{0xc0}
	aliceID       = [20]byte{0xa1}
	bobID         = [20]byte{0xb0}
	controllerHex = crypto.HexIdentity(controllerID)
	aliceHex      = crypto.HexIdentity(aliceID)
	bobHex        = crypto.HexIdentity(bobID)
)

type testClock struct {
	mu  sync.Mutex
	now int64
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Unix(c.now, 0)
}

func (c *testClock) Set(now int64) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

type pauses map[string]bool

func (p pauses) IsPaused(module string) bool { return p[module] }

type testEnv struct {
	server  *Server
	handler http.Handler
	clock   *testClock
}

func newTestEnv(t *testing.T, cfg ServerConfig) *testEnv {
	t.Helper()
	pay := func(v string) amount.Amount { return amount.MustParse(v, 18) }
	saleEngine := sale.NewEngine()
	require.NoError(t, saleEngine.Configure(sale.Config{
		TokenPrice:      pay("0.15"),
		TokensForSale:   pay("150000000"),
		SoftCap:         pay("7500"),
		HardCap:         pay("22500"),
		MinContribution: pay("10"),
		MaxContribution: pay("2000"),
		TokenDecimals:   18,
		SaleDuration:    7 * testDay,
		Controller:      controllerID,
	}))
	vestingEngine := vesting.NewEngine()
	require.NoError(t, vestingEngine.Configure(vesting.Config{Controller: controllerID, TokenDecimals: 0}))

	clock := &testClock{now: testStart}
	cfg.Clock = clock.Now
	server := NewServer(saleEngine, vestingEngine, cfg)
	return &testEnv{server: server, handler: server.Router(), clock: clock}
}

type testResponse struct {
	Status  int
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"error"`
}

func (r *testResponse) engineCode(t *testing.T) string {
	t.Helper()
	require.NotNil(t, r.Error)
	var data struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(r.Error.Data, &data))
	return data.Code
}

func (env *testEnv) call(t *testing.T, token, method string, params interface{}) *testResponse {
	t.Helper()
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	out := &testResponse{Status: rec.Code}
	// middleware rejections are plain text
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return out
}

func decodeResult[T any](t *testing.T, resp *testResponse) T {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	var out T
	require.NoError(t, json.Unmarshal(resp.Result, &out))
	return out
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iss": "launchpad",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func TestSaleLifecycleOverRPC(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	resp := env.call(t, "", "sale_start", map[string]string{"caller": controllerHex})
	started := decodeResult[ReceiptResult](t, resp)
	require.Equal(t, "ACTIVE", started.Sale.Phase)
	require.Len(t, started.Events, 1)
	require.Equal(t, "sale.started", started.Events[0].Type)

	env.clock.Set(testStart + 10)
	resp = env.call(t, "", "sale_purchase", map[string]string{"caller": aliceHex, "amount": "1000"})
	purchase := decodeResult[ReceiptResult](t, resp)
	require.Equal(t, "6666.666666666666666666", purchase.TokenAmount)
	require.Equal(t, "1000", purchase.Contribution.CumulativeAmount)
	require.Equal(t, "sale.tokens.purchased", purchase.Events[0].Type)
	require.Equal(t, crypto.FormatIdentity(aliceID), purchase.Events[0].Attributes["participant"])

	info := decodeResult[SaleInfoResult](t, env.call(t, "", "sale_info", nil))
	require.Equal(t, "ACTIVE", info.Phase)
	require.Equal(t, "1000", info.TotalRaised)
	require.Equal(t, uint64(1), info.ParticipantCount)
	require.False(t, info.HasEnded)

	env.clock.Set(testStart + 7*testDay)
	ended := decodeResult[map[string]bool](t, env.call(t, "", "sale_hasEnded", nil))
	require.True(t, ended["hasEnded"])

	finalized := decodeResult[ReceiptResult](t, env.call(t, "", "sale_finalize", map[string]string{"caller": controllerHex}))
	require.True(t, finalized.Sale.Finalized)
	require.False(t, finalized.Sale.Successful)

	resp = env.call(t, "", "sale_claimTokens", map[string]string{"caller": aliceHex})
	require.Equal(t, http.StatusConflict, resp.Status)
	require.Equal(t, codeInvalidState, resp.Error.Code)
	require.Equal(t, "SaleFailed", resp.engineCode(t))

	refund := decodeResult[ReceiptResult](t, env.call(t, "", "sale_claimRefund", map[string]string{"caller": aliceHex}))
	require.Equal(t, "1000", refund.Amount)

	contribution := decodeResult[ContributionResult](t, env.call(t, "", "sale_contribution", map[string]string{"participant": crypto.FormatIdentity(aliceID)}))
	require.True(t, contribution.Refunded)
	require.Equal(t, "0", contribution.ClaimableTokens)
}

func TestSaleErrorMapping(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	resp := env.call(t, "", "sale_start", map[string]string{"caller": aliceHex})
	require.Equal(t, http.StatusForbidden, resp.Status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
	require.Equal(t, "Unauthorized", resp.engineCode(t))

	resp = env.call(t, "", "sale_purchase", map[string]string{"caller": aliceHex, "amount": "100"})
	require.Equal(t, http.StatusConflict, resp.Status)
	require.Equal(t, "SaleNotActive", resp.engineCode(t))

	decodeResult[ReceiptResult](t, env.call(t, "", "sale_start", map[string]string{"caller": controllerHex}))

	resp = env.call(t, "", "sale_purchase", map[string]string{"caller": aliceHex, "amount": "9.999999"})
	require.Equal(t, http.StatusBadRequest, resp.Status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
	require.Equal(t, "BelowMinContribution", resp.engineCode(t))

	resp = env.call(t, "", "sale_purchase", map[string]string{"caller": aliceHex, "amount": "ten"})
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = env.call(t, "", "sale_purchase", map[string]string{"amount": "10"})
	require.Equal(t, codeInvalidParams, resp.Error.Code)
	require.Contains(t, resp.Error.Message, "caller")

	resp = env.call(t, "", "sale_purchase", map[string]string{"caller": aliceHex, "amount": "10", "referrer": aliceHex})
	require.Equal(t, "InvalidReferrer", resp.engineCode(t))

	resp = env.call(t, "", "sale_unpause", map[string]string{"caller": controllerHex})
	require.Equal(t, "NotPaused", resp.engineCode(t))

	resp = env.call(t, "", "sale_nope", nil)
	require.Equal(t, http.StatusNotFound, resp.Status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestReferralOverRPC(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	decodeResult[ReceiptResult](t, env.call(t, "", "sale_start", map[string]string{"caller": controllerHex}))
	decodeResult[ReceiptResult](t, env.call(t, "", "sale_purchase", map[string]string{"caller": aliceHex, "amount": "100", "referrer": bobHex}))

	stats := decodeResult[ReferralResult](t, env.call(t, "", "sale_referral", map[string]string{"referrer": bobHex}))
	require.Equal(t, "100", stats.ReferredAmount)
	require.Equal(t, uint64(1), stats.ReferredCount)
	require.Equal(t, crypto.FormatIdentity(bobID), stats.Referrer)
}

func TestMalformedRequests(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	cases := []struct {
		body   string
		status int
		code   int
	}{
		{"", http.StatusBadRequest, codeInvalidRequest},
		{"{not json", http.StatusBadRequest, codeParseError},
		{`{"jsonrpc":"1.0","id":1,"method":"sale_info"}`, http.StatusBadRequest, codeInvalidRequest},
		{`{"jsonrpc":"2.0","id":1}`, http.StatusBadRequest, codeInvalidRequest},
		{`{"jsonrpc":"2.0","id":1,"method":"sale_contribution","params":[{},{}]}`, http.StatusBadRequest, codeInvalidParams},
		{`{"jsonrpc":"2.0","id":1,"method":"sale_contribution","params":["x"]}`, http.StatusBadRequest, codeInvalidParams},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, tc.status, rec.Code, tc.body)
		var resp testResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, tc.code, resp.Error.Code, tc.body)
	}

	oversized := strings.Repeat("a", maxRequestBytes+1)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(oversized)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAuthenticatedCallerFromToken(t *testing.T) {
	env := newTestEnv(t, ServerConfig{Auth: middleware.AuthConfig{
		Enabled:        true,
		HMACSecret:     testJWTSecret,
		Issuer:         "launchpad",
		OptionalPaths:  []string{"/healthz"},
		AllowAnonymous: true,
	}})
	controllerToken := signedToken(t, controllerHex)
	aliceToken := signedToken(t, crypto.FormatIdentity(aliceID))

	resp := env.call(t, "", "sale_info", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Status)

	decodeResult[ReceiptResult](t, env.call(t, controllerToken, "sale_start", nil))

	purchase := decodeResult[ReceiptResult](t, env.call(t, aliceToken, "sale_purchase", map[string]string{"amount": "10"}))
	require.Equal(t, crypto.FormatIdentity(aliceID), purchase.Contribution.Participant)

	resp = env.call(t, aliceToken, "sale_purchase", map[string]string{"caller": bobHex, "amount": "10"})
	require.Equal(t, http.StatusForbidden, resp.Status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp = env.call(t, aliceToken, "sale_pause", nil)
	require.Equal(t, "Unauthorized", resp.engineCode(t))

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestModulePauseGuardsWrites(t *testing.T) {
	env := newTestEnv(t, ServerConfig{Pauses: pauses{moduleSale: true}})

	resp := env.call(t, "", "sale_start", map[string]string{"caller": controllerHex})
	require.Equal(t, http.StatusServiceUnavailable, resp.Status)
	require.Equal(t, codeModulePaused, resp.Error.Code)

	info := decodeResult[SaleInfoResult](t, env.call(t, "", "sale_info", nil))
	require.Equal(t, "PREPARATION", info.Phase)

	totals := decodeResult[VestingTotalsResult](t, env.call(t, "", "vesting_totals", nil))
	require.Equal(t, 0, totals.BeneficiaryCount)
}

func TestVestingOverRPC(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	create := map[string]interface{}{
		"caller":      controllerHex,
		"beneficiary": aliceHex,
		"amount":      "1000",
		"cliff":       30 * testDay,
		"duration":    365 * testDay,
		"revocable":   true,
	}
	created := decodeResult[ReceiptResult](t, env.call(t, "", "vesting_create", create))
	require.Equal(t, "1000", created.Schedule.TotalAmount)
	require.Equal(t, "vesting.schedule.created", created.Events[0].Type)

	resp := env.call(t, "", "vesting_create", create)
	require.Equal(t, "ScheduleExists", resp.engineCode(t))

	resp = env.call(t, "", "vesting_release", map[string]string{"caller": aliceHex})
	require.Equal(t, "CliffNotReached", resp.engineCode(t))

	env.clock.Set(testStart + 30*testDay)
	status := decodeResult[ScheduleStatusResult](t, env.call(t, "", "vesting_schedule", map[string]string{"beneficiary": aliceHex}))
	require.Equal(t, "82", status.Vested)
	require.Equal(t, "82", status.Releasable)
	require.True(t, status.Active)

	released := decodeResult[ReceiptResult](t, env.call(t, "", "vesting_release", map[string]string{"caller": bobHex, "beneficiary": aliceHex}))
	require.Equal(t, "82", released.Amount)

	revoked := decodeResult[ReceiptResult](t, env.call(t, "", "vesting_revoke", map[string]string{"caller": controllerHex, "beneficiary": aliceHex}))
	require.True(t, revoked.Schedule.Revoked)

	totals := decodeResult[VestingTotalsResult](t, env.call(t, "", "vesting_totals", nil))
	require.Equal(t, "82", totals.TotalReleased)
	require.Equal(t, "82", totals.TotalVesting)
	require.Equal(t, 1, totals.BeneficiaryCount)

	list := decodeResult[[]string](t, env.call(t, "", "vesting_beneficiaries", nil))
	require.Equal(t, []string{crypto.FormatIdentity(aliceID)}, list)

	resp = env.call(t, "", "vesting_schedule", map[string]string{"beneficiary": bobHex})
	require.Equal(t, http.StatusNotFound, resp.Status)
	require.Equal(t, "NoSchedule", resp.engineCode(t))
}

func TestRateLimitAndOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t, ServerConfig{RateLimit: middleware.RateLimit{RequestsPerMinute: 1, Burst: 1}})

	require.Nil(t, env.call(t, "", "sale_info", nil).Error)
	body, _ := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": 2, "method": "sale_info"})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body)))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "launchpad_module_requests_total")
}
