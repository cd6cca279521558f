package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/qgatssdev/nika/actions"
	cache "github.com/qgatssdev/nika/cache/user_referrals"
	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/service"
	"github.com/qgatssdev/nika/service/fms"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	cfg    config.Config
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	cache.SetAll(nil)
	cfg := config.Config{
		Fee:            config.FeeConfig{DefaultRate: 0.01, DefaultCashback: 0.10},
		ReferralConfig: config.ReferralsConfig{L1: 0.30, L2: 0.03, L3: 0.02},
		Tokens:         []string{"USDT", "USDC", "ETH", "SOL", "BTC"},
	}
	cfg.Server.API.JWTTokenSecret = "secret"
	cfg.Server.API.WebhookSecret = "hook"
	cfg.Server.API.AdminAPIKey = "admin"
	cfg.Server.Monitoring.Enabled = true
	cfg.Server.Monitoring.Path = "/metrics"

	srv := service.NewService(cfg, fms.Init(), nil)
	return &testAPI{t: t, cfg: cfg, router: NewRouter(cfg, actions.NewActions(cfg, srv))}
}

func (api *testAPI) token(userID uint64) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": userID}).SignedString([]byte(api.cfg.Server.API.JWTTokenSecret))
	if err != nil {
		api.t.Fatal(err)
	}
	return token
}

func (api *testAPI) do(method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			api.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (api *testAPI) signup(email, code string) (uint64, string) {
	status, out := api.do(http.MethodPost, "/v1/auth/signup", map[string]string{
		"email":        email,
		"password":     "password123",
		"firstName":    "Test",
		"lastName":     "User",
		"referralCode": code,
	}, nil)
	if status != http.StatusCreated {
		api.t.Fatalf("signup failed with %d: %v", status, out)
	}
	user := out["user"].(map[string]interface{})
	return uint64(user["id"].(float64)), user["referralCode"].(string)
}

func (api *testAPI) bearer(userID uint64) map[string]string {
	return map[string]string{"Authorization": "Bearer " + api.token(userID)}
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTradeAndClaimFlow(t *testing.T) {
	api := newTestAPI(t)
	hook := map[string]string{"X-Webhook-Secret": "hook"}

	aliceID, aliceCode := api.signup("alice@test.com", "")
	bobID, _ := api.signup("bob@test.com", aliceCode)

	status, out := api.do(http.MethodGet, "/v1/referral/network", nil, api.bearer(aliceID))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), out["total"])

	status, _ = api.do(http.MethodPost, "/v1/trade/webhook", map[string]interface{}{
		"userId": bobID, "volume": "1000", "fees": "10", "getTokenType": "USDC",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out = api.do(http.MethodPost, "/v1/trade/webhook", map[string]interface{}{
		"userId": bobID, "volume": 1000, "fees": "10", "payTokenType": "eth", "getTokenType": "usdc",
	}, hook)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Trade processed successfully", out["message"])
	breakdown := out["breakdown"].(map[string]interface{})
	assert.Equal(t, "1.00000000", breakdown["cashback"])
	assert.Equal(t, "6.00000000", breakdown["treasury"])

	status, out = api.do(http.MethodPost, "/v1/trade/webhook", map[string]interface{}{
		"userId": bobID, "volume": "1000", "tokenType": "USDC",
	}, hook)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "tokenType is not supported, use payTokenType and getTokenType", out["error"])

	status, out = api.do(http.MethodPost, "/v1/trade/webhook", map[string]interface{}{
		"userId": 999, "volume": "1000", "fees": "10", "getTokenType": "USDC",
	}, hook)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user not found", out["error"])

	status, _ = api.do(http.MethodPost, "/v1/referral/claim", map[string]string{"tokenType": "USDC"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out = api.do(http.MethodPost, "/v1/referral/claim", map[string]string{"tokenType": "usdc"}, api.bearer(aliceID))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Commissions claimed successfully", out["message"])
	assert.Equal(t, "3.00000000", out["amount"])

	status, out = api.do(http.MethodPost, "/v1/referral/claim", map[string]string{"tokenType": "USDC"}, api.bearer(aliceID))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "no claimable commissions", out["error"])

	status, out = api.do(http.MethodGet, "/v1/referral/claims", nil, api.bearer(aliceID))
	assert.Equal(t, http.StatusOK, status)
	meta := out["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["count"])

	status, out = api.do(http.MethodGet, "/v1/referral/earnings?limit=5", nil, api.bearer(aliceID))
	assert.Equal(t, http.StatusOK, status)
	commissions := out["commissions"].([]interface{})
	assert.Equal(t, 1, len(commissions))

	status, out = api.do(http.MethodGet, "/v1/user", nil, api.bearer(bobID))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5, len(out["wallets"].([]interface{})))
}

func TestRegisterReferralRoute(t *testing.T) {
	api := newTestAPI(t)
	_, aliceCode := api.signup("alice@test.com", "")
	bobID, bobCode := api.signup("bob@test.com", "")

	status, out := api.do(http.MethodPost, "/v1/referral/register", map[string]interface{}{"referralCode": "NOPE1234", "userId": bobID}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid referral code", out["error"])

	status, out = api.do(http.MethodPost, "/v1/referral/register", map[string]interface{}{"referralCode": bobCode, "userId": bobID}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot refer yourself", out["error"])

	status, out = api.do(http.MethodPost, "/v1/referral/register", map[string]interface{}{"referralCode": aliceCode, "userId": bobID}, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Referral registered successfully", out["message"])
	assert.Equal(t, float64(1), out["level"])

	status, out = api.do(http.MethodPost, "/v1/referral/generate", nil, api.bearer(bobID))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, bobCode, out["referralCode"])
}

func TestSignupRoute(t *testing.T) {
	api := newTestAPI(t)
	api.signup("alice@test.com", "")

	status, out := api.do(http.MethodPost, "/v1/auth/signup", map[string]string{
		"email": "alice@test.com", "password": "password123", "firstName": "A", "lastName": "B",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", out["error"])

	status, _ = api.do(http.MethodPost, "/v1/auth/signup", map[string]string{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminRoute(t *testing.T) {
	api := newTestAPI(t)
	userID, _ := api.signup("kol@test.com", "")
	path := "/v1/admin/users/" + strconv.FormatUint(userID, 10) + "/commission-structure"
	admin := map[string]string{"X-Api-Key": "admin"}

	status, _ := api.do(http.MethodPut, path, map[string]interface{}{"isKOL": true}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, out := api.do(http.MethodPut, path, map[string]interface{}{"directCommission": 2}, admin)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "directCommission must be between 0 and 1", out["error"])

	status, out = api.do(http.MethodPut, path, map[string]interface{}{"isKOL": true, "directCommission": 0.5}, admin)
	assert.Equal(t, http.StatusOK, status)
	structure := out["customCommissionStructure"].(map[string]interface{})
	assert.Equal(t, true, structure["isKOL"])
	assert.Equal(t, 0.5, structure["directCommission"])

	status, _ = api.do(http.MethodPut, "/v1/admin/users/abc/commission-structure", map[string]interface{}{}, admin)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(http.MethodPut, "/v1/admin/users/999/commission-structure", map[string]interface{}{"isKOL": true}, admin)
	assert.Equal(t, http.StatusNotFound, status)
}
