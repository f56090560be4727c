package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/wellness-api/internal/handlers"
	"github.com/harentsoaR/wellness-api/internal/metrics"
	"github.com/harentsoaR/wellness-api/internal/ratelimit"
	"github.com/harentsoaR/wellness-api/internal/services"
	"github.com/harentsoaR/wellness-api/internal/store"
	"github.com/harentsoaR/wellness-api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router       http.Handler
	store        *store.MemoryStore
	failPayments atomic.Bool
}

type envOptions struct {
	webhookHash string
	adminKey    string
	authLimit   int
}

func newTestEnv(t *testing.T, o envOptions) *testEnv {
	t.Helper()
	env := &testEnv{store: store.NewMemoryStore()}

	flw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.failPayments.Load() {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"status":"error","message":"unavailable"}`))
			return
		}
		var req struct {
			TxRef string `json:"tx_ref"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]any{"link": "https://checkout.example.com/" + req.TxRef, "tx_ref": req.TxRef},
		})
	}))
	t.Cleanup(flw.Close)

	hf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"generated_text":"Offer iron-rich foods such as lentils."}]`))
	}))
	t.Cleanup(hf.Close)

	tokens, err := utils.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	m := metrics.Noop()

	auth := services.NewAuthService(env.store, tokens, utils.MinBcryptCost)
	chat := services.NewChatService(env.store, services.NewHuggingFaceClient(hf.URL, "hf_test"), m)
	subs := services.NewSubscriptionService(env.store, services.NewFlutterwaveClient(flw.URL, "FLWSECK_TEST"), m, "http://localhost:5000")
	subs.SetClock(func() time.Time { return time.UnixMilli(1000) })
	consultations := services.NewConsultationService(env.store)

	opts := Options{
		AllowedOrigins: []string{"http://localhost:5000"},
		AdminAPIKey:    o.adminKey,
	}
	if o.authLimit > 0 {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		opts.AuthLimiter, err = ratelimit.NewFixedWindowLimiter(client, "test:auth", o.authLimit, time.Minute)
		require.NoError(t, err)
	}

	h := handlers.NewHandler(env.store, auth, chat, subs, consultations, o.webhookHash)
	env.router = NewRouter(h, opts)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// register returns the new user's id and token.
func (e *testEnv) register(t *testing.T, email string) (string, string) {
	t.Helper()
	code, body := e.do(t, http.MethodPost, "/api/auth/register",
		`{"email":"`+email+`","password":"secret1","name":"Amina"}`, nil)
	require.Equal(t, http.StatusCreated, code, body)
	user := body["user"].(map[string]any)
	return user["id"].(string), body["token"].(string)
}

func TestSubscriptionToConsultationFlow(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	userID, _ := env.register(t, "mama@example.com")

	code, body := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"mama@example.com","password":"secret1"}`, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", body["message"])
	token := body["token"].(string)
	auth := bearer(token)

	code, body = env.do(t, http.MethodGet, "/api/auth/me", "", auth)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["user"].(map[string]any)["isSubscribed"])
	assert.NotContains(t, body["user"], "password")

	code, body = env.do(t, http.MethodPost, "/api/consultations", `{"patientToken":"p-1","location":"Kigali"}`, auth)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Subscription required for consultations", body["message"])

	code, body = env.do(t, http.MethodPost, "/api/subscription/create", "", auth)
	require.Equal(t, http.StatusOK, code, body)
	txRef := "subscription_" + userID + "_1000"
	assert.Equal(t, txRef, body["paymentId"])
	assert.Equal(t, "https://checkout.example.com/"+txRef, body["checkoutUrl"])
	sub := body["subscription"].(map[string]any)
	assert.Equal(t, "pending", sub["status"])
	assert.Equal(t, txRef, sub["externalId"])

	code, body = env.do(t, http.MethodGet, "/api/subscription/status", "", auth)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["isActive"])

	webhook := `{"status":"successful","tx_ref":"` + txRef + `","transaction_id":"9001","amount":9.99,"currency":"USD"}`
	code, body = env.do(t, http.MethodPost, "/api/webhooks/flutterwave", webhook, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Webhook processed successfully", body["message"])

	code, body = env.do(t, http.MethodGet, "/api/subscription/status", "", auth)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["isActive"])
	assert.Equal(t, "active", body["subscription"].(map[string]any)["status"])

	code, body = env.do(t, http.MethodGet, "/api/auth/me", "", auth)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["user"].(map[string]any)["isSubscribed"])

	// replay is harmless
	code, _ = env.do(t, http.MethodPost, "/api/webhooks/flutterwave", webhook, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodPost, "/api/consultations",
		`{"patientToken":"p-1","location":"Kigali","consultUrl":"https://meet.example.com/r/1","metadata":{"weeks":20}}`, auth)
	require.Equal(t, http.StatusCreated, code, body)
	consultation := body["consultation"].(map[string]any)
	assert.Equal(t, "pending", consultation["status"])
	assert.Equal(t, `{"weeks":20}`, consultation["metadata"])

	code, body = env.do(t, http.MethodGet, "/api/consultations", "", auth)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["consultations"], 1)
}

func TestWebhookIgnoresUnknownReferences(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	userID, token := env.register(t, "a@example.com")

	code, _ := env.do(t, http.MethodPost, "/api/subscription/create", `{"amount":5,"currency":"ngn"}`, bearer(token))
	require.Equal(t, http.StatusOK, code)

	for _, ref := range []string{"garbage", "subscription_" + userID + "_999", "subscription_other_1000"} {
		code, body := env.do(t, http.MethodPost, "/api/webhooks/flutterwave", `{"status":"successful","tx_ref":"`+ref+`"}`, nil)
		assert.Equal(t, http.StatusOK, code, ref)
		assert.Equal(t, "Webhook processed successfully", body["message"])
	}

	code, body := env.do(t, http.MethodGet, "/api/subscription/status", "", bearer(token))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["isActive"])
	assert.Equal(t, "pending", body["subscription"].(map[string]any)["status"])

	code, _ = env.do(t, http.MethodPost, "/api/webhooks/flutterwave", `{"status":`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWebhookEnvelopeAndHash(t *testing.T) {
	env := newTestEnv(t, envOptions{webhookHash: "s3cret"})
	userID, token := env.register(t, "b@example.com")
	code, _ := env.do(t, http.MethodPost, "/api/subscription/create", "", bearer(token))
	require.Equal(t, http.StatusOK, code)

	payload := `{"event":"charge.completed","data":{"id":285959875,"tx_ref":"subscription_` + userID + `_1000","amount":9.99,"currency":"USD","status":"successful"}}`

	code, _ = env.do(t, http.MethodPost, "/api/webhooks/flutterwave", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = env.do(t, http.MethodPost, "/api/webhooks/flutterwave", payload, map[string]string{"verif-hash": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := env.do(t, http.MethodGet, "/api/subscription/status", "", bearer(token))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["isActive"])

	code, _ = env.do(t, http.MethodPost, "/api/webhooks/flutterwave", payload, map[string]string{"verif-hash": "s3cret"})
	assert.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodGet, "/api/subscription/status", "", bearer(token))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["isActive"])
}

func TestSubscriptionCreateFailures(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, token := env.register(t, "c@example.com")

	code, _ := env.do(t, http.MethodPost, "/api/subscription/create", `{"amount":-1}`, bearer(token))
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodPost, "/api/subscription/create", `{"currency":"DOLLARS"}`, bearer(token))
	assert.Equal(t, http.StatusBadRequest, code)

	env.failPayments.Store(true)
	code, body := env.do(t, http.MethodPost, "/api/subscription/create", "", bearer(token))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to create subscription", body["message"])

	code, body = env.do(t, http.MethodGet, "/api/subscription/status", "", bearer(token))
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["subscription"])
	assert.Equal(t, false, body["isActive"])
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.register(t, "d@example.com")

	code, body := env.do(t, http.MethodPost, "/api/auth/register", `{"email":"D@example.com","password":"secret1","name":"Again"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "User already exists", body["message"])

	invalid := []string{
		`{"email":"not-an-email","password":"secret1","name":"A"}`,
		`{"email":"e@example.com","password":"123","name":"A"}`,
		`{"email":"e@example.com","password":"` + strings.Repeat("p", 80) + `","name":"A"}`,
		`{"email":"e@example.com","password":"` + strings.Repeat("é", 40) + `","name":"A"}`,
		`{"email":"e@example.com","password":"secret1"}`,
		`{"email":"e@example.com","password":"secret1","name":"A","isSubscribed":true}`,
		`not json`,
	}
	for _, payload := range invalid {
		code, _ := env.do(t, http.MethodPost, "/api/auth/register", payload, nil)
		assert.Equal(t, http.StatusBadRequest, code, payload)
	}

	code, wrongPassword := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"d@example.com","password":"nope123"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, unknownEmail := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"x@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, "Invalid credentials", wrongPassword["message"])

	code, _ = env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = env.do(t, http.MethodGet, "/api/auth/me", "", bearer("forged.token.value"))
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = env.do(t, http.MethodGet, "/api/consultations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestChatEndpoints(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, token := env.register(t, "chat@example.com")

	code, body := env.do(t, http.MethodPost, "/api/chat", `{"message":"What should I eat in the third trimester?"}`, bearer(token))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Offer iron-rich foods such as lentils.", body["response"])
	assert.NotEmpty(t, body["id"])

	code, body = env.do(t, http.MethodPost, "/api/chat", `{"message":"  "}`, bearer(token))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Message is required", body["message"])

	code, _ = env.do(t, http.MethodPost, "/api/chat", `{"message":"second"}`, bearer(token))
	require.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodGet, "/api/chat/history?limit=1", "", bearer(token))
	require.Equal(t, http.StatusOK, code)
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)

	code, body = env.do(t, http.MethodGet, "/api/chat/history?limit=abc", "", bearer(token))
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["messages"], 2)
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{authLimit: 2})

	for i := 0; i < 2; i++ {
		code, _ := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"x@example.com","password":"secret1"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	code, body := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"x@example.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.NotEmpty(t, body["message"])
}

func TestAdminEndpoints(t *testing.T) {
	disabled := newTestEnv(t, envOptions{})
	code, _ := disabled.do(t, http.MethodPut, "/api/admin/users/any/subscription", `{"isSubscribed":true}`, nil)
	assert.Equal(t, http.StatusNotFound, code)

	env := newTestEnv(t, envOptions{adminKey: "admin-key"})
	admin := map[string]string{"X-Admin-Key": "admin-key"}
	userID, token := env.register(t, "e@example.com")

	code, _ = env.do(t, http.MethodPut, "/api/admin/users/"+userID+"/subscription", `{"isSubscribed":true}`, map[string]string{"X-Admin-Key": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := env.do(t, http.MethodPut, "/api/admin/users/"+userID+"/subscription", `{"isSubscribed":true}`, admin)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["user"].(map[string]any)["isSubscribed"])

	code, _ = env.do(t, http.MethodPut, "/api/admin/users/missing/subscription", `{"isSubscribed":true}`, admin)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = env.do(t, http.MethodPut, "/api/admin/users/"+userID+"/subscription", `{}`, admin)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodPost, "/api/consultations", `{"patientToken":"p","location":"Accra"}`, bearer(token))
	require.Equal(t, http.StatusCreated, code)
	id := body["consultation"].(map[string]any)["id"].(string)

	code, _ = env.do(t, http.MethodPatch, "/api/admin/consultations/"+id, `{"status":"scheduled","scheduledAt":"2026-11-02T09:00:00Z"}`, admin)
	require.Equal(t, http.StatusOK, code)
	code, _ = env.do(t, http.MethodPatch, "/api/admin/consultations/"+id, `{"status":"teleported"}`, admin)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = env.do(t, http.MethodPatch, "/api/admin/consultations/missing", `{"status":"cancelled"}`, admin)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = env.do(t, http.MethodGet, "/api/consultations", "", bearer(token))
	require.Equal(t, http.StatusOK, code)
	list := body["consultations"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "scheduled", list[0].(map[string]any)["status"])
	assert.Equal(t, "2026-11-02T09:00:00Z", list[0].(map[string]any)["scheduledAt"])
}

func TestUnknownFieldsRejectedOnEveryRouter(t *testing.T) {
	for i := 0; i < 2; i++ {
		env := newTestEnv(t, envOptions{})
		code, _ := env.do(t, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"secret1","role":"admin"}`, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	code, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}
