package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Djamauk/himalayanpinksalt.online/internal/event"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository/kv"
	"github.com/Djamauk/himalayanpinksalt.online/internal/repository/memory"
	"github.com/Djamauk/himalayanpinksalt.online/internal/service"
	"github.com/Djamauk/himalayanpinksalt.online/pkg/health"
	pkgkafka "github.com/Djamauk/himalayanpinksalt.online/pkg/kafka"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newTestServer() *httptest.Server {
	logger := testLogger()
	producer := testEventProducer()
	store := memory.NewStore()
	sessions := memory.NewSessionStore()

	account := service.NewAccountService(
		kv.NewAddressRepository(store),
		kv.NewPaymentMethodRepository(store),
		kv.NewProfileRepository(store),
		kv.NewPreferencesRepository(store),
		producer,
		logger,
	)
	checkout := service.NewCheckoutService(sessions, kv.NewAddressRepository(store), account, producer, logger, time.Hour)

	router := NewRouter(checkout, account, health.NewHandler(), logger)
	return httptest.NewServer(router)
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Data  map[string]any `json:"data"`
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func startSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/checkout", map[string]any{
		"items": []map[string]any{{"name": "Pink Salt Grinder", "price": 10000}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := decodeData(t, resp)
	id, _ := data["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCheckoutRequiresUserHeader(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/checkout", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStartCheckout_RejectsEmptyItems(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/checkout", map[string]any{"items": []any{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutWizardFlow(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	id := startSession(t, srv)

	// Advancing with an empty draft keeps the wizard on step 1.
	resp := doJSON(t, srv, http.MethodPost, "/api/v1/checkout/"+id+"/next", map[string]any{"target": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, float64(1), data["step"])
	errs, _ := data["errors"].(map[string]any)
	assert.Contains(t, errs, "email")

	// Fill the contact fields and advance.
	resp = doJSON(t, srv, http.MethodPut, "/api/v1/checkout/"+id+"/draft", map[string]any{
		"fields": map[string]string{
			"firstName": "Ada",
			"lastName":  "Lovelace",
			"email":     "ada@example.com",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/checkout/"+id+"/next", map[string]any{"target": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = decodeData(t, resp)
	assert.Equal(t, float64(2), data["step"])
}

func TestCheckoutQuoteAndCoupon(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	id := startSession(t, srv)

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/checkout/"+id+"/quote", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	quote := decodeData(t, resp)
	assert.Equal(t, float64(11300), quote["total"])
	assert.Equal(t, "$113.00", quote["total_text"])

	resp = doJSON(t, srv, http.MethodPut, "/api/v1/checkout/"+id+"/coupon", map[string]any{"code": "SAVE10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, true, data["coupon_applied"])

	pricing, _ := data["pricing"].(map[string]any)
	assert.Equal(t, float64(1000), pricing["discount"])
	assert.Equal(t, float64(10300), pricing["total"])
}

func TestSelectPaymentKindEndpoint(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	id := startSession(t, srv)

	resp := doJSON(t, srv, http.MethodPut, "/api/v1/checkout/"+id+"/payment", map[string]any{"kind": "paypal"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, "paypal", data["payment_kind"])

	resp = doJSON(t, srv, http.MethodPut, "/api/v1/checkout/"+id+"/payment", map[string]any{"kind": "wire"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmit_InvalidCardReturns422(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	id := startSession(t, srv)

	resp := doJSON(t, srv, http.MethodPut, "/api/v1/checkout/"+id+"/draft", map[string]any{
		"fields": map[string]string{
			"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
			"address1": "1 Main St", "city": "Portland", "state": "OR", "zip": "97201", "country": "US",
			"cardNumber": "4242 4242 4242 4242", "cardName": "Ada Lovelace", "exp": "01/20", "cvc": "123",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/checkout/"+id+"/submit", map[string]any{"save_card": true})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, false, data["order_placed"])
	assert.Equal(t, float64(3), data["step"])
	errs, _ := data["errors"].(map[string]any)
	assert.Contains(t, errs, "exp")

	// No card token was saved.
	resp = doJSON(t, srv, http.MethodGet, "/api/v1/account/payment-methods", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Empty(t, envelope.Data)
}

func TestAccountAddressLifecycle(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/account/addresses", map[string]any{
		"addr1": "1 Main St", "city": "Portland", "state": "OR", "zip": "97201", "country": "US",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeData(t, resp)
	assert.Equal(t, true, created["isDefault"])
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	resp = doJSON(t, srv, http.MethodPut, "/api/v1/account/addresses/"+id, map[string]any{"city": "Salem"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeData(t, resp)
	assert.Equal(t, "Salem", updated["city"])
	assert.Equal(t, "1 Main St", updated["addr1"])

	resp = doJSON(t, srv, http.MethodDelete, "/api/v1/account/addresses/"+id, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAccountSaveCardRejectsBadNumber(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/account/payment-methods", map[string]any{
		"number": "4242 4242 4242 4243", "exp": "12/49",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAccountProfileRoundTrip(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp := doJSON(t, srv, http.MethodPut, "/api/v1/account/profile", map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/account/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := decodeData(t, resp)
	assert.Equal(t, "Ada", data["firstName"])
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
