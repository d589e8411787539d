package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventhorizon/internal/assistant"
	"eventhorizon/internal/catalog"
	"eventhorizon/internal/ids"
	"eventhorizon/internal/ledger"
	"eventhorizon/internal/pricing"
	"eventhorizon/internal/services"
	"eventhorizon/internal/tickets"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedRecommender struct{ reply string }

func (c cannedRecommender) Recommend(context.Context, string, string) (string, error) {
	return c.reply, nil
}

func newTestHandler(t *testing.T) *StorefrontHandler {
	t.Helper()

	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	cat, err := catalog.New(seed.Events)
	require.NoError(t, err)

	calc := pricing.NewCalculator(pricing.DefaultTaxRate)
	issuer, err := tickets.NewIssuer(ids.NewSequence("tk"), []byte("handler-key"))
	require.NoError(t, err)
	led := ledger.New("Christian Johnson", ledger.OpeningFor(decimal.NewFromInt(250), seed.Transactions), calc, issuer,
		ledger.WithClock(func() time.Time { return time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC) }),
		ledger.WithIDs(ids.NewSequence("tx")),
	)
	require.NoError(t, led.Replay(seed.Transactions...))

	bridge := assistant.NewBridge(cannedRecommender{reply: "Noites de Neon!"}, cat.Events())
	svc := services.NewStorefrontService(cat, led, calc, issuer, bridge, nil, nil, services.StorefrontConfig{})
	return NewStorefrontHandler(svc, nil)
}

func newRequestEvent(method, target, body string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()

	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e, rec
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()
	var apiErr *router.ApiError
	require.True(t, errors.As(err, &apiErr), "expected ApiError, got %v", err)
	return apiErr.Status
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestListEvents(t *testing.T) {
	h := newTestHandler(t)
	e, rec := newRequestEvent(http.MethodGet, "/api/v1/events?q=neon&category=Todos", "")

	require.NoError(t, h.ListEvents(e))

	var body struct {
		Events []services.EventSummary `json:"events"`
		Total  int                     `json:"total"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, "e1", body.Events[0].ID)
	assert.True(t, decimal.NewFromInt(75).Equal(body.Events[0].MinPrice))
}

func TestListEvents_UnknownCategory(t *testing.T) {
	h := newTestHandler(t)
	e, _ := newRequestEvent(http.MethodGet, "/api/v1/events?category=Circo", "")

	assert.Equal(t, http.StatusBadRequest, apiStatus(t, h.ListEvents(e)))
}

func TestGetEvent_NotFound(t *testing.T) {
	h := newTestHandler(t)
	e, _ := newRequestEvent(http.MethodGet, "/api/v1/events/missing", "")
	e.Request.SetPathValue("eventId", "missing")

	assert.Equal(t, http.StatusNotFound, apiStatus(t, h.GetEvent(e)))
}

func TestCartFlowAndCheckout(t *testing.T) {
	h := newTestHandler(t)

	e, _ := newRequestEvent(http.MethodPost, "/api/v1/events/e1/session", "")
	e.Request.SetPathValue("eventId", "e1")
	require.NoError(t, h.OpenSession(e))

	e, rec := newRequestEvent(http.MethodPost, "/api/v1/cart/increment", `{"ticket_type_id":"t1_pista_int"}`)
	require.NoError(t, h.Increment(e))
	var view services.CartView
	decodeBody(t, rec, &view)
	assert.Equal(t, 1, view.Quote.Units)
	assert.True(t, decimal.NewFromInt(165).Equal(view.Quote.Total))

	e, rec = newRequestEvent(http.MethodPost, "/api/v1/cart/checkout", "")
	require.NoError(t, h.Checkout(e))
	assert.Equal(t, http.StatusOK, rec.Code)
	var result ledger.PurchaseResult
	decodeBody(t, rec, &result)
	assert.True(t, decimal.NewFromInt(85).Equal(result.Wallet.Balance))
	require.Len(t, result.Tickets, 1)

	e, rec = newRequestEvent(http.MethodGet, "/api/v1/tickets/x/qr", "")
	e.Request.SetPathValue("ticketId", result.Tickets[0].ID)
	require.NoError(t, h.TicketQR(e))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "image/"))
	assert.NotZero(t, rec.Body.Len())
}

func TestIncrement_Validation(t *testing.T) {
	h := newTestHandler(t)
	e, _ := newRequestEvent(http.MethodPost, "/api/v1/events/e1/session", "")
	e.Request.SetPathValue("eventId", "e1")
	require.NoError(t, h.OpenSession(e))

	e, _ = newRequestEvent(http.MethodPost, "/api/v1/cart/increment", `{}`)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, h.Increment(e)))

	e, _ = newRequestEvent(http.MethodPost, "/api/v1/cart/increment", `{"ticket_type_id":"t2_std"}`)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, h.Increment(e)))
}

func TestIncrement_NoSession(t *testing.T) {
	h := newTestHandler(t)
	e, _ := newRequestEvent(http.MethodPost, "/api/v1/cart/increment", `{"ticket_type_id":"t1_pista_int"}`)

	assert.Equal(t, http.StatusConflict, apiStatus(t, h.Increment(e)))
}

func TestCheckout_InsufficientFunds(t *testing.T) {
	h := newTestHandler(t)
	e, _ := newRequestEvent(http.MethodPost, "/api/v1/events/e2/session", "")
	e.Request.SetPathValue("eventId", "e2")
	require.NoError(t, h.OpenSession(e))
	e, _ = newRequestEvent(http.MethodPost, "/api/v1/cart/increment", `{"ticket_type_id":"t2_biz"}`)
	require.NoError(t, h.Increment(e))

	e, rec := newRequestEvent(http.MethodPost, "/api/v1/cart/checkout", "")
	require.NoError(t, h.Checkout(e))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, InsufficientFundsMessage, body["message"])
	assert.Equal(t, "wallet", body["redirect"])
}

func TestDeposit(t *testing.T) {
	h := newTestHandler(t)

	e, rec := newRequestEvent(http.MethodPost, "/api/v1/wallet/deposit", `{}`)
	require.NoError(t, h.Deposit(e))
	var result ledger.DepositResult
	decodeBody(t, rec, &result)
	assert.True(t, decimal.NewFromInt(350).Equal(result.Wallet.Balance))

	e, rec = newRequestEvent(http.MethodPost, "/api/v1/wallet/deposit", `{"amount":"20.5"}`)
	require.NoError(t, h.Deposit(e))
	decodeBody(t, rec, &result)
	assert.True(t, decimal.RequireFromString("370.5").Equal(result.Wallet.Balance))

	e, _ = newRequestEvent(http.MethodPost, "/api/v1/wallet/deposit", `{"amount":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, h.Deposit(e)))
}

func TestAsk(t *testing.T) {
	h := newTestHandler(t)

	e, rec := newRequestEvent(http.MethodPost, "/api/v1/assistant", `{"query":"o que fazer hoje?"}`)
	require.NoError(t, h.Ask(e))

	var body struct {
		Reply    string `json:"reply"`
		Messages []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"messages"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "Noites de Neon!", body.Reply)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "user", body.Messages[1].Role)

	e, _ = newRequestEvent(http.MethodPost, "/api/v1/assistant", `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, h.Ask(e)))

	e, _ = newRequestEvent(http.MethodPost, "/api/v1/assistant", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, h.Ask(e)))
}

func TestGetWallet(t *testing.T) {
	h := newTestHandler(t)
	e, rec := newRequestEvent(http.MethodGet, "/api/v1/wallet", "")

	require.NoError(t, h.GetWallet(e))

	var body services.WalletView
	decodeBody(t, rec, &body)
	assert.Equal(t, "Christian Johnson", body.Wallet.Name)
	assert.True(t, decimal.NewFromInt(250).Equal(body.Wallet.Balance))
	require.Len(t, body.Transactions, 3)
	assert.Equal(t, "t3", body.Transactions[0].ID)
}
