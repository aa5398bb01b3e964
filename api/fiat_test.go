package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

type fakeFiatQuoteProvider struct {
	name   string
	quotes []FiatQuote
	err    error
}

func (f *fakeFiatQuoteProvider) Name() string { return f.name }
func (f *fakeFiatQuoteProvider) GetQuotes(req FiatQuoteRequest) ([]FiatQuote, error) {
	return f.quotes, f.err
}

type fakeFiatStore struct {
	orders []primitives.FiatOrder
	err    error
}

func (f *fakeFiatStore) UpsertFiatOrder(order primitives.FiatOrder) error {
	f.orders = append(f.orders, order)
	return f.err
}

type fakeFiatWebhookParser struct {
	order primitives.FiatOrder
	err   error
}

func (f *fakeFiatWebhookParser) ParseWebhook(provider string, body []byte) (primitives.FiatOrder, error) {
	return f.order, f.err
}

type fakePublisher struct {
	published bool
	name      queue.Name
	err       error
}

func (f *fakePublisher) PublishQueue(name queue.Name, payload interface{}, metadata map[string]string) error {
	f.published = true
	f.name = name
	return f.err
}

func TestFiatHandlerQuotesEmptyWhenNoAmountOrValue(t *testing.T) {
	h := NewFiatHandler(&fakeFiatStore{}, nil, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/fiat/quotes/bitcoin", nil)
	w := httptest.NewRecorder()
	h.Quotes(w, r, httprouter.Params{{Key: "asset", Value: "bitcoin"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"quotes":[]`)
}

func TestFiatHandlerQuotesAggregatesAcrossProviders(t *testing.T) {
	good := &fakeFiatQuoteProvider{name: "good", quotes: []FiatQuote{{Provider: "good", AssetID: "bitcoin", FiatValue: 100, CryptoValue: 0.002}}}
	bad := &fakeFiatQuoteProvider{name: "bad", err: errs.Transientf(nil, "provider down")}

	h := NewFiatHandler(&fakeFiatStore{}, []FiatQuoteProvider{good, bad}, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/fiat/quotes/bitcoin?fiat_amount=100", nil)
	w := httptest.NewRecorder()
	h.Quotes(w, r, httprouter.Params{{Key: "asset", Value: "bitcoin"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"provider":"good"`)
	assert.Contains(t, w.Body.String(), "bad: provider down")
}

func TestFiatHandlerWebhookPersistsAndPublishes(t *testing.T) {
	order := primitives.FiatOrder{Provider: "ramp", OrderID: "order-1", Status: primitives.FiatOrderStatus("completed")}
	store := &fakeFiatStore{}
	pub := &fakePublisher{}
	h := NewFiatHandler(store, nil, &fakeFiatWebhookParser{order: order}, pub)

	r := httptest.NewRequest(http.MethodPost, "/fiat/webhooks/ramp", bytes.NewReader([]byte(`{"order_id":"order-1"}`)))
	w := httptest.NewRecorder()
	h.Webhook(w, r, httprouter.Params{{Key: "provider", Value: "ramp"}})

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.orders, 1)
	assert.Equal(t, "order-1", store.orders[0].OrderID)
	assert.True(t, pub.published)
	assert.Equal(t, queue.QueueFiatWebhooks, pub.name)
}

func TestFiatHandlerWebhookRejectsParseFailure(t *testing.T) {
	h := NewFiatHandler(&fakeFiatStore{}, nil, &fakeFiatWebhookParser{err: errs.BadRequestf("bad body")}, nil)

	r := httptest.NewRequest(http.MethodPost, "/fiat/webhooks/ramp", bytes.NewReader([]byte(`garbage`)))
	w := httptest.NewRecorder()
	h.Webhook(w, r, httprouter.Params{{Key: "provider", Value: "ramp"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFiatHandlerWebhookSurvivesPublishFailure(t *testing.T) {
	order := primitives.FiatOrder{Provider: "ramp", OrderID: "order-2"}
	pub := &fakePublisher{err: errs.Transientf(nil, "queue down")}
	h := NewFiatHandler(&fakeFiatStore{}, nil, &fakeFiatWebhookParser{order: order}, pub)

	r := httptest.NewRequest(http.MethodPost, "/fiat/webhooks/ramp", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	h.Webhook(w, r, httprouter.Params{{Key: "provider", Value: "ramp"}})

	assert.Equal(t, http.StatusOK, w.Code)
}
