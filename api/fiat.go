package api

import (
	"io/ioutil"
	"net/http"
	"strconv"
	"sync"

	"github.com/julienschmidt/httprouter"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
	"github.com/gemwallet/walletcore/queue"
)

// FiatQuoteRequest is the normalized request every configured
// FiatQuoteProvider receives, grounded on fiat/mod.rs's FiatQuoteRequest.
type FiatQuoteRequest struct {
	AssetID       string
	QuoteType     string
	FiatCurrency  string
	FiatAmount    *float64
	CryptoValue   string
	WalletAddress string
	IPAddress     string
	ProviderID    string
}

// FiatQuote is one provider's quote for a FiatQuoteRequest.
type FiatQuote struct {
	Provider    string  `json:"provider"`
	AssetID     string  `json:"asset_id"`
	FiatValue   float64 `json:"fiat_value"`
	CryptoValue float64 `json:"crypto_value"`
}

// FiatQuotesResponse is the aggregated reply to GET /fiat/quotes/<asset>,
// matching fiat/mod.rs's FiatQuotes shape: a failing provider contributes
// an entry to Errors rather than failing the whole request.
type FiatQuotesResponse struct {
	Quotes []FiatQuote `json:"quotes"`
	Errors []string    `json:"errors"`
}

// FiatQuoteProvider is one external fiat on/off-ramp quote source (fiat
// provider HTTP clients are explicitly external collaborators per spec §1).
type FiatQuoteProvider interface {
	Name() string
	GetQuotes(req FiatQuoteRequest) ([]FiatQuote, error)
}

// FiatStore is the narrow storage surface the fiat webhook handler needs.
type FiatStore interface {
	UpsertFiatOrder(order primitives.FiatOrder) error
}

// Publisher is the narrow queue surface the fiat webhook handler needs to
// announce an order update, mirroring priceserver.Publisher's shape.
type Publisher interface {
	PublishQueue(name queue.Name, payload interface{}, metadata map[string]string) error
}

// FiatWebhookParser turns one provider's raw webhook body into a
// primitives.FiatOrder. Per-provider parsing logic is an external
// collaborator (spec §1: "fiat-provider HTTP clients" are out of scope);
// this package only defines the contract and wires its result.
type FiatWebhookParser interface {
	ParseWebhook(provider string, body []byte) (primitives.FiatOrder, error)
}

// FiatWebhookPayload is published to QueueFiatWebhooks after a webhook is
// persisted, announcing the order update to downstream consumers.
type FiatWebhookPayload struct {
	Provider string `json:"provider"`
	OrderID  string `json:"order_id"`
}

// FiatHandler serves the /fiat/* endpoints of spec §4.9.
type FiatHandler struct {
	store     FiatStore
	providers []FiatQuoteProvider
	parser    FiatWebhookParser
	publisher Publisher
}

// NewFiatHandler builds a FiatHandler.
func NewFiatHandler(store FiatStore, providers []FiatQuoteProvider, parser FiatWebhookParser, publisher Publisher) *FiatHandler {
	return &FiatHandler{store: store, providers: providers, parser: parser, publisher: publisher}
}

// Quotes handles GET /fiat/quotes/<asset>, fanning the request out to
// every configured provider concurrently and merging their results,
// grounded on fiat/mod.rs's get_fiat_quotes.
func (h *FiatHandler) Quotes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	req := FiatQuoteRequest{
		AssetID:       ps.ByName("asset"),
		QuoteType:     defaultString(r.URL.Query().Get("type"), "buy"),
		FiatCurrency:  defaultString(r.URL.Query().Get("currency"), "USD"),
		CryptoValue:   r.URL.Query().Get("crypto_value"),
		WalletAddress: r.URL.Query().Get("wallet_address"),
		IPAddress:     defaultString(r.URL.Query().Get("ip_address"), r.RemoteAddr),
		ProviderID:    r.URL.Query().Get("provider_id"),
	}
	if raw := r.URL.Query().Get("fiat_amount"); raw != "" {
		if amount, err := strconv.ParseFloat(raw, 64); err == nil {
			req.FiatAmount = &amount
		}
	}

	if req.FiatAmount == nil && req.CryptoValue == "" {
		writeJSON(w, http.StatusOK, FiatQuotesResponse{Quotes: []FiatQuote{}, Errors: []string{}})
		return
	}

	var (
		mu      sync.Mutex
		quotes  []FiatQuote
		errMsgs []string
		wg      sync.WaitGroup
	)
	for _, provider := range h.providers {
		provider := provider
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := provider.GetQuotes(req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errMsgs = append(errMsgs, provider.Name()+": "+err.Error())
				return
			}
			quotes = append(quotes, result...)
		}()
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, FiatQuotesResponse{Quotes: quotes, Errors: errMsgs})
}

// Webhook handles POST /fiat/webhooks/<provider>: parses and persists an
// order update, then publishes FiatWebhookPayload to QueueFiatWebhooks,
// grounded on fiat/mod.rs's create_fiat_webhook.
func (h *FiatHandler) Webhook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	provider := ps.ByName("provider")

	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "api: read webhook body", err))
		return
	}

	order, err := h.parser.ParseWebhook(provider, body)
	if err != nil {
		writeError(w, errs.Wrap(errs.BadRequest, "api: parse webhook", err))
		return
	}

	if err := h.store.UpsertFiatOrder(order); err != nil {
		writeError(w, err)
		return
	}

	if h.publisher != nil {
		payload := FiatWebhookPayload{Provider: order.Provider, OrderID: order.OrderID}
		if err := h.publisher.PublishQueue(queue.QueueFiatWebhooks, payload, nil); err != nil {
			logger.Warn("publish fiat webhook event failed", "provider", provider, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, order)
}

func defaultString(raw, def string) string {
	if raw == "" {
		return def
	}
	return raw
}
