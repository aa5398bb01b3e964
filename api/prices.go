package api

import (
	"net/http"

	"github.com/clevergo/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/gemwallet/walletcore/priceserver"
)

// PubSubFactory opens a fresh redis pub/sub subscription for one
// connection; priceserver.Connection manages its own channel membership
// from an empty subscription, so the factory never passes initial
// channels.
type PubSubFactory func() priceserver.PubSub

// PricesHandler serves GET/WS /prices, upgrading the connection and
// running a priceserver.Connection until the client disconnects, per
// spec §4.7(b).
type PricesHandler struct {
	upgrader websocket.Upgrader
	pubsub   PubSubFactory
	rates    priceserver.RateSource
}

// NewPricesHandler builds a PricesHandler. pubsub opens a fresh
// subscription per connection (typically cacher.Client.Subscribe with no
// initial channels); rates may be nil.
func NewPricesHandler(pubsub PubSubFactory, rates priceserver.RateSource) *PricesHandler {
	return &PricesHandler{pubsub: pubsub, rates: rates}
}

// Upgrade handles the GET/WS /prices request: upgrades to a websocket,
// drives a priceserver.Connection's read loop, and waits for it to finish
// before returning.
func (h *PricesHandler) Upgrade(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("price stream upgrade failed", "err", err)
		return
	}

	pc := priceserver.NewConnection(conn, h.pubsub(), h.rates)
	go pc.Run()
	defer pc.Shutdown()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := pc.HandleMessage(data); err != nil {
			logger.Warn("price stream message handling failed", "err", err)
		}
	}
}
