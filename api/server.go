// Package api implements the HTTP surface of spec §4.9: asset search,
// device-subscribed asset lookup, fiat quote aggregation and webhook
// ingestion, NFT image preview proxying, release checks, the price
// websocket upgrade, the dynode reverse-proxy mount (spec §4.8), and the
// Prometheus metrics endpoint. Grounded on
// original_source/apps/api/src/responders.rs (error-to-status mapping,
// response envelope, signature verification) and params.rs (query/path
// validation), routed with github.com/julienschmidt/httprouter and
// wrapped in github.com/rs/cors — both teacher go.mod dependencies with
// no direct usage example in the teacher's own source to ground the
// wiring on beyond their presence in go.mod (see DESIGN.md).
package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/gemwallet/walletcore/gemlog"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleAPI)

// Deps bundles every collaborator the package's handlers need, so
// cmd/api has a single constructor call instead of wiring each handler by
// hand.
type Deps struct {
	Assets     AssetsStore
	Devices    DeviceKeyStore
	Fiat       FiatStore
	FiatQuotes []FiatQuoteProvider
	FiatParser FiatWebhookParser
	Nft        NftImageSource
	Releases   ReleaseStore
	Publisher  Publisher
	Prices     *PricesHandler
	Metrics    http.Handler
	Dynode     DynodeProxy
}

// Server wires every handler in this package onto an httprouter.Router
// behind CORS.
type Server struct {
	router *httprouter.Router
}

// NewServer builds a fully-routed Server from deps, matching the endpoint
// list in spec §4.9.
func NewServer(deps Deps) *Server {
	router := httprouter.New()

	assets := NewAssetsHandler(deps.Assets)
	router.GET("/assets/search", assets.Search)
	router.GET("/assets/by_device_id/:device", RequireSignature(deps.Devices, "device", assets.ByDeviceID))

	fiat := NewFiatHandler(deps.Fiat, deps.FiatQuotes, deps.FiatParser, deps.Publisher)
	router.GET("/fiat/quotes/:asset", fiat.Quotes)
	router.POST("/fiat/webhooks/:provider", fiat.Webhook)

	nft := NewNftHandler(deps.Nft)
	router.GET("/nft/assets/:id/image_preview", nft.ImagePreview)

	releases := NewReleasesHandler(deps.Releases)
	router.GET("/releases", releases.List)

	if deps.Prices != nil {
		router.GET("/prices", deps.Prices.Upgrade)
	}

	if deps.Metrics != nil {
		mh := NewMetricsHandler(deps.Metrics)
		router.POST("/metrics", mh.Serve)
	}

	if deps.Dynode != nil {
		dyn := NewDynodeHandler(deps.Dynode)
		router.GET("/dynode/:chain/*path", dyn.Serve)
		router.POST("/dynode/:chain/*path", dyn.Serve)
		router.PUT("/dynode/:chain/*path", dyn.Serve)
		router.DELETE("/dynode/:chain/*path", dyn.Serve)
	}

	return &Server{router: router}
}

// Handler returns the fully-wrapped http.Handler (router + CORS), ready
// for http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}
