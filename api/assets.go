package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
)

// AssetsStore is the narrow storage surface the assets handlers need.
type AssetsStore interface {
	SearchAssets(query string, chains []primitives.ChainId, minScore, limit, offset int) ([]primitives.Asset, error)
	AssetIDsByDeviceID(deviceID string) ([]primitives.AssetId, error)
}

// AssetsHandler serves the /assets/* endpoints of spec §4.9.
type AssetsHandler struct {
	store AssetsStore
}

// NewAssetsHandler builds an AssetsHandler over store.
func NewAssetsHandler(store AssetsStore) *AssetsHandler {
	return &AssetsHandler{store: store}
}

// Search handles GET /assets/search?q=...&chains=...&limit=...&offset=...,
// grounded on asset_client.rs's get_assets_search and its asymmetric
// min_score threshold.
func (h *AssetsHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query, err := ValidateSearchQuery(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, errs.New(errs.BadRequest, err.Error()))
		return
	}
	chains := ParseChains(r.URL.Query().Get("chains"))
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	assets, err := h.store.SearchAssets(query, chains, SearchMinScore(query), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

// ByDeviceID handles GET /assets/by_device_id/<device>, returning the
// asset ids currently subscribed by the device's wallets. Mounted behind
// RequireSignature in Server, since it discloses a device's subscription
// set.
func (h *AssetsHandler) ByDeviceID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	deviceID, err := ValidateDeviceID(ps.ByName("device"))
	if err != nil {
		writeError(w, errs.New(errs.BadRequest, err.Error()))
		return
	}
	ids, err := h.store.AssetIDsByDeviceID(deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}
