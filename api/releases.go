package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/gemwallet/walletcore/primitives"
)

// ReleaseStore is the narrow storage surface the releases handler needs.
type ReleaseStore interface {
	ListReleases(platform primitives.DevicePlatform) ([]primitives.Release, error)
}

// ReleasesHandler serves GET /releases, used by client force-upgrade
// checks.
type ReleasesHandler struct {
	store ReleaseStore
}

// NewReleasesHandler builds a ReleasesHandler over store.
func NewReleasesHandler(store ReleaseStore) *ReleasesHandler {
	return &ReleasesHandler{store: store}
}

// List handles GET /releases?platform=ios|android. An empty/omitted
// platform returns every platform's releases.
func (h *ReleasesHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	platform := primitives.DevicePlatform(r.URL.Query().Get("platform"))
	releases, err := h.store.ListReleases(platform)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, releases)
}
