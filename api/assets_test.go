package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
)

type fakeAssetsStore struct {
	searchQuery    string
	searchChains   []primitives.ChainId
	searchMinScore int
	searchLimit    int
	searchOffset   int
	searchResult   []primitives.Asset
	searchErr      error

	byDeviceIDs []primitives.AssetId
	byDeviceErr error
}

func (f *fakeAssetsStore) SearchAssets(query string, chains []primitives.ChainId, minScore, limit, offset int) ([]primitives.Asset, error) {
	f.searchQuery = query
	f.searchChains = chains
	f.searchMinScore = minScore
	f.searchLimit = limit
	f.searchOffset = offset
	return f.searchResult, f.searchErr
}

func (f *fakeAssetsStore) AssetIDsByDeviceID(deviceID string) ([]primitives.AssetId, error) {
	return f.byDeviceIDs, f.byDeviceErr
}

func TestAssetsHandlerSearchUsesAsymmetricMinScore(t *testing.T) {
	store := &fakeAssetsStore{searchResult: []primitives.Asset{{ID: "bitcoin", Name: "Bitcoin"}}}
	h := NewAssetsHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/assets/search?q=aVeryLongQueryString&chains=bitcoin,ethereum&limit=5&offset=2", nil)
	w := httptest.NewRecorder()
	h.Search(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -100, store.searchMinScore)
	assert.Equal(t, 5, store.searchLimit)
	assert.Equal(t, 2, store.searchOffset)
	require.Len(t, store.searchChains, 2)
}

func TestAssetsHandlerSearchShortQueryUsesStrictThreshold(t *testing.T) {
	store := &fakeAssetsStore{}
	h := NewAssetsHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/assets/search?q=btc", nil)
	w := httptest.NewRecorder()
	h.Search(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, store.searchMinScore)
}

func TestAssetsHandlerSearchPropagatesStoreError(t *testing.T) {
	store := &fakeAssetsStore{searchErr: errs.Transientf(nil, "boom")}
	h := NewAssetsHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/assets/search", nil)
	w := httptest.NewRecorder()
	h.Search(w, r, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAssetsHandlerByDeviceIDRejectsInvalidID(t *testing.T) {
	store := &fakeAssetsStore{}
	h := NewAssetsHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/assets/by_device_id/", nil)
	w := httptest.NewRecorder()
	h.ByDeviceID(w, r, httprouter.Params{{Key: "device", Value: ""}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssetsHandlerByDeviceIDReturnsIDs(t *testing.T) {
	store := &fakeAssetsStore{byDeviceIDs: []primitives.AssetId{"bitcoin", "ethereum"}}
	h := NewAssetsHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/assets/by_device_id/dev1", nil)
	w := httptest.NewRecorder()
	h.ByDeviceID(w, r, httprouter.Params{{Key: "device", Value: "dev1"}})

	assert.Equal(t, http.StatusOK, w.Code)
}
