package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gemwallet/walletcore/primitives"
)

type fakeReleaseStore struct {
	platform primitives.DevicePlatform
	releases []primitives.Release
	err      error
}

func (f *fakeReleaseStore) ListReleases(platform primitives.DevicePlatform) ([]primitives.Release, error) {
	f.platform = platform
	return f.releases, f.err
}

func TestReleasesHandlerListFiltersByPlatform(t *testing.T) {
	store := &fakeReleaseStore{releases: []primitives.Release{{Platform: "ios", Version: "1.2.3"}}}
	h := NewReleasesHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/releases?platform=ios", nil)
	w := httptest.NewRecorder()
	h.List(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, primitives.DevicePlatform("ios"), store.platform)
	assert.Contains(t, w.Body.String(), "1.2.3")
}

func TestReleasesHandlerListDefaultsToAllPlatforms(t *testing.T) {
	store := &fakeReleaseStore{}
	h := NewReleasesHandler(store)

	r := httptest.NewRequest(http.MethodGet, "/releases", nil)
	w := httptest.NewRecorder()
	h.List(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, primitives.DevicePlatform(""), store.platform)
}
