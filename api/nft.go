package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/valyala/fasthttp"

	"github.com/gemwallet/walletcore/errs"
)

// defaultImageCacheControl is applied when the upstream image response
// carries no Cache-Control of its own, matching nft/mod.rs's
// get_nft_asset_image_preview default.
const defaultImageCacheControl = "public, max-age=604800, immutable"

// NftImageSource resolves an nft asset id to its upstream image URL. The
// NFT metadata scraper itself is an external collaborator (spec §1).
type NftImageSource interface {
	ImageURL(assetID string) (string, error)
}

// NftHandler serves the /nft/* endpoints of spec §4.9.
type NftHandler struct {
	source NftImageSource
}

// NewNftHandler builds an NftHandler over source.
func NewNftHandler(source NftImageSource) *NftHandler {
	return &NftHandler{source: source}
}

// ImagePreview handles GET /nft/assets/<id>/image_preview: fetches the
// upstream image over fasthttp (the teacher's outbound HTTP client,
// already used by dynode's upstream dispatch) and forwards it, defaulting
// Cache-Control to a 7-day immutable policy and preserving Last-Modified
// when the upstream set one.
func (h *NftHandler) ImagePreview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	assetID := ps.ByName("id")
	url, err := h.source.ImageURL(assetID)
	if err != nil {
		writeError(w, err)
		return
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := fasthttp.Do(req, resp); err != nil {
		writeError(w, errs.Wrap(errs.Upstream, "api: fetch nft image", err))
		return
	}

	contentType := string(resp.Header.ContentType())
	if contentType == "" {
		contentType = "image/png"
	}
	cacheControl := string(resp.Header.Peek("Cache-Control"))
	if cacheControl == "" {
		cacheControl = defaultImageCacheControl
	}
	lastModified := string(resp.Header.Peek("Last-Modified"))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheControl)
	if lastModified != "" {
		w.Header().Set("Last-Modified", lastModified)
	}
	w.WriteHeader(resp.StatusCode())
	_, _ = w.Write(resp.Body())
}
