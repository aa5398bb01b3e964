package api

import (
	"encoding/json"
	"net/http"

	"github.com/gemwallet/walletcore/errs"
)

// ResponseResult is the envelope every JSON response is wrapped in,
// wire-compatible with the original's ResponseResult<T>: a populated Data
// on success, a populated Error on failure, never both.
type ResponseResult struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ResponseResult{Data: data})
}

// writeError serializes err as {"error": "..."} with the status its Kind
// maps to, grounded on responders.rs's ApiError Responder impl.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForKind(errs.KindOf(err)))
	_ = json.NewEncoder(w).Encode(ResponseResult{Error: err.Error()})
}

func statusForKind(kind errs.Kind) int {
	switch kind {
	case errs.NotFound:
		return http.StatusNotFound
	case errs.BadRequest:
		return http.StatusBadRequest
	case errs.Unauthorized:
		return http.StatusUnauthorized
	case errs.Upstream:
		return http.StatusBadGateway
	case errs.Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
