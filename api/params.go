package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gemwallet/walletcore/primitives"
)

// Bounds mirrored from params.rs's *Param FromParam/FromFormField impls:
// the original rejects a request outright on an out-of-bound value rather
// than silently truncating it.
const (
	maxDeviceIDLength    = 32
	maxSearchQueryLength = 128
)

// ValidateDeviceID mirrors params.rs's DeviceIdParam bound.
func ValidateDeviceID(raw string) (string, error) {
	if raw == "" || len(raw) > maxDeviceIDLength {
		return "", fmt.Errorf("api: invalid device id %q", raw)
	}
	return raw, nil
}

// ValidateSearchQuery mirrors params.rs's SearchQueryParam bound. Unlike
// DeviceIdParam, an empty query is legal (it widens the search to
// everything above the minimum rank).
func ValidateSearchQuery(raw string) (string, error) {
	if len(raw) > maxSearchQueryLength {
		return "", fmt.Errorf("api: invalid query length %d", len(raw))
	}
	return raw, nil
}

// ParseChains splits a comma-separated chains query param into validated
// ChainIds, silently dropping entries that don't resolve — mirrors
// ChainParam's FromFormField use as an optional filter, where one bad
// chain narrows the filter rather than failing the whole request.
func ParseChains(raw string) []primitives.ChainId {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	chains := make([]primitives.ChainId, 0, len(parts))
	for _, p := range parts {
		if id, err := primitives.ChainFromString(strings.TrimSpace(p)); err == nil {
			chains = append(chains, id)
		}
	}
	return chains
}

// SearchMinScore implements the asymmetric threshold named in spec §4.9:
// queries longer than 10 characters search with a permissive -100 floor;
// shorter queries require at least a 10 rank, keeping short/common
// substrings from matching the entire asset table. Preserved exactly as
// specified rather than "fixed" — see DESIGN.md's Open Questions.
func SearchMinScore(query string) int {
	if len(query) > 10 {
		return -100
	}
	return 10
}

// parseIntDefault parses raw as an int, falling back to def on an empty
// or malformed value rather than rejecting the request — limit/offset are
// pagination hints, not validated input.
func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
