package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gemwallet/walletcore/errs"
)

func TestStatusForKind(t *testing.T) {
	cases := []struct {
		kind errs.Kind
		want int
	}{
		{errs.NotFound, http.StatusNotFound},
		{errs.BadRequest, http.StatusBadRequest},
		{errs.Unauthorized, http.StatusUnauthorized},
		{errs.Upstream, http.StatusBadGateway},
		{errs.Transient, http.StatusServiceUnavailable},
		{errs.Fatal, http.StatusInternalServerError},
		{errs.Kind("unknown"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusForKind(c.kind))
	}
}
