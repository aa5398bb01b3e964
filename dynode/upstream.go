package dynode

import (
	"fmt"

	"github.com/valyala/fasthttp"
)

// RequestUrl is the resolved upstream target for one chain, grounded on
// request_builder.rs's RequestUrl: a base url plus static headers and
// url-param-derived headers that get layered on at build time.
type RequestUrl struct {
	URL     string
	Headers map[string]string // static headers, applied to every request
	Params  map[string]string // url-param-derived headers (same treatment as Headers in both builders)
}

// resolve joins RequestUrl.URL with path.
func (u RequestUrl) resolve(path string) string {
	return u.URL + path
}

// defaultKeepHeaders is the allow-list build_forwarded filters the caller's
// original headers down to when no chain-specific override is configured.
var defaultKeepHeaders = []string{"Authorization", "X-Api-Key"}

// BuildJSONRPC composes an upstream *fasthttp.Request for a JSON-RPC call,
// matching RequestBuilder::build_jsonrpc: Content-Type: application/json
// plus the url's param-derived headers, body forwarded verbatim.
func BuildJSONRPC(url RequestUrl, path string, body []byte) *fasthttp.Request {
	req := fasthttp.AcquireRequest()
	req.SetRequestURI(url.resolve(path))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	applyHeaders(req, url.Headers)
	applyHeaders(req, url.Params)
	req.SetBody(body)
	return req
}

// BuildForwarded composes an upstream *fasthttp.Request for a regular
// request, matching RequestBuilder::build_forwarded: filter the caller's
// original headers to keepHeaders, then layer the url's param-derived
// headers on top.
func BuildForwarded(url RequestUrl, method, path string, body []byte, originalHeaders map[string]string, keepHeaders []string) *fasthttp.Request {
	req := fasthttp.AcquireRequest()
	req.SetRequestURI(url.resolve(path))
	req.Header.SetMethod(method)

	allow := keepHeaders
	if allow == nil {
		allow = defaultKeepHeaders
	}
	kept := filterHeaders(originalHeaders, allow)
	applyHeaders(req, kept)
	applyHeaders(req, url.Headers)
	applyHeaders(req, url.Params)

	if len(body) > 0 {
		req.SetBody(body)
	}
	return req
}

func filterHeaders(headers map[string]string, keep []string) map[string]string {
	allowed := make(map[string]struct{}, len(keep))
	for _, h := range keep {
		allowed[h] = struct{}{}
	}
	out := make(map[string]string)
	for k, v := range headers {
		if _, ok := allowed[k]; ok {
			out[k] = v
		}
	}
	return out
}

func applyHeaders(req *fasthttp.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// Dispatch executes req against the upstream and returns its body, status,
// and content type. Upstream 5xx and transport errors are returned
// verbatim to the caller; this layer never retries, per spec §4.8.
func Dispatch(req *fasthttp.Request) (body []byte, status int, contentType string, err error) {
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := fasthttp.Do(req, resp); err != nil {
		return nil, 0, "", fmt.Errorf("dynode: upstream dispatch: %w", err)
	}

	bodyCopy := append([]byte(nil), resp.Body()...)
	return bodyCopy, resp.StatusCode(), string(resp.Header.ContentType()), nil
}
