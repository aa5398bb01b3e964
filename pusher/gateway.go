package pusher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
)

// Notification is the wire shape the push gateway (e.g. Gorush) accepts,
// ported from the original's api_connector::pusher::model::Notification.
type Notification struct {
	Tokens   []string        `json:"tokens"`
	Platform int             `json:"platform"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Topic    string          `json:"topic,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Response is the gateway's reply. A non-empty Logs entry containing
// "unregistered" signals the original's "unregistered token" case.
type Response struct {
	Counts int      `json:"counts"`
	Logs   []string `json:"logs"`
}

// GatewayClient posts Notifications to an external push gateway over
// fasthttp, the teacher pack's HTTP client library (valyala/fasthttp, also
// used by dynode's upstream dispatch).
type GatewayClient struct {
	url string
}

// NewGatewayClient returns a client posting to url.
func NewGatewayClient(url string) *GatewayClient {
	return &GatewayClient{url: url}
}

// Push sends notification and returns the gateway's response.
func (c *GatewayClient) Push(notification Notification) (Response, error) {
	body, err := json.Marshal(notification)
	if err != nil {
		return Response{}, fmt.Errorf("pusher: marshal notification: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := fasthttp.Do(req, resp); err != nil {
		return Response{}, fmt.Errorf("pusher: push request: %w", err)
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return Response{}, fmt.Errorf("pusher: decode response: %w", err)
	}
	return out, nil
}

// UnregisteredTokenReported reports whether resp's logs mention an
// unregistered push token, the original's `response.logs.len() > 0`
// heuristic narrowed to the specific signal it exists to catch.
func UnregisteredTokenReported(resp Response) bool {
	for _, l := range resp.Logs {
		if strings.Contains(strings.ToLower(l), "unregistered") {
			return true
		}
	}
	return false
}
