// Package dynode implements the JSON-RPC/REST reverse proxy of spec §4.8:
// classify each inbound request, derive a cache key, consult a per-chain
// cache-rule table, look up or dispatch upstream, and record latency and
// cache-hit metrics. Grounded on
// original_source/apps/dynode/src/request_types.rs (classification + cache
// key derivation) and request_builder.rs (upstream request construction).
package dynode

import (
	"encoding/json"
	"fmt"

	"github.com/gemwallet/walletcore/gemlog"
)

var logger = gemlog.NewModuleLogger(gemlog.ModuleDynode)

// jsonRPCCall is the wire shape a POST body must match to classify as
// JSON-RPC, mirroring request_types.rs's JsonRpcCall.
type jsonRPCCall struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      uint64          `json:"id"`
}

// RequestKind is the closed classification of an inbound request.
type RequestKind string

const (
	KindRegular RequestKind = "regular"
	KindJSONRPC RequestKind = "jsonrpc"
)

// Request is a classified inbound request, equivalent to the original's
// RequestType enum.
type Request struct {
	Kind RequestKind

	// Populated for both kinds.
	Path   string
	Method string
	Body   []byte

	// Populated only for KindJSONRPC.
	RPCMethod string
	RPCParams json.RawMessage // nil iff params was absent or JSON null
}

// Classify builds a Request from an inbound method/path/body, matching
// RequestType::from_request: only a syntactically valid JSON-RPC call on a
// POST body selects KindJSONRPC, anything else falls back to KindRegular.
func Classify(method, path string, body []byte) Request {
	if method == "POST" {
		if call, ok := parseJSONRPCCall(body); ok {
			params := call.Params
			if len(params) == 0 || string(params) == "null" {
				params = nil
			}
			return Request{
				Kind:      KindJSONRPC,
				Path:      path,
				Method:    method,
				Body:      body,
				RPCMethod: call.Method,
				RPCParams: params,
			}
		}
	}
	return Request{Kind: KindRegular, Path: path, Method: method, Body: body}
}

// parseJSONRPCCall decodes body as a JsonRpcCall only if jsonrpc, method,
// and id are all present, matching serde's strict-by-default deserialize
// for a struct with no Option/default fields — a body merely containing a
// "method" key alongside unrelated REST fields must not misclassify.
func parseJSONRPCCall(body []byte) (jsonRPCCall, bool) {
	var presence map[string]json.RawMessage
	if err := json.Unmarshal(body, &presence); err != nil {
		return jsonRPCCall{}, false
	}
	for _, field := range []string{"jsonrpc", "method", "id"} {
		if _, ok := presence[field]; !ok {
			return jsonRPCCall{}, false
		}
	}

	var call jsonRPCCall
	if err := json.Unmarshal(body, &call); err != nil || call.Method == "" {
		return jsonRPCCall{}, false
	}
	return call, true
}

// MethodsForMetrics returns the metric-label method/path list, matching
// get_methods_for_metrics (a single-element list in both cases here, since
// this proxy only builds Single json-rpc calls, not batches).
func (r Request) MethodsForMetrics() []string {
	if r.Kind == KindJSONRPC {
		return []string{r.RPCMethod}
	}
	return []string{r.Path}
}

// MethodOrPath returns the metrics/cache-rule matching label: the RPC
// method name for JSON-RPC requests, the path for regular ones.
func (r Request) MethodOrPath() string {
	if r.Kind == KindJSONRPC {
		return r.RPCMethod
	}
	return r.Path
}

// CacheKey derives the cache key for host, matching RequestType::cache_key:
// "<host>:<method>:<path>" for Regular, "<host>:POST:<path>:<rpc_method>"
// plus ":<params_json>" appended iff params is present and non-null for
// JsonRpc.
func (r Request) CacheKey(host string) string {
	if r.Kind == KindRegular {
		return fmt.Sprintf("%s:%s:%s", host, r.Method, r.Path)
	}
	key := fmt.Sprintf("%s:POST:%s:%s", host, r.Path, r.RPCMethod)
	if r.RPCParams != nil {
		key += ":" + string(r.RPCParams)
	}
	return key
}
