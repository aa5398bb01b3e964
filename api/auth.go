package api

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/ed25519"

	"github.com/gemwallet/walletcore/errs"
	"github.com/gemwallet/walletcore/primitives"
)

// signatureTimestampToleranceMs is the maximum clock skew spec §4.9
// allows between a signed request's timestamp and server time.
const signatureTimestampToleranceMs = 300_000

// DeviceKeyStore resolves a device's registered public key for signature
// verification.
type DeviceKeyStore interface {
	GetDeviceByDeviceID(deviceID string) (primitives.Device, error)
}

// RequireSignature wraps handler so it only runs once the caller has
// presented a valid ed25519 signature over the request, grounded on
// responders.rs's verify_request_signature. deviceIDParam names the
// httprouter path parameter holding the device id whose registered
// public key verifies the signature.
func RequireSignature(store DeviceKeyStore, deviceIDParam string, handler httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		deviceID := ps.ByName(deviceIDParam)
		device, err := store.GetDeviceByDeviceID(deviceID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := verifyRequestSignature(r, device.PublicKey); err != nil {
			writeError(w, err)
			return
		}
		handler(w, r, ps)
	}
}

// verifyRequestSignature checks the x-device-signature/-timestamp/-body-hash
// headers against publicKeyHex, exactly matching responders.rs's header
// names, signed-string format ("v1.<ts>.<method>.<path>.<bodyhash>"), and
// timestamp tolerance.
func verifyRequestSignature(r *http.Request, publicKeyHex string) error {
	signature := r.Header.Get("x-device-signature")
	timestampStr := r.Header.Get("x-device-timestamp")
	bodyHash := r.Header.Get("x-device-body-hash")
	if signature == "" || timestampStr == "" || bodyHash == "" {
		return errs.New(errs.Unauthorized, "api: missing signature headers")
	}

	timestampMs, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return errs.New(errs.Unauthorized, "api: invalid timestamp")
	}
	nowMs := time.Now().UTC().UnixNano() / int64(time.Millisecond)
	if absInt64(nowMs-timestampMs) > signatureTimestampToleranceMs {
		return errs.New(errs.Unauthorized, "api: timestamp expired")
	}

	message := fmt.Sprintf("v1.%s.%s.%s.%s", timestampStr, r.Method, r.URL.Path, bodyHash)
	if !verifyEd25519(publicKeyHex, message, signature) {
		return errs.New(errs.Unauthorized, "api: invalid signature")
	}
	return nil
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// verifyEd25519 checks sig (hex-encoded) against message under the
// hex-encoded public key.
func verifyEd25519(publicKeyHex, message, sigHex string) bool {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, []byte(message), sig)
}
