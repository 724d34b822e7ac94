package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Strob0t/driftgate/internal/logger"
)

// Callback signature headers.
const (
	HeaderSignatureTimestamp = "X-Signature-Timestamp"
	HeaderSignature          = "X-Signature"
)

const (
	signatureVersion = "v0"
	maxCallbackBody  = 1 << 20 // 1 MiB
)

// Sign returns the signature header value for body at timestamp ts.
func Sign(secret string, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + ts + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature authenticates body at timestamp
// for the shared secret, and whether timestamp lies within window of now.
// The comparison is constant-time over the full header value.
func VerifySignature(secret string, body []byte, timestamp, signature string, now time.Time, window time.Duration) bool {
	if secret == "" || timestamp == "" || signature == "" {
		return false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > window {
		return false
	}
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Signature returns middleware that rejects requests whose body is not signed
// with secret. The body is buffered and restored for the next handler.
// Failures get 403 and are never passed on.
func Signature(secret string, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.From(r.Context())

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					log.Warn("callback body too large", "category", "input", "limit", tooLarge.Limit)
					writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				writeError(w, http.StatusBadRequest, "failed to read body")
				return
			}

			ts := r.Header.Get(HeaderSignatureTimestamp)
			sig := r.Header.Get(HeaderSignature)
			if !VerifySignature(secret, body, ts, sig, time.Now(), window) {
				log.Warn("callback signature rejected", "category", "auth",
					"remote_addr", r.RemoteAddr, "has_timestamp", ts != "", "has_signature", sig != "")
				writeError(w, http.StatusForbidden, "invalid signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes a small JSON error body. msg must not need escaping.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
