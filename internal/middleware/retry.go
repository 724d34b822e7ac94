package middleware

import "net/http"

// HeaderRetryIndicator marks a redelivery of a callback already sent once.
const HeaderRetryIndicator = "X-Retry-Indicator"

// RetryShortCircuit answers redelivered callbacks with 200 before any other
// processing, so platform retries never trigger a second pipeline.
func RetryShortCircuit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderRetryIndicator) != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true,"ignored":"retry"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
