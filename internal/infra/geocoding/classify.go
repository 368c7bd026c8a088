package geocoding

import (
	"net/http"
	"strings"

	"sofialert/internal/errors"
)

// Remark fragments that indicate the query itself is broken. Retrying the
// same query against another endpoint would fail identically.
var nonRetryableMarkers = []string{
	"syntax",
	"parse error",
	"expected",
	"unexpected",
	"invalid",
}

// ShouldTryFallback classifies a geocoding failure: true means the failure
// is endpoint-specific (overload, outage, rate limit, network) and a retry
// or fallback endpoint may succeed; false means the query is at fault and
// every endpoint would reject it.
func ShouldTryFallback(err error) bool {
	var remarkErr *RemarkError
	if errors.As(err, &remarkErr) {
		return !hasNonRetryableMarker(remarkErr.Remark)
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return false
		}

		return true
	}

	// Network errors, timeouts, decode failures: the endpoint misbehaved.
	return true
}

func hasNonRetryableMarker(remark string) bool {
	lower := strings.ToLower(remark)
	for _, marker := range nonRetryableMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}
