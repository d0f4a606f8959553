package errors

import "errors"

// IsReachability reports whether err is a managed-path transport failure
// that should trigger the direct-path fallback.
func IsReachability(err error) bool {
	var g *GatewayUnreachableError
	return errors.As(err, &g)
}

// IsUnavailable reports whether err should be mapped to a client-facing
// "service unavailable for this organization" response, as opposed to a
// content-level provider rejection.
func IsUnavailable(err error) bool {
	var ne *NoEligibleCredentialError
	var agg *AggregatedFailureError
	return errors.As(err, &ne) || errors.As(err, &agg)
}

// IsMalformedResult reports whether err is a provider data contract
// violation on a terminal long-running result.
func IsMalformedResult(err error) bool {
	var m *MalformedResultError
	return errors.As(err, &m)
}

// IsStreamInterrupted reports whether err is a mid-stream failure after
// partial delivery.
func IsStreamInterrupted(err error) bool {
	var s *StreamInterruptedError
	return errors.As(err, &s)
}

// StatusOf extracts the provider HTTP status carried by err, unwrapping
// aggregated failures down to their last attempt. Returns 0 when no status
// is available.
func StatusOf(err error) int {
	var agg *AggregatedFailureError
	if errors.As(err, &agg) {
		err = agg.LastError()
	}
	var pc *ProviderCallError
	if errors.As(err, &pc) {
		return pc.StatusCode
	}
	return 0
}
