// README: Sentinel errors and their FailureReason mapping, mirroring the
// teacher's order.ErrInvalidState / writeOrderError dispatch-by-sentinel idiom.
package search

import "errors"

var (
	ErrValidation          = errors.New("validation_error")
	ErrGateTimeout         = errors.New("gate_timeout")
	ErrGateInvalid         = errors.New("gate_invalid")
	ErrIntentFailed        = errors.New("intent_failed")
	ErrLocationRequired    = errors.New("location_required")
	ErrGeocodingFailed     = errors.New("geocoding_failed")
	ErrLiveDataUnavailable = errors.New("live_data_unavailable")
	ErrProviderError       = errors.New("provider_error")
	ErrCacheError          = errors.New("cache_error")
	ErrSchemaError         = errors.New("schema_error")

	ErrInvalidParameters = errors.New("invalid_provider_parameters")
	ErrPartialBias       = errors.New("partial_bias_not_allowed")
)

// failureReasonFor maps a pipeline-fatal error to the response-facing
// FailureReason enum. Errors not in this table surface as PROVIDER_ERROR,
// the conservative default for "something upstream broke".
func failureReasonFor(err error) FailureReason {
	switch {
	case errors.Is(err, ErrLocationRequired):
		return FailureLocationRequired
	case errors.Is(err, ErrGeocodingFailed):
		return FailureGeocodingFailed
	case errors.Is(err, ErrIntentFailed):
		return FailureLowConfidence
	case errors.Is(err, ErrLiveDataUnavailable):
		return FailureLiveDataUnavailable
	case errors.Is(err, ErrProviderError):
		return FailureProviderError
	default:
		return FailureProviderError
	}
}
