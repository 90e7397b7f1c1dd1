package dto

import "net/http"

// API error codes. Every code is ERR_<CATEGORY>[_<DETAIL>].
const (
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"

	// ErrCodeMissingCredential means no upstream token was supplied at all.
	ErrCodeMissingCredential = "ERR_MISSING_CREDENTIAL"
	// ErrCodeUpstreamAuth means the order platform refused the token.
	ErrCodeUpstreamAuth       = "ERR_UPSTREAM_AUTH"
	ErrCodeUpstreamFailure    = "ERR_UPSTREAM_FAILURE"
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
)

var httpStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	ErrCodeMissingCredential:  http.StatusBadRequest,
	ErrCodeUpstreamAuth:       http.StatusUnauthorized,
	ErrCodeUpstreamFailure:    http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the status for code, or 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes translates shared.DomainError codes to API codes.
var domainCodes = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"ALREADY_EXISTS":      ErrCodeAlreadyExists,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"UNAUTHORIZED":        ErrCodeUpstreamAuth,
	"UPSTREAM_FAILURE":    ErrCodeUpstreamFailure,
	"SERVICE_UNAVAILABLE": ErrCodeServiceUnavailable,
	"VALIDATION_ERROR":    ErrCodeValidation,
}

// NormalizeErrorCode maps a domain error code to its API code. API codes
// and unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	return code
}
