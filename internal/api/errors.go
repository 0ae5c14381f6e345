package api

import (
	"errors"
	"net/http"

	"github.com/blue-az/BabAnalysis/internal/analysis"
	"github.com/blue-az/BabAnalysis/internal/report"
	"github.com/blue-az/BabAnalysis/internal/storage"
)

// ErrBadRequest is returned for unparseable path or query parameters.
var ErrBadRequest = errors.New("bad request")

// statusFor maps pipeline errors to HTTP status codes. Schema mismatches
// and anything unexpected are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, analysis.ErrInvalidQuery):
		return http.StatusBadRequest
	case report.IsSessionNotFound(err):
		return http.StatusNotFound
	case storage.IsDataUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorKind labels an error for logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, analysis.ErrInvalidQuery):
		return "invalid_query"
	case report.IsSessionNotFound(err):
		return "not_found"
	case storage.IsDataUnavailable(err):
		return "data_unavailable"
	case storage.IsSchemaMismatch(err):
		return "schema_mismatch"
	default:
		return "internal"
	}
}
