package api

import (
	"errors"
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/logging"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// httpStatus maps a service error to its HTTP status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, domain.ErrUnknownState):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders err. Internal failures are logged and hidden.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		logging.FromContext(r.Context(), s.logger).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, code, "internal server error")
		return
	}
	if errors.Is(err, domain.ErrUnknownState) {
		// clients match on this exact text
		writeError(w, code, domain.ErrUnknownState.Error())
		return
	}
	writeError(w, code, err.Error())
}

// grpcError maps a service error to a gRPC status.
func grpcError(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrConflict):
		code = codes.AlreadyExists
	case errors.Is(err, domain.ErrBadRequest):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownState):
		code = codes.InvalidArgument
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
