package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/catleonidas/DispoWiggleLens/internal/infra/imageio"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
)

// formError marks a request body that could not be read as multipart.
type formError struct {
	err error
}

func (e *formError) Error() string { return "invalid multipart form: " + e.err.Error() }
func (e *formError) Unwrap() error { return e.err }

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// classify maps an error to its HTTP status and stable error code.
func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	var form *formError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, imageio.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.As(err, &form):
		return http.StatusBadRequest, "invalid_form"
	case errors.Is(err, imageio.ErrUnsupportedImage):
		return http.StatusBadRequest, "invalid_image"
	case wiggle.IsValidation(err):
		return http.StatusBadRequest, wiggle.ErrorCode(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, wiggle.ErrEncodingFailure):
		return http.StatusInternalServerError, wiggle.ErrorCode(err)
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout {
		msg = "video generation failed"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
