package web

// errors.go writes operation outcomes as response envelopes.
//
// Every failure, whether raised while decoding the request or inside the
// engine, is reported in the same envelope:
//
//	{"Status":"error","Error":{"Type":"...","Message":"...","Details":null}}
//
// Most failures are the client's to fix and answer 400. SERVER_BUSY answers
// 503 and PAYLOAD_TOO_LARGE answers 413 so that proxies and clients can
// retry or give up without reading the body.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
	"github.com/JonMunkholm/csvclean/internal/protocol"
)

// respond writes the envelope for an operation outcome.
func respond(w http.ResponseWriter, r *http.Request, data string, err error) {
	resp := protocol.Result(data, err)

	status := http.StatusOK
	if !resp.OK() {
		status = statusFor(resp.Error.Type)
		logging.FromContext(r.Context()).Warn("request failed",
			"path", r.URL.Path,
			"status", status,
			"error_type", resp.Error.Type,
			"error", resp.Error.Message,
		)
		if status == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "1")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := resp.Encode(w); encErr != nil {
		slog.Error("write response", "error", encErr)
	}
}

// statusFor maps an error type to an HTTP status.
func statusFor(t core.ErrorType) int {
	switch t {
	case core.ErrServerBusy:
		return http.StatusServiceUnavailable
	case core.ErrTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

// bodyError classifies a failure to read the request body.
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return core.NewErrorDetails(core.ErrTooLarge, "Request body is too large",
			"Reduce the size of the CSV data")
	}
	return core.NewErrorDetails(core.ErrInvalidReq, "Could not read request body", err.Error())
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
