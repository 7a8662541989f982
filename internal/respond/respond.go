// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package respond writes the JSON envelopes shared by every API endpoint:
// {"success":true,"message":...,"data":...} on success and
// {"success":false,"error":...} on failure.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"dominicanews/internal/apperr"
)

// Envelope is the top-level body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope for err. Classified errors keep their
// message and status; anything else becomes a 500 "Internal Server Error".
// When dev is true the underlying cause is included under "details".
func Error(w http.ResponseWriter, err error, dev bool) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", "error", err)
		body := Envelope{Error: "Internal Server Error"}
		if dev {
			body.Details = err.Error()
		}
		JSON(w, http.StatusInternalServerError, body)
		return
	}

	body := Envelope{Error: appErr.Message}
	switch {
	case len(appErr.Fields) > 0:
		body.Details = appErr.Fields
	case dev && appErr.Err != nil:
		body.Details = appErr.Err.Error()
	}

	if appErr.Kind == apperr.KindUpstream || appErr.Kind == apperr.KindInternal {
		slog.Error("request failed", "kind", appErr.Kind.String(), "error", err)
	}

	JSON(w, appErr.Kind.Status(), body)
}
