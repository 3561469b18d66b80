// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// maxJSONBody caps API request bodies. Articles carry their whole block
// sequence, so the limit is generous.
const maxJSONBody = 4 << 20

// writeJSON sends data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode json response failed", "error", err)
	}
}

// writeError sends {"error": msg} with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// serverError logs err and answers 500 "Failed to <action>".
func serverError(w http.ResponseWriter, action string, err error) {
	slog.Error("api request failed", "action", action, "error", err)
	writeError(w, http.StatusInternalServerError, "Failed to "+action)
}

// decodeJSON reads the request body into dst. A malformed body is answered
// with 400 "Invalid request body" and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// optional is a JSON field that records whether it was present in the
// request body, so partial updates can tell "absent" from "null".
type optional[T any] struct {
	Set   bool
	Value T
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// or returns the value when present, else fallback.
func (o optional[T]) or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}
