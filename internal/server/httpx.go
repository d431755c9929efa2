// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package server

import (
	"encoding/json"
	"net/http"

	"github.com/pboxnet/boxdir/internal/logging"
)

// writeJSON serializes v with the given status code. Encoding failures are
// logged but not surfaced; headers are already gone by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf("server: encode response: %v", err)
	}
}

// writeError emits the uniform error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
