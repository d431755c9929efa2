// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pboxnet/boxdir/internal/directory"
	"github.com/pboxnet/boxdir/internal/logging"
	"github.com/pboxnet/boxdir/util/slicest"
)

// Wire shapes. These mirror the original directory protocol exactly; field
// names and nesting are part of the client contract.

type keyEntry struct {
	Public string `json:"public"`
}

type ipEntry struct {
	Address string `json:"address"`
}

type registerRequest struct {
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
}

type updateKeysRequest struct {
	// Pointer so a body that omits the field is distinguishable from an
	// explicit empty list; only the latter may clear a user's keys.
	PublicKeys *[]string `json:"public_keys"`
}

type updateEndpointsRequest struct {
	IPs *[]string `json:"ips"`
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) getUserStatus(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	status, err := s.registry.Status(username)
	if err != nil {
		s.storeError(w, "user status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]string{"username": username, "status": status},
	})
}

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Username == "" || req.PublicKey == "" {
		writeError(w, http.StatusBadRequest, "username and public_key required")
		return
	}
	if err := s.registry.Register(req.Username, req.PublicKey); err != nil {
		if errors.Is(err, directory.ErrConflict) {
			writeError(w, http.StatusBadRequest, "username already taken")
			return
		}
		s.storeError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) getKeys(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	keys, err := s.keys.ListActive(username)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no keys for user")
			return
		}
		s.storeError(w, "list keys", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"username": username,
			"keys":     slicest.Map(keys, func(k string) keyEntry { return keyEntry{Public: k} }),
		},
	})
}

func (s *Server) updateKeys(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req updateKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.PublicKeys == nil {
		writeError(w, http.StatusBadRequest, "public_keys required")
		return
	}
	if err := s.keys.Reconcile(username, *req.PublicKeys); err != nil {
		s.storeError(w, "reconcile keys", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}

func (s *Server) getEndpoints(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	addrs, err := s.endpoints.List(username)
	if err != nil {
		s.storeError(w, "list endpoints", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"username": username,
			"ips":      slicest.Map(addrs, func(a string) ipEntry { return ipEntry{Address: a} }),
		},
	})
}

func (s *Server) updateEndpoints(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req updateEndpointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.IPs == nil {
		writeError(w, http.StatusBadRequest, "ips required")
		return
	}
	if err := s.endpoints.Reconcile(username, *req.IPs); err != nil {
		s.storeError(w, "reconcile endpoints", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}

// storeError collapses every persistence failure to 400, matching the
// protocol's historical behavior. The real cause goes to the log only.
func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	logging.Errorf("server: %s: %v", op, err)
	writeError(w, http.StatusBadRequest, "storage error")
}
