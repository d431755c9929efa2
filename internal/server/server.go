// Copyright (c) 2025 The Boxdir Authors
// Boxdir - peer network directory service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package server exposes the directory over JSON/HTTP.
//
// The API is unauthenticated. The original protocol notes say key and
// endpoint updates "must be authenticated" and restricted to the owning
// user, but no enforcement exists at this layer; deployments that need it
// must put an access-control proxy in front of the daemon.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pboxnet/boxdir/internal/db"
	"github.com/pboxnet/boxdir/internal/directory"
	"github.com/pboxnet/boxdir/internal/logging"
)

// defaultMaxBodyBytes caps request bodies; a desired-state submission is a
// few kilobytes of key material at most.
const defaultMaxBodyBytes = 1 << 20

// Server holds the directory services behind the HTTP handlers.
type Server struct {
	registry     *directory.Registry
	keys         *directory.KeyReconciler
	endpoints    *directory.EndpointReconciler
	version      string
	maxBodyBytes int64
}

// New wires a Server from an already-opened store. The version string is
// whatever the build stamped into the binary.
func New(store db.Store, version string) *Server {
	return &Server{
		registry:     directory.NewRegistry(store),
		keys:         directory.NewKeyReconciler(store),
		endpoints:    directory.NewEndpointReconciler(store),
		version:      version,
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// Handler builds the chi router with all API routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.limitRequestBody)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.getVersion)
		r.Post("/users", s.registerUser)
		r.Get("/users/{username}", s.getUserStatus)
		r.Get("/users/{username}/keys", s.getKeys)
		r.Put("/users/{username}/keys", s.updateKeys)
		r.Get("/users/{username}/endpoints", s.getEndpoints)
		r.Put("/users/{username}/endpoints", s.updateEndpoints)
	})
	return r
}

// ListenAndServe runs the HTTP server until it fails or is shut down.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	logging.Infof("server: listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) limitRequestBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.maxBodyBytes > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debugf("server: %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
