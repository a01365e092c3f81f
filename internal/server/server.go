// Package server is the HTTP boundary: routing, CORS, request logging,
// metrics, and the mapping from the error taxonomy to status codes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"engagelens/internal/genai"
	"engagelens/internal/metrics"
	"engagelens/internal/store"
	"engagelens/pkg/artifact"
	"engagelens/pkg/config"
	"engagelens/pkg/errors"
	"engagelens/pkg/instagram"
)

// PostFetcher is the anonymous provider capability the handlers need.
type PostFetcher interface {
	FetchPostMetadata(ctx context.Context, shortcode string) (*instagram.PostMetadata, error)
	FetchLikers(ctx context.Context, shortcode string, limit int) ([]instagram.Liker, error)
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error)
}

// FollowerFetcher is the credential-gated provider capability. It is nil
// when no credentials are configured.
type FollowerFetcher interface {
	FetchFollowers(ctx context.Context, username string, limit int) ([]instagram.Follower, error)
}

// ArtifactUploader persists fetched bytes to durable storage.
type ArtifactUploader interface {
	Upload(ctx context.Context, sourceID string, data []byte, contentType string) (*artifact.StoredArtifact, error)
}

// Generator is the text/image generation collaborator.
type Generator interface {
	Analyze(ctx context.Context, prompt string) (string, error)
	GenerateCampaignImage(ctx context.Context, analysisSummary string) (string, error)
}

var _ PostFetcher = (*instagram.Client)(nil)
var _ FollowerFetcher = (*instagram.Session)(nil)
var _ ArtifactUploader = (*artifact.Writer)(nil)
var _ Generator = (*genai.Client)(nil)

// Server wires shared collaborators into the HTTP handlers. All fields are
// set once at construction and shared read-only across requests.
type Server struct {
	cfg       *config.Config
	posts     PostFetcher
	followers FollowerFetcher
	artifacts ArtifactUploader
	generator Generator
	db        *store.DB
	log       zerolog.Logger
	handler   http.Handler
}

// New builds a Server over its collaborators. followers may be nil; the
// export endpoint then reports a configuration error.
func New(cfg *config.Config, posts PostFetcher, followers FollowerFetcher, artifacts ArtifactUploader, generator Generator, db *store.DB, log zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		posts:     posts,
		followers: followers,
		artifacts: artifacts,
		generator: generator,
		db:        db,
		log:       log,
	}
	s.handler = s.middleware(s.routes())
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Server.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /post/fetch", s.handlePostFetch)
	mux.HandleFunc("POST /post/engagement-report", s.handleEngagementReport)
	mux.HandleFunc("POST /profile/export-followers", s.handleExportFollowers)

	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/generate-campaign-image", s.handleCampaignImage)
	mux.HandleFunc("GET /api/hello", s.handleHello)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// middleware layers CORS, request logging, and metrics around the mux.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}
		metrics.ObserveRequest(route, strconv.Itoa(rec.status), start)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// errorBody is the wire shape for all failures.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps a taxonomy error onto its status code and wire shape.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	status := errors.HTTPStatus(kind)
	s.log.Warn().Err(err).Str("kind", string(kind)).Int("status", status).Msg("request failed")
	s.writeJSON(w, status, errorBody{Error: errorDetail{Kind: string(kind), Message: err.Error()}})
}

// writeStatusError reports a failure outside the core taxonomy (account and
// transaction endpoints).
func (s *Server) writeStatusError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

func decodeBody(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return errors.InvalidReference("malformed request body: %v", err)
	}
	return nil
}
