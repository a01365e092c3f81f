package server

import (
	"fmt"
	"net/http"

	"engagelens/internal/metrics"
	"engagelens/pkg/engagement"
	"engagelens/pkg/errors"
	"engagelens/pkg/export"
	"engagelens/pkg/instagram"
)

// handlePostFetch resolves the post, downloads its image, persists it to the
// object store, and returns the metadata with the stored image's locator.
func (s *Server) handlePostFetch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	shortcode, err := instagram.ExtractShortcode(req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	meta, err := s.posts.FetchPostMetadata(r.Context(), shortcode)
	metrics.ObserveProviderCall("fetch_post_metadata", err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, contentType, err := s.posts.DownloadMedia(r.Context(), meta.MediaURL)
	metrics.ObserveProviderCall("download_media", err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	stored, err := s.artifacts.Upload(r.Context(), shortcode, data, contentType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.ArtifactUploads.Inc()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"image_url": stored.PublicURL,
		"caption":   meta.Caption,
		"likes":     meta.LikeCount,
		"comments":  meta.CommentCount,
	})
}

// handleEngagementReport scores a bounded sample of the post's likers and
// returns the aggregated rankings.
func (s *Server) handleEngagementReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	shortcode, err := instagram.ExtractShortcode(req.URL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	meta, err := s.posts.FetchPostMetadata(r.Context(), shortcode)
	metrics.ObserveProviderCall("fetch_post_metadata", err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	likers, err := s.posts.FetchLikers(r.Context(), shortcode, s.cfg.Instagram.LikerLimit)
	metrics.ObserveProviderCall("fetch_likers", err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	scorer := engagement.NewScorer(*meta)
	report := engagement.BuildReport(scorer.ScoreAll(likers))

	s.writeJSON(w, http.StatusOK, report)
}

// handleExportFollowers streams a bounded follower sample as a CSV download.
// Requires the authenticated provider capability.
func (s *Server) handleExportFollowers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Username == "" {
		s.writeError(w, errors.InvalidReference("username is required"))
		return
	}

	if s.followers == nil {
		s.writeError(w, errors.Configuration("follower export requires provider credentials; none are configured"))
		return
	}

	followers, err := s.followers.FetchFollowers(r.Context(), req.Username, s.cfg.Instagram.FollowerLimit)
	metrics.ObserveProviderCall("fetch_followers", err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Render first so a mid-export failure can never emit a partial file.
	data, err := export.RenderFollowers(followers)
	if err != nil {
		s.writeError(w, errors.Storage(err, "rendering follower export"))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(req.Username)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("failed to write export response")
	}
}

// handleAnalyze proxies the business-analysis completion.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.generator.Analyze(r.Context(), req.Prompt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// handleCampaignImage proxies the campaign image generation.
func (s *Server) handleCampaignImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AnalysisSummary string `json:"analysis_summary"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	imageURL, err := s.generator.GenerateCampaignImage(r.Context(), req.AnalysisSummary)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"imageUrl": imageURL})
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}
