package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engagelens/internal/store"
	"engagelens/pkg/artifact"
	"engagelens/pkg/config"
	"engagelens/pkg/errors"
	"engagelens/pkg/instagram"
)

type fakePosts struct {
	meta    *instagram.PostMetadata
	likers  []instagram.Liker
	media   []byte
	metaErr error
	likeErr error

	likersLimit int
}

func (f *fakePosts) FetchPostMetadata(_ context.Context, shortcode string) (*instagram.PostMetadata, error) {
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	meta := *f.meta
	meta.Shortcode = shortcode
	return &meta, nil
}

func (f *fakePosts) FetchLikers(_ context.Context, _ string, limit int) ([]instagram.Liker, error) {
	f.likersLimit = limit
	if f.likeErr != nil {
		return nil, f.likeErr
	}
	if len(f.likers) > limit {
		return f.likers[:limit], nil
	}
	return f.likers, nil
}

func (f *fakePosts) DownloadMedia(_ context.Context, _ string) ([]byte, string, error) {
	return f.media, "image/jpeg", nil
}

type fakeFollowers struct {
	followers []instagram.Follower
	err       error
	limit     int
}

func (f *fakeFollowers) FetchFollowers(_ context.Context, _ string, limit int) ([]instagram.Follower, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.followers, nil
}

type fakeUploader struct {
	uploads int
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, sourceID string, _ []byte, contentType string) (*artifact.StoredArtifact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.uploads++
	key := fmt.Sprintf("%s_%06d.jpg", sourceID, f.uploads)
	return &artifact.StoredArtifact{
		Key:         key,
		ContentType: contentType,
		PublicURL:   "https://cdn.example.com/artifacts/" + key,
	}, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Analyze(_ context.Context, prompt string) (string, error) {
	return "analysis of: " + prompt, nil
}

func (fakeGenerator) GenerateCampaignImage(_ context.Context, _ string) (string, error) {
	return "https://images.example.com/generated.png", nil
}

type testEnv struct {
	server    *Server
	posts     *fakePosts
	followers *fakeFollowers
	uploader  *fakeUploader
	db        *store.DB
}

func newTestEnv(t *testing.T, withFollowers bool) *testEnv {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	posts := &fakePosts{
		meta:  &instagram.PostMetadata{Caption: "spring campaign", LikeCount: 10, CommentCount: 2, MediaURL: "https://media.example.com/p.jpg"},
		media: []byte("jpegbytes"),
	}
	followers := &fakeFollowers{}
	uploader := &fakeUploader{}

	var followerFetcher FollowerFetcher
	if withFollowers {
		followerFetcher = followers
	}

	srv := New(config.Default(), posts, followerFetcher, uploader, fakeGenerator{}, db, zerolog.Nop())
	return &testEnv{server: srv, posts: posts, followers: followers, uploader: uploader, db: db}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPostFetch(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/post/fetch", map[string]string{"url": "https://example.com/p/ABC123/?utm=ig"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ImageURL string `json:"image_url"`
		Caption  string `json:"caption"`
		Likes    int    `json:"likes"`
		Comments int    `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.ImageURL, "ABC123_")
	assert.Equal(t, "spring campaign", resp.Caption)
	assert.Equal(t, 10, resp.Likes)
	assert.Equal(t, 2, resp.Comments)
	assert.Equal(t, 1, env.uploader.uploads)
}

func TestPostFetchInvalidURL(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/post/fetch", map[string]string{"url": "https://example.com/not-a-post"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_reference", resp.Error.Kind)
}

func TestPostFetchStorageFailure(t *testing.T) {
	env := newTestEnv(t, false)
	env.uploader.err = errors.Storage(nil, "bucket unavailable")

	rec := env.do(t, http.MethodPost, "/post/fetch", map[string]string{"url": "https://example.com/p/ABC123/"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "storage", resp.Error.Kind)
}

func TestEngagementReport(t *testing.T) {
	env := newTestEnv(t, false)
	env.posts.likers = []instagram.Liker{{Username: "u1", FollowerCount: 25}}

	rec := env.do(t, http.MethodPost, "/post/engagement-report", map[string]string{"url": "https://example.com/p/ABC123/?utm=ig"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Likers []instagram.Liker `json:"likers"`
		LikesRanking []struct {
			Username string  `json:"username"`
			Value    float64 `json:"value"`
		} `json:"likes_ranking"`
		AverageEngagement float64 `json:"average_engagement"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Likers, 1)
	assert.Equal(t, "u1", resp.Likers[0].Username)
	assert.Equal(t, 8.0, resp.Likers[0].EngagementScore)
	assert.Equal(t, 8.0, resp.AverageEngagement)

	// The configured liker limit reached the client unchanged.
	assert.Equal(t, 50, env.posts.likersLimit)
}

func TestEngagementReportEmpty(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/post/engagement-report", map[string]string{"url": "https://example.com/p/ABC123/"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		EngagementRanking []interface{} `json:"engagement_ranking"`
		AverageEngagement float64       `json:"average_engagement"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.EngagementRanking)
	assert.Zero(t, resp.AverageEngagement)
}

func TestEngagementReportProviderFailure(t *testing.T) {
	env := newTestEnv(t, false)
	env.posts.metaErr = errors.ExternalService(nil, "provider rate limit exceeded (status 429)")

	rec := env.do(t, http.MethodPost, "/post/engagement-report", map[string]string{"url": "https://example.com/p/ABC123/"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "external_service", resp.Error.Kind)
}

func TestExportFollowers(t *testing.T) {
	env := newTestEnv(t, true)
	env.followers.followers = []instagram.Follower{
		{Username: "amy", FullName: "Amy A", FollowerCount: 12, FolloweeCount: 3, IsVerified: true},
	}

	rec := env.do(t, http.MethodPost, "/profile/export-followers", map[string]string{"username": "someuser"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"someuser_followers.csv"`)
	assert.Equal(t, 30, env.followers.limit)

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "username", records[0][0])
	assert.Equal(t, "amy", records[1][0])
}

func TestExportFollowersEmptyStillHasHeader(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/profile/export-followers", map[string]string{"username": "someuser"})
	require.Equal(t, http.StatusOK, rec.Code)

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"username", "full_name", "bio", "followers", "followees", "is_private", "is_verified"}, records[0])
}

func TestExportFollowersWithoutCredentials(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/profile/export-followers", map[string]string{"username": "someuser"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "configuration", resp.Error.Kind)
}

func TestAnalyzeAndCampaignImage(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]string{"prompt": "my bakery"})
	require.Equal(t, http.StatusOK, rec.Code)
	var analyze map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyze))
	assert.Equal(t, "analysis of: my bakery", analyze["result"])

	rec = env.do(t, http.MethodPost, "/api/generate-campaign-image", map[string]string{"analysis_summary": "summary"})
	require.Equal(t, http.StatusOK, rec.Code)
	var image map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &image))
	assert.Equal(t, "https://images.example.com/generated.png", image["imageUrl"])
}

func TestHelloAndHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/api/hello", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello World")

	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodOptions, "/post/fetch", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAccountFlow(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/register", map[string]string{"username": "amy", "password": "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/register", map[string]string{"username": "amy", "password": "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "amy", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	rec = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "amy", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/transactions",
		map[string]interface{}{"item": "espresso", "amount_cents": 350},
		"Authorization", "Bearer "+session.Token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/transactions", nil, "Authorization", "Bearer "+session.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var transactions []store.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transactions))
	require.Len(t, transactions, 1)
	assert.Equal(t, "espresso", transactions[0].Item)

	rec = env.do(t, http.MethodGet, "/api/transactions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
