package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"engagelens/pkg/errors"
)

// Session is the authenticated provider client. The provider gates follower
// pagination behind a logged-in session, so Session logs in lazily on first
// use and keeps the cookie jar for the rest of the call sequence. Safe for
// concurrent use: one caller performs the login, the rest wait on it.
type Session struct {
	*Client

	username string
	password string

	loginMu  sync.Mutex
	loggedIn bool
}

// NewSession creates an authenticated client. Missing credentials are a
// configuration error, decided here rather than at request time, so the
// caller can tell misconfiguration apart from provider failures.
func NewSession(opts Options, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, errors.Configuration("instagram credentials not configured; set username and password to enable follower access")
	}

	client := NewClient(opts)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	client.httpClient.Jar = jar

	return &Session{
		Client:   client,
		username: username,
		password: password,
	}, nil
}

// FetchFollowers consumes the profile's paginated follower stream in provider
// order, stopping after limit items. Same early-exit contract as FetchLikers.
func (s *Session) FetchFollowers(ctx context.Context, username string, limit int) ([]Follower, error) {
	if err := s.ensureLogin(ctx); err != nil {
		return nil, err
	}

	userID, err := s.lookupUserID(ctx, username)
	if err != nil {
		return nil, err
	}

	followers := make([]Follower, 0, limit)
	after := ""

	for len(followers) < limit {
		var resp followersResponse
		first := limit - len(followers)
		if err := s.getJSON(ctx, followersURL(s.baseURL, userID, after, first), &resp); err != nil {
			return nil, err
		}

		edge := resp.Data.User.EdgeFollowedBy
		for _, e := range edge.Edges {
			followers = append(followers, Follower{
				Username:      e.Node.Username,
				FullName:      e.Node.FullName,
				Biography:     e.Node.Biography,
				FollowerCount: e.Node.EdgeFollowedBy.Count,
				FolloweeCount: e.Node.EdgeFollow.Count,
				IsPrivate:     e.Node.IsPrivate,
				IsVerified:    e.Node.IsVerified,
			})
			if len(followers) == limit {
				break
			}
		}

		if !edge.PageInfo.HasNextPage || edge.PageInfo.EndCursor == "" || len(edge.Edges) == 0 {
			break
		}
		after = edge.PageInfo.EndCursor
	}

	s.log.Debug().
		Str("username", username).
		Int("count", len(followers)).
		Int("limit", limit).
		Msg("fetched followers")

	return followers, nil
}

// ensureLogin authenticates once per session lifetime. The mutex serializes
// concurrent first calls so exactly one login sequence runs; a failed attempt
// leaves loggedIn unset and the next caller retries.
func (s *Session) ensureLogin(ctx context.Context) error {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	if s.loggedIn {
		return nil
	}

	csrf, err := s.fetchCSRFToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("username", s.username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), s.password))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL(s.baseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return errors.ExternalService(err, "building login request")
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRFToken", csrf)

	if err := s.limiter.Wait(ctx); err != nil {
		return errors.ExternalService(err, "login not sent")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.ExternalService(err, "login request failed")
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var login loginResponse
	if err := decodeJSON(resp, &login); err != nil {
		return err
	}
	if !login.Authenticated {
		return errors.ExternalService(nil, "provider rejected login for %s", s.username)
	}

	s.loggedIn = true
	s.log.Info().Str("username", s.username).Msg("provider session established")
	return nil
}

// fetchCSRFToken primes the cookie jar and returns the csrftoken cookie the
// login endpoint requires.
func (s *Session) fetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := s.do(ctx, s.baseURL+"/")
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", errors.ExternalService(err, "parsing provider base URL")
	}
	for _, cookie := range s.httpClient.Jar.Cookies(base) {
		if cookie.Name == "csrftoken" {
			return cookie.Value, nil
		}
	}
	return "", errors.ExternalService(nil, "provider did not issue a csrf token")
}

func (s *Session) lookupUserID(ctx context.Context, username string) (string, error) {
	var resp profileResponse
	if err := s.getJSON(ctx, profileURL(s.baseURL, username), &resp); err != nil {
		return "", err
	}
	if resp.RequiresToLogin || resp.Data.User.ID == "" {
		return "", errors.ExternalService(nil, "profile %s not found or not accessible", username)
	}
	return resp.Data.User.ID, nil
}

func decodeJSON(resp *http.Response, target interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.ExternalService(err, "parsing provider response from %s", resp.Request.URL.Path)
	}
	return nil
}
