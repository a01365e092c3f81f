package instagram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"engagelens/pkg/errors"
)

// Options configures a provider client.
type Options struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	Logger            zerolog.Logger
}

func (o *Options) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RequestsPerMinute <= 0 {
		o.RequestsPerMinute = 60
	}
}

// Client is the anonymous provider client: post metadata, liker pagination,
// media download.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	headers    map[string]string
	baseURL    string
	log        zerolog.Logger
}

// NewClient creates an anonymous client.
func NewClient(opts Options) *Client {
	opts.applyDefaults()

	headers := map[string]string{
		"Accept":           "*/*",
		"Accept-Language":  "en-US,en;q=0.9",
		"X-Requested-With": "XMLHttpRequest",
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.RequestsPerMinute),
		headers:    headers,
		baseURL:    opts.BaseURL,
		log:        opts.Logger,
	}
}

// SetHeader sets a custom header on every subsequent request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// FetchPostMetadata fetches the metadata snapshot for one post.
func (c *Client) FetchPostMetadata(ctx context.Context, shortcode string) (*PostMetadata, error) {
	c.log.Debug().Str("shortcode", shortcode).Msg("fetching post metadata")

	var resp postInfoResponse
	if err := c.getJSON(ctx, postInfoURL(c.baseURL, shortcode), &resp); err != nil {
		return nil, err
	}
	media := resp.Data.ShortcodeMedia
	if media.Shortcode == "" {
		return nil, errors.ExternalService(nil, "post %s not found or not accessible", shortcode)
	}

	return &PostMetadata{
		Shortcode:    media.Shortcode,
		Caption:      resp.caption(),
		LikeCount:    media.EdgeMediaPreviewLike.Count,
		CommentCount: media.EdgeMediaToParentCommnt.Count,
		MediaURL:     media.DisplayURL,
	}, nil
}

// FetchLikers consumes the post's paginated liker stream in provider order
// and stops after limit items, regardless of how many remain. The remainder
// of the stream is never requested.
func (c *Client) FetchLikers(ctx context.Context, shortcode string, limit int) ([]Liker, error) {
	likers := make([]Liker, 0, limit)
	after := ""

	for len(likers) < limit {
		var resp likersResponse
		first := limit - len(likers)
		if err := c.getJSON(ctx, likersURL(c.baseURL, shortcode, after, first), &resp); err != nil {
			return nil, err
		}

		edge := resp.Data.ShortcodeMedia.EdgeLikedBy
		for _, e := range edge.Edges {
			likers = append(likers, Liker{
				Username:      e.Node.Username,
				FollowerCount: e.Node.EdgeFollowedBy.Count,
				FolloweeCount: e.Node.EdgeFollow.Count,
			})
			if len(likers) == limit {
				break
			}
		}

		if !edge.PageInfo.HasNextPage || edge.PageInfo.EndCursor == "" || len(edge.Edges) == 0 {
			break
		}
		after = edge.PageInfo.EndCursor
	}

	c.log.Debug().
		Str("shortcode", shortcode).
		Int("count", len(likers)).
		Int("limit", limit).
		Msg("fetched likers")

	return likers, nil
}

// DownloadMedia fetches raw bytes from a media URL. It returns the bytes
// together with the content type reported by the provider.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	resp, err := c.do(ctx, mediaURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.ExternalService(err, "reading media body from %s", mediaURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.log.Debug().Str("url", mediaURL).Int("size", len(data)).Msg("downloaded media")
	return data, contentType, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.ExternalService(err, "parsing provider response from %s", resp.Request.URL.Path)
	}
	return nil
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.ExternalService(err, "request not sent")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.ExternalService(err, "building request")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("url", url).Dur("duration", time.Since(start)).Msg("provider request failed")
		return nil, errors.ExternalService(err, "provider request failed")
	}

	c.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("provider request completed")

	return resp, nil
}

// checkStatus maps non-2xx provider responses onto the error taxonomy. Every
// failure class here is the provider's to explain, so all map to
// external_service with a message naming the class.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.ExternalService(nil, "provider rejected the request (status %d): authentication required or content private", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errors.ExternalService(nil, "provider resource not found (status 404)")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.ExternalService(nil, "provider rate limit exceeded (status 429)")
	case resp.StatusCode >= 500:
		return errors.ExternalService(nil, "provider server error (status %d)", resp.StatusCode)
	default:
		return errors.ExternalService(nil, "unexpected provider status %d", resp.StatusCode)
	}
}
