// Package artifact persists fetched binary content to durable object storage
// under collision-free keys.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"engagelens/pkg/config"
	"engagelens/pkg/errors"
)

// StoredArtifact describes one uploaded object.
type StoredArtifact struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	PublicURL   string `json:"public_url"`
}

// objectPutter is the slice of the object-store client the writer needs.
type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Writer uploads artifacts to one bucket and hands back public locators.
type Writer struct {
	store         objectPutter
	bucket        string
	publicBaseURL string
	log           zerolog.Logger
}

// NewWriter connects to the configured object store.
func NewWriter(cfg config.ObjectStoreConfig, log zerolog.Logger) (*Writer, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Configuration("invalid object store endpoint %q: %v", cfg.Endpoint, err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &Writer{
		store:         client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		log:           log,
	}, nil
}

// Upload stores data under a fresh key derived from the source identifier
// and returns the artifact's public locator. Each call generates its own key
// suffix, so repeated uploads for the same source never collide and never
// overwrite a prior artifact.
func (w *Writer) Upload(ctx context.Context, sourceID string, data []byte, contentType string) (*StoredArtifact, error) {
	key := buildKey(sourceID, contentType)

	_, err := w.store.PutObject(ctx, w.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, errors.Storage(err, "uploading %s to bucket %s", key, w.bucket)
	}

	artifact := &StoredArtifact{
		Key:         key,
		ContentType: contentType,
		PublicURL:   fmt.Sprintf("%s/%s/%s", w.publicBaseURL, w.bucket, key),
	}

	w.log.Info().
		Str("key", key).
		Str("bucket", w.bucket).
		Int("size", len(data)).
		Msg("artifact stored")

	return artifact, nil
}

// buildKey forms `<sourceID>_<uuid>.<ext>` with the extension taken from the
// content type.
func buildKey(sourceID, contentType string) string {
	return fmt.Sprintf("%s_%s%s", sourceID, uuid.New().String(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	// Strip parameters such as "; charset=binary".
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	switch strings.TrimSpace(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
