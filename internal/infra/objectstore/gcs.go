package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS signs upload and download URLs for photo objects in a Cloud Storage
// bucket.
type GCS struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func NewGCS(ctx context.Context, bucket, credentialsFile, cdnDomain string) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET not configured")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, cdnDomain: cdnDomain}, nil
}

func (g *GCS) SignedUploadURL(_ context.Context, path, contentType string, ttl time.Duration) (string, error) {
	u, err := g.client.Bucket(g.bucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate upload URL: %w", err)
	}
	return u, nil
}

func (g *GCS) SignedDownloadURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	u, err := g.client.Bucket(g.bucket).SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return u, nil
}

func (g *GCS) Exists(ctx context.Context, path string) (bool, error) {
	_, err := g.client.Bucket(g.bucket).Object(path).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *GCS) PublicURL(path string) string {
	return PublicURL(g.cdnDomain, g.bucket, path)
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// PublicURL serves through the CDN domain when one is configured, otherwise
// straight from the bucket.
func PublicURL(cdnDomain, bucket, path string) string {
	escaped := escapePath(path)
	if cdnDomain != "" {
		domain := strings.TrimSuffix(cdnDomain, "/")
		if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
			domain = "https://" + domain
		}
		return domain + "/" + escaped
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, escaped)
}

func escapePath(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
