// Package storage abstracts the blob stores that hold warehouse snapshots,
// the activity ledger and undocking tombstones.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Open resolves a location into a store and the key inside it.
// "s3://bucket/path/key.json" targets S3; anything else is a local file path.
func Open(ctx context.Context, location string) (BlobStore, string, error) {
	if !strings.HasPrefix(location, "s3://") {
		return NewLocalStore(filepath.Dir(location)), filepath.Base(location), nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, "", fmt.Errorf("invalid s3 url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, "", fmt.Errorf("s3 url %q needs both bucket and key", location)
	}

	var opts []func(*config.LoadOptions) error
	// Local endpoint overrides are used by LocalStack and tests.
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3Store(cfg, u.Host), key, nil
}
