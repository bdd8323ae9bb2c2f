package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const feedContentType = "text/calendar"

// FeedArchive stores raw iCal feed bodies in an S3-compatible bucket.
type FeedArchive struct {
	bucket         string
	client         *minio.Client
	logger         *slog.Logger
	now            func() time.Time
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewFeedArchive configures an archive using the provided endpoint and credentials.
func NewFeedArchive(endpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *slog.Logger) (*FeedArchive, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &FeedArchive{bucket: bucket, client: minioClient, logger: logger, now: time.Now}, nil
}

// Archive writes body under a key derived from the feed host, the day and a content hash.
func (a *FeedArchive) Archive(ctx context.Context, feedURL string, body []byte) error {
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}
	key := ObjectKey(feedURL, body, a.now())
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: feedContentType,
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	if a.logger != nil {
		a.logger.Debug("feed archived", "bucket", a.bucket, "key", key, "bytes", len(body))
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (a *FeedArchive) Ping(ctx context.Context) error {
	if _, err := a.client.BucketExists(ctx, a.bucket); err != nil {
		return fmt.Errorf("s3: check bucket: %w", err)
	}
	return nil
}

func (a *FeedArchive) ensureBucket(ctx context.Context) error {
	a.bucketInitOnce.Do(func() {
		exists, err := a.client.BucketExists(ctx, a.bucket)
		if err != nil {
			a.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			a.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return a.bucketInitErr
}

// ObjectKey is feeds/{host}/{yyyy/mm/dd}/{hhmmss}-{sha256[:12]}.ics.
func ObjectKey(feedURL string, body []byte, at time.Time) string {
	host := "unknown"
	if u, err := url.Parse(feedURL); err == nil && u.Hostname() != "" {
		host = strings.ToLower(u.Hostname())
	}
	sum := sha256.Sum256(body)
	at = at.UTC()
	return fmt.Sprintf("feeds/%s/%s/%s-%s.ics", host, at.Format("2006/01/02"), at.Format("150405"), hex.EncodeToString(sum[:])[:12])
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}
