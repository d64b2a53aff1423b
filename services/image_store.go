package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ImageStore persists uploaded image bytes and returns a URL for them.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// S3ImageStore uploads to a bucket and serves through CloudFront when set.
type S3ImageStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3ImageStore(ctx context.Context, region, bucket, publicURL string) (*S3ImageStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config for S3: %w", err)
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3ImageStore{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *S3ImageStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

// LocalImageStore writes under a media root served at baseURL.
type LocalImageStore struct {
	root    string
	baseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

var errKeyOutsideRoot = errors.New("object key escapes media root")

func (l *LocalImageStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("resolve media root: %w", err)
	}
	dst := filepath.Join(root, filepath.FromSlash(key))
	if rel, err := filepath.Rel(root, dst); err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", key, errKeyOutsideRoot)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return l.baseURL + "/" + key, nil
}

// imageExtensions are the accepted upload types and the extension each is
// stored under.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// imageExtension maps an upload content type to its stored extension. The
// second result is false for anything that is not an accepted image type.
func imageExtension(contentType string) (string, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	ext, ok := imageExtensions[strings.ToLower(mt)]
	return ext, ok
}
