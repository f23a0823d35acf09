// Package storage holds the object-store client for note images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrDisabled is returned when no bucket is configured. Callers treat it
// like any other upload failure: the note is not created.
var ErrDisabled = errors.New("image storage is not configured")

// S3Store uploads note images to an S3 bucket and hands back public URLs.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	enabled bool
}

// NewS3Store creates the image store. With an empty bucket name the store
// is disabled and every upload fails cleanly.
func NewS3Store(ctx context.Context, region, bucket, publicBaseURL string) (*S3Store, error) {
	if bucket == "" {
		log.Println("Image storage disabled: S3_BUCKET not configured")
		return &S3Store{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	log.Printf("Image storage enabled: bucket=%s, region=%s", bucket, region)

	return &S3Store{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimSuffix(publicBaseURL, "/"),
		enabled: true,
	}, nil
}

// IsEnabled returns whether uploads are configured
func (s *S3Store) IsEnabled() bool {
	return s.enabled
}

// Upload stores one object and returns its public URL
func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if !s.enabled {
		return "", ErrDisabled
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}
