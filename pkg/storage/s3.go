package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Backend serves s3://bucket/key URIs. The client is built from the
// default AWS credentials chain on first use.
type S3Backend struct {
	once    sync.Once
	client  *s3.Client
	initErr error
}

// NewS3BackendWithClient creates an S3 backend over a preconfigured client,
// useful for tests and custom endpoints.
func NewS3BackendWithClient(client *s3.Client) *S3Backend {
	sb := &S3Backend{client: client}
	sb.once.Do(func() {})
	return sb
}

func (sb *S3Backend) resolveClient(ctx context.Context) (*s3.Client, error) {
	sb.once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			sb.initErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		sb.client = s3.NewFromConfig(cfg)
	})
	return sb.client, sb.initErr
}

// splitS3URI parses s3://bucket/key into bucket and key.
func splitS3URI(uri string) (bucket, key string, err error) {
	scheme, p, err := ParseURI(uri)
	if err != nil {
		return "", "", err
	}
	if scheme != "s3" {
		return "", "", fmt.Errorf("expected s3:// URI, got %s://", scheme)
	}

	parts := strings.SplitN(p, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URI: missing bucket name")
	}
	if len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URI: missing object key")
	}
	return parts[0], parts[1], nil
}

// Open downloads an object from S3.
func (sb *S3Backend) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return nil, err
	}
	client, err := sb.resolveClient(ctx)
	if err != nil {
		return nil, err
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, fmt.Errorf("object not found: %s", uri)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return result.Body, nil
}

// Write uploads an object to S3.
func (sb *S3Backend) Write(ctx context.Context, uri string, data io.Reader) error {
	bucket, key, err := splitS3URI(uri)
	if err != nil {
		return err
	}
	client, err := sb.resolveClient(ctx)
	if err != nil {
		return err
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   data,
	}); err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}
