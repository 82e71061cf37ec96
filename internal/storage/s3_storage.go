package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"andesgo/intake/internal/config"
)

// IS3Storage defines the interface for the attachment archive bucket.
type IS3Storage interface {
	PutObject(ctx context.Context, key, contentType string, body []byte, metadata map[string]string) error
}

// s3PutAPI is the subset of *s3.Client used here.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	bucket string
	client s3PutAPI
}

// NewS3Storage creates a new S3 storage service. Static credentials are used
// when configured, otherwise the default AWS credential chain applies.
func NewS3Storage(ctx context.Context, cfg *config.Config) (IS3Storage, error) {
	if cfg.AwsS3Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is not configured")
	}

	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.AwsRegion)}
	if cfg.AwsAccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newS3StorageWithClient(cfg.AwsS3Bucket, s3.NewFromConfig(awsCfg)), nil
}

func newS3StorageWithClient(bucket string, client s3PutAPI) *s3Storage {
	return &s3Storage{bucket: bucket, client: client}
}

// PutObject uploads body under key, overwriting any existing object.
func (s *s3Storage) PutObject(ctx context.Context, key, contentType string, body []byte, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	log.Printf("Archived s3://%s/%s (%d bytes)", s.bucket, key, len(body))
	return nil
}
