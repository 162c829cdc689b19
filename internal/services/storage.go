package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	appconfig "readalong-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignExpiry = 5 * time.Minute

// S3Storage issues pre-signed upload URLs for food images
type S3Storage struct {
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
}

// NewS3Storage creates S3 storage. Static credentials and a custom endpoint
// are used when configured, otherwise the default AWS chain.
func NewS3Storage(ctx context.Context, cfg appconfig.AWSConfig) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	}

	return &S3Storage{
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.S3Bucket,
		publicBaseURL: base,
	}, nil
}

// PresignUpload returns a PUT URL valid for a few minutes and the public URL
// the object will have once uploaded
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string) (uploadURL, publicURL string, err error) {
	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return request.URL, s.publicBaseURL + "/" + key, nil
}
