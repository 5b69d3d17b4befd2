package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kalyonekenobe/funders-sub000/internal/config"
	"github.com/kalyonekenobe/funders-sub000/internal/models"
)

// MediaStore is the remote object store capability. Both operations must be
// idempotent: putting the same key and bytes twice is safe, and deleting a
// missing key is not an error. The store is never transactional with the
// relational database; callers sequence their writes around that.
type MediaStore interface {
	Put(ctx context.Context, key string, mediaType models.MediaType, contentType string, data []byte) error
	Delete(ctx context.Context, key string, mediaType models.MediaType) error
	// PublicURL builds the address consumers resolve the object at:
	// {baseUrl}/{mediaType}/upload/{objectKey}.
	PublicURL(key string, mediaType models.MediaType) string
}

// S3Store stores media in an S3-compatible bucket (Cloudflare R2, MinIO,
// AWS S3). Objects live under {mediaType}/upload/{key} so the public URL
// scheme maps directly onto bucket paths.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store creates an S3-compatible media store.
func NewS3Store(ctx context.Context, cfg config.S3Config, baseURL string) (*S3Store, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure S3 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Required for MinIO and R2
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *S3Store) objectPath(key string, mediaType models.MediaType) string {
	return fmt.Sprintf("%s/upload/%s", mediaType, key)
}

func (s *S3Store) Put(ctx context.Context, key string, mediaType models.MediaType, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectPath(key, mediaType)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string, mediaType models.MediaType) error {
	// S3 DeleteObject succeeds for missing keys, which gives us idempotence
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectPath(key, mediaType)),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PublicURL(key string, mediaType models.MediaType) string {
	return fmt.Sprintf("%s/%s", s.baseURL, s.objectPath(key, mediaType))
}
