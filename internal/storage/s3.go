package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("file uploads are not configured")

// MaxUploadBytes caps logo and vehicle image uploads.
const MaxUploadBytes = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Options struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// S3Client uploads public images to an S3-compatible bucket (AWS, R2, MinIO).
type S3Client struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// Uploads is the process-wide client; nil when storage is not configured.
var Uploads *S3Client

func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return &S3Client{client: client, bucket: opts.Bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// ImageExtension returns the file extension for an accepted image content type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// ObjectKey builds a unique key under prefix, e.g. "logos/42/<uuid>.png".
func ObjectKey(prefix string, ownerID uint, ext string) string {
	return path.Join(prefix, fmt.Sprint(ownerID), uuid.NewString()+ext)
}

// Upload stores body under key and returns its public URL.
func (c *S3Client) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if c == nil {
		return "", ErrDisabled
	}
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s", c.baseURL, key), nil
}
