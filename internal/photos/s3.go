// Package photos stores uploaded photos in S3 and hands back public URLs.
package photos

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/avif": "avif",
}

// S3Uploader uploads photos to a single S3 bucket
type S3Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string // base URL photos are served from, no trailing slash
}

// NewS3Uploader builds an uploader using the default AWS credential chain.
// publicURL overrides the derived bucket URL when photos are fronted by a
// CDN; pass "" to use the standard S3 URL.
func NewS3Uploader(ctx context.Context, bucket, region, publicURL string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &S3Uploader{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

// Upload stores the photo under a fresh key and returns its public URL
func (u *S3Uploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	ext, ok := extByContentType[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	key := fmt.Sprintf("profiles/%s.%s", uuid.New().String(), ext)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return u.publicURL + "/" + key, nil
}
