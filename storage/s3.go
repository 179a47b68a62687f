package storage

import (
	"bytes"
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ScoreUploader pushes rendered score artifacts to an S3 bucket.
type ScoreUploader struct {
	client *s3.Client
	bucket string
}

// NewScoreUploader builds an uploader from the default AWS config
// chain.
func NewScoreUploader(ctx context.Context, region, bucket string) (*ScoreUploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &ScoreUploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// Upload stores the rendered score under key and returns its S3 URI.
func (u *ScoreUploader) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload score %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
