package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/semmidev/mongovault/internal/domain"
)

// S3Uploader uploads archives with a client built for each call from the
// target's region and credentials.
type S3Uploader struct {
	contentType string
}

func NewS3(contentType string) *S3Uploader {
	return &S3Uploader{contentType: contentType}
}

func newClient(ctx context.Context, target domain.StorageTarget) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(target.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(target.AccessKey, target.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if target.Endpoint != "" {
			o.BaseEndpoint = aws.String(target.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Upload stores body under key as a private object and returns its location.
func (s *S3Uploader) Upload(ctx context.Context, body []byte, key string, target domain.StorageTarget) (string, error) {
	client, err := newClient(ctx, target)
	if err != nil {
		return "", &domain.UploadError{Bucket: target.Bucket, Key: key, Err: err}
	}

	uploader := s3manager.NewUploader(client)
	out, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(target.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(s.contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", &domain.UploadError{Bucket: target.Bucket, Key: key, Err: fmt.Errorf("failed to upload to S3: %w", err)}
	}

	return out.Location, nil
}
