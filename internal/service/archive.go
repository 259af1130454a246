package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/config"
)

// PhotoArchive keeps the original photos of scanned menus.
type PhotoArchive interface {
	Archive(ctx context.Context, menuID uuid.UUID, photos [][]byte) ([]string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys []string) error
}

// s3API is the subset of *s3.Client the archive uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3PhotoArchive stores photos under menu-scans/<menuID>/ in the configured bucket.
type S3PhotoArchive struct {
	client  s3API
	bucket  string
	presign func(ctx context.Context, key string, expiration time.Duration) (string, error)
	logger  *zap.Logger
}

// PhotoURLExpiry is how long a presigned photo link stays valid.
const PhotoURLExpiry = 15 * time.Minute

// NewS3PhotoArchive creates an archive over the S3 bucket in cfg
func NewS3PhotoArchive(cfg *config.S3Config, logger *zap.Logger) *S3PhotoArchive {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3PhotoArchive{
		client:  cfg.Client,
		bucket:  cfg.BucketName,
		presign: cfg.GeneratePresignedURL,
		logger:  logger,
	}
}

// Archive uploads every photo and returns the object keys in input order
func (a *S3PhotoArchive) Archive(ctx context.Context, menuID uuid.UUID, photos [][]byte) ([]string, error) {
	keys := make([]string, 0, len(photos))
	for i, photo := range photos {
		key := fmt.Sprintf("menu-scans/%s/%02d-%s", menuID, i+1, uuid.New())
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(photo),
			ContentType: aws.String(http.DetectContentType(photo)),
		})
		if err != nil {
			return keys, fmt.Errorf("failed to upload photo %d to S3: %w", i+1, err)
		}
		keys = append(keys, key)
	}
	a.logger.Info("archived menu photos", zap.String("menu_id", menuID.String()), zap.Int("count", len(keys)))
	return keys, nil
}

// URL returns a short-lived download link for key
func (a *S3PhotoArchive) URL(ctx context.Context, key string) (string, error) {
	return a.presign(ctx, key, PhotoURLExpiry)
}

// Delete removes archived photos. It keeps going after a failure and returns the last error.
func (a *S3PhotoArchive) Delete(ctx context.Context, keys []string) error {
	var lastErr error
	for _, key := range keys {
		_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			a.logger.Warn("failed to delete archived photo", zap.String("key", key), zap.Error(err))
			lastErr = fmt.Errorf("failed to delete %s from S3: %w", key, err)
		}
	}
	return lastErr
}
