package repository

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/sudanerr/formscan/internal/common"
)

// ObjectStore uploads scanned source files and yields the public URL
// stored on the report record.
type ObjectStore interface {
	Upload(ctx context.Context, category, filename string, body []byte, contentType string) (string, error)
}

// S3Store talks to an S3-compatible bucket endpoint.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	logger        *slog.Logger
}

func NewS3Store(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// Upload stores the body under <category>/<uuid><ext> so concurrent
// uploads of identically named files never collide.
func (s *S3Store) Upload(ctx context.Context, category, filename string, body []byte, contentType string) (string, error) {
	key := path.Join(category, uuid.New().String()+strings.ToLower(path.Ext(filename)))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("object upload failed", "bucket", s.bucket, "key", key, "error", err)
		return "", common.NewAppError("UPLOAD", err.Error(), common.ErrUpload)
	}

	s.logger.Info("object uploaded", "bucket", s.bucket, "key", key, "bytes", len(body))
	return s.publicBaseURL + "/" + key, nil
}
