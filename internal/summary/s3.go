package summary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"coziyoo-seed/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// maxSummarySize bounds a summary read from S3.
const maxSummarySize = 64 << 20

// objectAPI is the subset of the S3 client used for summaries.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 reads and writes summaries in one bucket under a key prefix.
type S3 struct {
	client objectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

var (
	_ Store  = (*S3)(nil)
	_ Loader = (*S3)(nil)
)

// NewS3 creates an S3-backed summary store and loader using the default AWS
// credential chain.
func NewS3(ctx context.Context, bucket, region, prefix string, logger zerolog.Logger) (*S3, error) {
	logger = logger.With().Str("component", "summary-s3").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Str("prefix", prefix).
		Msg("S3 summary store initialised")

	return newS3(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

func newS3(client objectAPI, bucket, prefix string, logger zerolog.Logger) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Key returns the object key of a summary name. Only the base name is kept.
func (s *S3) Key(name string) string {
	return s.prefix + path.Base(name)
}

// Save uploads the summary as a JSON object. The upload is conditional on the
// key being absent.
func (s *S3) Save(ctx context.Context, name string, summary model.RunSummary) (string, error) {
	data, err := Marshal(summary)
	if err != nil {
		return "", err
	}

	key := s.Key(name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
		Metadata: map[string]string{
			"seed-id": summary.SeedID,
			"run-id":  summary.RunID,
		},
	})
	if err != nil {
		if isPreconditionFailed(err) {
			return "", fmt.Errorf("%w: s3://%s/%s", ErrSummaryExists, s.bucket, key)
		}
		s.logger.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info().Str("location", location).Msg("run summary uploaded")
	return location, nil
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

// Load downloads and decodes a summary. name is the full object key.
func (s *S3) Load(ctx context.Context, key string) (model.RunSummary, error) {
	s.logger.Info().Str("bucket", s.bucket).Str("key", key).Msg("loading run summary from S3")

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("failed to get object from S3")
		return model.RunSummary{}, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", s.bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, maxSummarySize))
	if err != nil {
		return model.RunSummary{}, fmt.Errorf("error reading run summary from S3 %s: %w", key, err)
	}
	return Unmarshal(data)
}
