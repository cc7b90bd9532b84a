package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "carbonflow/config"
	"carbonflow/logger"
	"carbonflow/models"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores the report of a run under a per-run prefix.
type S3Uploader struct {
	client  objectPutter
	bucket  string
	prefix  string
	version string
	log     *logger.Log
}

func NewS3Uploader(ctx context.Context, cfg appconfig.S3Config, version string) (*S3Uploader, error) {
	log := logger.GetLogger()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket":     cfg.Bucket,
		"region":     cfg.Region,
		"endpoint":   cfg.Endpoint,
		"path_style": cfg.PathStyle,
	}).Info("s3 uploader initialized")

	return newS3Uploader(client, cfg.Bucket, cfg.Prefix, version), nil
}

func newS3Uploader(client objectPutter, bucket, prefix, version string) *S3Uploader {
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		version: version,
		log:     logger.GetLogger(),
	}
}

// KeyPrefix is the object prefix of a run:
// <prefix>/meter=<id>/period=<start>_<end>/run=<run id>.
func (u *S3Uploader) KeyPrefix(s models.Summary) string {
	return path.Join(
		u.prefix,
		"meter="+s.MeterID,
		fmt.Sprintf("period=%s_%s", s.PeriodStart, s.PeriodEnd),
		"run="+s.RunID,
	)
}

// Upload stores summary.json and, when parquetData is non-empty, the
// interval export next to it.
func (u *S3Uploader) Upload(ctx context.Context, s models.Summary, parquetData []byte) error {
	prefix := u.KeyPrefix(s)

	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := u.put(ctx, path.Join(prefix, "summary.json"), doc, "application/json"); err != nil {
		return err
	}
	if len(parquetData) > 0 {
		if err := u.put(ctx, path.Join(prefix, FileName(s)), parquetData, "application/octet-stream"); err != nil {
			return err
		}
	}
	return nil
}

func (u *S3Uploader) put(ctx context.Context, key string, data []byte, contentType string) error {
	log := u.log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"operation": "put_object",
		"s3_key":    key,
		"data_size": len(data),
	})

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"carbonflow-version": u.version,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", u.bucket, err)
	}
	log.Info("uploaded to S3")
	return nil
}
