package storagesvc

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

const s3PartSize = 5 * 1024 * 1024 // minimum multipart part size

// S3Storage keeps files in an S3 (or S3-compatible) bucket.
type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	conf     core.StorageConfig
	logger   core.Logger
}

var _ core.FileStorage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, conf core.StorageConfig, logger core.Logger) (*S3Storage, error) {
	if conf.Bucket == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(conf.Region)}
	if conf.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.PathStyle
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = s3PartSize
	})
	return &S3Storage{client: client, uploader: uploader, conf: conf, logger: logger}, nil
}

// Put uploads r, in parts when larger than 5 MiB.
// Readers that can be rewound are retried on failure.
func (s *S3Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	onRetry := func(n uint, err error) {
		s.logger.Warn(fmt.Sprintf("s3 upload of %s failed, retrying (%d)", key, n+1), err)
	}
	return retryPut(ctx, r, onRetry, func() error {
		input := &s3.PutObjectInput{
			Bucket:      aws.String(s.conf.Bucket),
			Key:         aws.String(key),
			Body:        r,
			ContentType: aws.String(contentType),
		}
		if size > 0 && size < s3PartSize {
			input.ContentLength = aws.Int64(size)
		}
		_, err := s.uploader.Upload(ctx, input)
		return errors.Wrap(err, "uploading to s3")
	})
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.conf.Bucket),
		Key:    aws.String(key),
	})
	return errors.Wrap(err, "deleting from s3")
}

func (s *S3Storage) URL(key string) string {
	switch {
	case key == "":
		return ""
	case s.conf.PublicBaseURL != "":
		return s.conf.PublicBaseURL + "/" + key
	case s.conf.Endpoint != "":
		return s.conf.Endpoint + "/" + s.conf.Bucket + "/" + key
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.conf.Bucket, s.conf.Region, key)
	}
}
