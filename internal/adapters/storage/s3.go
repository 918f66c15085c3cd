package storage

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"greencart/internal/adapters/config"
	"greencart/pkg/errors"
)

// S3 publishes collected static files to an S3 compatible bucket (AWS, MinIO)
type S3 struct {
	raw    *s3.Client
	bucket string
	prefix string
	region string
}

// NewS3 builds a client from the storage config. A custom endpoint switches
// the client to that host, which is how MinIO is reached locally.
func NewS3(ctx context.Context, c config.StorageConfig) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = c.ForcePathStyle
	})

	return &S3{
		raw:    client,
		bucket: c.Bucket,
		prefix: strings.Trim(c.Prefix, "/"),
		region: c.Region,
	}, nil
}

// Bucket returns the target bucket name
func (s *S3) Bucket() string {
	return s.bucket
}

// Health checks that the bucket is reachable
func (s *S3) Health(ctx context.Context) error {
	_, err := s.raw.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket})
	return err
}

// EnsureBucket creates the bucket unless it already exists
func (s *S3) EnsureBucket(ctx context.Context) error {
	if _, err := s.raw.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket}); err == nil {
		return nil
	}

	in := &s3.CreateBucketInput{Bucket: &s.bucket}
	if s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	_, err := s.raw.CreateBucket(ctx, in)
	if err == nil || isAlreadyOwned(err) {
		return nil
	}
	return errors.Wrapf(err, "create bucket %s", s.bucket)
}

func isAlreadyOwned(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}
	return false
}

// Key maps a slash separated relative path to an object key under the prefix
func (s *S3) Key(rel string) string {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "/")
	if s.prefix == "" {
		return rel
	}
	return path.Join(s.prefix, rel)
}

// PutFile uploads the local file at localPath as rel under the prefix
func (s *S3) PutFile(ctx context.Context, rel, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.Key(rel)
	_, err = s.raw.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "upload %s", key)
	}
	return nil
}
