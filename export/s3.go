package export

import (
	"bytes"
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// S3PutObjectAPI is the part of *s3.Client the sink needs.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives exports in a bucket under Prefix.
type S3Sink struct {
	Client S3PutObjectAPI
	Bucket string
	Prefix string
}

// S3Config selects the bucket and credentials profile.
type S3Config struct {
	Region  string
	Profile string // optional shared config profile, mostly for dev
	Bucket  string
	Prefix  string
}

// NewS3Sink loads the default AWS config chain and builds an S3 client.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return &S3Sink{
		Client: s3.NewFromConfig(awsCfg),
		Bucket: cfg.Bucket,
		Prefix: cfg.Prefix,
	}, nil
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) Put(ctx context.Context, name, contentType string, body []byte) (string, error) {
	key := path.Join(s.Prefix, name)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.Bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(body),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String("attachment; filename=" + name),
	})
	if err != nil {
		return "", errors.Wrapf(err, "put s3://%s/%s", s.Bucket, key)
	}
	return "s3://" + s.Bucket + "/" + key, nil
}
