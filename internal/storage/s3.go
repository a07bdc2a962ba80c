package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ralt/wheelhouse/internal/models"
	"github.com/sirupsen/logrus"
)

// putObjectAPI is the part of the S3 client used for uploads
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Transferer uploads artifacts to an S3 (or S3-compatible) bucket
type S3Transferer struct {
	client   putObjectAPI
	bucket   string
	region   string
	endpoint string
	baseURL  string
}

// NewS3Transferer creates an S3 transferer using the default AWS credential chain
func NewS3Transferer(ctx context.Context, bucket, region, endpoint, baseURL string) (*S3Transferer, error) {
	if bucket == "" {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("storage bucket is required for the s3 backend"))
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, models.NewError(models.ErrInvalidConfig, "", fmt.Errorf("failed to load AWS configuration: %w", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Transferer(client, bucket, awsCfg.Region, endpoint, baseURL), nil
}

func newS3Transferer(client putObjectAPI, bucket, region, endpoint, baseURL string) *S3Transferer {
	return &S3Transferer{
		client:   client,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
		baseURL:  baseURL,
	}
}

// Transfer streams the file into the bucket with a single PutObject call
func (t *S3Transferer) Transfer(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return transferError(key, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return transferError(key, err)
	}

	logrus.Debugf("PUT s3://%s/%s (%d bytes)", t.bucket, key, info.Size())

	_, err = t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(t.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return transferError(key, fmt.Errorf("s3 upload to %s failed: %w", t.bucket, err))
	}

	return nil
}

// URL returns the public object URL
func (t *S3Transferer) URL(key string) string {
	switch {
	case t.baseURL != "":
		return joinURL(t.baseURL, key)
	case t.endpoint != "":
		return joinURL(joinURL(t.endpoint, t.bucket), key)
	case t.region != "":
		return joinURL(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", t.bucket, t.region), key)
	default:
		return joinURL(fmt.Sprintf("https://%s.s3.amazonaws.com", t.bucket), key)
	}
}
