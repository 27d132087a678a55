package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ignite/candidate-ingest/internal/pkg/backoff"
)

// S3Adapter is the production Object Store Adapter backend.
type S3Adapter struct {
	client *s3.Client
	bucket string
	retry  backoff.Policy
}

// NewS3Adapter builds an S3-backed adapter. profile may be empty to use the
// default credential chain (IAM role on ECS/Lambda).
func NewS3Adapter(ctx context.Context, bucket, region, profile string) (*S3Adapter, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(region))
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	return &S3Adapter{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		retry:  backoff.DefaultPolicy,
	}, nil
}

func (a *S3Adapter) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return backoff.Do(ctx, a.retry, func(attempt int) error {
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return wrapS3Error(err)
	})
}

func (a *S3Adapter) GetRange(ctx context.Context, key string, start int64, endInclusive *int64) (io.ReadCloser, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-", start)
	if endInclusive != nil {
		rangeHeader = fmt.Sprintf("bytes=%d-%d", start, *endInclusive)
	}

	var body io.ReadCloser
	err := backoff.Do(ctx, a.retry, func(attempt int) error {
		out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
			Range:  aws.String(rangeHeader),
		})
		if err != nil {
			return wrapS3Error(err)
		}
		body = out.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (a *S3Adapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, wrapS3Error(err)
}

func (a *S3Adapter) AppendViaRewrite(ctx context.Context, key string, chunkBytes []byte) error {
	existing, err := a.readAll(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	combined := append(existing, chunkBytes...)
	return a.Put(ctx, key, combined, "text/csv")
}

func (a *S3Adapter) readAll(ctx context.Context, key string) ([]byte, error) {
	body, err := a.GetRange(ctx, key, 0, nil)
	if err != nil {
		var nf *types.NoSuchKey
		if errors.As(err, &nf) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (a *S3Adapter) Delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	return wrapS3Error(err)
}

// wrapS3Error maps a missing-key response to ErrNotFound and marks other
// errors retryable so internal/pkg/backoff can retry transient network
// failures; auth/quota errors still propagate (S3 doesn't distinguish these
// at the Go SDK error-type level as cleanly as retryable network errors, so
// permanent failures are retried up to the policy's bounded attempt count
// and then surfaced — see spec §4.1, §7.2).
func wrapS3Error(err error) error {
	if err == nil {
		return nil
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return ErrNotFound
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return ErrNotFound
	}
	return transient(err)
}
