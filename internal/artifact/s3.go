// ABOUTME: S3-compatible implementation of the artifact Store
// ABOUTME: Single bucket, one object per document; PutObject is the atomic replacement

package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config holds construction parameters for the S3 backend. Endpoint is
// optional and enables MinIO-style deployments.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// S3Store implements Store on an S3-compatible bucket. Object keys are
// <runID>/<name>; a single PutObject gives whole-document replacement.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store creates an S3 artifact store from the given config, using the
// default AWS credentials chain.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3Store) keyFor(runID, name string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("empty run id")
	}
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return runID + "/" + clean, nil
}

func (s *S3Store) Put(ctx context.Context, runID, name string, data []byte) error {
	key, err := s.keyFor(runID, name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 put %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *S3Store) Get(ctx context.Context, runID, name string) ([]byte, error) {
	key, err := s.keyFor(runID, name)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: s3 get %s: %v", ErrUnavailable, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 read %s: %v", ErrUnavailable, key, err)
	}
	return data, nil
}

func (s *S3Store) List(ctx context.Context, runID, prefix string) ([]string, error) {
	if runID == "" {
		return nil, fmt.Errorf("empty run id")
	}
	keyPrefix := runID + "/" + prefix
	names := []string{}
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &keyPrefix,
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: s3 list %s: %v", ErrUnavailable, keyPrefix, err)
		}
		for _, obj := range out.Contents {
			names = append(names, strings.TrimPrefix(aws.ToString(obj.Key), runID+"/"))
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Strings(names)
	return names, nil
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}
