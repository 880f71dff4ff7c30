// Package objectstore fetches heritage-guide documents from S3. Guides are
// stored as PDF objects keyed by tour ID and pulled on demand the first time
// a tour's guide is requested.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Fetcher retrieves a raw document by object key.
type Fetcher interface {
	// Fetch returns the object's full contents. The second return value is
	// false when no object exists under the key.
	Fetch(ctx context.Context, key string) ([]byte, bool, error)
}

// s3API is the subset of the S3 client used by this package.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher implements Fetcher backed by an S3 bucket.
type S3Fetcher struct {
	api    s3API
	bucket string
}

// NewS3Fetcher creates an S3Fetcher using the default AWS credential chain.
func NewS3Fetcher(ctx context.Context, region, bucket string) (*S3Fetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("objectstore: load aws config: %w", err)
	}
	return &S3Fetcher{api: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// NewS3FetcherWithAPI wires an explicit API implementation, used by tests.
func NewS3FetcherWithAPI(api s3API, bucket string) *S3Fetcher {
	return &S3Fetcher{api: api, bucket: bucket}
}

// Fetch returns the object's full contents, or false when the key is absent.
func (f *S3Fetcher) Fetch(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := f.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("objectstore: get s3://%s/%s: %w", f.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("objectstore: read s3://%s/%s: %w", f.bucket, key, err)
	}
	return data, true, nil
}
