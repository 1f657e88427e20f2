package names

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the slice of the S3 client the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Load resolves source to a table: "" is the embedded default, "s3://bucket/key"
// reads through getter, anything else is a local file path.
func Load(ctx context.Context, source string, getter ObjectGetter) (*Table, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return Default(), nil
	case IsS3Source(source):
		bucket, key, err := splitS3URI(source)
		if err != nil {
			return nil, err
		}
		return LoadS3(ctx, getter, bucket, key)
	default:
		return LoadFile(source)
	}
}

// IsS3Source reports whether source names an S3 object.
func IsS3Source(source string) bool {
	return strings.HasPrefix(strings.TrimSpace(source), "s3://")
}

// LoadFile reads a table from disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("names: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// LoadS3 reads a table object from S3.
func LoadS3(ctx context.Context, getter ObjectGetter, bucket, key string) (*Table, error) {
	if getter == nil {
		return nil, errors.New("names: s3 source configured without an s3 client")
	}
	out, err := getter.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("names: get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return Parse(out.Body)
}

func splitS3URI(uri string) (string, string, error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("names: invalid s3 uri %q", uri)
	}
	return bucket, key, nil
}
