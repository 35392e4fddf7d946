package fsxs3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Abraxas-365/screener/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3FileSystem implements fsx.FileSystem on an S3 bucket.
type S3FileSystem struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3FileSystem creates a file system rooted at bucket/prefix.
func NewS3FileSystem(client *s3.Client, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (f *S3FileSystem) key(filePath string) string {
	if f.prefix == "" {
		return filePath
	}
	return fsx.Join(f.prefix, filePath)
}

// ReadFile downloads the full object at path.
func (f *S3FileSystem) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(filePath)),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", filePath, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read body %s: %w", filePath, err)
	}
	return data, nil
}

// WriteFile uploads data to path.
func (f *S3FileSystem) WriteFile(ctx context.Context, filePath string, data []byte) error {
	return f.WriteFileStream(ctx, filePath, bytes.NewReader(data))
}

// WriteFileStream uploads the reader's contents to path.
func (f *S3FileSystem) WriteFileStream(ctx context.Context, filePath string, r io.Reader) error {
	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(filePath)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", filePath, err)
	}
	return nil
}

// Delete removes the object at path.
func (f *S3FileSystem) Delete(ctx context.Context, filePath string) error {
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key(filePath)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", filePath, err)
	}
	return nil
}

// Join builds a slash-separated storage path.
func (f *S3FileSystem) Join(parts ...string) string {
	return fsx.Join(parts...)
}
