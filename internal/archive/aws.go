package archive

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of the S3 SDK client used by AWSS3Client.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// AWSS3Client implements S3Client using the AWS SDK v2.
type AWSS3Client struct {
	client s3API
	bucket string
}

// NewAWSS3Client creates a new AWSS3Client.
func NewAWSS3Client(client s3API, bucket string) *AWSS3Client {
	return &AWSS3Client{client: client, bucket: bucket}
}

// NewDefaultS3Client builds a client from the default AWS credential chain.
// An empty region defers to the environment or shared config.
func NewDefaultS3Client(ctx context.Context, bucket, region string) (*AWSS3Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewAWSS3Client(s3.NewFromConfig(cfg), bucket), nil
}

// PutObject uploads an object. The MD5 is sent as Content-MD5 so S3 rejects
// corrupted uploads.
func (c *AWSS3Client) PutObject(ctx context.Context, key string, body io.Reader, contentType, md5Hex string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if raw, err := hex.DecodeString(md5Hex); err == nil && len(raw) > 0 {
		input.ContentMD5 = aws.String(base64.StdEncoding.EncodeToString(raw))
	}
	if _, err := c.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 PutObject %q: %w", key, err)
	}
	return nil
}

// DeleteObject deletes an object from S3.
func (c *AWSS3Client) DeleteObject(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 DeleteObject %q: %w", key, err)
	}
	return nil
}

// ListObjects lists objects under prefix and returns key -> ETag with the
// surrounding quotes stripped.
func (c *AWSS3Client) ListObjects(ctx context.Context, prefix string) (map[string]string, error) {
	result := make(map[string]string)

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	for {
		out, err := c.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("s3 ListObjectsV2: %w", err)
		}
		for _, obj := range out.Contents {
			etag := aws.ToString(obj.ETag)
			if len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"' {
				etag = etag[1 : len(etag)-1]
			}
			result[aws.ToString(obj.Key)] = etag
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	return result, nil
}
