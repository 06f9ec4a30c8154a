package archive

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3API struct {
	puts  []*s3.PutObjectInput
	pages []*s3.ListObjectsV2Output
	calls int
}

func (f *fakeS3API) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3API) DeleteObject(context.Context, *s3.DeleteObjectInput, ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3API) ListObjectsV2(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func TestAWSListObjectsPaginatesAndStripsQuotes(t *testing.T) {
	api := &fakeS3API{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("p/a"), ETag: aws.String(`"abc"`)}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("t"),
		},
		{
			Contents: []types.Object{{Key: aws.String("p/b"), ETag: aws.String("def")}},
		},
	}}
	got, err := NewAWSS3Client(api, "bucket").ListObjects(context.Background(), "p/")
	if err != nil {
		t.Fatal(err)
	}
	if got["p/a"] != "abc" || got["p/b"] != "def" || api.calls != 2 {
		t.Errorf("unexpected listing %v after %d calls", got, api.calls)
	}
}

func TestAWSPutObjectSendsContentMD5(t *testing.T) {
	api := &fakeS3API{}
	c := NewAWSS3Client(api, "bucket")
	if err := c.PutObject(context.Background(), "k", strings.NewReader("x"), "text/plain", md5Hex("x")); err != nil {
		t.Fatal(err)
	}
	in := api.puts[0]
	if aws.ToString(in.Bucket) != "bucket" || aws.ToString(in.ContentMD5) == "" {
		t.Errorf("unexpected input %+v", in)
	}
}
