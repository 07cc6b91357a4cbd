package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 is an in-memory stand-in for the S3 client and upload manager.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	if input.ContentLength != nil && *input.ContentLength != int64(len(data)) {
		return nil, errors.New("content length mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*input.Key] = data
	return &manager.UploadOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func TestS3Archive_Keys(t *testing.T) {
	ctx := context.Background()

	t.Run("prefix is prepended to keys", func(t *testing.T) {
		fake := newFakeS3()
		a := newS3Archive("bucket", "plant-a", fake, fake)

		loc, err := a.Put(ctx, "file-1/ver-1", strings.NewReader("x"), 1)
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if loc != "s3://bucket/plant-a/file-1/ver-1" {
			t.Errorf("location = %q", loc)
		}
		if _, ok := fake.objects["plant-a/file-1/ver-1"]; !ok {
			t.Error("object not stored under prefixed key")
		}
	})

	t.Run("no prefix", func(t *testing.T) {
		fake := newFakeS3()
		a := newS3Archive("bucket", "", fake, fake)

		loc, _ := a.Put(ctx, "file-1/ver-1", strings.NewReader("x"), 1)
		if loc != "s3://bucket/file-1/ver-1" {
			t.Errorf("location = %q", loc)
		}
	})
}

func TestS3Archive_ValidateSetup(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = errors.New("forbidden")
	a := newS3Archive("bucket", "", fake, fake)

	if err := a.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() expected error")
	}
}

func TestNewS3Archive_RequiresBucket(t *testing.T) {
	if _, err := NewS3Archive(context.Background(), S3Options{}); err == nil {
		t.Error("NewS3Archive() expected error without bucket")
	}
}
