package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/persona-chat-api/pkg/config"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestS3UploaderUpload(t *testing.T) {
	fake := &fakeS3{}
	u := &S3Uploader{client: fake, bucket: "snapshots", prefix: "db-backups/"}

	key, err := u.Upload(context.Background(), "db-backup-1.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "db-backups/db-backup-1.json", key)
	assert.Equal(t, "snapshots", aws.ToString(fake.input.Bucket))
	assert.Equal(t, key, aws.ToString(fake.input.Key))
	assert.Equal(t, `{"a":1}`, string(fake.body))
}

func TestS3UploaderError(t *testing.T) {
	u := &S3Uploader{client: &fakeS3{err: errors.New("denied")}, bucket: "b"}
	_, err := u.Upload(context.Background(), "x.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestS3UploaderKeyWithoutPrefix(t *testing.T) {
	u := &S3Uploader{bucket: "b"}
	assert.Equal(t, "x.json", u.Key("x.json"))
}

func TestNewS3UploaderRequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), config.BackupConfig{})
	assert.ErrorIs(t, err, ErrS3NotConfigured)
}
