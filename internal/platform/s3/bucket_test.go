package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/phrazzld/servertask/internal/config"
	"github.com/phrazzld/servertask/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCredentials = aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}

func newTestClient() *awss3.Client {
	return NewClient(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.StaticCredentialsProvider{Value: testCredentials},
	}, config.StorageConfig{})
}

func TestIssueUploadURL(t *testing.T) {
	bucket := NewBucket(newTestClient(), "attachments", 60*time.Second)
	fixed := time.Date(2025, time.April, 1, 12, 0, 0, 0, time.UTC)
	bucket.now = func() time.Time { return fixed }

	got, err := bucket.IssueUploadURL(context.Background(), "photos/cat.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "PUT", got.Method)
	assert.Equal(t, fixed.Add(60*time.Second), got.ExpiresAt)

	u, err := url.Parse(got.URL)
	require.NoError(t, err)
	assert.Contains(t, u.Host+u.Path, "attachments")
	assert.True(t, strings.HasSuffix(u.Path, "/photos/cat.png"), "unexpected path %q", u.Path)

	q := u.Query()
	assert.Equal(t, "60", q.Get("X-Amz-Expires"))
	assert.Contains(t, q.Get("X-Amz-SignedHeaders"), "content-type")
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
}

// resign recomputes the signature of a presigned upload URL as S3 would for
// an upload sent with contentType.
func resign(t *testing.T, rawURL, contentType string) (got, want string) {
	t.Helper()

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	q := u.Query()
	want = q.Get("X-Amz-Signature")
	signedAt, err := time.Parse("20060102T150405Z", q.Get("X-Amz-Date"))
	require.NoError(t, err)
	for _, key := range []string{"X-Amz-Algorithm", "X-Amz-Credential", "X-Amz-Date", "X-Amz-SignedHeaders", "X-Amz-Signature"} {
		q.Del(key)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequest(http.MethodPut, u.String(), nil)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	signer := v4.NewSigner(func(o *v4.SignerOptions) { o.DisableURIPathEscaping = true })
	signed, _, err := signer.PresignHTTP(context.Background(), testCredentials, req,
		"UNSIGNED-PAYLOAD", "s3", "us-east-1", signedAt)
	require.NoError(t, err)

	su, err := url.Parse(signed)
	require.NoError(t, err)
	return su.Query().Get("X-Amz-Signature"), want
}

func TestIssueUploadURLIsScopedToContentType(t *testing.T) {
	bucket := NewBucket(newTestClient(), "attachments", 60*time.Second)

	issued, err := bucket.IssueUploadURL(context.Background(), "photos/cat.png", "image/png")
	require.NoError(t, err)

	got, want := resign(t, issued.URL, "image/png")
	assert.Equal(t, want, got, "upload with the declared content type must verify")

	got, want = resign(t, issued.URL, "application/octet-stream")
	assert.NotEqual(t, want, got, "upload with another content type must not verify")
}

func TestIssueUploadURLRejectsEmptyInput(t *testing.T) {
	bucket := NewBucket(newTestClient(), "attachments", time.Minute)

	_, err := bucket.IssueUploadURL(context.Background(), "", "image/png")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = bucket.IssueUploadURL(context.Background(), "cat.png", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIssueUploadURLUsesPathStyleEndpoint(t *testing.T) {
	client := NewClient(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}, config.StorageConfig{Endpoint: "http://localhost:4566", UsePathStyle: true})

	got, err := NewBucket(client, "attachments", time.Minute).
		IssueUploadURL(context.Background(), "cat.png", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.URL, "http://localhost:4566/attachments/cat.png"), got.URL)
}

type fakePresigner struct {
	err error
}

func (f fakePresigner) PresignPutObject(
	context.Context,
	*awss3.PutObjectInput,
	...func(*awss3.PresignOptions),
) (*v4.PresignedHTTPRequest, error) {
	return nil, f.err
}

type fakeGetter struct {
	out *awss3.GetObjectOutput
	err error
	in  *awss3.GetObjectInput
}

func (f *fakeGetter) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestIssueUploadURLWrapsPresignFailure(t *testing.T) {
	bucket := newBucket(fakePresigner{err: errors.New("no credentials")}, &fakeGetter{}, "attachments", time.Minute)

	_, err := bucket.IssueUploadURL(context.Background(), "cat.png", "image/png")
	require.Error(t, err)
	assert.ErrorContains(t, err, "no credentials")
	assert.NotErrorIs(t, err, domain.ErrValidation)
}

func TestReadObject(t *testing.T) {
	getter := &fakeGetter{out: &awss3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader([]byte("png-bytes"))),
		ContentType: aws.String("image/png"),
	}}
	bucket := newBucket(fakePresigner{}, getter, "attachments", time.Minute)

	data, contentType, err := bucket.ReadObject(context.Background(), "cat.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, "attachments", aws.ToString(getter.in.Bucket))
	assert.Equal(t, "cat.png", aws.ToString(getter.in.Key))
}

func TestReadObjectMissing(t *testing.T) {
	getter := &fakeGetter{err: &types.NoSuchKey{Message: aws.String("gone")}}
	bucket := newBucket(fakePresigner{}, getter, "attachments", time.Minute)

	_, _, err := bucket.ReadObject(context.Background(), "missing.png")
	assert.ErrorIs(t, err, domain.ErrAttachmentUnavailable)
}

func TestReadObjectTooLarge(t *testing.T) {
	getter := &fakeGetter{out: &awss3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(make([]byte, MaxObjectBytes+1))),
	}}
	bucket := newBucket(fakePresigner{}, getter, "attachments", time.Minute)

	_, _, err := bucket.ReadObject(context.Background(), "huge.png")
	assert.ErrorIs(t, err, domain.ErrAttachmentUnavailable)
}

func TestReadObjectUpstreamFailure(t *testing.T) {
	getter := &fakeGetter{err: errors.New("connection reset")}
	bucket := newBucket(fakePresigner{}, getter, "attachments", time.Minute)

	_, _, err := bucket.ReadObject(context.Background(), "cat.png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAttachmentUnavailable)
}
