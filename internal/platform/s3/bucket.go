package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/phrazzld/servertask/internal/config"
	"github.com/phrazzld/servertask/internal/domain"
)

// MaxObjectBytes bounds how much of an attachment ReadObject will load.
const MaxObjectBytes = 20 << 20

// Presigner is the subset of *s3.PresignClient used by Bucket.
type Presigner interface {
	PresignPutObject(
		ctx context.Context,
		params *awss3.PutObjectInput,
		optFns ...func(*awss3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// ObjectGetter is the subset of *s3.Client used by Bucket.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// NewClient builds an S3 client for the attachment bucket.
func NewClient(cfg aws.Config, storage config.StorageConfig) *awss3.Client {
	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(storage.Endpoint)
		}
		o.UsePathStyle = storage.UsePathStyle
	})
}

// Bucket issues upload URLs for, and reads, objects of a single bucket.
type Bucket struct {
	presigner Presigner
	objects   ObjectGetter
	name      string
	expiry    time.Duration
	now       func() time.Time
}

// NewBucket creates a Bucket backed by client.
func NewBucket(client *awss3.Client, name string, expiry time.Duration) *Bucket {
	return newBucket(awss3.NewPresignClient(client), client, name, expiry)
}

func newBucket(presigner Presigner, objects ObjectGetter, name string, expiry time.Duration) *Bucket {
	return &Bucket{
		presigner: presigner,
		objects:   objects,
		name:      name,
		expiry:    expiry,
		now:       time.Now,
	}
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// IssueUploadURL returns a presigned PUT URL for objectKey. The content type
// is part of the signature, so the upload must send the same Content-Type.
// The object is not checked for existence.
func (b *Bucket) IssueUploadURL(ctx context.Context, objectKey, contentType string) (*domain.UploadURL, error) {
	if objectKey == "" {
		return nil, domain.NewValidationError("fileName", "cannot be empty", domain.ErrValidation)
	}
	if contentType == "" {
		return nil, domain.NewValidationError("fileType", "cannot be empty", domain.ErrValidation)
	}

	issuedAt := b.now()
	req, err := b.presigner.PresignPutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(b.name),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, awss3.WithPresignExpires(b.expiry), withSignedContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %q: %w", objectKey, err)
	}

	return &domain.UploadURL{
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: issuedAt.Add(b.expiry),
	}, nil
}

// ReadObject loads objectKey and reports its content type. A missing or
// oversized object yields domain.ErrAttachmentUnavailable.
func (b *Bucket) ReadObject(ctx context.Context, objectKey string) ([]byte, string, error) {
	out, err := b.objects.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isMissingObject(err) {
			return nil, "", fmt.Errorf("%w: object %q not found", domain.ErrAttachmentUnavailable, objectKey)
		}
		return nil, "", fmt.Errorf("failed to get object %q: %w", objectKey, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(out.Body, MaxObjectBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object %q: %w", objectKey, err)
	}
	if len(data) > MaxObjectBytes {
		return nil, "", fmt.Errorf("%w: object %q exceeds %d bytes", domain.ErrAttachmentUnavailable, objectKey, MaxObjectBytes)
	}

	return data, aws.ToString(out.ContentType), nil
}

// withSignedContentType keeps Content-Type on the request that gets
// presigned. The S3 presigner strips it from bodiless requests, which would
// leave the URL valid for any content type.
func withSignedContentType(contentType string) func(*awss3.PresignOptions) {
	return func(o *awss3.PresignOptions) {
		o.ClientOptions = append(o.ClientOptions, func(opts *awss3.Options) {
			opts.APIOptions = append(opts.APIOptions, func(stack *middleware.Stack) error {
				return stack.Build.Add(contentTypeHeader(contentType), middleware.After)
			})
		})
	}
}

type contentTypeHeader string

func (contentTypeHeader) ID() string { return "SignedContentType" }

func (h contentTypeHeader) HandleBuild(
	ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler,
) (middleware.BuildOutput, middleware.Metadata, error) {
	req, ok := in.Request.(*smithyhttp.Request)
	if !ok {
		return middleware.BuildOutput{}, middleware.Metadata{}, fmt.Errorf("unexpected request type %T", in.Request)
	}
	req.Header.Set("Content-Type", string(h))
	return next.HandleBuild(ctx, in)
}

func isMissingObject(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey"
}
