// Package rekognition detects image labels on attachment objects with
// Amazon Rekognition, reading the image straight from the S3 bucket.
package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsrek "github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/phrazzld/servertask/internal/domain"
)

// API is the subset of the Rekognition client used by Recognizer.
type API interface {
	DetectLabels(ctx context.Context, params *awsrek.DetectLabelsInput, optFns ...func(*awsrek.Options)) (*awsrek.DetectLabelsOutput, error)
}

// NewClient builds a Rekognition client.
func NewClient(cfg aws.Config) *awsrek.Client {
	return awsrek.NewFromConfig(cfg)
}

// Recognizer detects labels on objects of one bucket.
type Recognizer struct {
	client API
	bucket string
}

// NewRecognizer creates a Recognizer for objects in bucket.
func NewRecognizer(client API, bucket string) *Recognizer {
	return &Recognizer{client: client, bucket: bucket}
}

// DetectLabels asks Rekognition for at most maxLabels labels with confidence
// of at least minConfidence. Objects Rekognition cannot read or decode yield
// domain.ErrAttachmentUnavailable.
func (r *Recognizer) DetectLabels(
	ctx context.Context,
	objectKey string,
	maxLabels int,
	minConfidence float64,
) ([]domain.Label, error) {
	out, err := r.client.DetectLabels(ctx, &awsrek.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(r.bucket),
				Name:   aws.String(objectKey),
			},
		},
		MaxLabels:     aws.Int32(int32(maxLabels)),
		MinConfidence: aws.Float32(float32(minConfidence)),
	})
	if err != nil {
		if isUnavailable(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrAttachmentUnavailable, err)
		}
		return nil, fmt.Errorf("rekognition detect labels failed: %w", err)
	}

	labels := make([]domain.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, domain.Label{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}
	return labels, nil
}

func isUnavailable(err error) bool {
	var (
		invalidObject *types.InvalidS3ObjectException
		invalidFormat *types.InvalidImageFormatException
		tooLarge      *types.ImageTooLargeException
	)
	return errors.As(err, &invalidObject) ||
		errors.As(err, &invalidFormat) ||
		errors.As(err, &tooLarge)
}
