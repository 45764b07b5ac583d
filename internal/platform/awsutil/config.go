// Package awsutil loads the shared AWS SDK configuration used to build the
// DynamoDB, S3 and Rekognition clients.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/phrazzld/servertask/internal/config"
)

// LoadConfig resolves credentials through the default provider chain and
// pins the configured region.
func LoadConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return awsCfg, nil
}
