// Package awsfacade wraps the AWS service clients behind the narrow
// interfaces the rest of the bridge depends on, and owns the translation from
// SDK error types to domain error codes.
package awsfacade

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// LoadConfig resolves the ambient AWS configuration (environment, shared
// config, instance role).
func LoadConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
