package awsfacade

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"

	"tfbridge/internal/orchestrator"
)

type cloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// StackProber inspects stack state in the requester's account. Each probe
// builds a client for the stack's region with the launch role's credentials,
// since the hub has no direct access to spoke stacks.
type StackProber struct {
	base aws.Config

	// newClient is swapped in tests.
	newClient func(cfg aws.Config) cloudFormationAPI
}

func NewStackProber(cfg aws.Config) *StackProber {
	return &StackProber{
		base: cfg,
		newClient: func(cfg aws.Config) cloudFormationAPI {
			return cloudformation.NewFromConfig(cfg)
		},
	}
}

// IsStackInUpdateRollback reports whether the stack is currently rolling back
// an update.
func (p *StackProber) IsStackInUpdateRollback(ctx context.Context, stackID, region string, creds orchestrator.Credentials) (bool, error) {
	cfg := p.base.Copy()
	cfg.Region = region
	cfg.Credentials = credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)

	out, err := p.newClient(cfg).DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackID),
	})
	if err != nil {
		return false, fmt.Errorf("describe stack %s: %w", stackID, err)
	}
	if len(out.Stacks) == 0 {
		return false, fmt.Errorf("stack %s not found", stackID)
	}
	return out.Stacks[0].StackStatus == cfntypes.StackStatusUpdateRollbackInProgress, nil
}
