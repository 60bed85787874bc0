package awsfacade

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tfbridge/internal/orchestrator"
)

type fakeCloudFormation struct {
	status cfntypes.StackStatus
	in     *cloudformation.DescribeStacksInput
}

func (f *fakeCloudFormation) DescribeStacks(_ context.Context, params *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.in = params
	return &cloudformation.DescribeStacksOutput{
		Stacks: []cfntypes.Stack{{StackStatus: f.status}},
	}, nil
}

func TestStackProberDetectsUpdateRollback(t *testing.T) {
	fake := &fakeCloudFormation{status: cfntypes.StackStatusUpdateRollbackInProgress}
	var gotCfg aws.Config
	prober := &StackProber{
		base: aws.Config{Region: "us-west-2"},
		newClient: func(cfg aws.Config) cloudFormationAPI {
			gotCfg = cfg
			return fake
		},
	}

	stackID := "arn:aws:cloudformation:eu-west-1:111111111111:stack/my-stack/uuid"
	rollingBack, err := prober.IsStackInUpdateRollback(context.Background(), stackID, "eu-west-1",
		orchestrator.Credentials{AccessKeyID: "AKIA", SecretAccessKey: "secret", SessionToken: "token"})

	require.NoError(t, err)
	assert.True(t, rollingBack)
	assert.Equal(t, stackID, aws.ToString(fake.in.StackName))

	// The probe must run in the stack's region with the launch role's
	// credentials, not the hub's.
	assert.Equal(t, "eu-west-1", gotCfg.Region)
	creds, err := gotCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKIA", creds.AccessKeyID)
}

func TestStackProberOtherStatuses(t *testing.T) {
	for _, status := range []cfntypes.StackStatus{
		cfntypes.StackStatusUpdateInProgress,
		cfntypes.StackStatusUpdateComplete,
		cfntypes.StackStatusCreateComplete,
	} {
		fake := &fakeCloudFormation{status: status}
		prober := &StackProber{
			newClient: func(aws.Config) cloudFormationAPI { return fake },
		}

		rollingBack, err := prober.IsStackInUpdateRollback(context.Background(),
			"arn:aws:cloudformation:us-east-1:111111111111:stack/my-stack/uuid", "us-east-1",
			orchestrator.Credentials{})

		require.NoError(t, err)
		assert.False(t, rollingBack, "status %s", status)
	}
}
