package awsfacade

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSTS struct {
	assumeIn *sts.AssumeRoleInput
}

func (f *fakeSTS) AssumeRole(_ context.Context, params *sts.AssumeRoleInput, _ ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.assumeIn = params
	return &sts.AssumeRoleOutput{Credentials: &ststypes.Credentials{
		AccessKeyId:     aws.String("AKIA"),
		SecretAccessKey: aws.String("secret"),
		SessionToken:    aws.String("token"),
	}}, nil
}

func (f *fakeSTS) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String("222222222222")}, nil
}

func TestExternalID(t *testing.T) {
	assert.Equal(t, "TerraformHubAccount-222222222222", ExternalID("222222222222"))
}

func TestSTSBrokerAssumeRole(t *testing.T) {
	fake := &fakeSTS{}
	broker := &STSBroker{client: fake}

	creds, err := broker.AssumeRole(context.Background(),
		"arn:aws:iam::111111111111:role/SCLaunchRole", "TerraformHubAccount-222222222222")

	require.NoError(t, err)
	assert.Equal(t, "AKIA", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
	assert.Equal(t, "token", creds.SessionToken)
	assert.Equal(t, "TerraformHubAccount-222222222222", aws.ToString(fake.assumeIn.ExternalId))
	assert.Equal(t, "arn:aws:iam::111111111111:role/SCLaunchRole", aws.ToString(fake.assumeIn.RoleArn))
}

func TestSTSBrokerCallerAccountID(t *testing.T) {
	broker := &STSBroker{client: &fakeSTS{}}

	account, err := broker.CallerAccountID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "222222222222", account)
}
