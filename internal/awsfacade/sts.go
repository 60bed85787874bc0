package awsfacade

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"tfbridge/internal/orchestrator"
	"tfbridge/pkg/domainerrors"
)

// externalIDPrefix scopes role assumption to requests brokered by this hub
// account, closing the confused-deputy hole.
const externalIDPrefix = "TerraformHubAccount-"

const assumeRoleSessionName = "terraform-command-dispatch"

type stsAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// STSBroker assumes launch roles and identifies the hub account.
type STSBroker struct {
	client stsAPI
}

func NewSTSBroker(cfg aws.Config) *STSBroker {
	return &STSBroker{client: sts.NewFromConfig(cfg)}
}

// ExternalID builds the external id launch roles must trust for the given hub
// account.
func ExternalID(hubAccountID string) string {
	return externalIDPrefix + hubAccountID
}

// CallerAccountID returns the account this process runs in.
func (b *STSBroker) CallerAccountID(ctx context.Context) (string, error) {
	out, err := b.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("get caller identity returned no account")
	}
	return *out.Account, nil
}

// AssumeRole obtains short-lived credentials for the launch role under the
// hub's external id.
func (b *STSBroker) AssumeRole(ctx context.Context, roleARN, externalID string) (orchestrator.Credentials, error) {
	out, err := b.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(assumeRoleSessionName),
		ExternalId:      aws.String(externalID),
	})
	if err != nil {
		return orchestrator.Credentials{}, domainerrors.Wrap(err, domainerrors.CodeInternal,
			"assume role %s", roleARN)
	}
	if out.Credentials == nil {
		return orchestrator.Credentials{}, domainerrors.New(domainerrors.CodeInternal,
			"assume role %s returned no credentials", roleARN)
	}
	return orchestrator.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
	}, nil
}
