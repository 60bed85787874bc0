package awsfacade

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"tfbridge/internal/dispatch"
	"tfbridge/pkg/domainerrors"
)

const (
	// runShellScriptDocument is the managed document that executes an inline
	// shell script on the target.
	runShellScriptDocument = "AWS-RunShellScript"

	// commandWorkingDirectory is where the wrapper script runs on terraform
	// servers.
	commandWorkingDirectory = "/home/ec2-user"
)

type ssmAPI interface {
	SendCommand(ctx context.Context, params *ssm.SendCommandInput, optFns ...func(*ssm.Options)) (*ssm.SendCommandOutput, error)
	GetCommandInvocation(ctx context.Context, params *ssm.GetCommandInvocationInput, optFns ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error)
}

// Commander submits shell commands to a single instance through SSM Run
// Command.
type Commander struct {
	client ssmAPI
}

func NewCommander(cfg aws.Config) *Commander {
	return &Commander{client: ssm.NewFromConfig(cfg)}
}

// Send submits the script to one instance and returns the command id. Output
// is streamed to the given S3 location by SSM itself.
func (c *Commander) Send(ctx context.Context, instanceID string, commands []string, outputBucket, outputKeyPrefix string) (string, error) {
	out, err := c.client.SendCommand(ctx, &ssm.SendCommandInput{
		DocumentName: aws.String(runShellScriptDocument),
		InstanceIds:  []string{instanceID},
		Parameters: map[string][]string{
			"commands":         commands,
			"workingDirectory": {commandWorkingDirectory},
		},
		OutputS3BucketName: aws.String(outputBucket),
		OutputS3KeyPrefix:  aws.String(outputKeyPrefix),
	})
	if err != nil {
		return "", translateSendError(err, instanceID)
	}
	if out.Command == nil || out.Command.CommandId == nil {
		return "", domainerrors.New(domainerrors.CodeInternal, "send command returned no command id")
	}
	return *out.Command.CommandId, nil
}

// Invocation fetches the current state of a previously submitted command.
func (c *Commander) Invocation(ctx context.Context, commandID, instanceID string) (*dispatch.Invocation, error) {
	out, err := c.client.GetCommandInvocation(ctx, &ssm.GetCommandInvocationInput{
		CommandId:  aws.String(commandID),
		InstanceId: aws.String(instanceID),
	})
	if err != nil {
		var notFound *ssmtypes.InvocationDoesNotExist
		if errors.As(err, &notFound) {
			return nil, dispatch.ErrInvocationNotFound
		}
		return nil, fmt.Errorf("get command invocation: %w", err)
	}
	return &dispatch.Invocation{
		Status:       string(out.Status),
		ResponseCode: int(out.ResponseCode),
	}, nil
}

// translateSendError maps the two SendCommand failures the operator can act
// on to their domain codes.
func translateSendError(err error, instanceID string) error {
	var invalidInstance *ssmtypes.InvalidInstanceId
	if errors.As(err, &invalidInstance) {
		return domainerrors.Wrap(err, domainerrors.CodeInvalidWorkerTarget,
			"instance %s rejected the command, it may be stopped or missing the SSM agent", instanceID)
	}
	var unsupported *ssmtypes.UnsupportedPlatformType
	if errors.As(err, &unsupported) {
		return domainerrors.Wrap(err, domainerrors.CodeUnsupportedPlatform,
			"instance %s does not run a supported platform for shell commands", instanceID)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, "send command to instance %s", instanceID)
}
