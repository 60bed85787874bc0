package awsfacade

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tfbridge/internal/dispatch"
	"tfbridge/pkg/domainerrors"
)

type fakeSSM struct {
	sendErr error
	sendIn  *ssm.SendCommandInput

	invocationErr error
	invocationOut *ssm.GetCommandInvocationOutput
}

func (f *fakeSSM) SendCommand(_ context.Context, params *ssm.SendCommandInput, _ ...func(*ssm.Options)) (*ssm.SendCommandOutput, error) {
	f.sendIn = params
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &ssm.SendCommandOutput{
		Command: &ssmtypes.Command{CommandId: aws.String("cmd-42")},
	}, nil
}

func (f *fakeSSM) GetCommandInvocation(_ context.Context, _ *ssm.GetCommandInvocationInput, _ ...func(*ssm.Options)) (*ssm.GetCommandInvocationOutput, error) {
	if f.invocationErr != nil {
		return nil, f.invocationErr
	}
	return f.invocationOut, nil
}

func TestCommanderSend(t *testing.T) {
	fake := &fakeSSM{}
	commander := &Commander{client: fake}

	commandID, err := commander.Send(context.Background(), "i-0abc",
		[]string{"#!/bin/bash", "echo hello"}, "output-bucket", "111111111111/us-east-1/my-stack/1-Create/ssm_output")

	require.NoError(t, err)
	assert.Equal(t, "cmd-42", commandID)
	assert.Equal(t, runShellScriptDocument, aws.ToString(fake.sendIn.DocumentName))
	assert.Equal(t, []string{"i-0abc"}, fake.sendIn.InstanceIds)
	assert.Equal(t, []string{commandWorkingDirectory}, fake.sendIn.Parameters["workingDirectory"])
	assert.Equal(t, "output-bucket", aws.ToString(fake.sendIn.OutputS3BucketName))
}

func TestCommanderSendInvalidInstance(t *testing.T) {
	commander := &Commander{client: &fakeSSM{sendErr: &ssmtypes.InvalidInstanceId{}}}

	_, err := commander.Send(context.Background(), "i-0abc", []string{"true"}, "bucket", "prefix")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeInvalidWorkerTarget))
}

func TestCommanderSendUnsupportedPlatform(t *testing.T) {
	commander := &Commander{client: &fakeSSM{sendErr: &ssmtypes.UnsupportedPlatformType{}}}

	_, err := commander.Send(context.Background(), "i-0abc", []string{"true"}, "bucket", "prefix")
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnsupportedPlatform))
}

func TestCommanderInvocationNotFound(t *testing.T) {
	commander := &Commander{client: &fakeSSM{invocationErr: &ssmtypes.InvocationDoesNotExist{}}}

	_, err := commander.Invocation(context.Background(), "cmd-42", "i-0abc")
	assert.ErrorIs(t, err, dispatch.ErrInvocationNotFound)
}

func TestCommanderInvocationState(t *testing.T) {
	commander := &Commander{client: &fakeSSM{invocationOut: &ssm.GetCommandInvocationOutput{
		Status:       ssmtypes.CommandInvocationStatusFailed,
		ResponseCode: 127,
	}}}

	invocation, err := commander.Invocation(context.Background(), "cmd-42", "i-0abc")
	require.NoError(t, err)
	assert.Equal(t, "Failed", invocation.Status)
	assert.Equal(t, 127, invocation.ResponseCode)
}

func TestCommanderInvocationTransportError(t *testing.T) {
	commander := &Commander{client: &fakeSSM{invocationErr: errors.New("throttled")}}

	_, err := commander.Invocation(context.Background(), "cmd-42", "i-0abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, dispatch.ErrInvocationNotFound)
}
