package awsfacade

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher forwards messages to the hub topic.
type Publisher struct {
	client   snsAPI
	topicARN string
}

func NewPublisher(cfg aws.Config, topicARN string) *Publisher {
	return &Publisher{client: sns.NewFromConfig(cfg), topicARN: topicARN}
}

// Publish sends one message with string attributes and returns the message id.
func (p *Publisher) Publish(ctx context.Context, message string, attributes map[string]string) (string, error) {
	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(message),
	}
	if len(attributes) > 0 {
		input.MessageAttributes = make(map[string]snstypes.MessageAttributeValue, len(attributes))
		for name, value := range attributes {
			input.MessageAttributes[name] = snstypes.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(value),
			}
		}
	}

	out, err := p.client.Publish(ctx, input)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.topicARN, err)
	}
	return aws.ToString(out.MessageId), nil
}
