package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the subset of the SNS client the transport uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSTransport delivers reminders through an SNS topic.
type SNSTransport struct {
	api      SNSAPI
	topicARN string
}

// NewSNSTransport creates a transport publishing to the given topic.
func NewSNSTransport(api SNSAPI, topicARN string) *SNSTransport {
	return &SNSTransport{api: api, topicARN: topicARN}
}

// Publish sends one message to the topic and returns the SNS message id.
func (t *SNSTransport) Publish(ctx context.Context, subject, message string) (string, error) {
	out, err := t.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(t.topicARN),
		Message:  aws.String(message),
		Subject:  aws.String(subject),
	})
	if err != nil {
		return "", fmt.Errorf("sns publish failed: %w", err)
	}

	id := ""
	if out.MessageId != nil {
		id = *out.MessageId
	}
	return id, nil
}
