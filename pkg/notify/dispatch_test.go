package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// mockTransport records published messages.
type mockTransport struct {
	subjects []string
	messages []string
	err      error
}

func (m *mockTransport) Publish(ctx context.Context, subject, message string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.subjects = append(m.subjects, subject)
	m.messages = append(m.messages, message)
	return "msg-123", nil
}

func TestDispatchFormatsAndPublishes(t *testing.T) {
	transport := &mockTransport{}
	d := NewDispatcher(transport, slog.Default())

	result, err := d.Dispatch(context.Background(), "Team  lunch\n", 15)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Message != "Team lunch (15min)" {
		t.Errorf("Expected 'Team lunch (15min)', got %q", result.Message)
	}
	if result.MessageID != "msg-123" {
		t.Errorf("Expected message id msg-123, got %q", result.MessageID)
	}
	if len(transport.subjects) != 1 || transport.subjects[0] != DefaultSubject {
		t.Errorf("Expected subject %q, got %v", DefaultSubject, transport.subjects)
	}
}

func TestDispatchWrapsTransportFailure(t *testing.T) {
	transport := &mockTransport{err: errors.New("topic unreachable")}
	d := NewDispatcher(transport, slog.Default())

	_, err := d.Dispatch(context.Background(), "Doomed", 15)
	if err == nil {
		t.Fatal("Expected dispatch error")
	}

	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("Expected DispatchError, got %T", err)
	}
	if !strings.Contains(err.Error(), "topic unreachable") {
		t.Errorf("Expected transport detail in error, got %q", err)
	}
}

// mockSNS captures the publish input.
type mockSNS struct {
	input *sns.PublishInput
	err   error
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.input = params
	return &sns.PublishOutput{MessageId: aws.String("sns-456")}, nil
}

func TestSNSTransportPublish(t *testing.T) {
	api := &mockSNS{}
	transport := NewSNSTransport(api, "arn:aws:sns:us-east-1:123456789012:reminders")

	id, err := transport.Publish(context.Background(), "Calendar Reminder", "Standup (15min)")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id != "sns-456" {
		t.Errorf("Expected message id sns-456, got %q", id)
	}
	if *api.input.TopicArn != "arn:aws:sns:us-east-1:123456789012:reminders" {
		t.Errorf("Unexpected topic ARN %q", *api.input.TopicArn)
	}
	if *api.input.Subject != "Calendar Reminder" || *api.input.Message != "Standup (15min)" {
		t.Errorf("Unexpected publish input: %+v", api.input)
	}
}

func TestSNSTransportError(t *testing.T) {
	api := &mockSNS{err: errors.New("access denied")}
	transport := NewSNSTransport(api, "arn:topic")

	_, err := transport.Publish(context.Background(), "Calendar Reminder", "msg")
	if err == nil {
		t.Fatal("Expected publish error")
	}
}
