package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"

	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/outbound"
)

// mockSNSClient implements SNSPublisher for testing.
type mockSNSClient struct {
	publishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{
		MessageId: aws.String("test-message-id"),
	}, nil
}

const (
	testTopicARN     = "arn:aws:sns:us-east-1:123456789:recruitment-events"
	testFIFOTopicARN = "arn:aws:sns:us-east-1:123456789:recruitment-events.fifo"
)

func testStatusChange() outbound.StatusChangeEvent {
	app := entity.Application{
		JobTitle:       "Engineer",
		CandidateEmail: "a@example.com",
		ResumeText:     "resume",
		Status:         entity.StatusInvited,
	}
	return outbound.NewStatusChangeEvent(app, entity.StatusApplied, entity.StatusInvited, time.UnixMilli(1493229767700).UTC())
}

func fastConfig(topic string, maxRetries int) Config {
	return Config{
		TopicARN:       topic,
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestNewNotifier_RequiresClient(t *testing.T) {
	_, err := NewNotifier(nil, Config{TopicARN: testTopicARN})
	if err == nil {
		t.Fatal("expected error for nil client")
	}
	if err.Error() != "sns client is required" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewNotifier_RequiresTopicARN(t *testing.T) {
	_, err := NewNotifier(&mockSNSClient{}, Config{})
	if err == nil {
		t.Fatal("expected error for missing topic ARN")
	}
	if err.Error() != "topic ARN is required" {
		t.Errorf("expected error %q, got %q", "topic ARN is required", err.Error())
	}
}

func TestNewNotifier_AppliesDefaults(t *testing.T) {
	n, err := NewNotifier(&mockSNSClient{}, Config{TopicARN: testTopicARN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n.config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", n.config.MaxRetries)
	}
	if n.config.InitialBackoff != 100*time.Millisecond {
		t.Errorf("expected InitialBackoff=100ms, got %v", n.config.InitialBackoff)
	}
	if n.config.MaxBackoff != 5*time.Second {
		t.Errorf("expected MaxBackoff=5s, got %v", n.config.MaxBackoff)
	}
	if n.config.BackoffFactor != 2.0 {
		t.Errorf("expected BackoffFactor=2.0, got %v", n.config.BackoffFactor)
	}
	if n.fifo {
		t.Error("expected standard topic not to be treated as FIFO")
	}
}

func TestPublish_StatusChange(t *testing.T) {
	client := &mockSNSClient{}
	n, err := NewNotifier(client, Config{TopicARN: testTopicARN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := testStatusChange()
	if err := n.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(client.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(client.calls))
	}
	call := client.calls[0]

	if *call.TopicArn != testTopicARN {
		t.Errorf("unexpected topic ARN: %s", *call.TopicArn)
	}
	if call.MessageGroupId != nil {
		t.Errorf("expected no MessageGroupId on standard topic, got %v", *call.MessageGroupId)
	}

	var decoded outbound.StatusChangeEvent
	if err := json.Unmarshal([]byte(*call.Message), &decoded); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	if decoded.ID != event.ID {
		t.Errorf("expected event ID %s, got %s", event.ID, decoded.ID)
	}
	if decoded.OldStatus != entity.StatusApplied || decoded.NewStatus != entity.StatusInvited {
		t.Errorf("unexpected transition %s -> %s", decoded.OldStatus, decoded.NewStatus)
	}
	if decoded.Application.CandidateEmail != "a@example.com" {
		t.Errorf("unexpected application in message: %+v", decoded.Application)
	}

	attrs := call.MessageAttributes
	if v := attrs["eventType"].StringValue; v == nil || *v != "STATUS_CHANGE" {
		t.Error("missing or incorrect eventType attribute")
	}
	if v := attrs["jobTitle"].StringValue; v == nil || *v != "Engineer" {
		t.Error("missing or incorrect jobTitle attribute")
	}
	if v := attrs["newStatus"].StringValue; v == nil || *v != "INVITED" {
		t.Error("missing or incorrect newStatus attribute")
	}
}

func TestPublish_FIFOTopic(t *testing.T) {
	client := &mockSNSClient{}
	n, err := NewNotifier(client, Config{TopicARN: testFIFOTopicARN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event := outbound.NewApplicationCreatedEvent(entity.Application{JobTitle: "Engineer", CandidateEmail: "a@example.com"}, time.Now())
	if err := n.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := client.calls[0]
	if call.MessageGroupId == nil || *call.MessageGroupId != "Engineer" {
		t.Errorf("expected MessageGroupId=Engineer, got %v", call.MessageGroupId)
	}
	if call.MessageDeduplicationId == nil || *call.MessageDeduplicationId != event.ID.String() {
		t.Errorf("expected MessageDeduplicationId=%s, got %v", event.ID, call.MessageDeduplicationId)
	}
	if _, ok := call.MessageAttributes["newStatus"]; ok {
		t.Error("expected no newStatus attribute on created event")
	}
}

func TestPublish_RetryOnThrottling(t *testing.T) {
	callCount := 0
	client := &mockSNSClient{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			callCount++
			if callCount < 3 {
				return nil, &types.ThrottledException{Message: aws.String("throttled")}
			}
			return &sns.PublishOutput{MessageId: aws.String("success")}, nil
		},
	}

	n, err := NewNotifier(client, fastConfig(testTopicARN, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Publish(context.Background(), testStatusChange()); err != nil {
		t.Fatalf("expected success after retry, got: %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestPublish_RetriesExhausted(t *testing.T) {
	callCount := 0
	client := &mockSNSClient{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			callCount++
			return nil, &types.InternalErrorException{Message: aws.String("internal")}
		},
	}

	n, err := NewNotifier(client, fastConfig(testTopicARN, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = n.Publish(context.Background(), testStatusChange())
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	var internalErr *types.InternalErrorException
	if !errors.As(err, &internalErr) {
		t.Errorf("expected wrapped InternalErrorException, got %v", err)
	}

	// Initial attempt + 2 retries = 3 calls
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestPublish_NoRetryOnInvalidParameter(t *testing.T) {
	callCount := 0
	client := &mockSNSClient{
		publishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			callCount++
			return nil, &types.InvalidParameterException{Message: aws.String("bad")}
		},
	}

	n, err := NewNotifier(client, fastConfig(testTopicARN, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Publish(context.Background(), testStatusChange()); err == nil {
		t.Fatal("expected error")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestPublish_AfterClose(t *testing.T) {
	client := &mockSNSClient{}
	n, err := NewNotifier(client, Config{TopicARN: testTopicARN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}

	if err := n.Publish(context.Background(), testStatusChange()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Errorf("expected no publish calls, got %d", len(client.calls))
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"throttled", &types.ThrottledException{}, true},
		{"kms throttled", &types.KMSThrottlingException{}, true},
		{"not found", &types.NotFoundException{}, false},
		{"authorization", &types.AuthorizationErrorException{}, false},
		{"network", errors.New("connection reset"), true},
		{"generic validation", &smithy.GenericAPIError{Code: "ValidationError"}, false},
		{"generic throttling", &smithy.GenericAPIError{Code: "Throttling"}, true},
		{"wrapped invalid parameter", fmt.Errorf("publish: %w", &smithy.GenericAPIError{Code: "InvalidParameter"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
