// internal/notify/publisher_test.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock AWS Clients
// ==========================

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() Config {
	return Config{
		TopicArn:  "arn:aws:sns:us-east-1:123456789012:agents",
		FromEmail: "agents@example.com",
	}
}

func sampleAgent() *models.CXAgentConfig {
	return &models.CXAgentConfig{
		AgentID:   "agent_feedbeef",
		CreatedAt: "2026-01-02T03:04:05Z",
		Persona:   models.PersonaConfig{Name: "ShopAssist", Role: "Order & Shopping Support Agent"},
		Voice:     models.VoiceConfig{Provider: "elevenlabs", VoiceID: "rachel", Language: "en-US"},
		Intents:   []models.IntentDefinition{{Name: "greeting"}, {Name: "order_status_check"}},
		Functions: []models.FunctionDefinition{{Name: "get_order_status", Description: "Look up order status by order number"}},
		ConversationFlow: &models.ConversationFlow{
			EntryNodeID: "node_greet",
			Nodes:       []models.FlowNode{{NodeID: "node_greet"}, {NodeID: "node_end"}},
		},
		Deployment: models.DeploymentConfig{Platform: "voiceowl", Environment: "development"},
		Metadata:   map[string]interface{}{"source_prompt": "e-commerce", "generation_mode": "rule_based"},
	}
}

// ==========================
// SNS Tests
// ==========================

func TestPublishAgentCreated(t *testing.T) {
	snsMock := new(MockSNS)
	snsMock.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		var ev AgentCreatedEvent
		if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &ev); err != nil {
			return false
		}
		return aws.ToString(in.TopicArn) == createTestConfig().TopicArn &&
			ev.EventType == EventAgentCreated &&
			ev.AgentID == "agent_feedbeef" &&
			ev.Domain == "e-commerce" &&
			ev.FunctionCount == 1 &&
			aws.ToString(in.MessageAttributes["event_type"].StringValue) == EventAgentCreated
	})).Return(&sns.PublishOutput{MessageId: aws.String("msg-1")}, nil)

	p := NewPublisher(createTestConfig(), snsMock, nil, logger.NewTestLogger(t))
	id, err := p.PublishAgentCreated(context.Background(), sampleAgent())

	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	snsMock.AssertExpectations(t)
}

func TestPublishAgentCreated_Disabled(t *testing.T) {
	snsMock := new(MockSNS)
	p := NewPublisher(Config{}, snsMock, nil, nil)

	id, err := p.PublishAgentCreated(context.Background(), sampleAgent())
	require.NoError(t, err)
	assert.Empty(t, id)
	snsMock.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPublishAgentCreated_Error(t *testing.T) {
	snsMock := new(MockSNS)
	snsMock.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	p := NewPublisher(createTestConfig(), snsMock, nil, logger.NewTestLogger(t))
	_, err := p.PublishAgentCreated(context.Background(), sampleAgent())
	assert.ErrorIs(t, err, ErrNotificationFailed)
}

// ==========================
// SES Tests
// ==========================

func TestSendSummary(t *testing.T) {
	tests := []struct {
		name          string
		to            string
		sesErr        error
		expectCall    bool
		expectedError error
	}{
		{name: "sent", to: "owner@example.com", expectCall: true},
		{name: "no recipient", to: ""},
		{name: "invalid recipient", to: "owner", expectedError: ErrInvalidRecipient},
		{name: "ses failure", to: "owner@example.com", sesErr: errors.New("MessageRejected"), expectCall: true, expectedError: ErrNotificationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sesMock := new(MockSES)
			if tt.expectCall {
				call := sesMock.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
					return aws.ToString(in.Source) == "agents@example.com" &&
						in.Destination.ToAddresses[0] == tt.to &&
						aws.ToString(in.Message.Subject.Data) == "Your CX agent ShopAssist is ready"
				}))
				if tt.sesErr != nil {
					call.Return(nil, tt.sesErr)
				} else {
					call.Return(&ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil)
				}
			}

			p := NewPublisher(createTestConfig(), nil, sesMock, logger.NewTestLogger(t))
			id, err := p.SendSummary(context.Background(), tt.to, sampleAgent())

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			if tt.expectCall && tt.sesErr == nil {
				assert.Equal(t, "ses-1", id)
			}
			sesMock.AssertExpectations(t)
		})
	}
}

func TestNotify_JoinsErrors(t *testing.T) {
	snsMock := new(MockSNS)
	snsMock.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("sns down"))
	sesMock := new(MockSES)
	sesMock.On("SendEmail", mock.Anything, mock.Anything).Return(&ses.SendEmailOutput{MessageId: aws.String("ses-2")}, nil)

	p := NewPublisher(createTestConfig(), snsMock, sesMock, logger.NewTestLogger(t))
	err := p.Notify(context.Background(), sampleAgent(), "owner@example.com")

	assert.ErrorIs(t, err, ErrNotificationFailed)
	sesMock.AssertExpectations(t)
}

func TestSummary(t *testing.T) {
	body := Summary(sampleAgent())

	assert.Contains(t, body, "Agent: ShopAssist (agent_feedbeef)")
	assert.Contains(t, body, "  - order_status_check")
	assert.Contains(t, body, "  - get_order_status: Look up order status by order number")
	assert.Contains(t, body, "Conversation flow: 2 nodes, entry node_greet")
}
