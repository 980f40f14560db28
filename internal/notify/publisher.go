// internal/notify/publisher.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cxaws "cx-agent-builder/internal/common/aws"
	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/bytedance/sonic"
)

const EventAgentCreated = "agent.created"

var (
	ErrNotificationFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrInvalidRecipient   = errors.New("INVALID_RECIPIENT")
)

// AgentCreatedEvent is the SNS message body published for every new agent.
type AgentCreatedEvent struct {
	EventType      string `json:"event_type"`
	AgentID        string `json:"agent_id"`
	Name           string `json:"name"`
	Domain         string `json:"domain"`
	GenerationMode string `json:"generation_mode"`
	Platform       string `json:"platform"`
	IntentCount    int    `json:"intent_count"`
	FunctionCount  int    `json:"function_count"`
	CreatedAt      string `json:"created_at"`
}

func NewAgentCreatedEvent(cfg *models.CXAgentConfig) AgentCreatedEvent {
	ev := AgentCreatedEvent{
		EventType:     EventAgentCreated,
		AgentID:       cfg.AgentID,
		Name:          cfg.Persona.Name,
		Platform:      cfg.Deployment.Platform,
		IntentCount:   len(cfg.Intents),
		FunctionCount: len(cfg.Functions),
		CreatedAt:     cfg.CreatedAt,
	}
	ev.Domain, _ = cfg.Metadata["source_prompt"].(string)
	ev.GenerationMode, _ = cfg.Metadata["generation_mode"].(string)
	return ev
}

type Config struct {
	TopicArn  string
	FromEmail string
}

// Publisher announces generated agents on SNS and mails a summary through
// SES. Either channel is skipped when its client or address is missing.
type Publisher struct {
	sns    cxaws.SNSAPI
	ses    cxaws.SESAPI
	config Config
	logger logger.Logger
}

func NewPublisher(config Config, snsClient cxaws.SNSAPI, sesClient cxaws.SESAPI, log logger.Logger) *Publisher {
	return &Publisher{
		sns:    snsClient,
		ses:    sesClient,
		config: config,
		logger: logger.ForComponent(log, "notify"),
	}
}

func (p *Publisher) EventsEnabled() bool { return p.sns != nil && p.config.TopicArn != "" }
func (p *Publisher) MailEnabled() bool   { return p.ses != nil && p.config.FromEmail != "" }

// PublishAgentCreated sends the agent.created event and returns the SNS
// message id. It returns "" without error when events are disabled.
func (p *Publisher) PublishAgentCreated(ctx context.Context, cfg *models.CXAgentConfig) (string, error) {
	if !p.EventsEnabled() {
		return "", nil
	}

	body, err := sonic.MarshalString(NewAgentCreatedEvent(cfg))
	if err != nil {
		return "", fmt.Errorf("%w: encode event: %v", ErrNotificationFailed, err)
	}

	out, err := p.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.config.TopicArn),
		Message:  aws.String(body),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(EventAgentCreated)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: sns publish: %v", ErrNotificationFailed, err)
	}

	messageID := aws.ToString(out.MessageId)
	p.logger.Info("agent.created published", map[string]interface{}{
		"agentId":   cfg.AgentID,
		"messageId": messageID,
	})
	return messageID, nil
}

// SendSummary mails a plain-text summary of cfg to the given address.
func (p *Publisher) SendSummary(ctx context.Context, to string, cfg *models.CXAgentConfig) (string, error) {
	if !p.MailEnabled() || to == "" {
		return "", nil
	}
	if !strings.Contains(to, "@") {
		return "", fmt.Errorf("%w: %s", ErrInvalidRecipient, to)
	}

	out, err := p.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(p.config.FromEmail),
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{
				Data:    aws.String(fmt.Sprintf("Your CX agent %s is ready", cfg.Persona.Name)),
				Charset: aws.String("UTF-8"),
			},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(Summary(cfg)), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: ses send: %v", ErrNotificationFailed, err)
	}

	messageID := aws.ToString(out.MessageId)
	p.logger.Info("agent summary mailed", map[string]interface{}{
		"agentId":   cfg.AgentID,
		"messageId": messageID,
	})
	return messageID, nil
}

// Notify runs both channels and joins their errors.
func (p *Publisher) Notify(ctx context.Context, cfg *models.CXAgentConfig, email string) error {
	_, eventErr := p.PublishAgentCreated(ctx, cfg)
	_, mailErr := p.SendSummary(ctx, email, cfg)
	return errors.Join(eventErr, mailErr)
}

// Summary renders the mail body.
func Summary(cfg *models.CXAgentConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent: %s (%s)\n", cfg.Persona.Name, cfg.AgentID)
	fmt.Fprintf(&b, "Role: %s\n", cfg.Persona.Role)
	fmt.Fprintf(&b, "Voice: %s %s, %s\n", cfg.Voice.Provider, cfg.Voice.VoiceID, cfg.Voice.Language)
	fmt.Fprintf(&b, "Platform: %s (%s)\n", cfg.Deployment.Platform, cfg.Deployment.Environment)

	b.WriteString("\nIntents:\n")
	for _, in := range cfg.Intents {
		fmt.Fprintf(&b, "  - %s\n", in.Name)
	}

	b.WriteString("\nFunctions:\n")
	if len(cfg.Functions) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, fn := range cfg.Functions {
		fmt.Fprintf(&b, "  - %s: %s\n", fn.Name, fn.Description)
	}

	if cfg.ConversationFlow != nil {
		fmt.Fprintf(&b, "\nConversation flow: %d nodes, entry %s\n",
			len(cfg.ConversationFlow.Nodes), cfg.ConversationFlow.EntryNodeID)
	}
	return b.String()
}
