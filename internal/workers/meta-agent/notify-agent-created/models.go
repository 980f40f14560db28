package notifyagentcreated

import "cx-agent-builder/internal/models"

type Input struct {
	AgentConfig *models.CXAgentConfig `json:"agentConfig"`
	NotifyEmail string                `json:"notifyEmail,omitempty"`
}

type Output struct {
	EventMessageID string `json:"eventMessageId,omitempty"`
	MailMessageID  string `json:"mailMessageId,omitempty"`
	Notified       bool   `json:"notified"`
}
