package domain

import "time"

// InboundMessage is a user turn submitted to the agent.
type InboundMessage struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	From      string    `json:"from"`
	FromName  string    `json:"fromName,omitempty"`
	ChatID    string    `json:"chatId"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the session key the message belongs to.
func (m InboundMessage) Key() SessionKey {
	return SessionKey{Source: m.Source, ChatID: m.ChatID, SenderID: m.From}
}
