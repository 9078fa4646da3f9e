// Package sms provides the low-bandwidth operator channel: outbound alert
// and status texts, and inbound command polling. The runtime consumes only
// the abstract Channel capability; the Twilio implementation backs it in
// production.
package sms

import "go.uber.org/zap"

// Message is one inbound operator text. Ephemeral: created on receipt and
// consumed within the same scheduler tick.
type Message struct {
	Sender  string
	Content string
}

// Channel is the send/receive capability. CheckIncoming returns nil when no
// new message is waiting.
type Channel interface {
	Send(to, body string) error
	CheckIncoming() (*Message, error)
}

// Disabled is a Channel for installations without an SMS account. Sends are
// logged and discarded; nothing is ever received.
type Disabled struct {
	Logger *zap.Logger
}

// Send logs the would-be message and reports success.
func (d Disabled) Send(to, body string) error {
	d.Logger.Info("SMS disabled, message discarded",
		zap.String("to", to),
		zap.String("body", body))
	return nil
}

// CheckIncoming never returns a message.
func (d Disabled) CheckIncoming() (*Message, error) { return nil, nil }
