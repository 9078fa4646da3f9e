package sms

import (
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
)

// TwilioChannel sends and receives operator texts through the Twilio REST
// API. Inbound polling tracks the send time of the newest message already
// seen, so each text is surfaced exactly once.
type TwilioChannel struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger

	lastSeen time.Time
}

// NewTwilioChannel creates a channel from the configured account. Messages
// received before startup are ignored.
func NewTwilioChannel(cfg config.SMSConfig, logger *zap.Logger) *TwilioChannel {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioChannel{
		client:   client,
		from:     cfg.FromNumber,
		logger:   logger,
		lastSeen: time.Now().UTC(),
	}
}

// Send delivers one text to the given number.
func (c *TwilioChannel) Send(to, body string) error {
	if !strings.HasPrefix(to, "+") {
		return fmt.Errorf("invalid phone number: %s", to)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	if _, err := c.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("sending SMS to %s: %w", to, err)
	}
	return nil
}

// CheckIncoming polls for texts addressed to the device number that arrived
// since the last poll. Returns the oldest unseen message, or nil.
func (c *TwilioChannel) CheckIncoming() (*Message, error) {
	params := &twilioApi.ListMessageParams{}
	params.SetTo(c.from)
	params.SetPageSize(20)

	msgs, err := c.client.Api.ListMessage(params)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	var oldest *Message
	var oldestAt time.Time
	for _, m := range msgs {
		if m.Direction == nil || !strings.HasPrefix(*m.Direction, "inbound") {
			continue
		}
		if m.DateSent == nil || m.From == nil || m.Body == nil {
			continue
		}
		sent, err := time.Parse(time.RFC1123Z, *m.DateSent)
		if err != nil {
			continue
		}
		if !sent.After(c.lastSeen) {
			continue
		}
		if oldest == nil || sent.Before(oldestAt) {
			oldest = &Message{Sender: *m.From, Content: strings.TrimSpace(*m.Body)}
			oldestAt = sent
		}
	}

	if oldest == nil {
		return nil, nil
	}

	c.lastSeen = oldestAt
	c.logger.Info("SMS received", zap.String("from", oldest.Sender))
	return oldest, nil
}
