package sms

import (
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/alerts"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/models"
)

// AlertNotifier adapts a Channel to the alert evaluator: each alert becomes
// one text to the admin number.
type AlertNotifier struct {
	ch       Channel
	to       string
	deviceID string
}

// NewAlertNotifier creates a notifier that texts the admin number.
func NewAlertNotifier(ch Channel, adminNumber, deviceID string) *AlertNotifier {
	return &AlertNotifier{ch: ch, to: adminNumber, deviceID: deviceID}
}

// Notify sends one alert message. A delivery failure propagates so the
// evaluator leaves the cooldown untouched and retries next cycle.
func (n *AlertNotifier) Notify(kind models.AlertKind, sev models.Severity, value float64) error {
	return n.ch.Send(n.to, alerts.FormatMessage(kind, sev, value, n.deviceID))
}
