package notification

import (
	"context"
	"log/slog"
)

const (
	// KindLedgerAnomaly flags a confirmed transfer that could not be written
	// to the ledger and needs manual reconciliation.
	KindLedgerAnomaly = "ledger_anomaly"
)

// Message describes an operational notification payload.
type Message struct {
	Kind      string
	Wallet    string
	Reference string
	Body      string
}

// Notifier delivers operational notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Error("operational anomaly",
		"kind", message.Kind,
		"wallet", message.Wallet,
		"reference", message.Reference,
		"body", message.Body,
	)
	return nil
}
