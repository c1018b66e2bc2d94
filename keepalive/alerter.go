package keepalive

import (
	"context"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/NamiCreative/Lemniscate/metrics"
)

// Alerter defines the interface for sending alerts
type Alerter interface {
	SendAlert(ctx context.Context, serviceName string, message string) error
}

// LogAlerter writes alerts to the log. It is used when no Discord channel is configured.
type LogAlerter struct {
	logger *logging.Logger
}

func NewLogAlerter(logger *logging.Logger) *LogAlerter {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogAlerter{logger: logger}
}

func (a *LogAlerter) SendAlert(ctx context.Context, serviceName string, message string) error {
	a.logger.WithContext(ctx).Warn("alert", "service", serviceName, "message", message)
	metrics.AlertsSentCount.Add(1)
	return nil
}
