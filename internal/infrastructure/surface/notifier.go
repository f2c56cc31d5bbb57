package surface

import (
	"context"

	"go.uber.org/zap"

	"github.com/erp/receipt/internal/application/printing"
)

// LogNotifier announces dispatch outcomes through the logger
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier writing to logger
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify logs message at the level matching severity
func (n *LogNotifier) Notify(_ context.Context, severity printing.Severity, message string) {
	field := zap.String("severity", severity.String())
	switch severity {
	case printing.SeverityDanger:
		n.logger.Error(message, field)
	case printing.SeverityWarning:
		n.logger.Warn(message, field)
	default:
		n.logger.Info(message, field)
	}
}

var _ printing.Notifier = (*LogNotifier)(nil)
