package logging

import (
	"cardpay_billing/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const eventSource = "CardGateway"

// EventLogger is the payment event log.
//
// Info and warning events are dropped unless logInfoMessages is set;
// errors are always written.
type EventLogger struct {
	logger          *zap.SugaredLogger
	logInfoMessages bool
}

var _ interfaces.IEventLogger = (*EventLogger)(nil)

func NewEventLogger(logger *zap.SugaredLogger, logInfoMessages bool) *EventLogger {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EventLogger{logger: logger.With("source", eventSource), logInfoMessages: logInfoMessages}
}

func (l *EventLogger) Log(severity interfaces.Severity, message string) {
	if severity < interfaces.SeverityError && !l.logInfoMessages {
		return
	}
	switch {
	case severity >= interfaces.SeverityError:
		l.logger.Errorw(message, "severity", int(severity))
	case severity == interfaces.SeverityWarning:
		l.logger.Warnw(message, "severity", int(severity))
	default:
		l.logger.Infow(message, "severity", int(severity))
	}
}
