package notify

import "go.uber.org/zap"

// Notifier alerts an operator about conditions that will not self-heal, such
// as a provider rejecting credentials. The gateway fires it once per state
// transition, never per request.
type Notifier interface {
	Alert(subject, detail string)
}

// LogNotifier is the default implementation: a loud structured log line.
// Deployments with a paging system wrap it.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Alert(subject, detail string) {
	n.logger.Error("OPERATOR ALERT",
		zap.String("subject", subject),
		zap.String("detail", detail),
	)
}
