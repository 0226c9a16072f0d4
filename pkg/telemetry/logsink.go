package telemetry

import "log/slog"

// LogSink records every audit event as a structured slog line. It is
// always on, mirroring the teacher's unconditional slog.Debug/Warn calls
// throughout pkg/task and v2/rag.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink wraps logger, or slog.Default() if nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(event AuditEvent) {
	s.logger.Info("audit event",
		"kind", string(event.Kind),
		"principal_id", event.PrincipalID,
		"document_id", event.DocumentID,
		"job_id", event.JobID,
		"section_id", event.SectionID,
		"at", event.At,
		"detail", event.Detail,
	)
}
