package report

import (
	"rplog/internal/message"
	"rplog/pkg/logger"
)

// Appender returns a logger appender that forwards records to the reporter.
// Sentinel messages (RP_MESSAGE#FILE#... and RP_MESSAGE#BASE64#...) become
// records with an attachment; anything else is sent as plain text.
func (r *Reporter) Appender() logger.Appender {
	return logger.AppenderFunc(r.append)
}

func (r *Reporter) append(rec logger.Record) {
	level, err := message.ParseLevel(rec.Level.String())
	if err != nil {
		level = message.LevelInfo
	}

	out := message.LogRecord{
		LoggerName: rec.Logger,
		Level:      level,
		Message:    rec.Message,
		Time:       rec.Time,
	}
	if att, text, ok := message.ParseSentinel(rec.Message); ok {
		out.Message = text
		out.Attachment = att
	}

	r.Emit(rec.Context, out)
}
