package message

import "time"

// LogRecord is a single log entry bound for the reporting backend
type LogRecord struct {
	LoggerName string
	Level      Level
	Message    string
	Time       time.Time
	Attachment Attachment // nil when the record carries no file
}

// Attachment is either a FileReference or InlineBytes
type Attachment interface {
	isAttachment()
}

// FileReference points at a file on disk; the reporter reads it before dispatch
type FileReference struct {
	Path string
}

// InlineBytes is attachment content already held in memory
type InlineBytes struct {
	Name     string
	MimeType string
	Data     []byte
}

func (FileReference) isAttachment() {}
func (InlineBytes) isAttachment()   {}
