package report

import (
	"context"
	"time"

	"rplog/internal/message"
)

// Status is the final state of a launch or a test item
type Status string

const (
	StatusInProgress  Status = "IN_PROGRESS"
	StatusPassed      Status = "PASSED"
	StatusFailed      Status = "FAILED"
	StatusSkipped     Status = "SKIPPED"
	StatusInterrupted Status = "INTERRUPTED"
)

// Launch is one run of a suite in the reporting backend
type Launch struct {
	UUID        string
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Status      Status
}

// Item is a single test case inside a launch
type Item struct {
	UUID       string
	LaunchUUID string
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Status     Status
}

// Entry is a log record addressed to a launch, and to an item unless ItemUUID is empty
type Entry struct {
	LaunchUUID string
	ItemUUID   string
	Record     message.LogRecord
}

// Transport delivers launch, item and log events to the reporting backend.
// Attachments in entries are always resolved to message.InlineBytes.
type Transport interface {
	StartLaunch(ctx context.Context, launch Launch) error
	FinishLaunch(ctx context.Context, launch Launch) error
	StartItem(ctx context.Context, item Item) error
	FinishItem(ctx context.Context, item Item) error
	SaveLog(ctx context.Context, entry Entry) error
	Close() error
}
