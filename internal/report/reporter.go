package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"rplog/internal/message"
	"rplog/pkg/logger"
)

// ErrLaunchNotStarted is returned by lifecycle calls made outside a launch
var ErrLaunchNotStarted = errors.New("launch not started")

// Reporter is the client side of the reporting backend. Log emission is
// fire-and-forget: failures are logged and counted, never returned.
type Reporter struct {
	transport Transport
	logger    *logger.Logger
	metrics   *metrics

	mu      sync.RWMutex
	launch  Launch
	started bool
}

// NewReporter creates a reporter sending through transport. log receives the
// reporter's own diagnostics; it must not carry the reporter's appender.
func NewReporter(transport Transport, log *logger.Logger) *Reporter {
	return &Reporter{
		transport: transport,
		logger:    log.Named("reporter"),
		metrics:   newMetrics(),
	}
}

// Registry returns the Prometheus registry holding the reporter's metrics
func (r *Reporter) Registry() *prometheus.Registry {
	return r.metrics.registry
}

// Launch returns the current launch
func (r *Reporter) Launch() (Launch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.launch, r.started
}

// StartLaunch opens a new launch
func (r *Reporter) StartLaunch(ctx context.Context, name, description string) error {
	launch := Launch{
		UUID:        uuid.NewString(),
		Name:        name,
		Description: description,
		StartTime:   time.Now(),
		Status:      StatusInProgress,
	}

	if err := r.transport.StartLaunch(ctx, launch); err != nil {
		return fmt.Errorf("failed to start launch %q: %w", name, err)
	}

	r.mu.Lock()
	r.launch = launch
	r.started = true
	r.mu.Unlock()

	r.logger.Infof("🚀 Launch started: %s (%s)", name, launch.UUID)
	return nil
}

// FinishLaunch closes the current launch with the given status
func (r *Reporter) FinishLaunch(ctx context.Context, status Status) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return ErrLaunchNotStarted
	}
	r.launch.EndTime = time.Now()
	r.launch.Status = status
	launch := r.launch
	r.started = false
	r.mu.Unlock()

	if err := r.transport.FinishLaunch(ctx, launch); err != nil {
		return fmt.Errorf("failed to finish launch %q: %w", launch.Name, err)
	}
	r.logger.Infof("🏁 Launch finished: %s [%s]", launch.Name, status)
	return nil
}

// StartItem reports a new test item and returns a context carrying it.
// Logs emitted with that context are attached to the item.
func (r *Reporter) StartItem(ctx context.Context, name string) context.Context {
	launch, ok := r.Launch()
	if !ok {
		r.logger.Warnf("⚠️  Item %q started outside a launch, it will not be reported", name)
		return ctx
	}

	item := Item{
		UUID:       uuid.NewString(),
		LaunchUUID: launch.UUID,
		Name:       name,
		StartTime:  time.Now(),
		Status:     StatusInProgress,
	}
	if err := r.transport.StartItem(ctx, item); err != nil {
		r.logger.Errorf("❌ Failed to start item %q: %v", name, err)
	}
	return ContextWithItem(ctx, item)
}

// FinishItem reports the item carried by ctx as finished
func (r *Reporter) FinishItem(ctx context.Context, status Status) {
	item, ok := ItemFromContext(ctx)
	if !ok {
		r.logger.Warnf("⚠️  FinishItem called without a current item")
		return
	}
	item.EndTime = time.Now()
	item.Status = status

	// the item's own context may already be cancelled by a timeout
	if err := r.transport.FinishItem(context.WithoutCancel(ctx), item); err != nil {
		r.logger.Errorf("❌ Failed to finish item %q: %v", item.Name, err)
	}
}

// EmitLog sends text to the current test item, attaching the file at path
// when path is not empty. Without a current item the log goes to the launch.
func (r *Reporter) EmitLog(ctx context.Context, text string, level message.Level, ts time.Time, path string) {
	r.Emit(ctx, newRecord(text, level, ts, path))
}

// EmitLaunchLog sends text to the launch rather than the current item
func (r *Reporter) EmitLaunchLog(ctx context.Context, text string, level message.Level, ts time.Time, path string) {
	r.emit(ctx, scopeLaunch, "", newRecord(text, level, ts, path))
}

// EmitMessage sends a message with its attached bytes to the current test item
func (r *Reporter) EmitMessage(ctx context.Context, msg *message.Message, level message.Level, ts time.Time) {
	r.Emit(ctx, message.LogRecord{
		Level:      level,
		Message:    msg.Text,
		Time:       ts,
		Attachment: msg.Attachment(),
	})
}

// Emit sends a record to the current test item, or to the launch if ctx has none
func (r *Reporter) Emit(ctx context.Context, rec message.LogRecord) {
	if item, ok := ItemFromContext(ctx); ok {
		r.emit(ctx, scopeItem, item.UUID, rec)
		return
	}
	r.emit(ctx, scopeLaunch, "", rec)
}

func newRecord(text string, level message.Level, ts time.Time, path string) message.LogRecord {
	rec := message.LogRecord{Level: level, Message: text, Time: ts}
	if path != "" {
		rec.Attachment = message.FileReference{Path: path}
	}
	return rec
}

func (r *Reporter) emit(ctx context.Context, scope, itemUUID string, rec message.LogRecord) {
	level := rec.Level.String()

	launch, ok := r.Launch()
	if !ok {
		r.logger.Warnf("⚠️  No active launch, dropping log: %s", rec.Message)
		r.metrics.recordLog(scope, level, outcomeDropped)
		return
	}

	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	// an unreadable attachment is dropped, the text is still sent
	att, err := resolveAttachment(rec.Attachment)
	if err != nil {
		r.logger.Errorf("❌ Failed to read attachment for log %q, sending text only: %v", rec.Message, err)
		r.metrics.attachmentFailures.Inc()
		att = nil
	}
	rec.Attachment = att

	entry := Entry{LaunchUUID: launch.UUID, ItemUUID: itemUUID, Record: rec}
	if err := r.transport.SaveLog(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Errorf("❌ Failed to send log %q: %v", rec.Message, err)
		r.metrics.recordLog(scope, level, outcomeFailed)
		return
	}

	r.metrics.recordLog(scope, level, outcomeSent)
	if inline, ok := att.(message.InlineBytes); ok {
		r.metrics.attachmentBytes.Add(float64(len(inline.Data)))
	}
}

// resolveAttachment reads file references so that only in-memory bytes reach the transport
func resolveAttachment(att message.Attachment) (message.Attachment, error) {
	switch a := att.(type) {
	case nil:
		return nil, nil
	case message.FileReference:
		src, err := message.ReadFile(a.Path)
		if err != nil {
			return nil, err
		}
		return src.Inline(), nil
	case message.InlineBytes:
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported attachment %T", att)
	}
}

// Close releases the transport
func (r *Reporter) Close() error {
	return r.transport.Close()
}
