package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rplog/internal/message"
	"rplog/pkg/logger"
)

// createTestLogger creates a logger for testing
func createTestLogger(t *testing.T) *logger.Logger {
	logFile := filepath.Join(t.TempDir(), "test.log")
	testLogger, err := logger.NewLogger(logFile, "debug")
	require.NoError(t, err)
	t.Cleanup(testLogger.Close)
	return testLogger
}

func newStartedReporter(t *testing.T) (*Reporter, *Recorder) {
	rec := NewRecorder()
	r := NewReporter(rec, createTestLogger(t))
	require.NoError(t, r.StartLaunch(context.Background(), "examples", "reporter test"))
	return r, rec
}

func writeAttachment(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReporter_Lifecycle(t *testing.T) {
	r, rec := newStartedReporter(t)

	launch, ok := r.Launch()
	require.True(t, ok)
	assert.NotEmpty(t, launch.UUID)

	ctx := r.StartItem(context.Background(), "logPdf")
	item, ok := ItemFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, launch.UUID, item.LaunchUUID)
	assert.Equal(t, "logPdf", item.Name)

	r.FinishItem(ctx, StatusPassed)
	require.NoError(t, r.FinishLaunch(context.Background(), StatusPassed))

	finished := rec.FinishedItems()
	require.Len(t, finished, 1)
	assert.Equal(t, item.UUID, finished[0].UUID)
	assert.Equal(t, StatusPassed, finished[0].Status)
	assert.False(t, finished[0].EndTime.Before(finished[0].StartTime))

	launches := rec.FinishedLaunches()
	require.Len(t, launches, 1)
	assert.Equal(t, StatusPassed, launches[0].Status)

	_, ok = r.Launch()
	assert.False(t, ok)
	assert.ErrorIs(t, r.FinishLaunch(context.Background(), StatusPassed), ErrLaunchNotStarted)
}

func TestReporter_StartLaunchError(t *testing.T) {
	rec := NewRecorder()
	rec.FailWith(errors.New("backend down"))
	r := NewReporter(rec, createTestLogger(t))

	err := r.StartLaunch(context.Background(), "examples", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")

	_, ok := r.Launch()
	assert.False(t, ok)
}

func TestReporter_EmitLog_AttachesToItem(t *testing.T) {
	r, rec := newStartedReporter(t)
	path := writeAttachment(t, "test.pdf", "%PDF-1.4\n")

	ctx := r.StartItem(context.Background(), "logPdf")
	item, _ := ItemFromContext(ctx)
	ts := time.Now()

	r.EmitLog(ctx, "I'm logging PDF", message.LevelInfo, ts, path)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, item.UUID, e.ItemUUID)
	assert.Equal(t, item.LaunchUUID, e.LaunchUUID)
	assert.Equal(t, "I'm logging PDF", e.Record.Message)
	assert.Equal(t, message.LevelInfo, e.Record.Level)
	assert.Equal(t, ts, e.Record.Time)

	att, ok := e.Record.Attachment.(message.InlineBytes)
	require.True(t, ok, "file references are resolved before dispatch")
	assert.Equal(t, "test.pdf", att.Name)
	assert.Equal(t, "application/pdf", att.MimeType)
	assert.Equal(t, []byte("%PDF-1.4\n"), att.Data)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.logs.WithLabelValues(scopeItem, "INFO", outcomeSent)))
	assert.Equal(t, float64(len("%PDF-1.4\n")), testutil.ToFloat64(r.metrics.attachmentBytes))
}

func TestReporter_EmitLaunchLog(t *testing.T) {
	r, rec := newStartedReporter(t)
	path := writeAttachment(t, "demo.zip", "PK\x03\x04")

	ctx := r.StartItem(context.Background(), "logZip")
	r.EmitLaunchLog(ctx, "I'm logging ZIP", message.LevelWarn, time.Now(), path)

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ItemUUID, "launch logs are not bound to the current item")
	assert.Equal(t, message.LevelWarn, entries[0].Record.Level)
	assert.NotNil(t, entries[0].Record.Attachment)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.logs.WithLabelValues(scopeLaunch, "WARN", outcomeSent)))
}

func TestReporter_EmitMessage(t *testing.T) {
	r, rec := newStartedReporter(t)
	src := &message.ByteSource{Name: "plain.txt", MimeType: "application/octet-stream", Data: []byte("known bytes")}

	ctx := r.StartItem(context.Background(), "logPlain")
	r.EmitMessage(ctx, message.NewWithType(src, "text/plain", "I'm logging txt"), message.LevelInfo, time.Now())

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "I'm logging txt", entries[0].Record.Message)
	assert.Equal(t, message.InlineBytes{Name: "plain.txt", MimeType: "text/plain", Data: []byte("known bytes")}, entries[0].Record.Attachment)
}

func TestReporter_EmitWithoutItemFallsBackToLaunch(t *testing.T) {
	r, rec := newStartedReporter(t)

	r.EmitLog(context.Background(), "no item", message.LevelInfo, time.Time{}, "")

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].ItemUUID)
	assert.Nil(t, entries[0].Record.Attachment)
	assert.False(t, entries[0].Record.Time.IsZero(), "missing timestamps are filled in")
}

func TestReporter_FireAndForgetFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		r, rec := newStartedReporter(t)
		ctx := r.StartItem(context.Background(), "logCss")

		r.EmitLog(ctx, "missing", message.LevelInfo, time.Now(), filepath.Join(t.TempDir(), "nope.css"))

		entries := rec.Entries()
		require.Len(t, entries, 1, "text is sent without the attachment")
		assert.Equal(t, "missing", entries[0].Record.Message)
		assert.Nil(t, entries[0].Record.Attachment)
		assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.attachmentFailures))
		assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.logs.WithLabelValues(scopeItem, "INFO", outcomeSent)))
		assert.Equal(t, 0.0, testutil.ToFloat64(r.metrics.attachmentBytes))
	})

	t.Run("transport error", func(t *testing.T) {
		r, rec := newStartedReporter(t)
		rec.FailWith(errors.New("unavailable"))

		r.EmitLog(context.Background(), "lost", message.LevelError, time.Now(), "")

		assert.Empty(t, rec.Entries())
		assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.logs.WithLabelValues(scopeLaunch, "ERROR", outcomeFailed)))
	})

	t.Run("no launch", func(t *testing.T) {
		rec := NewRecorder()
		r := NewReporter(rec, createTestLogger(t))

		ctx := r.StartItem(context.Background(), "orphan")
		_, ok := ItemFromContext(ctx)
		assert.False(t, ok)

		r.EmitLog(ctx, "dropped", message.LevelDebug, time.Now(), "")
		assert.Empty(t, rec.Entries())
		assert.Empty(t, rec.StartedItems())
		assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.logs.WithLabelValues(scopeLaunch, "DEBUG", outcomeDropped)))
	})
}

func TestReporter_ItemContextSurvivesCancellation(t *testing.T) {
	r, rec := newStartedReporter(t)

	ctx, cancel := context.WithCancel(context.Background())
	ctx = r.StartItem(ctx, "logInChildThread")
	cancel()

	r.EmitLog(ctx, "after cancel", message.LevelInfo, time.Now(), "")
	r.FinishItem(ctx, StatusInterrupted)

	require.Len(t, rec.Entries(), 1)
	require.Len(t, rec.FinishedItems(), 1)
	assert.Equal(t, StatusInterrupted, rec.FinishedItems()[0].Status)
}

func TestReporter_Appender(t *testing.T) {
	r, rec := newStartedReporter(t)
	cssPath := writeAttachment(t, "css.css", "body { color: red; }")

	base := createTestLogger(t)
	binary := base.Named("binary_data_logger").WithAppender(r.Appender())
	plain := base.Named("LoggingTest").WithAppender(r.Appender())

	ctx := r.StartItem(context.Background(), "logCss")
	item, _ := ItemFromContext(ctx)

	binary.InfoContext(ctx, "RP_MESSAGE#FILE#{}#{}", cssPath, "I'm logging CSS")
	binary.InfoContext(ctx, "RP_MESSAGE#BASE64#{}#{}", "PGh0bWw+PC9odG1sPg==", "I'm logging HTML")
	plain.WarnContext(ctx, "RP_MESSAGE#UNKNOWN#{}#{}", "x", "kept as text")
	plain.ErrorContext(ctx, "Inside poller {}", 4)

	entries := rec.EntriesFor(item.UUID)
	require.Len(t, entries, 4)

	css := entries[0].Record
	assert.Equal(t, "binary_data_logger", css.LoggerName)
	assert.Equal(t, "I'm logging CSS", css.Message)
	assert.Equal(t, []byte("body { color: red; }"), css.Attachment.(message.InlineBytes).Data)

	html := entries[1].Record
	assert.Equal(t, "I'm logging HTML", html.Message)
	assert.Equal(t, []byte("<html></html>"), html.Attachment.(message.InlineBytes).Data)

	assert.Equal(t, "RP_MESSAGE#UNKNOWN#x#kept as text", entries[2].Record.Message)
	assert.Equal(t, message.LevelWarn, entries[2].Record.Level)
	assert.Nil(t, entries[2].Record.Attachment)

	assert.Equal(t, "LoggingTest", entries[3].Record.LoggerName)
	assert.Equal(t, message.LevelError, entries[3].Record.Level)
	assert.Equal(t, "Inside poller 4", entries[3].Record.Message)
}

func TestReporter_Close(t *testing.T) {
	r, rec := newStartedReporter(t)
	require.NoError(t, r.Close())
	assert.True(t, rec.Closed())
}
