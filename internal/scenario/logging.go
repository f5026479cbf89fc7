// Package scenario holds the logging examples: file attachments of various
// types, severities, and logging from a time-bounded case and from a poller.
package scenario

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"rplog/internal/await"
	"rplog/internal/harness"
	"rplog/internal/message"
	"rplog/internal/report"
	"rplog/pkg/logger"
)

// Logger names used by the examples
const (
	LoggerName       = "LoggingTest"
	BinaryLoggerName = "binary_data_logger"
)

// Attachment file names, relative to the files directory
const (
	CSSFile        = "css.css"
	HTMLFile       = "html.html"
	PDFFile        = "test.pdf"
	ZipFile        = "demo.zip"
	JavascriptFile = "javascript.js"
	PHPFile        = "php.php"
	PlainFile      = "plain.txt"
)

const (
	childThreadTimeout = 500 * time.Millisecond

	pollAtMost    = time.Second
	pollInterval  = 200 * time.Millisecond
	pollThreshold = 4
)

// LoggingTest is the set of logging examples bound to one reporter
type LoggingTest struct {
	filesDir     string
	reporter     *report.Reporter
	logger       *logger.Logger
	binaryLogger *logger.Logger
}

// NewLoggingTest creates the examples. Files are read from filesDir; base is
// the logger the example loggers are derived from.
func NewLoggingTest(filesDir string, reporter *report.Reporter, base *logger.Logger) *LoggingTest {
	appender := reporter.Appender()
	return &LoggingTest{
		filesDir:     filesDir,
		reporter:     reporter,
		logger:       base.Named(LoggerName).WithAppender(appender),
		binaryLogger: base.Named(BinaryLoggerName).WithAppender(appender),
	}
}

// Cases returns the examples in declaration order
func (lt *LoggingTest) Cases() []harness.Case {
	return []harness.Case{
		{Name: "logCss", Run: lt.LogCSS},
		{Name: "logHtml", Run: lt.LogHTML},
		{Name: "logPdf", Run: lt.LogPDF},
		{Name: "logZip", Run: lt.LogZip},
		{Name: "logJavascript", Run: lt.LogJavascript},
		{Name: "logPhp", Run: lt.LogPHP},
		{Name: "logPlain", Run: lt.LogPlain},
		{Name: "logInChildThread", Timeout: childThreadTimeout, Run: lt.LogInChildThread},
		{Name: "logInPollerThread", Run: lt.LogInPoller},
	}
}

func (lt *LoggingTest) path(name string) string {
	return filepath.Join(lt.filesDir, name)
}

// LogCSS logs a file reference through the binary logger
func (lt *LoggingTest) LogCSS(ctx context.Context) error {
	abs, err := filepath.Abs(lt.path(CSSFile))
	if err != nil {
		return err
	}
	lt.binaryLogger.InfoContext(ctx, "RP_MESSAGE#FILE#{}#{}", abs, "I'm logging CSS")
	return nil
}

// LogHTML logs base64-encoded file content through the binary logger
func (lt *LoggingTest) LogHTML(ctx context.Context) error {
	src, err := message.ReadFile(lt.path(HTMLFile))
	if err != nil {
		return err
	}
	lt.binaryLogger.InfoContext(ctx, "RP_MESSAGE#BASE64#{}#{}",
		base64.StdEncoding.EncodeToString(src.Data),
		"I'm logging HTML",
	)
	return nil
}

// LogPDF emits a log with a file attached to the current item
func (lt *LoggingTest) LogPDF(ctx context.Context) error {
	lt.reporter.EmitLog(ctx, "I'm logging PDF", message.LevelInfo, time.Now(), lt.path(PDFFile))
	return nil
}

// LogZip emits a log with a file attached to the launch
func (lt *LoggingTest) LogZip(ctx context.Context) error {
	lt.reporter.EmitLaunchLog(ctx, "I'm logging ZIP", message.LevelWarn, time.Now(), lt.path(ZipFile))
	return nil
}

// LogJavascript emits a message built from a file
func (lt *LoggingTest) LogJavascript(ctx context.Context) error {
	msg, err := message.NewFromFile(lt.path(JavascriptFile), "I'm logging JS")
	if err != nil {
		return err
	}
	lt.reporter.EmitMessage(ctx, msg, message.LevelDebug, time.Now())
	return nil
}

// LogPHP emits a message built from a byte source
func (lt *LoggingTest) LogPHP(ctx context.Context) error {
	src, err := message.ReadFile(lt.path(PHPFile))
	if err != nil {
		return err
	}
	lt.reporter.EmitMessage(ctx, message.New(src, "I'm logging php"), message.LevelError, time.Now())
	return nil
}

// LogPlain emits a message with an explicit MIME type
func (lt *LoggingTest) LogPlain(ctx context.Context) error {
	src, err := message.ReadFile(lt.path(PlainFile))
	if err != nil {
		return err
	}
	lt.reporter.EmitMessage(ctx, message.NewWithType(src, "text/plain", "I'm logging txt"), message.LevelInfo, time.Now())
	return nil
}

// LogInChildThread logs once; the harness runs it with a 500ms timeout
func (lt *LoggingTest) LogInChildThread(ctx context.Context) error {
	lt.logger.InfoContext(ctx, "I'm logging in a test with timeout")
	return nil
}

// LogInPoller logs from the poller goroutine on every evaluation until the
// counter reaches the threshold
func (lt *LoggingTest) LogInPoller(ctx context.Context) error {
	var counter atomic.Int32

	a := await.New("Logging inside poller").
		AtMost(pollAtMost).
		PollDelay(0).
		PollInterval(pollInterval)

	_, err := await.Until(ctx, a, func() (int32, error) {
		count := counter.Add(1)
		lt.logger.InfoContext(ctx, "Inside poller {}", count)
		return count, nil
	}, await.GreaterThanOrEqualTo[int32](pollThreshold))
	if err != nil {
		return fmt.Errorf("poller did not reach %d: %w", pollThreshold, err)
	}
	return nil
}
