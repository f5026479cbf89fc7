// Package harness runs named cases as reported test items, each in its own
// goroutine and optionally under a wall-clock timeout.
package harness

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"rplog/internal/report"
	"rplog/pkg/logger"
)

var (
	// ErrTimedOut marks a case that did not return before its timeout
	ErrTimedOut = errors.New("case timed out")
	// ErrPanicked marks a case whose body panicked
	ErrPanicked = errors.New("case panicked")
)

// Case is a single runnable example
type Case struct {
	Name    string
	Timeout time.Duration // zero means no limit
	Run     func(ctx context.Context) error
}

// Result is the outcome of one case
type Result struct {
	Name     string
	Status   report.Status
	Duration time.Duration
	Err      error
}

// Passed reports whether the case passed
func (r Result) Passed() bool {
	return r.Status == report.StatusPassed
}

// Runner executes cases and reports each one as a test item
type Runner struct {
	reporter *report.Reporter
	logger   *logger.Logger
}

// NewRunner creates a runner
func NewRunner(reporter *report.Reporter, log *logger.Logger) *Runner {
	return &Runner{reporter: reporter, logger: log.Named("harness")}
}

// Run executes cases in order. Cases do not share state; a failing case does
// not stop the others. Run stops early only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, cases []Case) []Result {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		if ctx.Err() != nil {
			results = append(results, Result{Name: c.Name, Status: report.StatusSkipped, Err: ctx.Err()})
			continue
		}
		results = append(results, r.runCase(ctx, c))
	}
	return results
}

func (r *Runner) runCase(ctx context.Context, c Case) Result {
	r.logger.Infof("▶️  %s", c.Name)

	itemCtx := r.reporter.StartItem(ctx, c.Name)
	var cancel context.CancelFunc
	if c.Timeout > 0 {
		itemCtx, cancel = context.WithCancel(itemCtx)
		defer cancel()
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- runBody(itemCtx, c)
	}()

	var err error
	if c.Timeout > 0 {
		timer := time.NewTimer(c.Timeout)
		select {
		case err = <-done:
			timer.Stop()
		case <-timer.C:
			cancel()
			err = fmt.Errorf("%w: %s exceeded %s", ErrTimedOut, c.Name, c.Timeout)
		}
	} else {
		err = <-done
	}

	res := Result{Name: c.Name, Duration: time.Since(start), Err: err, Status: report.StatusPassed}
	if err != nil {
		res.Status = report.StatusFailed
		r.logger.Errorf("❌ %s failed after %s: %v", c.Name, res.Duration, err)
	} else {
		r.logger.Infof("✅ %s passed in %s", c.Name, res.Duration)
	}

	r.reporter.FinishItem(itemCtx, res.Status)
	return res
}

// runBody runs the case, turning a panic into an error
func runBody(ctx context.Context, c Case) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanicked, p, debug.Stack())
		}
	}()
	return c.Run(ctx)
}

// Failed counts the results with status FAILED. Skipped cases are not failures.
func Failed(results []Result) int {
	return Count(results, report.StatusFailed)
}

// Count counts the results with the given status
func Count(results []Result, status report.Status) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}
