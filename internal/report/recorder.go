package report

import (
	"context"
	"sync"
)

// Recorder is an in-memory Transport. It backs dry runs and tests.
type Recorder struct {
	mu               sync.Mutex
	startedLaunches  []Launch
	finishedLaunches []Launch
	startedItems     []Item
	finishedItems    []Item
	entries          []Entry
	failWith         error
	closed           bool
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes every following call return err; nil restores normal operation
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

func (r *Recorder) StartLaunch(ctx context.Context, launch Launch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.startedLaunches = append(r.startedLaunches, launch)
	return nil
}

func (r *Recorder) FinishLaunch(ctx context.Context, launch Launch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.finishedLaunches = append(r.finishedLaunches, launch)
	return nil
}

func (r *Recorder) StartItem(ctx context.Context, item Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.startedItems = append(r.startedItems, item)
	return nil
}

func (r *Recorder) FinishItem(ctx context.Context, item Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.finishedItems = append(r.finishedItems, item)
	return nil
}

func (r *Recorder) SaveLog(ctx context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Entries returns a copy of the saved log entries, in arrival order
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// EntriesFor returns the entries attached to the given item
func (r *Recorder) EntriesFor(itemUUID string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.entries {
		if e.ItemUUID == itemUUID {
			out = append(out, e)
		}
	}
	return out
}

// StartedItems returns the items reported as started
func (r *Recorder) StartedItems() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Item(nil), r.startedItems...)
}

// FinishedItems returns the items reported as finished
func (r *Recorder) FinishedItems() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Item(nil), r.finishedItems...)
}

// StartedLaunches returns the launches reported as started
func (r *Recorder) StartedLaunches() []Launch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Launch(nil), r.startedLaunches...)
}

// FinishedLaunches returns the launches reported as finished
func (r *Recorder) FinishedLaunches() []Launch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Launch(nil), r.finishedLaunches...)
}

// Closed reports whether Close was called
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
