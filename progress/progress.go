package progress

import (
	"log"
	"sync/atomic"
	"time"
)

// Progress receives coarse completion updates from a long-running operation.
// Inc may be called from multiple goroutines.
type Progress interface {
	Begin(task string, total int)
	Inc()
	End()
}

// Discard drops all updates.
var Discard Progress = discard{}

type discard struct{}

func (discard) Begin(string, int) {}
func (discard) Inc()              {}
func (discard) End()              {}

// Log reports task completion through the standard logger.
type Log struct {
	task    string
	total   int
	count   atomic.Int64
	started time.Time
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Begin(task string, total int) {
	l.task = task
	l.total = total
	l.count.Store(0)
	l.started = time.Now()
	log.Printf("%s: processing %d item(s)...", task, total)
}

func (l *Log) Inc() {
	l.count.Add(1)
}

func (l *Log) End() {
	log.Printf("%s: %d/%d done in %v", l.task, l.count.Load(), l.total, time.Since(l.started).Round(time.Millisecond))
}
