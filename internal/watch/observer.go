// Package watch polls the clipboard and feeds changes into history.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yiblet/cliprecall/internal/clipboard"
	"github.com/yiblet/cliprecall/internal/history"
	"github.com/yiblet/cliprecall/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultInterval is the clipboard polling period.
const DefaultInterval = 800 * time.Millisecond

// captureBuffer bounds captures queued between the poller and the owner.
const captureBuffer = 16

// Observer detects clipboard changes by polling. The first poll only records
// the current contents, so text already on the clipboard at start-up is not
// reported.
type Observer struct {
	board    clipboard.Clipboard
	interval time.Duration
	log      *logging.Logger

	mu     sync.Mutex
	last   string
	primed bool
}

// NewObserver creates an observer. An interval below 1 selects DefaultInterval.
func NewObserver(board clipboard.Clipboard, interval time.Duration, log *logging.Logger) *Observer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logging.Get()
	}
	return &Observer{
		board:    board,
		interval: interval,
		log:      log.With("component", "observer"),
	}
}

// Interval returns the polling period.
func (o *Observer) Interval() time.Duration {
	return o.interval
}

// Poll reads the clipboard once. It returns the text and true when the
// contents changed since the previous successful poll. Read failures and
// non-text content are logged and reported as unchanged.
func (o *Observer) Poll() (string, bool) {
	text, err := clipboard.ReadText(o.board)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		if errors.Is(err, clipboard.ErrNotText) || errors.Is(err, clipboard.ErrTooLarge) {
			o.log.Debug("skipping clipboard content", "reason", err)
		} else {
			o.log.Warn("failed to poll clipboard", "error", err)
		}
		return "", false
	}

	if !o.primed {
		o.primed = true
		o.last = text
		return "", false
	}
	if text == o.last {
		return "", false
	}
	o.last = text
	return text, true
}

// Observe polls until ctx is done, sending each change to out.
func (o *Observer) Observe(ctx context.Context, out chan<- string) error {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	o.Poll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			text, changed := o.Poll()
			if !changed {
				continue
			}
			select {
			case out <- text:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Run observes the clipboard and records every change in src until ctx is
// done. The poller and the capturing loop run as separate goroutines joined
// by a channel, so src is only mutated from one goroutine.
func Run(ctx context.Context, o *Observer, src history.Source) error {
	g, gctx := errgroup.WithContext(ctx)
	captures := make(chan string, captureBuffer)

	g.Go(func() error {
		defer close(captures)
		return o.Observe(gctx, captures)
	})
	g.Go(func() error {
		for text := range captures {
			src.Capture(text)
		}
		return nil
	})

	o.log.Info("observing clipboard", "interval", o.interval)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("observer stopped: %w", err)
	}
	return nil
}
