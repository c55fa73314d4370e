package mail

import (
	"context"
	"sync"
	"time"

	"github.com/bbelderbos/codeimages/internal/logging"
)

// Dispatcher sends messages in the background so a slow relay never holds
// up a request. Wait blocks until every queued send has finished.
type Dispatcher struct {
	sender  Sender
	logger  logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, logger logging.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger, timeout: timeout}
}

// Notify queues msg. The send outlives ctx cancellation but keeps its values.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		if err := d.sender.Send(ctx, msg); err != nil {
			d.logger.Error(ctx, "failed to send mail", "to", msg.To, "subject", msg.Subject, "error", err)
			return
		}
		d.logger.Debug(ctx, "mail sent", "to", msg.To, "subject", msg.Subject)
	}()
}

// Wait blocks until pending sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
