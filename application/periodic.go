package application

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
)

// periodicTask calls fn once per interval until stopped. A call always
// returns before the next one is armed; when a call overruns the interval
// the next one starts right away.
type periodicTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startPeriodicTask(parent context.Context, wg *conc.WaitGroup, interval time.Duration, immediate bool, fn func(ctx context.Context)) *periodicTask {
	ctx, cancel := context.WithCancel(parent)
	t := &periodicTask{cancel: cancel, done: make(chan struct{})}

	wg.Go(func() {
		defer close(t.done)
		runPeriodic(ctx, interval, immediate, fn)
	})
	return t
}

func runPeriodic(ctx context.Context, interval time.Duration, immediate bool, fn func(ctx context.Context)) {
	first := interval
	if immediate {
		first = 0
	}

	timer := time.NewTimer(first)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		fn(ctx)
		if ctx.Err() != nil {
			return
		}

		timer.Reset(time.Until(start.Add(interval)))
	}
}

// Stop cancels the schedule and any call in progress, then waits for the
// loop to exit. Safe to call more than once.
func (t *periodicTask) Stop() {
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}
