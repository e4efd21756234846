package application

import "context"

// startPoller begins refreshing the message log every LogPollInterval. The
// poller runs only while connected; Connect stops it before every attempt.
func (c *SessionController) startPoller() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.poller != nil || c.state.Connection != Connected {
		return
	}
	c.poller = startPeriodicTask(c.ctx, &c.wg, c.params.LogPollInterval, false, c.pollLogs)
	c.log.Debug().Dur("interval", c.params.LogPollInterval).Msg("log poller started")
}

func (c *SessionController) pollLogs(ctx context.Context) {
	if c.State().Connection != Connected {
		return
	}

	// failures leave the displayed log as it was
	if err := c.RefreshLogs(ctx); err != nil {
		c.log.Debug().Err(err).Msg("log poll failed")
	}
}
