package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

const DefaultLogPollInterval = 4 * time.Second

var (
	ErrConnectBusy      = fmt.Errorf("connect already in progress")
	ErrControllerClosed = fmt.Errorf("controller closed")

	errNoChange = fmt.Errorf("no change")
)

// Renderer receives a snapshot of the controller state after every change.
type Renderer interface {
	Render(state State)
}

type RendererFunc func(state State)

func (f RendererFunc) Render(state State) {
	f(state)
}

type nopRenderer struct{}

func (nopRenderer) Render(State) {}

type SessionControllerParams struct {
	API      BrokerAPI
	Renderer Renderer

	LogPollInterval time.Duration

	Log zerolog.Logger
}

func (p *SessionControllerParams) EnsureDefaults() {
	if p.Renderer == nil {
		p.Renderer = nopRenderer{}
	}

	if p.LogPollInterval == 0 {
		p.LogPollInterval = DefaultLogPollInterval
	}
}

// SessionController owns the console session: connection state, publish
// mode, the periodic send loop and the log poller.
type SessionController struct {
	params SessionControllerParams

	api      BrokerAPI
	renderer Renderer

	mu       sync.Mutex
	state    State
	version  uint64
	periodic *periodicTask
	poller   *periodicTask
	closed   bool

	renderMu sync.Mutex
	rendered uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	log zerolog.Logger
}

func NewSessionController(params SessionControllerParams) (*SessionController, error) {
	if params.API == nil {
		return nil, fmt.Errorf("API is nil")
	}
	params.EnsureDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &SessionController{
		params:   params,
		api:      params.API,
		renderer: params.Renderer,
		state:    initialState(),
		ctx:      ctx,
		cancel:   cancel,
		log:      params.Log,
	}, nil
}

// State returns a copy of the current state.
func (c *SessionController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *SessionController) Connect(ctx context.Context, broker string) (ConnectionState, error) {
	broker = strings.TrimSpace(broker)
	if broker == "" {
		err := newValidationError("broker", "Broker required")
		c.reportError(err, "")
		return c.State().Connection, err
	}

	var poller *periodicTask
	err := c.mutate(func(s *State) error {
		if s.ConnectBusy {
			return ErrConnectBusy
		}
		poller, c.poller = c.poller, nil

		s.Connection = Connecting
		s.Broker = broker
		s.ConnectBusy = true
		s.Status = Status{Kind: StatusBusy, Text: "Connecting..."}
		return nil
	})
	if err != nil {
		c.reportError(err, "")
		return c.State().Connection, err
	}
	poller.Stop()
	defer c.update(func(s *State) {
		s.ConnectBusy = false
	})

	c.log.Info().Str("broker", broker).Msg("connecting")
	if err := c.api.Connect(ctx, broker); err != nil {
		c.log.Warn().Err(err).Str("broker", broker).Msg("connect failed")
		c.update(func(s *State) {
			s.Connection = Error
			s.Status = Status{Kind: StatusError, Text: StatusText(err, "Connection failed")}
		})
		return Error, err
	}

	c.update(func(s *State) {
		s.Connection = Connected
		s.Status = Status{Kind: StatusSuccess, Text: fmt.Sprintf("Connected to %s", broker)}
	})
	c.log.Info().Str("broker", broker).Msg("connected")

	if err := c.RefreshSubscriptions(ctx); err != nil {
		c.log.Warn().Err(err).Msg("subscriptions refresh failed")
	}
	if err := c.RefreshLogs(ctx); err != nil {
		c.log.Debug().Err(err).Msg("log refresh failed")
	}
	c.startPoller()

	return Connected, nil
}

// PublishOnce sends message to topic. The topic is trimmed, the message is
// sent exactly as given.
func (c *SessionController) PublishOnce(ctx context.Context, topic, message string) error {
	var target string
	err := c.mutate(func(s *State) error {
		t, err := validatePublish(*s, topic, message)
		if err != nil {
			return err
		}
		if s.PublishBusy {
			return ErrPublishBusy
		}
		target = t

		s.PublishBusy = true
		s.Status = Status{Kind: StatusBusy, Text: "Publishing..."}
		return nil
	})
	if err != nil {
		c.reportError(err, "")
		return err
	}

	if err := c.api.Publish(ctx, target, message); err != nil {
		c.log.Warn().Err(err).Str("topic", target).Msg("publish failed")
		c.update(func(s *State) {
			s.PublishBusy = false
			s.Status = Status{Kind: StatusError, Text: StatusText(err, "Publish failed")}
		})
		return err
	}

	c.update(func(s *State) {
		s.PublishBusy = false
		s.Status = Status{Kind: StatusSuccess, Text: fmt.Sprintf("Published to %s", target)}
	})
	c.log.Debug().Str("topic", target).Msg("published")

	if err := c.RefreshLogs(ctx); err != nil {
		c.log.Debug().Err(err).Msg("log refresh failed")
	}
	return nil
}

// StartPeriodic publishes message to topic right away and then once per
// interval until StopPeriodic or Close. A non-positive interval means
// DefaultPublishInterval.
func (c *SessionController) StartPeriodic(topic, message string, interval time.Duration) (PeriodicSession, error) {
	interval = normalizeInterval(interval)

	var session PeriodicSession
	err := c.mutate(func(s *State) error {
		if c.closed {
			return ErrControllerClosed
		}
		t, err := validatePublish(*s, topic, message)
		if err != nil {
			return err
		}
		if s.Periodic != nil {
			return ErrPeriodicActive
		}

		owner := &PeriodicSession{
			Topic:     t,
			Message:   message,
			Interval:  interval,
			StartedAt: time.Now(),
		}
		session = *owner

		s.Periodic = owner
		s.Mode = PublishPeriodic
		s.Interval = interval
		s.InputsLocked = true
		s.IntervalEnabled = false
		s.Status = Status{Kind: StatusBusy, Text: fmt.Sprintf("Sending to %s every %s", t, interval)}

		c.periodic = startPeriodicTask(c.ctx, &c.wg, interval, true, func(ctx context.Context) {
			c.periodicTick(ctx, owner)
		})
		return nil
	})
	if err != nil {
		c.reportError(err, "")
		return PeriodicSession{}, err
	}

	c.log.Info().
		Str("topic", session.Topic).
		Dur("interval", interval).
		Msg("periodic send started")
	return session, nil
}

func (c *SessionController) periodicTick(ctx context.Context, owner *PeriodicSession) {
	err := c.api.Publish(ctx, owner.Topic, owner.Message)
	if ctx.Err() != nil {
		return
	}

	c.mutate(func(s *State) error {
		if s.Periodic != owner || ctx.Err() != nil {
			return errNoChange
		}

		owner.LastTickAt = time.Now()
		if err != nil {
			owner.Failed++
			s.Status = Status{Kind: StatusError, Text: StatusText(err, "Publish failed")}
			return nil
		}
		owner.Sent++
		s.Status = Status{Kind: StatusSuccess, Text: fmt.Sprintf("Sent %d to %s", owner.Sent, owner.Topic)}
		return nil
	})

	if err != nil {
		c.log.Warn().Err(err).Str("topic", owner.Topic).Msg("periodic publish failed")
		return
	}
	if err := c.RefreshLogs(ctx); err != nil {
		c.log.Debug().Err(err).Msg("log refresh failed")
	}
}

// StopPeriodic ends the periodic send loop, cancelling a publish still in
// flight. It is a no-op when no loop is running.
func (c *SessionController) StopPeriodic() {
	var task *periodicTask
	err := c.mutate(func(s *State) error {
		if s.Periodic == nil && c.periodic == nil {
			return errNoChange
		}
		task, c.periodic = c.periodic, nil

		s.Periodic = nil
		s.InputsLocked = false
		s.IntervalEnabled = intervalEnabled(s.Mode, false)
		s.Status = idleStatus(s.Connection)
		return nil
	})
	if err != nil {
		return
	}

	task.Stop()
	c.log.Info().Msg("periodic send stopped")
}

// Subscribe asks the server to subscribe to topic. The server answers with
// the complete subscription list, which replaces the local one.
func (c *SessionController) Subscribe(ctx context.Context, topic string) ([]string, error) {
	var target string
	err := c.mutate(func(s *State) error {
		if s.Connection != Connected {
			return ErrNotConnected
		}
		target = strings.TrimSpace(topic)
		if target == "" {
			return newValidationError("topic", "Topic required")
		}

		s.Status = Status{Kind: StatusBusy, Text: fmt.Sprintf("Subscribing to %s...", target)}
		return nil
	})
	if err != nil {
		c.reportError(err, "")
		return nil, err
	}

	topics, err := c.api.Subscribe(ctx, target)
	if err != nil {
		c.log.Warn().Err(err).Str("topic", target).Msg("subscribe failed")
		c.reportError(err, "Subscribe failed")
		return nil, err
	}

	c.update(func(s *State) {
		s.Subscriptions = append([]string(nil), topics...)
		s.Status = Status{Kind: StatusSuccess, Text: fmt.Sprintf("Subscribed to %s", target)}
	})

	if err := c.RefreshLogs(ctx); err != nil {
		c.log.Debug().Err(err).Msg("log refresh failed")
	}
	return topics, nil
}

func (c *SessionController) SetMode(mode PublishMode) error {
	err := c.mutate(func(s *State) error {
		if s.InputsLocked {
			return ErrInputsLocked
		}
		s.Mode = mode
		s.IntervalEnabled = intervalEnabled(mode, false)
		return nil
	})
	if err != nil {
		c.reportError(err, "")
	}
	return err
}

func (c *SessionController) SetInterval(interval time.Duration) error {
	err := c.mutate(func(s *State) error {
		if s.InputsLocked {
			return ErrInputsLocked
		}
		s.Interval = normalizeInterval(interval)
		return nil
	})
	if err != nil {
		c.reportError(err, "")
	}
	return err
}

func (c *SessionController) RefreshSubscriptions(ctx context.Context) error {
	topics, err := c.api.Subscriptions(ctx)
	if err != nil {
		return err
	}

	c.mutate(func(s *State) error {
		if ctx.Err() != nil {
			return errNoChange
		}
		s.Subscriptions = append([]string(nil), topics...)
		return nil
	})
	return nil
}

// RefreshLogs replaces both message lists with the server's copy.
func (c *SessionController) RefreshLogs(ctx context.Context) error {
	logs, err := c.api.Logs(ctx)
	if err != nil {
		return err
	}

	c.mutate(func(s *State) error {
		if ctx.Err() != nil {
			return errNoChange
		}
		s.Logs = MessageLog{
			Sent:     append([]MessageLogEntry(nil), logs.Sent...),
			Received: append([]MessageLogEntry(nil), logs.Received...),
		}
		return nil
	})
	return nil
}

// Close stops the periodic send loop and the log poller and waits for them.
// A running periodic session is dropped from the state and inputs unlock.
func (c *SessionController) Close() {
	err := c.mutate(func(s *State) error {
		if c.closed {
			return errNoChange
		}
		c.closed = true
		c.periodic, c.poller = nil, nil

		if s.Periodic != nil {
			s.Periodic = nil
			s.Status = idleStatus(s.Connection)
		}
		s.InputsLocked = false
		s.IntervalEnabled = intervalEnabled(s.Mode, false)
		return nil
	})
	if err != nil {
		return
	}

	c.cancel()
	c.wg.Wait()
}

func validatePublish(s State, topic, message string) (string, error) {
	if s.Connection != Connected {
		return "", ErrNotConnected
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", newValidationError("topic", "Topic required")
	}
	if strings.TrimSpace(message) == "" {
		return "", newValidationError("message", "Message required")
	}
	return topic, nil
}

func (c *SessionController) reportError(err error, fallback string) {
	c.update(func(s *State) {
		s.Status = Status{Kind: StatusError, Text: StatusText(err, fallback)}
	})
}

func (c *SessionController) update(fn func(s *State)) {
	c.mutate(func(s *State) error {
		fn(s)
		return nil
	})
}

// mutate applies fn under the state lock and renders the result. When fn
// returns an error the state is left as fn found it and nothing is rendered.
func (c *SessionController) mutate(fn func(s *State) error) error {
	c.mu.Lock()
	if err := fn(&c.state); err != nil {
		c.mu.Unlock()
		return err
	}
	c.version++
	version := c.version
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if version <= c.rendered {
		return nil
	}
	c.rendered = version
	c.renderer.Render(snapshot)
	return nil
}
