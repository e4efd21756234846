package application

import (
	"strconv"
	"strings"
	"time"
)

const DefaultPublishInterval = 10 * time.Second

type ConnectionState int

const (
	Offline ConnectionState = iota
	Connecting
	Connected
	Error
)

func (c ConnectionState) String() string {
	switch c {
	case Offline:
		return "offline"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

type PublishMode int

const (
	PublishOnce PublishMode = iota
	PublishPeriodic
)

func (m PublishMode) String() string {
	if m == PublishPeriodic {
		return "periodic"
	}
	return "once"
}

type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusBusy
	StatusSuccess
	StatusError
)

type Status struct {
	Kind StatusKind
	Text string
}

type PeriodicSession struct {
	Topic    string
	Message  string
	Interval time.Duration

	StartedAt  time.Time
	LastTickAt time.Time
	Sent       uint64
	Failed     uint64
}

// State is everything the view needs to draw the console. Snapshots handed
// to a Renderer never share slices with the controller.
type State struct {
	Connection ConnectionState
	Broker     string
	Mode       PublishMode
	Interval   time.Duration

	ConnectBusy     bool
	PublishBusy     bool
	InputsLocked    bool
	IntervalEnabled bool

	Periodic      *PeriodicSession
	Subscriptions []string
	Logs          MessageLog

	Status Status
}

func initialState() State {
	return State{
		Connection: Offline,
		Mode:       PublishOnce,
		Interval:   DefaultPublishInterval,
		Status:     Status{Kind: StatusInfo, Text: "Offline"},
	}
}

func (s State) clone() State {
	c := s
	if s.Periodic != nil {
		p := *s.Periodic
		c.Periodic = &p
	}
	c.Subscriptions = append([]string(nil), s.Subscriptions...)
	c.Logs = MessageLog{
		Sent:     append([]MessageLogEntry(nil), s.Logs.Sent...),
		Received: append([]MessageLogEntry(nil), s.Logs.Received...),
	}
	return c
}

// intervalEnabled reports whether the interval selector accepts input.
func intervalEnabled(mode PublishMode, locked bool) bool {
	return mode == PublishPeriodic && !locked
}

// idleStatus is the status shown once nothing is in progress.
func idleStatus(c ConnectionState) Status {
	if c == Connected {
		return Status{Kind: StatusSuccess, Text: "Connected"}
	}
	return Status{Kind: StatusInfo, Text: "Offline"}
}

// ParseIntervalSeconds reads the interval selector value. Zero, negative,
// empty or non-numeric input yields DefaultPublishInterval.
func ParseIntervalSeconds(s string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultPublishInterval
	}
	return time.Duration(n) * time.Second
}

func normalizeInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPublishInterval
	}
	return d
}
