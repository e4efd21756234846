package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DemoDefaultTopic          = "test/topic"
	DemoDefaultInterval       = 2 * time.Second
	DemoDefaultReportInterval = 30 * time.Second
)

// DemoPublisher feeds a broker with numbered test messages so a fresh
// console has traffic to subscribe to.
type DemoPublisher interface {
	Run(ctx context.Context) error
}

type DemoPublisherParams struct {
	MQTTClient MQTTClient

	Topic          string
	Interval       time.Duration
	ReportInterval time.Duration

	Log zerolog.Logger
}

func (p *DemoPublisherParams) EnsureDefaults() {
	if p.Topic == "" {
		p.Topic = DemoDefaultTopic
	}

	if p.Interval == 0 {
		p.Interval = DemoDefaultInterval
	}

	if p.ReportInterval == 0 {
		p.ReportInterval = DemoDefaultReportInterval
	}
}

type demoPublisher struct {
	params DemoPublisherParams

	log zerolog.Logger
}

func NewDemoPublisher(params DemoPublisherParams) (DemoPublisher, error) {
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	params.EnsureDefaults()

	return &demoPublisher{params: params, log: params.Log}, nil
}

func (d demoPublisher) Run(ctx context.Context) error {
	if err := d.params.MQTTClient.Connect(); err != nil {
		return err
	}
	defer d.params.MQTTClient.Disconnect()

	g := errgroup.Group{}

	// test message publisher
	g.Go(func() error {
		d.log.Info().Msgf("start publishing on topic: %s", d.params.Topic)
		defer d.log.Info().Msg("stop publishing")

		ticker := time.NewTicker(d.params.Interval)
		defer ticker.Stop()

		counter := 0
		for {
			err := d.params.MQTTClient.Publish(d.params.Topic, 0, false, fmt.Sprintf("Periodic test message %d", counter))
			if err != nil {
				d.log.Warn().Err(err).Msg("demo publish failed")
			} else {
				counter++
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	// mqtt publish reporter
	g.Go(func() error {
		ticker := time.NewTicker(d.params.ReportInterval)
		defer ticker.Stop()

		lastStatus := d.params.MQTTClient.Status()
		lastReport := time.Now()

	ReporterLoop:
		for {
			select {
			case <-ctx.Done():
				break ReporterLoop
			case now := <-ticker.C:
				newStatus := d.params.MQTTClient.Status()
				d.log.Info().
					Uint64("msg_per_min", messagesPerMinute(lastStatus, newStatus, now.Sub(lastReport))).
					Bool("is_connected", newStatus.Connected).
					Time("last_time_published", newStatus.LastTimePublished).
					Msg("publish report")

				lastStatus = newStatus
				lastReport = now
			}
		}

		return nil
	})

	return g.Wait()
}

func messagesPerMinute(prev, cur MQTTStatus, elapsed time.Duration) uint64 {
	if elapsed <= 0 || cur.MessageCount < prev.MessageCount {
		return 0
	}
	return uint64(float64(cur.MessageCount-prev.MessageCount) / elapsed.Minutes())
}
