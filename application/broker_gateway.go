package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultLogLimit = 100

// BrokerGateway is the server side of BrokerAPI: it holds one MQTT
// connection on behalf of the console and keeps the sent/received logs.
type BrokerGateway struct {
	params BrokerGatewayParams

	// connectMu serializes Connect; mu is never held while dialing.
	connectMu sync.Mutex

	mu            sync.Mutex
	client        MQTTClient
	broker        string
	subscriptions []string
	sent          *messageLog
	received      *messageLog

	log zerolog.Logger
}

type BrokerGatewayParams struct {
	NewMQTTClient MQTTClientFactory

	QoS      byte
	LogLimit int

	Log zerolog.Logger
}

func (p *BrokerGatewayParams) EnsureDefaults() {
	if p.LogLimit <= 0 {
		p.LogLimit = DefaultLogLimit
	}
}

func NewBrokerGateway(params BrokerGatewayParams) (*BrokerGateway, error) {
	if params.NewMQTTClient == nil {
		return nil, fmt.Errorf("NewMQTTClient is nil")
	}
	params.EnsureDefaults()

	return &BrokerGateway{
		params:   params,
		sent:     newMessageLog(params.LogLimit),
		received: newMessageLog(params.LogLimit),
		log:      params.Log,
	}, nil
}

// Connect attaches the gateway to broker. Connecting to the broker already
// in use is a no-op while that connection is up; any other broker replaces
// the connection and forgets its subscriptions.
func (g *BrokerGateway) Connect(_ context.Context, broker string) error {
	brokerURL := NormalizeBrokerURL(broker)
	if brokerURL == "" {
		return fmt.Errorf("broker required")
	}

	g.connectMu.Lock()
	defer g.connectMu.Unlock()

	g.mu.Lock()
	if g.client != nil && g.broker == brokerURL && g.client.IsConnected() {
		g.mu.Unlock()
		return nil
	}
	old := g.client
	g.client = nil
	g.broker = ""
	g.subscriptions = nil
	g.mu.Unlock()

	if old != nil {
		old.Disconnect()
	}

	client := g.params.NewMQTTClient(brokerURL)
	if err := client.Connect(); err != nil {
		g.log.Warn().Err(err).Str("broker", brokerURL).Msg("mqtt connect failed")
		return fmt.Errorf("connect to %s: %w", brokerURL, err)
	}

	g.mu.Lock()
	g.client = client
	g.broker = brokerURL
	g.mu.Unlock()

	g.log.Info().Str("broker", brokerURL).Msg("mqtt connected")
	return nil
}

func (g *BrokerGateway) Publish(_ context.Context, topic, message string) error {
	client, err := g.connectedClient()
	if err != nil {
		return err
	}

	if err := client.Publish(topic, g.params.QoS, false, []byte(message)); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	g.sent.add(MessageLogEntry{Topic: topic, Payload: message, Time: NewTimestamp(time.Now().UTC())})
	return nil
}

// Subscribe subscribes to topic and returns the full subscription list.
// Subscribing twice to the same topic keeps a single entry.
func (g *BrokerGateway) Subscribe(_ context.Context, topic string) ([]string, error) {
	client, err := g.connectedClient()
	if err != nil {
		return nil, err
	}

	err = client.Subscribe(topic, g.params.QoS, func(msg MQTTMessage) {
		g.received.add(MessageLogEntry{
			Topic:   msg.Topic(),
			Payload: string(msg.Payload()),
			Time:    NewTimestamp(time.Now().UTC()),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !containsTopic(g.subscriptions, topic) {
		g.subscriptions = append(g.subscriptions, topic)
	}
	g.log.Info().Str("topic", topic).Msg("subscribed")
	return append([]string{}, g.subscriptions...), nil
}

func (g *BrokerGateway) Subscriptions(_ context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.subscriptions...), nil
}

func (g *BrokerGateway) Logs(_ context.Context) (MessageLog, error) {
	return MessageLog{
		Sent:     g.sent.entries(),
		Received: g.received.entries(),
	}, nil
}

// Close drops the MQTT connection, if any.
func (g *BrokerGateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		g.client.Disconnect()
		g.client = nil
	}
}

func (g *BrokerGateway) connectedClient() (MQTTClient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil || !g.client.IsConnected() {
		return nil, ErrNotConnected
	}
	return g.client, nil
}

// NormalizeBrokerURL trims broker and prefixes tcp:// when no scheme is
// given, so "localhost:1883" and "tcp://localhost:1883" are the same broker.
func NormalizeBrokerURL(broker string) string {
	broker = strings.TrimSpace(broker)
	if broker == "" || strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

func containsTopic(topics []string, topic string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}

// messageLog keeps the newest limit entries, oldest first.
type messageLog struct {
	mu    sync.Mutex
	limit int
	list  []MessageLogEntry
}

func newMessageLog(limit int) *messageLog {
	return &messageLog{limit: limit}
}

func (l *messageLog) add(e MessageLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.list = append(l.list, e)
	if over := len(l.list) - l.limit; over > 0 {
		l.list = append([]MessageLogEntry(nil), l.list[over:]...)
	}
}

func (l *messageLog) entries() []MessageLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]MessageLogEntry{}, l.list...)
}

var _ BrokerAPI = &BrokerGateway{}
