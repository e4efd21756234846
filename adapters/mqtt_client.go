package adapters

import (
	"fmt"
	"mqtt-console/application"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	MQTTDefaultConnectTimeout   = 30 * time.Second
	MQTTDefaultPublishTimeout   = 5 * time.Second
	MQTTDefaultSubscribeTimeout = 5 * time.Second
	MQTTDefaultClientIDPrefix   = "mqtt-console-"

	mqttDisconnectQuiesce = 250
)

var (
	ErrMQTTNotConnected     = fmt.Errorf("not connected")
	ErrMQTTConnectTimeout   = fmt.Errorf("connect timeout")
	ErrMQTTPublishTimeout   = fmt.Errorf("publish timeout")
	ErrMQTTSubscribeTimeout = fmt.Errorf("subscribe timeout")
)

type MQTTClientParams struct {
	ClientID string
	Username string
	Password string
	MQTTUrl  string

	ConnectTimeout   time.Duration
	PublishTimeout   time.Duration
	SubscribeTimeout time.Duration

	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client

	Log zerolog.Logger
}

func (m *MQTTClientParams) EnsureDefaults() {
	if m.ClientID == "" {
		m.ClientID = MQTTDefaultClientIDPrefix + uuid.NewString()
	}

	if m.ConnectTimeout == 0 {
		m.ConnectTimeout = MQTTDefaultConnectTimeout
	}

	if m.PublishTimeout == 0 {
		m.PublishTimeout = MQTTDefaultPublishTimeout
	}

	if m.SubscribeTimeout == 0 {
		m.SubscribeTimeout = MQTTDefaultSubscribeTimeout
	}

	if m.NewClientFunc == nil {
		m.NewClientFunc = mqtt.NewClient
	}
}

type MQTTClient struct {
	params MQTTClientParams

	client mqtt.Client

	connected          uint64
	msgCount           uint64
	msgCountUpdateTime atomic.Pointer[time.Time]

	subsMu sync.Mutex
	subs   map[string]mqttSubscription

	log zerolog.Logger
}

// mqttSubscription is replayed on every reconnect: the client connects with
// a clean session, so the broker forgets it.
type mqttSubscription struct {
	qos     byte
	handler mqtt.MessageHandler
}

func NewMQTTClient(params MQTTClientParams) *MQTTClient {
	params.EnsureDefaults()

	m := &MQTTClient{params: params, subs: map[string]mqttSubscription{}, log: params.Log}
	m.client = m.newMqttClient()

	t := time.Unix(0, 0)
	m.msgCountUpdateTime.Store(&t)

	return m
}

// NewMQTTClientFactory returns a factory that builds clients sharing params
// except for the broker url.
func NewMQTTClientFactory(params MQTTClientParams) application.MQTTClientFactory {
	return func(brokerURL string) application.MQTTClient {
		p := params
		p.MQTTUrl = brokerURL
		return NewMQTTClient(p)
	}
}

func (m *MQTTClient) Connect() error {
	if atomic.LoadUint64(&m.connected) == 1 {
		return nil
	}

	token := m.client.Connect()
	if !token.WaitTimeout(m.params.ConnectTimeout) {
		return ErrMQTTConnectTimeout
	}
	if token.Error() != nil {
		return token.Error()
	}

	atomic.StoreUint64(&m.connected, 1)
	return nil
}

func (m *MQTTClient) Disconnect() {
	atomic.StoreUint64(&m.connected, 0)
	m.client.Disconnect(mqttDisconnectQuiesce)

	m.subsMu.Lock()
	m.subs = map[string]mqttSubscription{}
	m.subsMu.Unlock()

	m.log.Info().Msg("disconnected")
}

func (m *MQTTClient) IsConnected() bool {
	return atomic.LoadUint64(&m.connected) == 1
}

func (m *MQTTClient) Status() application.MQTTStatus {
	return application.MQTTStatus{
		MessageCount:      atomic.LoadUint64(&m.msgCount),
		LastTimePublished: *m.msgCountUpdateTime.Load(),
		Connected:         m.IsConnected(),
	}
}

func (m *MQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	if !m.IsConnected() {
		return ErrMQTTNotConnected
	}

	token := m.client.Publish(topic, qos, retained, msg)
	if !token.WaitTimeout(m.params.PublishTimeout) {
		return ErrMQTTPublishTimeout
	}
	if token.Error() != nil {
		return token.Error()
	}

	t := time.Now()
	m.msgCountUpdateTime.Store(&t)
	atomic.AddUint64(&m.msgCount, 1)
	return nil
}

func (m *MQTTClient) Subscribe(topic string, qos byte, handler func(msg application.MQTTMessage)) error {
	if !m.IsConnected() {
		return ErrMQTTNotConnected
	}

	sub := mqttSubscription{
		qos: qos,
		handler: func(client mqtt.Client, msg mqtt.Message) {
			handler(msg)
		},
	}
	if err := m.subscribe(topic, sub); err != nil {
		return err
	}

	m.subsMu.Lock()
	m.subs[topic] = sub
	m.subsMu.Unlock()
	return nil
}

func (m *MQTTClient) subscribe(topic string, sub mqttSubscription) error {
	token := m.client.Subscribe(topic, sub.qos, sub.handler)
	if !token.WaitTimeout(m.params.SubscribeTimeout) {
		return ErrMQTTSubscribeTimeout
	}
	if token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (m *MQTTClient) resubscribe() {
	m.subsMu.Lock()
	subs := make(map[string]mqttSubscription, len(m.subs))
	for topic, sub := range m.subs {
		subs[topic] = sub
	}
	m.subsMu.Unlock()

	for topic, sub := range subs {
		if err := m.subscribe(topic, sub); err != nil {
			m.log.Warn().Err(err).Str("topic", topic).Msg("resubscribe failed")
			continue
		}
		m.log.Info().Str("topic", topic).Msg("resubscribed")
	}
}

func (m *MQTTClient) PublishHandler(client mqtt.Client, msg mqtt.Message) {
	m.log.Debug().Str("topic", msg.Topic()).Msg("unrouted message")
}

func (m *MQTTClient) OnConnect(client mqtt.Client) {
	m.log.Info().Msgf("connected to %s", m.params.MQTTUrl)
	atomic.StoreUint64(&m.connected, 1)
	m.resubscribe()
}

func (m *MQTTClient) OnConnectionLost(client mqtt.Client, err error) {
	m.log.Info().Msgf("connect lost: %v", err)
	atomic.StoreUint64(&m.connected, 0)
}

func (m *MQTTClient) newMqttClient() mqtt.Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(m.params.MQTTUrl)
	opts.SetClientID(m.params.ClientID)
	opts.SetUsername(m.params.Username)
	opts.SetPassword(m.params.Password)
	opts.SetConnectTimeout(m.params.ConnectTimeout)

	opts.SetDefaultPublishHandler(m.PublishHandler)
	opts.OnConnect = m.OnConnect
	opts.OnConnectionLost = m.OnConnectionLost

	return m.params.NewClientFunc(opts)
}

var _ application.MQTTClient = &MQTTClient{}
