package adapters

import (
	"context"
	"mqtt-console/application"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"
)

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) IsConnectionOpen() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	return m.Called().Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return m.Called(topic, qos, retained, payload).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return m.Called(topic, qos, callback).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return m.Called(filters, callback).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) mqtt.Token {
	return m.Called(topics).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) AddRoute(topic string, callback mqtt.MessageHandler) {
	m.Called(topic, callback)
}

func (m *MockMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

var _ mqtt.Client = &MockMQTTClient{}

type MockToken struct {
	mock.Mock
}

func (m *MockToken) Wait() bool {
	return m.Called().Bool(0)
}

func (m *MockToken) WaitTimeout(d time.Duration) bool {
	return m.Called(d).Bool(0)
}

func (m *MockToken) Done() <-chan struct{} {
	return m.Called().Get(0).(<-chan struct{})
}

func (m *MockToken) Error() error {
	return m.Called().Error(0)
}

var _ mqtt.Token = &MockToken{}

type testMessage struct {
	mqtt.Message

	topic   string
	payload []byte
}

func (m testMessage) Topic() string {
	return m.topic
}

func (m testMessage) Payload() []byte {
	return m.payload
}

type MockBrokerAPI struct {
	mock.Mock
}

func (m *MockBrokerAPI) Connect(ctx context.Context, broker string) error {
	return m.Called(ctx, broker).Error(0)
}

func (m *MockBrokerAPI) Publish(ctx context.Context, topic, message string) error {
	return m.Called(ctx, topic, message).Error(0)
}

func (m *MockBrokerAPI) Subscribe(ctx context.Context, topic string) ([]string, error) {
	args := m.Called(ctx, topic)
	topics, _ := args.Get(0).([]string)
	return topics, args.Error(1)
}

func (m *MockBrokerAPI) Subscriptions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	topics, _ := args.Get(0).([]string)
	return topics, args.Error(1)
}

func (m *MockBrokerAPI) Logs(ctx context.Context) (application.MessageLog, error) {
	args := m.Called(ctx)
	return args.Get(0).(application.MessageLog), args.Error(1)
}

var _ application.BrokerAPI = &MockBrokerAPI{}

// MockAppMQTTClient stands in for the MQTT adapter behind a BrokerGateway.
type MockAppMQTTClient struct {
	mock.Mock
}

func (m *MockAppMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	return m.Called(topic, qos, retained, msg).Error(0)
}

func (m *MockAppMQTTClient) Subscribe(topic string, qos byte, handler func(msg application.MQTTMessage)) error {
	return m.Called(topic, qos, handler).Error(0)
}

func (m *MockAppMQTTClient) Connect() error {
	return m.Called().Error(0)
}

func (m *MockAppMQTTClient) Disconnect() {
	m.Called()
}

func (m *MockAppMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockAppMQTTClient) Status() application.MQTTStatus {
	return m.Called().Get(0).(application.MQTTStatus)
}

var _ application.MQTTClient = &MockAppMQTTClient{}
