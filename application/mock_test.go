package application

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

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

func (m *MockBrokerAPI) Logs(ctx context.Context) (MessageLog, error) {
	args := m.Called(ctx)
	return args.Get(0).(MessageLog), args.Error(1)
}

var _ BrokerAPI = &MockBrokerAPI{}

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	return m.Called(topic, qos, retained, msg).Error(0)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler func(msg MQTTMessage)) error {
	return m.Called(topic, qos, handler).Error(0)
}

func (m *MockMQTTClient) Connect() error {
	return m.Called().Error(0)
}

func (m *MockMQTTClient) Disconnect() {
	m.Called()
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) Status() MQTTStatus {
	return m.Called().Get(0).(MQTTStatus)
}

var _ MQTTClient = &MockMQTTClient{}

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Topic() string {
	return m.topic
}

func (m testMessage) Payload() []byte {
	return m.payload
}

// stateRecorder collects every snapshot a controller renders.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) Render(state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return State{}
	}
	return r.states[len(r.states)-1]
}
