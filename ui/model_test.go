package ui

import (
	"context"
	"mqtt-console/application"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockController struct {
	mock.Mock
}

func (m *MockController) Connect(ctx context.Context, broker string) (application.ConnectionState, error) {
	args := m.Called(ctx, broker)
	return args.Get(0).(application.ConnectionState), args.Error(1)
}

func (m *MockController) PublishOnce(ctx context.Context, topic, message string) error {
	return m.Called(ctx, topic, message).Error(0)
}

func (m *MockController) StartPeriodic(topic, message string, interval time.Duration) (application.PeriodicSession, error) {
	args := m.Called(topic, message, interval)
	return args.Get(0).(application.PeriodicSession), args.Error(1)
}

func (m *MockController) StopPeriodic() {
	m.Called()
}

func (m *MockController) Subscribe(ctx context.Context, topic string) ([]string, error) {
	args := m.Called(ctx, topic)
	topics, _ := args.Get(0).([]string)
	return topics, args.Error(1)
}

func (m *MockController) SetMode(mode application.PublishMode) error {
	return m.Called(mode).Error(0)
}

func (m *MockController) SetInterval(interval time.Duration) error {
	return m.Called(interval).Error(0)
}

func (m *MockController) RefreshLogs(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockController) State() application.State {
	return m.Called().Get(0).(application.State)
}

var _ Controller = &MockController{}

func newTestModel(t *testing.T, state application.State) (*Model, *MockController) {
	mController := &MockController{}
	mController.On("State").Return(state).Once()

	m, err := NewModel(context.Background(), ModelParams{Controller: mController, Broker: "localhost:1883"})
	require.NoError(t, err)
	return m, mController
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func press(m *Model, key tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: key})
	return cmd
}

func TestNewModel_NoController(t *testing.T) {
	m, err := NewModel(context.Background(), ModelParams{})
	require.Error(t, err)
	require.Nil(t, m)
}

func TestModel_Connect(t *testing.T) {
	m, mController := newTestModel(t, application.State{Interval: 10 * time.Second})
	mController.On("Connect", mock.Anything, "localhost:1883").Return(application.Connected, nil).Once()

	cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, actionDoneMsg{action: "connect"}, cmd())

	mController.AssertExpectations(t)
}

func TestModel_PublishOnce(t *testing.T) {
	m, mController := newTestModel(t, application.State{Connection: application.Connected})
	mController.On("PublishOnce", mock.Anything, "room/1", "hi").Return(nil).Once()

	press(m, tea.KeyTab)
	typeText(m, "room/1")
	press(m, tea.KeyTab)
	typeText(m, "hi")
	cmd := press(m, tea.KeyEnter)

	require.NotNil(t, cmd)
	assert.Equal(t, actionDoneMsg{action: "publish"}, cmd())
	mController.AssertExpectations(t)
}

func TestModel_StartPeriodic(t *testing.T) {
	m, mController := newTestModel(t, application.State{
		Connection:      application.Connected,
		Mode:            application.PublishPeriodic,
		Interval:        10 * time.Second,
		IntervalEnabled: true,
	})
	mController.On("StartPeriodic", "room/1", "hi", 10*time.Second).
		Return(application.PeriodicSession{Topic: "room/1"}, nil).Once()

	press(m, tea.KeyTab)
	typeText(m, "room/1")
	press(m, tea.KeyTab)
	typeText(m, "hi")
	cmd := press(m, tea.KeyEnter)

	require.NotNil(t, cmd)
	assert.Equal(t, actionDoneMsg{action: "periodic"}, cmd())
	mController.AssertExpectations(t)
}

func TestModel_ToggleMode(t *testing.T) {
	m, mController := newTestModel(t, application.State{})
	mController.On("SetMode", application.PublishPeriodic).Return(nil).Once()

	cmd := press(m, tea.KeyCtrlP)
	require.NotNil(t, cmd)
	cmd()

	mController.AssertExpectations(t)
}

func TestModel_SkipsLockedInputs(t *testing.T) {
	m, _ := newTestModel(t, application.State{})

	m.Update(StateMsg{State: application.State{InputsLocked: true}})
	press(m, tea.KeyTab)

	assert.Equal(t, fieldSubscribe, m.focus)
}

func TestModel_SubscribeClearsInput(t *testing.T) {
	m, mController := newTestModel(t, application.State{Connection: application.Connected})
	mController.On("Subscribe", mock.Anything, "room/1").Return([]string{"room/1"}, nil).Once()

	press(m, tea.KeyShiftTab)
	require.Equal(t, fieldSubscribe, m.focus)
	typeText(m, "room/1")

	cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.Equal(t, "", m.inputs[fieldSubscribe].Value())
	mController.AssertExpectations(t)
}

func TestModel_View_EmptyLogs(t *testing.T) {
	m, _ := newTestModel(t, application.State{})

	m.Update(StateMsg{State: application.State{
		Connection: application.Connected,
		Logs:       application.MessageLog{Sent: []application.MessageLogEntry{}, Received: []application.MessageLogEntry{}},
		Status:     application.Status{Kind: application.StatusSuccess, Text: "Connected"},
	}})

	view := m.View()
	assert.Contains(t, view, "Sent")
	assert.Contains(t, view, "Received")
	assert.Equal(t, 2, strings.Count(view, emptyLogText))
	assert.Contains(t, view, emptySubscriptionsText)
	assert.Contains(t, view, "Connected")
}

func TestModel_ToggleTheme(t *testing.T) {
	m, _ := newTestModel(t, application.State{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Nil(t, cmd)
	assert.Equal(t, LightTheme.Name, m.theme.Name)
}
