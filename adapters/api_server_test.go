package adapters

import (
	"context"
	"fmt"
	"mqtt-console/application"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func serveAPI(t *testing.T, api application.BrokerAPI, method, path, body string) *httptest.ResponseRecorder {
	server, err := NewAPIServer(APIServerParams{API: api})
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewAPIServer_NoAPI(t *testing.T) {
	server, err := NewAPIServer(APIServerParams{})
	require.Error(t, err)
	require.Nil(t, server)
}

func TestAPIServer_Connect(t *testing.T) {
	mAPI := &MockBrokerAPI{}
	mAPI.On("Connect", mock.Anything, "localhost:1883").Return(nil).Once()

	rec := serveAPI(t, mAPI, http.MethodPost, APIPathConnect, `{"broker":"localhost:1883"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	mAPI.AssertExpectations(t)
}

func TestAPIServer_Connect_Failed(t *testing.T) {
	mAPI := &MockBrokerAPI{}
	mAPI.On("Connect", mock.Anything, "nowhere:1883").Return(fmt.Errorf("connection refused")).Once()

	rec := serveAPI(t, mAPI, http.MethodPost, APIPathConnect, `{"broker":"nowhere:1883"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"connection refused"}`, rec.Body.String())
	mAPI.AssertExpectations(t)
}

func TestAPIServer_Validation(t *testing.T) {
	testCases := map[string]struct {
		path  string
		body  string
		error string
	}{
		"EmptyBroker":    {path: APIPathConnect, body: `{"broker":"  "}`, error: "broker required"},
		"EmptyTopic":     {path: APIPathPublish, body: `{"topic":"","message":"m"}`, error: "topic required"},
		"EmptyMessage":   {path: APIPathPublish, body: `{"topic":"t","message":" "}`, error: "message required"},
		"EmptySubscribe": {path: APIPathSubscribe, body: `{"topic":""}`, error: "topic required"},
		"MalformedBody":  {path: APIPathPublish, body: `{"topic":`, error: "invalid request body"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			mAPI := &MockBrokerAPI{}

			rec := serveAPI(t, mAPI, http.MethodPost, tc.path, tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"ok":false,"error":%q}`, tc.error), rec.Body.String())
			mAPI.AssertExpectations(t)
		})
	}
}

func TestAPIServer_Publish_NotConnected(t *testing.T) {
	mAPI := &MockBrokerAPI{}
	mAPI.On("Publish", mock.Anything, "room/1", " hi ").Return(application.ErrNotConnected).Once()

	rec := serveAPI(t, mAPI, http.MethodPost, APIPathPublish, `{"topic":" room/1 ","message":" hi "}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"not connected"}`, rec.Body.String())
	mAPI.AssertExpectations(t)
}

func TestAPIServer_Subscribe(t *testing.T) {
	mAPI := &MockBrokerAPI{}
	mAPI.On("Subscribe", mock.Anything, "room/1").Return([]string{"room/0", "room/1"}, nil).Once()

	rec := serveAPI(t, mAPI, http.MethodPost, APIPathSubscribe, `{"topic":"room/1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"topics":["room/0","room/1"]}`, rec.Body.String())
	mAPI.AssertExpectations(t)
}

func TestAPIServer_Subscriptions_Empty(t *testing.T) {
	mAPI := &MockBrokerAPI{}
	mAPI.On("Subscriptions", mock.Anything).Return(nil, nil).Once()

	rec := serveAPI(t, mAPI, http.MethodGet, APIPathSubscriptions, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"topics":[]}`, rec.Body.String())
	mAPI.AssertExpectations(t)
}

func TestAPIServer_Logs(t *testing.T) {
	mAPI := &MockBrokerAPI{}
	mAPI.On("Logs", mock.Anything).Return(application.MessageLog{
		Received: []application.MessageLogEntry{
			{Topic: "room/1", Payload: "hi", Time: application.NewTimestamp(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))},
		},
	}, nil).Once()

	rec := serveAPI(t, mAPI, http.MethodGet, APIPathLogs, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"logs":{
		"sent":[],
		"received":[{"topic":"room/1","payload":"hi","time":"2024-05-01T10:00:00Z"}]
	}}`, rec.Body.String())
	mAPI.AssertExpectations(t)
}

func TestAPIServer_MethodNotAllowed(t *testing.T) {
	mAPI := &MockBrokerAPI{}

	rec := serveAPI(t, mAPI, http.MethodGet, APIPathPublish, "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	mAPI.AssertExpectations(t)
}

func TestAPIServer_Serve(t *testing.T) {
	server, err := NewAPIServer(APIServerParams{API: &MockBrokerAPI{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ctx, "127.0.0.1:0")
	}()

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

// TestAPIClient_AgainstGateway runs the client against the real router and
// gateway, with only the MQTT connection mocked.
func TestAPIClient_AgainstGateway(t *testing.T) {
	mMQTT := &MockAppMQTTClient{}

	gateway, err := application.NewBrokerGateway(application.BrokerGatewayParams{
		NewMQTTClient: func(brokerURL string) application.MQTTClient {
			assert.Equal(t, "tcp://localhost:1883", brokerURL)
			return mMQTT
		},
	})
	require.NoError(t, err)

	server, err := NewAPIServer(APIServerParams{API: gateway})
	require.NoError(t, err)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	client, err := NewAPIClient(APIClientParams{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx := context.Background()

	err = client.Publish(ctx, "room/1", "early")
	require.Error(t, err)
	assert.Equal(t, "not connected", application.StatusText(err, ""))

	mMQTT.On("Connect").Return(nil).Once()
	mMQTT.On("IsConnected").Return(true)
	require.NoError(t, client.Connect(ctx, "localhost:1883"))

	mMQTT.On("Subscribe", "room/1", byte(0), mock.Anything).Run(func(args mock.Arguments) {
		handler := args.Get(2).(func(msg application.MQTTMessage))
		handler(testMessage{topic: "room/1", payload: []byte("from broker")})
	}).Return(nil).Once()
	topics, err := client.Subscribe(ctx, "room/1")
	require.NoError(t, err)
	assert.Equal(t, []string{"room/1"}, topics)

	mMQTT.On("Publish", "room/1", byte(0), false, []byte(" hello ")).Return(nil).Once()
	require.NoError(t, client.Publish(ctx, "room/1", " hello "))

	logs, err := client.Logs(ctx)
	require.NoError(t, err)
	require.Len(t, logs.Sent, 1)
	assert.Equal(t, " hello ", logs.Sent[0].Payload)
	require.Len(t, logs.Received, 1)
	assert.Equal(t, "from broker", logs.Received[0].Payload)

	subscriptions, err := client.Subscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"room/1"}, subscriptions)

	mMQTT.AssertExpectations(t)
}
