package adapters

import "mqtt-console/application"

const (
	APIPathConnect       = "/api/connect"
	APIPathPublish       = "/api/publish"
	APIPathSubscribe     = "/api/subscribe"
	APIPathSubscriptions = "/api/subscriptions"
	APIPathLogs          = "/api/logs"
)

type ConnectRequest struct {
	Broker string `json:"broker"`
}

type PublishRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

type SubscribeRequest struct {
	Topic string `json:"topic"`
}

// APIResponse is the envelope of every /api response. The server writes the
// narrower TopicsResponse and LogsResponse so that empty lists stay in the
// payload.
type APIResponse struct {
	OK     bool                    `json:"ok"`
	Error  string                  `json:"error,omitempty"`
	Topics []string                `json:"topics,omitempty"`
	Logs   *application.MessageLog `json:"logs,omitempty"`
}

type TopicsResponse struct {
	OK     bool     `json:"ok"`
	Topics []string `json:"topics"`
}

type LogsResponse struct {
	OK   bool                   `json:"ok"`
	Logs application.MessageLog `json:"logs"`
}
