package application

import "context"

type MessageLogEntry struct {
	Topic   string    `json:"topic"`
	Payload string    `json:"payload"`
	Time    Timestamp `json:"time"`
}

type MessageLog struct {
	Sent     []MessageLogEntry `json:"sent"`
	Received []MessageLogEntry `json:"received"`
}

// BrokerAPI is the HTTP contract served under /api. Implementations return
// *ServerError for reported failures and *NetworkError for everything that
// did not produce a parsable response.
type BrokerAPI interface {
	Connect(ctx context.Context, broker string) error
	Publish(ctx context.Context, topic, message string) error
	Subscribe(ctx context.Context, topic string) ([]string, error)
	Subscriptions(ctx context.Context) ([]string, error)
	Logs(ctx context.Context) (MessageLog, error)
}
