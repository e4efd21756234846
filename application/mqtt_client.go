package application

import "time"

type MQTTStatus struct {
	MessageCount      uint64
	LastTimePublished time.Time
	Connected         bool
}

type MQTTMessage interface {
	Topic() string
	Payload() []byte
}

type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, msg any) error
	Subscribe(topic string, qos byte, handler func(msg MQTTMessage)) error

	Connect() error
	Disconnect()
	IsConnected() bool
	Status() MQTTStatus
}

// MQTTClientFactory builds a client for brokerURL without connecting it.
type MQTTClientFactory func(brokerURL string) MQTTClient
