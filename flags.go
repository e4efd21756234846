package main

import (
	"mqtt-console/adapters"
	"mqtt-console/application"

	"github.com/urfave/cli/v2"
)

var FlagLogLevel = &cli.StringFlag{
	Name:     "log-level",
	EnvVars:  []string{"LOG_LEVEL"},
	Value:    "info",
	Required: false,
}

var FlagLogWriter = &cli.StringFlag{
	Name:     "log-writer",
	Usage:    "one of: [console, json]",
	EnvVars:  []string{"LOG_WRITER"},
	Value:    "console",
	Required: false,
}

var FlagLogFile = &cli.StringFlag{
	Name:     "log-file",
	Usage:    "file the console writes its logs to",
	EnvVars:  []string{"LOG_FILE"},
	Value:    "mqtt-console.log",
	Required: false,
}

var FlagListen = &cli.StringFlag{
	Name:     "listen",
	Usage:    "address the api server listens on",
	EnvVars:  []string{"LISTEN"},
	Value:    ":5000",
	Required: false,
}

var FlagStaticDir = &cli.StringFlag{
	Name:     "static-dir",
	Usage:    "directory served at / next to the api",
	EnvVars:  []string{"STATIC_DIR"},
	Required: false,
}

var FlagLogLimit = &cli.IntFlag{
	Name:     "log-limit",
	Usage:    "sent and received messages kept per log",
	EnvVars:  []string{"LOG_LIMIT"},
	Value:    application.DefaultLogLimit,
	Required: false,
}

var FlagMQTTClientID = &cli.StringFlag{
	Name:     "mqtt-client-id",
	Usage:    "generated when empty",
	EnvVars:  []string{"MQTT_CLIENT_ID"},
	Required: false,
}

var FlagMQTTUsername = &cli.StringFlag{
	Name:     "mqtt-username",
	EnvVars:  []string{"MQTT_USERNAME"},
	Required: false,
}

var FlagMQTTPassword = &cli.StringFlag{
	Name:     "mqtt-password",
	EnvVars:  []string{"MQTT_PASSWORD"},
	Required: false,
}

var FlagDemoBroker = &cli.StringFlag{
	Name:     "demo-broker",
	Usage:    "tcp://broker:port to feed with test messages",
	EnvVars:  []string{"DEMO_BROKER"},
	Required: false,
}

var FlagDemoTopic = &cli.StringFlag{
	Name:     "demo-topic",
	EnvVars:  []string{"DEMO_TOPIC"},
	Value:    application.DemoDefaultTopic,
	Required: false,
}

var FlagDemoInterval = &cli.DurationFlag{
	Name:     "demo-interval",
	EnvVars:  []string{"DEMO_INTERVAL"},
	Value:    application.DemoDefaultInterval,
	Required: false,
}

var FlagAPIURL = &cli.StringFlag{
	Name:     "api-url",
	Usage:    "http://host:port of the api server",
	EnvVars:  []string{"API_URL"},
	Value:    "http://localhost:5000",
	Required: false,
}

var FlagAPITimeout = &cli.DurationFlag{
	Name:     "api-timeout",
	EnvVars:  []string{"API_TIMEOUT"},
	Value:    adapters.APIDefaultTimeout,
	Required: false,
}

var FlagLogPollInterval = &cli.DurationFlag{
	Name:     "log-poll-interval",
	EnvVars:  []string{"LOG_POLL_INTERVAL"},
	Value:    application.DefaultLogPollInterval,
	Required: false,
}

var FlagBroker = &cli.StringFlag{
	Name:     "broker",
	Usage:    "broker:port",
	EnvVars:  []string{"BROKER"},
	Required: false,
}

var FlagTopic = &cli.StringFlag{
	Name:     "topic",
	EnvVars:  []string{"TOPIC"},
	Required: true,
}

var FlagMessage = &cli.StringFlag{
	Name:     "message",
	EnvVars:  []string{"MESSAGE"},
	Required: true,
}

var FlagInterval = &cli.IntFlag{
	Name:     "interval",
	Usage:    "seconds between messages, 0 publishes once",
	EnvVars:  []string{"INTERVAL"},
	Value:    0,
	Required: false,
}
