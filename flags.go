package main

import (
	"time"

	"blynk-telemetry/config"

	"github.com/urfave/cli/v2"
)

var FlagConfig = &cli.StringFlag{
	Name:     "config",
	Usage:    "path to a yaml config file, watched for log level changes",
	EnvVars:  []string{"CONFIG"},
	Required: false,
}

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

var FlagMQTTUrl = &cli.StringFlag{
	Name:     "mqtt-url",
	Usage:    "ws://broker:port or tcp://broker:port",
	EnvVars:  []string{"MQTT_URL"},
	Required: false,
}

var FlagMQTTClientID = &cli.StringFlag{
	Name:     "mqtt-client-id",
	Usage:    "random when empty",
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

var FlagMQTTConnectTimeout = &cli.DurationFlag{
	Name:     "mqtt-connect-timeout",
	EnvVars:  []string{"MQTT_CONNECT_TIMEOUT"},
	Required: false,
}

var FlagMQTTReconnectPeriod = &cli.DurationFlag{
	Name:     "mqtt-reconnect-period",
	EnvVars:  []string{"MQTT_RECONNECT_PERIOD"},
	Required: false,
}

var FlagReportInterval = &cli.DurationFlag{
	Name:     "report-interval",
	EnvVars:  []string{"REPORT_INTERVAL"},
	Required: false,
}

var FlagTopic = &cli.StringFlag{
	Name:     "topic",
	Usage:    "topic to publish on, defaults to the test topic",
	Required: false,
}

var FlagPayload = &cli.StringFlag{
	Name:     "payload",
	Required: true,
}

var FlagWait = &cli.DurationFlag{
	Name:     "wait",
	Usage:    "how long to wait for the broker before giving up",
	Value:    10 * time.Second,
	Required: false,
}

// applyFlags overrides file configuration with explicitly set flags.
func applyFlags(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet(FlagLogLevel.Name) {
		cfg.Logger.Level = ctx.String(FlagLogLevel.Name)
	}
	if ctx.IsSet(FlagLogWriter.Name) {
		cfg.Logger.Writer = ctx.String(FlagLogWriter.Name)
	}
	if ctx.IsSet(FlagMQTTUrl.Name) {
		cfg.MQTT.Broker = ctx.String(FlagMQTTUrl.Name)
	}
	if ctx.IsSet(FlagMQTTClientID.Name) {
		cfg.MQTT.ClientID = ctx.String(FlagMQTTClientID.Name)
	}
	if ctx.IsSet(FlagMQTTUsername.Name) {
		cfg.MQTT.Username = ctx.String(FlagMQTTUsername.Name)
	}
	if ctx.IsSet(FlagMQTTPassword.Name) {
		cfg.MQTT.Password = ctx.String(FlagMQTTPassword.Name)
	}
	if ctx.IsSet(FlagMQTTConnectTimeout.Name) {
		cfg.MQTT.ConnectTimeout = ctx.Duration(FlagMQTTConnectTimeout.Name)
	}
	if ctx.IsSet(FlagMQTTReconnectPeriod.Name) {
		cfg.MQTT.ReconnectPeriod = ctx.Duration(FlagMQTTReconnectPeriod.Name)
	}
	if ctx.IsSet(FlagReportInterval.Name) {
		cfg.Telemetry.ReportInterval = ctx.Duration(FlagReportInterval.Name)
	}
}
