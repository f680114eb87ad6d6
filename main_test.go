package main

import (
	"testing"
	"time"

	"blynk-telemetry/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestApplyFlags(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			applyFlags(ctx, cfg)
			return nil
		},
	}

	err = app.Run([]string{"blynk-telemetry",
		"--mqtt-url", "tcp://broker:1883",
		"--mqtt-username", "sensor",
		"--mqtt-reconnect-period", "7s",
		"--log-writer", "json",
	})
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "sensor", cfg.MQTT.Username)
	assert.Equal(t, 7*time.Second, cfg.MQTT.ReconnectPeriod)
	assert.Equal(t, "json", cfg.Logger.Writer)
	// not set on the command line
	assert.Equal(t, 30*time.Second, cfg.MQTT.ConnectTimeout)
}

func TestTelemetryTopics(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	topics := telemetryTopics(cfg)
	assert.Equal(t, []string{"blynk/temp", "blynk/humi", "blynk/rssid", "blynk/checkStatus"}, topics.List())
}
