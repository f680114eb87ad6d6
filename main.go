package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"blynk-telemetry/adapters"
	"blynk-telemetry/application"
	"blynk-telemetry/config"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v2"
)

var Flags = []cli.Flag{
	FlagConfig,
	FlagLogLevel,
	FlagLogWriter,
	FlagMQTTUrl,
	FlagMQTTClientID,
	FlagMQTTUsername,
	FlagMQTTPassword,
	FlagMQTTConnectTimeout,
	FlagMQTTReconnectPeriod,
	FlagReportInterval,
}

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	var cfg *config.Config

	runAction := func(ctx *cli.Context) error {
		logger.Info().Msg("service starting...")

		appCtx := signalContext(logger.WithContext(context.Background()), logger)

		store := application.NewStateStore()
		router, err := application.NewMessageRouter(application.MessageRouterParams{
			Topics: telemetryTopics(cfg),
			Sink:   store,
			Log:    logger.With().Str("module", "router").Logger(),
		})
		if err != nil {
			return err
		}

		mqttClient := newMQTTClient(cfg, logger, router.Handle)

		telemetryService, err := application.NewTelemetryService(application.TelemetryServiceParams{
			MQTTClient:     mqttClient,
			Sink:           store,
			Topics:         application.Topics(application.QoSAtMostOnce, telemetryTopics(cfg).List()...),
			ReportInterval: cfg.Telemetry.ReportInterval,
			Log:            logger.With().Str("module", "telemetry").Logger(),
		})
		if err != nil {
			return err
		}

		var wg conc.WaitGroup
		var runErr error

		wg.Go(func() {
			states, stop := store.Watch()
			defer stop()
			for {
				select {
				case <-appCtx.Done():
					return
				case state := <-states:
					logger.Info().Str("telemetry", state.String()).Msg("state")
				}
			}
		})

		logger.Info().Msg("service started")
		wg.Go(func() {
			runErr = telemetryService.Run(appCtx)
		})
		wg.Wait()

		if runErr != nil {
			return runErr
		}

		logger.Info().Msg("service terminating...")
		return nil
	}

	publish := func(ctx *cli.Context, topic, payload string) error {
		appCtx := signalContext(logger.WithContext(context.Background()), logger)

		mqttClient := newMQTTClient(cfg, logger, nil)
		gateway, err := application.NewControlGateway(application.ControlGatewayParams{
			MQTTClient:   mqttClient,
			ControlTopic: cfg.Telemetry.ControlTopic,
			TestTopic:    cfg.Telemetry.TestTopic,
			Log:          logger.With().Str("module", "gateway").Logger(),
		})
		if err != nil {
			return err
		}

		mqttClient.Connect()
		defer mqttClient.Close()

		if err := application.WaitConnected(appCtx, mqttClient, ctx.Duration(FlagWait.Name)); err != nil {
			return fmt.Errorf("broker %s: %w", cfg.MQTT.Broker, err)
		}

		if topic == "" {
			topic = cfg.Telemetry.TestTopic
		}
		return gateway.Publish(topic, payload)
	}

	app := cli.App{
		Name:    "blynk-telemetry",
		Usage:   "live telemetry over mqtt",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			var err error
			cfg, err = config.Load(ctx.String(FlagConfig.Name))
			if err != nil {
				return err
			}
			applyFlags(ctx, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			var logWriter io.Writer
			if cfg.Logger.Writer == "console" {
				logWriter = zerolog.ConsoleWriter{
					Out:        os.Stderr,
					TimeFormat: time.RFC3339Nano,
				}
			} else if cfg.Logger.Writer == "json" {
				logWriter = os.Stderr
			} else {
				return fmt.Errorf("invalid log writer: %s", cfg.Logger.Writer)
			}

			logger = zerolog.New(logWriter).With().Timestamp().
				Str("service", "blynk-telemetry").
				Str("module", "main").
				Logger()

			level, err := zerolog.ParseLevel(cfg.Logger.Level)
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(level)
			adapters.SetPahoLogger(logger.With().Str("module", "paho").Logger())

			if path := ctx.String(FlagConfig.Name); path != "" {
				config.Watch(path, 2*time.Second, func(newCfg *config.Config) {
					level, err := zerolog.ParseLevel(newCfg.Logger.Level)
					if err != nil {
						logger.Warn().Err(err).Msg("ignoring invalid log level")
						return
					}
					zerolog.SetGlobalLevel(level)
					logger.Info().Str("level", level.String()).Msg("log level reloaded")
				}, func(err error) {
					logger.Warn().Err(err).Msg("failed to reload config")
				})
			}

			return nil
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "stream telemetry until interrupted",
				Action: runAction,
			},
			{
				Name:  "publish",
				Usage: "publish one message and exit",
				Flags: []cli.Flag{FlagTopic, FlagPayload, FlagWait},
				Action: func(ctx *cli.Context) error {
					return publish(ctx, ctx.String(FlagTopic.Name), ctx.String(FlagPayload.Name))
				},
			},
			{
				Name:      "control",
				Usage:     "switch the remote output",
				ArgsUsage: "on|off",
				Flags:     []cli.Flag{FlagWait},
				Action: func(ctx *cli.Context) error {
					switch strings.ToLower(ctx.Args().First()) {
					case "on":
						return publish(ctx, cfg.Telemetry.ControlTopic, application.PayloadOn)
					case "off":
						return publish(ctx, cfg.Telemetry.ControlTopic, application.PayloadOff)
					default:
						return fmt.Errorf("expected on or off, got %q", ctx.Args().First())
					}
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("service terminated")
		os.Exit(1)
	}
}

func signalContext(parent context.Context, logger zerolog.Logger) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		<-c

		logger.Warn().Msg("interrupt signal received")
		cancel()
	}()
	return ctx
}

func telemetryTopics(cfg *config.Config) application.TelemetryTopics {
	return application.TelemetryTopics{
		Temp:        cfg.Telemetry.TempTopic,
		Humi:        cfg.Telemetry.HumiTopic,
		Rssid:       cfg.Telemetry.RssidTopic,
		CheckStatus: cfg.Telemetry.CheckStatusTopic,
	}
}

func newMQTTClient(cfg *config.Config, logger zerolog.Logger, onMessage application.MessageHandler) *adapters.MQTTClient {
	return adapters.NewMQTTClient(adapters.MQTTClientParams{
		ClientID:        cfg.MQTT.ResolvedClientID(),
		Username:        cfg.MQTT.Username,
		Password:        cfg.MQTT.Password,
		MQTTUrl:         cfg.MQTT.Broker,
		ConnectTimeout:  cfg.MQTT.ConnectTimeout,
		ReconnectPeriod: cfg.MQTT.ReconnectPeriod,
		KeepAlive:       cfg.MQTT.KeepAlive,
		OnMessage:       onMessage,
		Log:             logger.With().Str("module", "mqtt-client").Logger(),
	})
}
