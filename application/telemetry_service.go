package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultReportInterval = 30 * time.Second

type TelemetryService interface {
	Run(ctx context.Context) error
}

type TelemetryServiceParams struct {
	MQTTClient MQTTClient
	Sink       StateSink

	// Topics are (re)requested on every transition to connected. The client
	// registry makes repeated requests free of wire traffic.
	Topics []Subscription

	ReportInterval time.Duration

	Log zerolog.Logger
}

type telemetryService struct {
	params TelemetryServiceParams

	log zerolog.Logger
}

func NewTelemetryService(params TelemetryServiceParams) (TelemetryService, error) {
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	if params.Sink == nil {
		return nil, fmt.Errorf("Sink is nil")
	}
	if params.ReportInterval <= 0 {
		params.ReportInterval = DefaultReportInterval
	}
	return &telemetryService{params: params, log: params.Log}, nil
}

func (t telemetryService) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	states, stopWatching := t.params.MQTTClient.WatchState()
	defer stopWatching()

	t.params.MQTTClient.Connect()
	defer t.params.MQTTClient.Close()

	// connection state follower
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case state, ok := <-states:
				if !ok {
					return nil
				}
				t.onState(state)
			}
		}
	})

	// status reporter
	g.Go(func() error {
		ticker := time.NewTicker(t.params.ReportInterval)
		defer ticker.Stop()

		lastStatus := MQTTStatus{}
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				newStatus := t.params.MQTTClient.Status()
				t.log.Info().
					Uint64("received", newStatus.ReceivedCount-lastStatus.ReceivedCount).
					Uint64("published", newStatus.MessageCount-lastStatus.MessageCount).
					Int("subscriptions", newStatus.Subscriptions).
					Str("state", newStatus.State.String()).
					Time("last_time_published", newStatus.LastTimePublished).
					Msg("telemetry report")
				lastStatus = newStatus
			}
		}
	})

	return g.Wait()
}

func (t telemetryService) onState(state ConnectionState) {
	t.log.Info().Str("state", state.String()).Msg("connection state changed")
	t.params.Sink.SetConnected(state == StateConnected)

	if state != StateConnected || len(t.params.Topics) == 0 {
		return
	}
	if err := t.params.MQTTClient.Subscribe(t.params.Topics...); err != nil {
		t.log.Warn().Err(err).Msg("telemetry subscribe failed, waiting for next connect")
	}
}
