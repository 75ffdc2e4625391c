package app

import (
	"context"
	"fmt"

	"github.com/fieldserve/dispatch/app/plugins"
	"github.com/fieldserve/dispatch/config"
	"github.com/fieldserve/dispatch/core/assign"
	"github.com/fieldserve/dispatch/core/factory"
	"github.com/fieldserve/dispatch/core/geo"
	"github.com/fieldserve/dispatch/core/intake"
	"github.com/fieldserve/dispatch/core/rating"
	"github.com/fieldserve/dispatch/core/recommend"
	"github.com/fieldserve/dispatch/core/roster"
	"github.com/fieldserve/dispatch/core/storage"
	"github.com/fieldserve/dispatch/infra/logger"
	"github.com/fieldserve/dispatch/infra/memstore"
	"github.com/fieldserve/dispatch/infra/metrics"
	"github.com/fieldserve/dispatch/infra/notify"
	"github.com/fieldserve/dispatch/internal/eventbus"
)

// Service wires the dispatch core together: storage, the recommendation
// engine, the assignment state machine and the supporting services.
type Service struct {
	Intake      *intake.Service
	Recommender *recommend.Engine
	Assignments *assign.StateMachine
	Reassigner  *assign.ReassignmentWorkflow
	Ratings     *rating.Service
	Roster      *roster.Service
	Store       storage.Store

	bus         eventbus.EventBus
	notifier    *notify.Notifier
	log         logger.Logger
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")

	promEnabled := cfg.Metrics.PrometheusEnabled
	promPort := cfg.Metrics.PrometheusPort
	metricsConf, err := factory.Encode(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics config: %w", err)
	}
	var sinkCfgs []factory.ModuleConfig
	if promEnabled {
		sinkCfgs = append(sinkCfgs, factory.ModuleConfig{Type: "prometheus", Conf: metricsConf})
	}
	if cfg.Metrics.InfluxEnabled {
		sinkCfgs = append(sinkCfgs, factory.ModuleConfig{Type: "influx", Conf: metricsConf})
	}
	sink, err := plugins.NewSink(sinkCfgs...)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store := memstore.New()
	bus := eventbus.New()
	estimator := geo.SpeedEstimator{AvgSpeedKmh: cfg.Recommend.AvgSpeedKmh}
	geocoder, err := plugins.NewGeocoder(cfg.Geocoder)
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}

	svc := &Service{
		Intake:      intake.NewService(store, geocoder, logger.New("intake")),
		Recommender: recommend.NewEngine(store, cfg.Recommend, estimator, logger.New("recommend"), sink),
		Assignments: assign.NewStateMachine(store, bus, logger.New("assign"), sink),
		Reassigner:  assign.NewReassignmentWorkflow(store, bus, logger.New("reassign"), sink),
		Ratings:     rating.NewService(store, logger.New("rating"), sink),
		Roster:      roster.NewService(store, logger.New("roster")),
		Store:       store,
		bus:         bus,
		log:         logg,
		promEnabled: promEnabled,
		promPort:    promPort,
	}

	if cfg.Notify.Enabled {
		notifier, err := notify.New(cfg.Notify, logger.New("notify"))
		if err != nil {
			return nil, fmt.Errorf("notifier: %w", err)
		}
		svc.notifier = notifier
	}
	return svc, nil
}

// Run starts the background consumers and blocks until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.notifier != nil {
		go s.notifier.Run(ctx, s.bus.Subscribe())
	}
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("dispatch service started")
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.notifier != nil {
		s.notifier.Close()
	}
	return nil
}
