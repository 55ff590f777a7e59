// Package app wires configuration, storage, tides, metrics and notifications
// into a running slot engine.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/haulplan/api/booking"
	"github.com/kilianp07/haulplan/config"
	"github.com/kilianp07/haulplan/core/engine"
	"github.com/kilianp07/haulplan/core/events"
	coremetrics "github.com/kilianp07/haulplan/core/metrics"
	corestore "github.com/kilianp07/haulplan/core/store"
	"github.com/kilianp07/haulplan/infra/logger"
	"github.com/kilianp07/haulplan/infra/metrics"
	"github.com/kilianp07/haulplan/infra/mqtt"
	"github.com/kilianp07/haulplan/infra/noaa"
	"github.com/kilianp07/haulplan/infra/store"
	"github.com/kilianp07/haulplan/internal/eventbus"
)

// Service holds the engine and everything it depends on.
type Service struct {
	Engine *engine.Engine
	Repo   corestore.Repository
	Tides  *noaa.CachedProvider

	cfg      *config.Config
	bus      *eventbus.Bus[events.JobEvent]
	sink     coremetrics.MetricsSink
	notifier *mqtt.Notifier
	log      logger.Logger
	done     []<-chan struct{}
	closeMu  sync.Mutex
	closed   bool
}

// New builds a Service from the configuration. The repository is opened and
// the MQTT connection established; nothing is served until Run.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log := logger.New("service")

	repo, err := store.Open(ctx, cfg.Store, logger.New("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var remote noaa.Remote
	if !cfg.Tides.Offline {
		remote = noaa.NewClient(cfg.Tides.BaseURL, cfg.Tides.Application, cfg.Tides.Timeout())
	}
	tides := noaa.NewCachedProvider(cfg.Tides.DataDir, remote, logger.New("tides"))

	sink, err := metrics.NewSink(cfg.Metrics, nil, logger.New("metrics"))
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	var notifier *mqtt.Notifier
	if cfg.MQTT.Enabled {
		if notifier, err = mqtt.NewNotifier(cfg.MQTT, logger.New("mqtt")); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
	}

	bus := eventbus.New[events.JobEvent]()
	eng, err := engine.New(cfg.Engine, repo, tides, logger.New("engine"), sink, bus)
	if err != nil {
		bus.Close()
		_ = repo.Close()
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Service{
		Engine:   eng,
		Repo:     repo,
		Tides:    tides,
		cfg:      cfg,
		bus:      bus,
		sink:     sink,
		notifier: notifier,
		log:      log,
	}, nil
}

// Start launches the job event consumers: the metrics collector and, when
// configured, the MQTT notifier. They run until ctx is done or Close drains
// the bus.
func (s *Service) Start(ctx context.Context) {
	s.done = append(s.done, metrics.StartEventCollector(ctx, s.bus, s.sink))
	if s.notifier != nil {
		s.done = append(s.done, s.notifier.Start(ctx, s.bus))
	}
}

// Run computes the current season's ideal days, starts the event consumers,
// the metrics endpoint and the booking API, then blocks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	year := time.Now().UTC().Year()
	if err := s.Engine.Init(ctx, year); err != nil {
		s.log.Warnf("ideal days for %d: %v", year, err)
	}
	s.Start(ctx)

	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, logger.New("prometheus")); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	h := booking.NewHandler(s.Engine, s.Repo, logger.New("api"))
	if err := booking.Serve(ctx, s.cfg.API.Addr, h, logger.New("api")); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Close releases resources held by the service. It is safe to call twice.
func (s *Service) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.bus.Close()
	for _, d := range s.done {
		<-d
	}
	if s.notifier != nil {
		s.notifier.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	if d := s.bus.Dropped(); d > 0 {
		s.log.Warnf("%d job events dropped by slow consumers", d)
	}
	return s.Repo.Close()
}
