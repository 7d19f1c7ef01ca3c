// Package app assembles the schedule service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	apischedule "github.com/kilianp07/kgc/api/schedule"
	"github.com/kilianp07/kgc/config"
	"github.com/kilianp07/kgc/core/history"
	coremetrics "github.com/kilianp07/kgc/core/metrics"
	coremon "github.com/kilianp07/kgc/core/monitoring"
	"github.com/kilianp07/kgc/core/schedule"
	"github.com/kilianp07/kgc/infra/logger"
	"github.com/kilianp07/kgc/infra/metrics"
	"github.com/kilianp07/kgc/infra/monitoring"
	"github.com/kilianp07/kgc/infra/mqtt"
	"github.com/kilianp07/kgc/internal/eventbus"
	"github.com/kilianp07/kgc/source"
)

// Service orchestrates loading, the HTTP API and the optional sinks.
type Service struct {
	cfg       *config.Config
	Store     *schedule.Store
	Refresher *Refresher

	bus      *eventbus.Bus
	sink     coremetrics.MetricsSink
	monitor  coremon.Monitor
	history  history.Store
	mqtt     *mqtt.PahoClient
	notifier *mqtt.Notifier
	hub      *apischedule.Hub
	handler  http.Handler
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	loader, err := source.NewLoader(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	vis, err := cfg.Columns.Visibility()
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}

	s := &Service{cfg: cfg, Store: schedule.NewStore(), bus: eventbus.New(), sink: sink, monitor: mon, log: log}
	s.Refresher = NewRefresher(loader, s.Store, s.bus, logger.New("refresher"))

	if cfg.History.Enabled {
		if s.history, err = history.Open(cfg.History); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = s.closeHistory()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = client
		s.notifier = mqtt.NewNotifier(client, cfg.MQTT.TopicPrefix, logger.New("mqtt_notifier"))
	}
	if cfg.Live.Enabled {
		s.hub = apischedule.NewHub(s.Store, cfg.Live.Buffer,
			time.Duration(cfg.Live.PingIntervalSeconds)*time.Second, cfg.Server.AllowedOrigins, logger.New("live"))
	}

	h := apischedule.NewHandler(apischedule.Options{
		Store:       s.Store,
		Visibility:  vis,
		History:     s.history,
		Reloader:    s.Refresher,
		Bus:         s.bus,
		Hub:         s.hub,
		ReloadToken: cfg.Server.ReloadToken,
		Logger:      logger.New("api"),
	})
	s.handler = apischedule.NewRouter(h, apischedule.RouterOptions{
		Mode:           cfg.Server.Mode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger.New("http"),
	})
	return s, nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler { return s.handler }

// Run starts the subscribers, the refresh loop and the servers, and blocks
// until the context is canceled or a server fails.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// subscribers attach before the first load so they see it
	var done []<-chan struct{}
	done = append(done, metrics.StartEventCollector(ctx, s.bus, s.sink))
	done = append(done, coremon.StartReporter(ctx, s.bus, s.monitor, s.sourceLabel()))
	if s.history != nil {
		done = append(done, history.StartRecorder(ctx, s.bus, s.history, logger.New("history")))
	}
	if s.notifier != nil {
		done = append(done, s.notifier.Start(ctx, s.bus))
	}
	if s.hub != nil {
		done = append(done, s.hub.Start(ctx, s.bus))
	}

	g.Go(func() error {
		defer s.monitor.Recover()
		return s.Refresher.Run(ctx, s.cfg.Source.RefreshInterval())
	})
	g.Go(func() error {
		return s.serveHTTP(ctx)
	})
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		g.Go(func() error {
			return metrics.StartPromServer(ctx, addr)
		})
	}
	err := g.Wait()
	for _, d := range done {
		<-d
	}
	return err
}

// sourceLabel names the schedule origin in error reports.
func (s *Service) sourceLabel() string {
	if s.cfg.Source.Mode == source.ModeFile {
		return s.cfg.Source.Path
	}
	u, err := url.Parse(s.cfg.Source.URL)
	if err != nil {
		return s.cfg.Source.URL
	}
	// query strings may carry credentials
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

func (s *Service) serveHTTP(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
		<-errCh
		return nil
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	s.monitor.Flush(2 * time.Second)
	return s.closeHistory()
}

func (s *Service) closeHistory() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}
