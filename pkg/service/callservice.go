package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/livekit/livekit-callcore/pkg/config"
	"github.com/livekit/livekit-callcore/pkg/rtc"
	"github.com/livekit/livekit-callcore/pkg/rtc/transport"
	"github.com/livekit/livekit-callcore/pkg/rtc/types"
	"github.com/livekit/livekit-callcore/pkg/telemetry"
	"github.com/livekit/protocol/logger"
)

const (
	capabilitiesRetryInterval = 2 * time.Second
	shutdownTimeout           = 5 * time.Second
)

// CallService wires the call registry to the conversation server and the media transports.
type CallService struct {
	conf       *config.Config
	logger     logger.Logger
	telemetry  telemetry.TelemetryService
	client     *ConversationClient
	registry   *rtc.Registry
	fetcher    types.CapabilityFetcher
	promServer *http.Server

	lock    sync.Mutex
	running bool
	cancel  context.CancelFunc
	stopped bool
}

func NewCallService(conf *config.Config, listener types.CallListener) (*CallService, error) {
	l := logger.GetLogger()
	self := conf.Self.MemberInfo()

	client := NewConversationClient(ConversationClientParams{
		URL:                      conf.Signal.URL,
		Token:                    conf.Signal.Token,
		Self:                     self,
		Dialer:                   websocket.DefaultDialer,
		RequestTimeout:           conf.Transport.RequestTimeout,
		InitialReconnectInterval: conf.Transport.InitialReconnectInterval,
		MaxReconnectInterval:     conf.Transport.MaxReconnectInterval,
		Logger:                   l,
	})

	factory := transport.NewFactory(transport.FactoryParams{
		Signaller:                client,
		Dialer:                   websocket.DefaultDialer,
		RequestTimeout:           conf.Transport.RequestTimeout,
		MaxReconnectAttempts:     conf.Transport.MaxReconnectAttempts,
		InitialReconnectInterval: conf.Transport.InitialReconnectInterval,
		MaxReconnectInterval:     conf.Transport.MaxReconnectInterval,
		Logger:                   l.WithComponent("transport"),
	})

	tel := telemetry.NewTelemetryService(listener, l)
	registry, err := rtc.NewRegistry(rtc.RegistryParams{
		Self:       self,
		SelfName:   conf.Self.Name,
		Config:     conf,
		Sender:     client,
		Transports: factory,
		Telemetry:  tel,
		Logger:     l,
	})
	if err != nil {
		tel.Stop()
		client.Close()
		return nil, err
	}
	client.OnCallSignal(registry.Receive)

	s := &CallService{
		conf:      conf,
		logger:    l,
		telemetry: tel,
		client:    client,
		registry:  registry,
		fetcher: NewHTTPCapabilityFetcher(HTTPCapabilityFetcherParams{
			URL:    conf.Transport.CapabilitiesURL,
			Token:  conf.Signal.Token,
			Static: conf.Capabilities(),
			Logger: l,
		}),
	}
	if conf.PrometheusPort > 0 {
		s.promServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.PrometheusPort),
			Handler: promhttp.Handler(),
		}
	}
	return s, nil
}

// Registry is the call control surface for the host application.
func (s *CallService) Registry() *rtc.Registry {
	return s.registry
}

func (s *CallService) IsRunning() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.running
}

// Start runs until ctx is done or Stop is called.
func (s *CallService) Start(ctx context.Context) error {
	s.lock.Lock()
	if s.running || s.stopped {
		s.lock.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.lock.Unlock()

	s.logger.Infow("starting call service",
		"userID", s.conf.Self.UserID,
		"clientID", s.conf.Self.ClientID,
		"signalURL", s.conf.Signal.URL,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.client.Run(ctx)
	})
	g.Go(func() error {
		return s.fetchCapabilities(ctx)
	})
	if s.promServer != nil {
		ln, err := net.Listen("tcp", s.promServer.Addr)
		if err != nil {
			s.Stop()
			return err
		}
		g.Go(func() error {
			s.logger.Infow("serving metrics", "address", s.promServer.Addr)
			if err := s.promServer.Serve(ln); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return s.Stop()
	})

	return g.Wait()
}

// fetchCapabilities retries until the registry is ready, buffering call signals meanwhile.
func (s *CallService) fetchCapabilities(ctx context.Context) error {
	for {
		err := s.registry.Start(ctx, s.fetcher)
		if err == nil {
			s.logger.Infow("call registry ready")
			return nil
		}
		s.logger.Warnw("media capabilities unavailable", err, "retryIn", capabilitiesRetryInterval)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(capabilitiesRetryInterval):
		}
	}
}

// Stop ends every call, telling the remote sides, then disconnects. Safe to call repeatedly.
func (s *CallService) Stop() error {
	s.lock.Lock()
	if s.stopped {
		s.lock.Unlock()
		return nil
	}
	s.stopped = true
	s.running = false
	cancel := s.cancel
	s.lock.Unlock()

	s.logger.Infow("stopping call service")
	s.registry.Close()
	s.client.Close()
	s.telemetry.Stop()
	if cancel != nil {
		cancel()
	}

	var err error
	if s.promServer != nil {
		ctx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		err = multierr.Append(err, s.promServer.Shutdown(ctx))
	}
	return err
}
