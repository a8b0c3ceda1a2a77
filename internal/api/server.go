// Package api is the read-side boundary: HTTP endpoints over stored
// state plus a WebSocket stream of bus events. No business logic lives
// here.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/events"
	"evo-trader/internal/monitor"
	"evo-trader/internal/observability"
	"evo-trader/internal/storage"
	"evo-trader/internal/treasury"
)

// Server runs the HTTP/WebSocket API.
type Server struct {
	hub      *Hub
	handlers *Handlers
	bus      *events.Bus
	server   *http.Server
	log      zerolog.Logger

	stop chan struct{}
}

// NewServer creates a new API server listening on addr.
func NewServer(
	addr string,
	bus *events.Bus,
	strategies storage.StrategyStore,
	trades storage.TradeStore,
	cycles storage.CycleStore,
	manager *treasury.Manager,
	mon *monitor.Monitor,
	scheduler Trigger,
	logger zerolog.Logger,
) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(strategies, trades, cycles, manager, mon, scheduler, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/api/strategies", handlers.HandleStrategies)
	mux.HandleFunc("/api/trades", handlers.HandleTrades)
	mux.HandleFunc("/api/positions", handlers.HandlePositions)
	mux.HandleFunc("/api/treasury", handlers.HandleTreasury)
	mux.HandleFunc("/api/cycles", handlers.HandleCycles)
	mux.HandleFunc("/api/evolution/trigger", handlers.HandleEvolutionTrigger)
	mux.HandleFunc("/ws", handlers.HandleWebSocket)
	mux.Handle("/metrics", observability.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		hub:      hub,
		handlers: handlers,
		bus:      bus,
		server:   server,
		log:      logger.With().Str("component", "api-server").Logger(),
		stop:     make(chan struct{}),
	}
}

// Start runs the hub, the bus consumer, and the HTTP listener. Blocks
// until the listener exits.
func (s *Server) Start() error {
	go s.hub.Run()
	go s.consumeEvents()

	s.log.Info().Str("addr", s.server.Addr).Msg("api server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.log.Info().Msg("stopping api server")
	close(s.stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// consumeEvents subscribes to the full bus stream and forwards every
// event to the hub.
func (s *Server) consumeEvents() {
	sub := s.bus.Subscribe(256, events.TopicAll)
	defer sub.Close()

	for {
		select {
		case <-s.stop:
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			s.hub.BroadcastEvent(evt)
		}
	}
}
