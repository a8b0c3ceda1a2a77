package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
	"evo-trader/internal/events"
	"evo-trader/internal/monitor"
	"evo-trader/internal/storage"
	"evo-trader/internal/treasury"
)

// Trigger requests a manual evolution cycle. Returns false when one is
// already pending.
type Trigger interface {
	TriggerNow() bool
}

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	strategies storage.StrategyStore
	trades     storage.TradeStore
	cycles     storage.CycleStore
	manager    *treasury.Manager
	monitor    *monitor.Monitor
	scheduler  Trigger
	hub        *Hub
	log        zerolog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	strategies storage.StrategyStore,
	trades storage.TradeStore,
	cycles storage.CycleStore,
	manager *treasury.Manager,
	mon *monitor.Monitor,
	scheduler Trigger,
	hub *Hub,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		strategies: strategies,
		trades:     trades,
		cycles:     cycles,
		manager:    manager,
		monitor:    mon,
		scheduler:  scheduler,
		hub:        hub,
		log:        logger.With().Str("component", "api-handlers").Logger(),
	}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleStrategies returns the population, optionally filtered by status.
func (h *Handlers) HandleStrategies(w http.ResponseWriter, r *http.Request) {
	var (
		list []*domain.StrategyGenome
		err  error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		list, err = h.strategies.GetByStatus(r.Context(), status)
	} else {
		list, err = h.strategies.GetAll(r.Context())
	}
	if err != nil {
		h.serverError(w, err, "list strategies")
		return
	}
	h.writeJSON(w, list)
}

// HandleTrades returns trade history. ?strategy_id= filters by owner,
// ?open=true restricts to open trades.
func (h *Handlers) HandleTrades(w http.ResponseWriter, r *http.Request) {
	var (
		list []*domain.Trade
		err  error
	)
	switch {
	case r.URL.Query().Get("open") == "true":
		list, err = h.trades.GetOpen(r.Context())
	case r.URL.Query().Get("strategy_id") != "":
		list, err = h.trades.GetByStrategy(r.Context(), r.URL.Query().Get("strategy_id"))
	default:
		list, err = h.trades.GetAll(r.Context())
	}
	if err != nil {
		h.serverError(w, err, "list trades")
		return
	}
	h.writeJSON(w, list)
}

// HandlePositions returns the monitor's live position set.
func (h *Handlers) HandlePositions(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, h.monitor.Positions())
}

// HandleTreasury returns the current treasury snapshot.
func (h *Handlers) HandleTreasury(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, h.manager.Snapshot())
}

// HandleCycles returns evolution history. ?generation= selects one.
func (h *Handlers) HandleCycles(w http.ResponseWriter, r *http.Request) {
	if genStr := r.URL.Query().Get("generation"); genStr != "" {
		gen, err := strconv.Atoi(genStr)
		if err != nil {
			http.Error(w, "invalid generation", http.StatusBadRequest)
			return
		}
		cycle, err := h.cycles.GetByGeneration(r.Context(), gen)
		if err != nil {
			if err == storage.ErrNotFound {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			h.serverError(w, err, "get cycle")
			return
		}
		h.writeJSON(w, cycle)
		return
	}

	list, err := h.cycles.GetAll(r.Context())
	if err != nil {
		h.serverError(w, err, "list cycles")
		return
	}
	h.writeJSON(w, list)
}

// HandleEvolutionTrigger requests an immediate evolution cycle.
func (h *Handlers) HandleEvolutionTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	queued := h.scheduler.TriggerNow()
	h.writeJSON(w, map[string]bool{"queued": queued})
}

// HandleWebSocket upgrades the connection and registers a stream client.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h.hub, conn)

	// Send an initial treasury snapshot so the client renders state
	// before the first live event.
	evt := events.Event{Kind: events.KindTreasuryUpdated, Payload: h.manager.Snapshot()}
	if data, err := json.Marshal(evt); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handlers) serverError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
