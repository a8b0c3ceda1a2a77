package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
)

// WSConfig configures stream client behavior.
type WSConfig struct {
	// StreamEndpoint is the websocket URL of the new-listing stream.
	StreamEndpoint string
	// SnapshotEndpoint is the HTTP base URL of the per-token endpoint.
	SnapshotEndpoint string
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds a single read.
	ReadTimeout time.Duration
	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns the standard stream configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSFeed implements Feed over a websocket stream plus an HTTP snapshot
// endpoint. It reconnects with capped backoff and never surfaces
// transport errors to consumers of the token channel.
type WSFeed struct {
	cfg  WSConfig
	http *http.Client
	log  zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out  chan domain.Token
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSFeed connects to the stream endpoint and starts the reader and
// ping loops.
func NewWSFeed(ctx context.Context, cfg WSConfig, logger zerolog.Logger) (*WSFeed, error) {
	if cfg.ReconnectDelay == 0 {
		def := DefaultWSConfig()
		def.StreamEndpoint = cfg.StreamEndpoint
		def.SnapshotEndpoint = cfg.SnapshotEndpoint
		cfg = def
	}

	f := &WSFeed{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  logger.With().Str("component", "feed").Logger(),
		out:  make(chan domain.Token, 256),
		done: make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()
	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

func (f *WSFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.cfg.StreamEndpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	f.conn = conn
	return nil
}

// Tokens returns the new-listing stream.
func (f *WSFeed) Tokens() <-chan domain.Token {
	return f.out
}

// Snapshot fetches the current state of one token over HTTP.
func (f *WSFeed) Snapshot(ctx context.Context, address string) (*domain.Token, error) {
	u := fmt.Sprintf("%s/tokens/%s", f.cfg.SnapshotEndpoint, url.PathEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("token %s not found", address)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot status %d", resp.StatusCode)
	}

	var msg tokenMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return msg.toDomain()
}

// Recent fetches the feed's recently listed tokens.
func (f *WSFeed) Recent(ctx context.Context) ([]domain.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.SnapshotEndpoint+"/tokens/recent", nil)
	if err != nil {
		return nil, fmt.Errorf("build recent request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch recent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recent status %d", resp.StatusCode)
	}

	var msgs []tokenMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("decode recent: %w", err)
	}

	out := make([]domain.Token, 0, len(msgs))
	for i := range msgs {
		t, err := msgs[i].toDomain()
		if err != nil {
			f.log.Debug().Err(err).Msg("skipping malformed recent token")
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

// Close shuts the feed down and closes the token stream.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	close(f.out)
	return nil
}

// readLoop reads listing messages and pushes parsed tokens downstream.
// Parse failures and transport errors are logged and skipped; the loop
// reconnects with capped backoff.
func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	delay := f.cfg.ReconnectDelay
	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			if !f.reconnect(&delay) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			f.log.Warn().Err(err).Msg("stream read failed, reconnecting")
			f.connMu.Lock()
			f.conn.Close()
			f.conn = nil
			f.connMu.Unlock()
			continue
		}
		delay = f.cfg.ReconnectDelay

		token, err := parseToken(data)
		if err != nil {
			f.log.Debug().Err(err).Msg("skipping malformed listing")
			continue
		}

		select {
		case f.out <- *token:
		case <-f.done:
			return
		}
	}
}

// reconnect sleeps for the current backoff and re-dials. Returns false
// when the feed is shutting down.
func (f *WSFeed) reconnect(delay *time.Duration) bool {
	select {
	case <-f.done:
		return false
	case <-time.After(*delay):
	}

	*delay *= 2
	if *delay > f.cfg.MaxReconnectDelay {
		*delay = f.cfg.MaxReconnectDelay
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := f.connect(ctx); err != nil {
		f.log.Warn().Err(err).Dur("next_delay", *delay).Msg("reconnect failed")
		return true
	}

	f.log.Info().Msg("stream reconnected")
	return true
}

func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Debug().Err(err).Msg("ping failed")
				}
			}
			f.connMu.Unlock()
		}
	}
}

var _ Feed = (*WSFeed)(nil)
