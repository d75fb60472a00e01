// Package observer is the client side of the broadcast channel. A Client keeps
// one websocket session open, re-dials with the shared bounded policy and asks
// the caller to resynchronise after every (re)connect, since events published
// while disconnected are never replayed.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// ErrGaveUp is returned by Run when the reconnection policy is exhausted.
var ErrGaveUp = errors.New("observer: reconnection attempts exhausted")

// Config describes the broadcast endpoint and credential.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8080/ws.
	URL    string
	Token  string
	Policy Policy
	// HandshakeTimeout bounds each dial.
	HandshakeTimeout time.Duration
	// ReadTimeout is how long the session may stay silent (no frame, no
	// ping) before it is treated as dead. The server pings every 54s.
	ReadTimeout time.Duration
}

const defaultReadTimeout = 70 * time.Second

// Client is a reconnecting observer session.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	log    zerolog.Logger

	// OnConnect runs after every successful handshake. Use it to re-query
	// latest positions; a returned error is logged only.
	OnConnect func(ctx context.Context) error
	// OnEvent receives each position_updated event in arrival order.
	OnEvent func(domain.PositionUpdated)
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Policy == (Policy{}) {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		log: log,
	}
}

// Run keeps the session alive until ctx is cancelled (returns nil) or the
// policy gives up after consecutive failures (returns ErrGaveUp). A
// successful connect resets the policy.
func (c *Client) Run(ctx context.Context) error {
	policy := c.cfg.Policy.NewBackOff()
	attempt := 0

	for {
		conn, err := c.dial(ctx)
		if err == nil {
			policy.Reset()
			attempt = 0
			c.log.Info().Str("url", c.cfg.URL).Msg("observer connected")
			c.resync(ctx)

			err = c.readLoop(ctx, conn)
			if ctx.Err() != nil {
				return nil
			}
			c.log.Warn().Err(err).Msg("observer disconnected")
		} else if ctx.Err() != nil {
			return nil
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			return fmt.Errorf("%w after %d attempts: %v", ErrGaveUp, attempt, err)
		}
		attempt++
		c.log.Info().
			Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("observer reconnecting")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", c.cfg.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	return conn, nil
}

func (c *Client) resync(ctx context.Context) {
	if c.OnConnect == nil {
		return
	}
	if err := c.OnConnect(ctx); err != nil {
		c.log.Error().Err(err).Msg("observer resync failed")
	}
}

// readLoop returns when the connection breaks or ctx is cancelled.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()
	defer conn.Close()

	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	conn.SetPingHandler(func(data string) error {
		if err := extend(); err != nil {
			return err
		}
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	if err := extend(); err != nil {
		return err
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := extend(); err != nil {
			return err
		}

		var env domain.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			c.log.Warn().Err(err).Msg("observer ignored malformed frame")
			continue
		}
		if env.Event != domain.EventPositionUpdated {
			continue
		}
		if c.OnEvent != nil {
			c.OnEvent(env.Data)
		}
	}
}
