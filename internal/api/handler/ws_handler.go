package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/infrastructure/broadcast"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Observers only listen; inbound frames are control traffic.
	maxInboundSize = 512
)

// Subscriber registers observer sessions on the broadcast hub.
type Subscriber interface {
	Subscribe(userID string) *broadcast.Subscription
}

// BroadcastHandler upgrades observers onto the broadcast channel.
type BroadcastHandler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewBroadcastHandler(hub Subscriber, log zerolog.Logger) *BroadcastHandler {
	return &BroadcastHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Serve handles GET /ws.
//
// @Summary      Subscribe to position_updated events
// @Description  Websocket upgrade. Each frame is {"event":"position_updated","data":{userId,name,coordinates,timestamp}}.
// @Tags         broadcast
// @Param        token  query  string  false  "Bearer token when the Authorization header cannot be set"
// @Success      101
// @Failure      401  {object}  errorResponse
// @Router       /ws [get]
func (h *BroadcastHandler) Serve(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn().Err(err).Str("user_id", caller.UserID).Msg("websocket upgrade failed")
		return nil
	}

	sub := h.hub.Subscribe(caller.UserID)
	log := h.log.With().Str("session_id", sub.ID).Str("user_id", caller.UserID).Logger()
	log.Info().Msg("observer connected")

	readDone := make(chan struct{})
	go h.readPump(conn, readDone)
	h.writePump(conn, sub, readDone, log)

	sub.Close()
	_ = conn.Close()
	log.Info().Msg("observer disconnected")
	return nil
}

// readPump drains inbound frames so pongs and close frames are processed.
func (h *BroadcastHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *BroadcastHandler) writePump(conn *websocket.Conn, sub *broadcast.Subscription, readDone <-chan struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-sub.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case frame := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Err(err).Msg("observer write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
