package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/infrastructure/broadcast"
)

func TestBroadcastHandler_DeliversPositionUpdates(t *testing.T) {
	hub := broadcast.NewHub(8, zerolog.Nop())
	defer hub.Close()

	e := echo.New()
	withCaller := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", "maria")
			c.Set("role", domain.RoleManager)
			return next(c)
		}
	}
	e.GET("/ws", NewBroadcastHandler(hub, zerolog.Nop()).Serve, withCaller)

	srv := httptest.NewServer(e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("observer never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	evt := domain.PositionUpdated{UserID: "alice", Name: "Alice", Coordinates: domain.Point{Lon: 2.35, Lat: 48.85}, Timestamp: time.Now().UTC()}
	if err := hub.Broadcast(context.Background(), evt); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env struct {
		Event string `json:"event"`
		Data  struct {
			UserID      string    `json:"userId"`
			Coordinates []float64 `json:"coordinates"`
		} `json:"data"`
	}
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Event != "position_updated" || env.Data.UserID != "alice" || env.Data.Coordinates[0] != 2.35 {
		t.Fatalf("unexpected frame: %s", frame)
	}

	_ = conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session not released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBroadcastHandler_RequiresCaller(t *testing.T) {
	hub := broadcast.NewHub(1, zerolog.Nop())
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := NewBroadcastHandler(hub, zerolog.Nop()).Serve(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if hub.Count() != 0 {
		t.Fatalf("unauthenticated request subscribed")
	}
}
