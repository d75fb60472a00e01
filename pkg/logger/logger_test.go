package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInit_StampsServiceAndFiltersLevel(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "warn", Output: &buf, Service: "agent"})

	log.Info().Msg("hidden")
	log.Warn().Str("user_id", "alice").Msg("visible")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected exactly one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "agent" || line["message"] != "visible" || line["user_id"] != "alice" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestInit_IsSingleton(t *testing.T) {
	Reset()
	defer Reset()

	var first, second bytes.Buffer
	Init(Options{Output: &first, Service: "api"})
	Init(Options{Output: &second, Service: "observer"})

	log := Get()
	log.Info().Msg("hello")
	if second.Len() != 0 || first.Len() == 0 {
		t.Fatalf("second Init must not replace the logger")
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"trace": "trace", "DEBUG": "debug", " warn ": "warn", "warning": "warn",
		"error": "error", "": "info", "bogus": "info",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestComponent_AddsField(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	Init(Options{Output: &buf, Service: "api"})
	log := Component("hub")
	log.Info().Msg("ready")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["component"] != "hub" || line["service"] != "api" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
