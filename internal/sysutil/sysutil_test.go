package sysutil

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"  DeBuG  ": zerolog.DebugLevel,
		"info":      zerolog.InfoLevel,
		"":          zerolog.InfoLevel,
		"warn":      zerolog.WarnLevel,
		"Warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"fatal":     zerolog.FatalLevel,
		"panic":     zerolog.PanicLevel,
		"trace":     zerolog.InfoLevel,
		"disabled":  zerolog.InfoLevel,
		"verbose":   zerolog.InfoLevel,
	} {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestDNTAndCountryHeaders(t *testing.T) {
	for v, want := range map[string]bool{
		"1": true, " yes ": true, "On": true, "TRUE": true, "y": true,
		"": false, "0": false, "null": false, "unspecified": false,
	} {
		if got := IsTruthy(v); got != want {
			t.Errorf("IsTruthy(%q) = %v", v, got)
		}
	}

	for _, tc := range []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{" ", "\t"}, ""},
		{[]string{"", "  DE  ", "FR"}, "DE"},
		{[]string{"US", "DE"}, "US"},
	} {
		if got := FirstNonEmpty(tc.in...); got != tc.want {
			t.Errorf("FirstNonEmpty(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(&buf, false)
	lg.Info().Str("link_id", "abc123").Msg("visit")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not a JSON line %q: %v", buf.String(), err)
	}
	if line["link_id"] != "abc123" || line["message"] != "visit" || line["time"] == nil {
		t.Fatalf("fields = %v", line)
	}

	buf.Reset()
	pretty := NewLogger(&buf, true)
	pretty.Info().Msg("visit")
	if out := strings.TrimSpace(buf.String()); strings.HasPrefix(out, "{") || !strings.Contains(out, "visit") {
		t.Fatalf("console output = %q", out)
	}
}

func TestSetupLogging(t *testing.T) {
	level, logger, ctxLogger := zerolog.GlobalLevel(), log.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
		zerolog.DefaultContextLogger = ctxLogger
	})

	SetupLogging("warning", false)
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Fatalf("level = %v", zerolog.GlobalLevel())
	}
	if zerolog.DefaultContextLogger != &log.Logger {
		t.Fatalf("zerolog.Ctx fallback not installed")
	}
}
