package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandlerLine(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelInfo}, false)

	r := slog.NewRecord(time.Date(2026, 8, 1, 12, 30, 45, 0, time.UTC), slog.LevelInfo, "http.request", 0)
	r.AddAttrs(
		slog.String("method", "get"),
		slog.Int("status", 200),
		slog.String("status_class", "2xx"),
		slog.Int64("duration_ms", 12),
		slog.String("user_agent", "curl/8.0 (test)"),
	)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}

	line := sb.String()
	for _, want := range []string{
		"ts=12:30:45.000",
		"lvl=[INFO]",
		"msg=http.request",
		"method=GET",
		"status=200",
		"class=2xx",
		"duration=12ms",
		`user_agent="curl/8.0 (test)"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("colorless handler emitted ANSI codes: %q", line)
	}
}

func TestPrettyHandlerHonorsLevelAndGroups(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	base := newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelWarn}, false)

	if base.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be filtered at warn level")
	}

	h := base.WithGroup("req").WithAttrs([]slog.Attr{slog.String("id", "abc")})
	r := slog.NewRecord(time.Now(), slog.LevelWarn, "slow", 0)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(sb.String(), "req.id=abc") {
		t.Fatalf("grouped attr missing: %q", sb.String())
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":            `""`,
		"plain":       "plain",
		"two words":   `"two words"`,
		`has"quote`:   `"has\"quote"`,
		"key=value":   `"key=value"`,
		"/auth/login": "/auth/login",
	}
	for in, want := range cases {
		if got := quoteIfNeeded(in); got != want {
			t.Fatalf("quoteIfNeeded(%q)=%q want %q", in, got, want)
		}
	}
}

func TestLevelTag(t *testing.T) {
	t.Parallel()

	cases := map[slog.Level]string{
		slog.LevelDebug: "[DEBUG]",
		slog.LevelInfo:  "[INFO]",
		slog.LevelWarn:  "[WARN]",
		slog.LevelError: "[ERROR]",
	}
	for level, want := range cases {
		if got := levelTag(level, false); got != want {
			t.Fatalf("levelTag(%v)=%q want %q", level, got, want)
		}
		colored := levelTag(level, true)
		if stripANSI(colored) != want {
			t.Fatalf("colored levelTag(%v)=%q strips to %q want %q", level, colored, stripANSI(colored), want)
		}
	}
}
