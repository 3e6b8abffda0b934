package app

import (
	"log/slog"
	"strconv"
	"testing"
)

func TestStripANSI(t *testing.T) {
	t.Parallel()

	in := ansiRed + "500" + ansiReset + " " + ansiDim + "12ms" + ansiReset
	if got := stripANSI(in); got != "500 12ms" {
		t.Fatalf("stripANSI=%q", got)
	}
	if got := stripANSI("no codes here"); got != "no codes here" {
		t.Fatalf("stripANSI must pass plain text through: %q", got)
	}
}

func TestColorizeOffReturnsInputVerbatim(t *testing.T) {
	t.Parallel()

	if got := colorizeHTTPMethod("DELETE", false); got != "DELETE" {
		t.Fatalf("method=%q", got)
	}
	if got := colorizeStatusCode(503, false); got != "503" {
		t.Fatalf("status=%q", got)
	}
	if got := colorizeStatusClass("5xx", false); got != "5xx" {
		t.Fatalf("class=%q", got)
	}
	if got := colorizeDurationMS(1500, false); got != "1500ms" {
		t.Fatalf("duration=%q", got)
	}
	if got := colorizeResult("server_error", false); got != "server_error" {
		t.Fatalf("result=%q", got)
	}
}

func TestColorizeOnWrapsWithoutMangling(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"} {
		got := colorizeHTTPMethod(method, true)
		if stripANSI(got) != method {
			t.Fatalf("method %q mangled: %q", method, got)
		}
	}
	for _, status := range []int{200, 301, 404, 500} {
		got := colorizeStatusCode(status, true)
		if stripANSI(got) != strconv.Itoa(status) {
			t.Fatalf("status %d mangled: %q", status, got)
		}
	}
}

func TestValueToInt64(t *testing.T) {
	t.Parallel()

	if n, ok := valueToInt64(slog.Int64Value(42)); !ok || n != 42 {
		t.Fatalf("int64: (%d,%v)", n, ok)
	}
	if n, ok := valueToInt64(slog.Uint64Value(7)); !ok || n != 7 {
		t.Fatalf("uint64: (%d,%v)", n, ok)
	}
	if n, ok := valueToInt64(slog.Float64Value(3.9)); !ok || n != 3 {
		t.Fatalf("float64: (%d,%v)", n, ok)
	}
	if _, ok := valueToInt64(slog.StringValue("12")); ok {
		t.Fatalf("strings must not convert")
	}
}
