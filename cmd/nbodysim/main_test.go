package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/nhuang-x/nbody-simulation/internal/physics"
)

func TestProgressLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := newProgressLogger(logger, 25)

	v := physics.NewView([]physics.Body{physics.New(0, 0, 0, 0, 1, "a")})
	for step := 0; step <= 25; step++ {
		p.OnStep(step, float64(step), v)
	}

	// every 2 steps plus the last one
	if n := strings.Count(buf.String(), "msg=progress"); n != 13 {
		t.Errorf("expected 13 progress lines, got %d:\n%s", n, buf.String())
	}
	if !strings.Contains(buf.String(), "step=25 of=25") {
		t.Errorf("missing final progress line:\n%s", buf.String())
	}
}

func TestProgressLoggerShortRun(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := newProgressLogger(logger, 3)

	v := physics.NewView(nil)
	for step := 0; step <= 3; step++ {
		p.OnStep(step, 0, v)
	}
	if n := strings.Count(buf.String(), "msg=progress"); n != 3 {
		t.Errorf("expected 3 progress lines, got %d", n)
	}
}
