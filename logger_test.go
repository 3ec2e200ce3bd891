package recolor

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestDefaultLoggerIsSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger enabled for %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	r := newFakeRenderer("legacy", 1)
	Migrate(&Adjustment{Name: "paint", LegacyRenderer: r})
	if !strings.Contains(buf.String(), "migrated legacy binding") {
		t.Errorf("log output = %q, want migration message", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}

func TestLoggerPropagatesToAccelerator(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() {
		SetLogger(orig)
		resetAccelerator()
	})
	resetAccelerator()

	before := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(before)
	m := &stubAccelerator{name: "logger-test"}
	if err := RegisterAccelerator(m); err != nil {
		t.Fatal(err)
	}
	if m.logger != before {
		t.Error("RegisterAccelerator did not pass the current logger")
	}

	after := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(after)
	if m.logger != after {
		t.Error("SetLogger did not propagate to the registered accelerator")
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("concurrent read")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}
