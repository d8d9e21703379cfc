package recovery

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRecoverToValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	v, err := RecoverToValue(logger, "divide", func() (int, error) {
		var m map[string]int
		m["boom"] = 1
		return 1, nil
	})
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if v != 0 {
		t.Errorf("expected zero value, got %d", v)
	}
	if !strings.Contains(buf.String(), "operation=divide") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}

	v, err = RecoverToValue(nil, "ok", func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Errorf("expected 42, nil; got %d, %v", v, err)
	}

	sentinel := errors.New("plain")
	if _, err := RecoverToValue(nil, "plain", func() (int, error) { return 0, sentinel }); err != sentinel {
		t.Errorf("expected passthrough error, got %v", err)
	}

	_, err = RecoverToValue(nil, "explode", func() (string, error) { panic("boom") })
	if !errors.Is(err, ErrPanic) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("unexpected error: %v", err)
	}
}
