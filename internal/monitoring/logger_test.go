package monitoring

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	defaultLogf("frame %d processed", 7)
	if !strings.Contains(buf.String(), "frame 7 processed") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestComponentAndLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	defer SetLevel(zerolog.DebugLevel)

	SetLevel(zerolog.WarnLevel)
	log := Component("pipeline")
	log.Info().Msg("hidden")
	log.Warn().Int("objects", 3).Msg("force-closed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "force-closed") || !strings.Contains(out, "pipeline") {
		t.Errorf("expected component warn line, got %q", out)
	}
}
