package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	if err := SetupWriter(&buf, "warn", "json"); err != nil {
		t.Fatal(err)
	}
	log.Info().Msg("hidden")
	log.Warn().Str("file", "sales.csv").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["message"] != "shown" || entry["file"] != "sales.csv" || entry["level"] != "warn" {
		t.Fatalf("entry: %v", entry)
	}
}

func TestSetupConsole(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	if err := SetupWriter(&buf, "DEBUG", ""); err != nil {
		t.Fatal(err)
	}
	log.Debug().Msg("details")
	if !strings.Contains(buf.String(), "details") {
		t.Fatalf("console output: %q", buf.String())
	}
}

func TestSetupRejectsUnknown(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	if err := SetupWriter(&buf, "loud", "json"); err == nil {
		t.Fatal("expected level error")
	}
	if err := SetupWriter(&buf, "info", "xml"); err == nil {
		t.Fatal("expected format error")
	}
}
