package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "discord.log")

	log, closer, err := New(Options{Level: "debug", File: path, Console: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	playerLog := Component(log, "player")
	playerLog.Info().Str("guild", "g1").Msg("now playing")
	log.Trace().Msg("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !strings.Contains(console.String(), "now playing") {
		t.Fatalf("console = %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Fatal("trace line written at debug level")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log file is not JSON lines: %v\n%s", err, data)
	}
	if entry["component"] != "player" || entry["guild"] != "g1" || entry["level"] != "info" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewWithoutFile(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New(Options{Console: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug().Msg("below default level")
	if console.Len() != 0 {
		t.Fatalf("console = %q", console.String())
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
