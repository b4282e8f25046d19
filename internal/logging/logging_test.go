package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "debug", "json")

	log.Debug().Str("user_id", "user-1").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output: %v (%q)", err, buf.String())
	}
	if entry["user_id"] != "user-1" || entry["message"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSetupWriterLevelFallback(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "loud", "console")
	if log.Logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info level fallback, got %v", log.Logger.GetLevel())
	}

	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug output should be filtered")
	}
}
