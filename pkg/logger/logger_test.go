package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "ledger-test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithField(context.Background(), "scan", "full")
	ctx = logg.WithItemKey(ctx, "p-1", "w-1")
	logg.Info(ctx, "pass complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%s)", err, buf.String())
	}
	if entry["service"] != "ledger-test" {
		t.Fatalf("missing service field: %v", entry)
	}
	if entry["scan"] != "full" || entry["product_id"] != "p-1" || entry["warehouse_id"] != "w-1" {
		t.Fatalf("context fields not propagated: %v", entry)
	}
	if entry["message"] != "pass complete" {
		t.Fatalf("unexpected message: %v", entry)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "ledger-test", Level: zerolog.WarnLevel, Output: &buf})

	logg.Info(context.Background(), "should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level: %s", buf.String())
	}

	logg.Warn(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatal("warn should be emitted")
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("debug level not parsed")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty level should default to info")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("unknown level should default to info")
	}
}
