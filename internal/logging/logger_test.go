package logging_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/json-iterator/go"

	"mineardmg/internal/config"
	"mineardmg/internal/logging"
	"mineardmg/internal/services"
)

func TestConsoleHandlerHeader(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "pipeline")
	logger.Info("item processed",
		logging.String(logging.FieldHash, "3f2a9c1e0b7d44aa9911aabbccddeeff00112233"),
		logging.Int(logging.FieldWorker, 2),
		logging.String(logging.FieldStage, "encode"),
		logging.String("note", "two words"),
	)

	line := buf.String()
	for _, want := range []string{
		" INFO pipeline [3f2a9c1e w2]: item processed",
		"stage=encode",
		`note="two words"`,
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "hash=") {
		t.Fatalf("hash should be lifted into the header: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line leaked at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("expected warn line: %q", buf.String())
	}
}

func TestJSONHandlerKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", logging.String(logging.FieldRunID, "run-1"))

	var payload map[string]any
	if err := jsoniter.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v (%q)", err, buf.String())
	}
	if payload["msg"] != "hello" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %v", payload)
	}
	if payload[logging.FieldRunID] != "run-1" {
		t.Fatalf("unexpected run id: %v", payload[logging.FieldRunID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "mineardmg.log")
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Info("written to file")

	data, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-9")
	ctx = services.WithHash(ctx, "abcdef")
	ctx = services.WithStage(ctx, "fetch")
	ctx = services.WithWorker(ctx, 4)
	logging.WithContext(ctx, logger).Info("ctx")

	out := buf.String()
	for _, want := range []string{`"run_id":"run-9"`, `"hash":"abcdef"`, `"stage":"fetch"`, `"worker":4`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logging.WarnWithContext(logger, "sound skipped", "item_failed",
		logging.String(logging.FieldImpact, "sound missing from pack"),
		logging.Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{`"event_type":"item_failed"`, `"error_hint":"check logs for details"`, `"impact":"sound missing from pack"`, `"error":"boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
	if strings.Count(out, `"impact"`) != 1 {
		t.Fatalf("impact should not be duplicated: %s", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 100) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.ErrorWithContext(nil, "ignored", "none")
}
