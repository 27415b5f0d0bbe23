package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriterLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWriterLogger("info", &buf)

	lg.Debug("hidden debug line")
	lg.Info("visible info line")

	out := buf.String()
	if strings.Contains(out, "hidden debug line") {
		t.Fatalf("debug record written at info level: %s", out)
	}
	if !strings.Contains(out, "visible info line") {
		t.Fatalf("expected info record in output, got %q", out)
	}
}

func TestInfoWithFieldsWritesFields(t *testing.T) {
	var buf bytes.Buffer
	prev := Log
	t.Cleanup(func() { Log = prev })

	Init("debug", &buf)
	InfoWithFields("job completed", Fields{"job_id": "job-42"})

	out := buf.String()
	if !strings.Contains(out, "job completed") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "job-42") {
		t.Fatalf("expected job_id field in output, got %q", out)
	}
}
