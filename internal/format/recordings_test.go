package format

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"mcapedit/internal/store"
)

func sampleRecordings() []store.Recording {
	return []store.Recording{
		{
			Path:         "/data/b.mcap",
			SizeBytes:    2048,
			MessageCount: 20,
			TopicCount:   3,
			StartTime:    time.Date(2025, 10, 2, 9, 30, 0, 0, time.UTC),
			Duration:     45 * time.Second,
		},
		{
			Path:         "/data/a.mcap",
			SizeBytes:    1024,
			MessageCount: 10,
			TopicCount:   1,
			StartTime:    time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
			Duration:     90 * time.Second,
		},
	}
}

func TestWriteRecordingsPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecordings(&buf, sampleRecordings(), true, "plain"); err != nil {
		t.Fatalf("WriteRecordings plain returned error: %v", err)
	}

	expected := strings.Join([]string{
		"start_time\tduration\tmessage_count\ttopic_count\tsize_bytes\tpath",
		"2025-10-02T09:30:00Z\t00:00:45.000\t20\t3\t2048\t/data/b.mcap",
		"2025-10-01T12:00:00Z\t00:01:30.000\t10\t1\t1024\t/data/a.mcap",
	}, "\n") + "\n"

	if got := buf.String(); got != expected {
		t.Fatalf("plain output mismatch:\nexpected: %q\nactual:   %q", expected, got)
	}
}

func TestWriteRecordingsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecordings(&buf, sampleRecordings(), true, "table"); err != nil {
		t.Fatalf("WriteRecordings table returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "DURATION") || !strings.Contains(out, "2.0 kB") {
		t.Fatalf("table missing expected content:\n%s", out)
	}

	buf.Reset()
	if err := WriteRecordings(&buf, nil, true, "table"); err != nil {
		t.Fatalf("WriteRecordings returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "(no recordings)") {
		t.Fatalf("empty listing should say so:\n%s", buf.String())
	}
}

func TestWriteRecordingsJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecordings(&buf, sampleRecordings(), false, "jsonl"); err != nil {
		t.Fatalf("WriteRecordings jsonl returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"path":"/data/b.mcap"`) || !strings.Contains(lines[0], `"duration_ns":45000000000`) {
		t.Fatalf("unexpected jsonl: %q", lines)
	}
	if err := WriteRecordings(&buf, nil, false, "xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
