package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/pepe/internal/outcome"
)

func sampleReport() Report {
	a := NewAggregator(10)
	for i := 0; i < 9; i++ {
		a.Record(outcome.Outcome{StatusCode: 200, Bytes: 1024,
			Timing: outcome.Timing{Total: time.Duration(i+1) * 10 * time.Millisecond}})
	}
	a.Record(outcome.Outcome{Err: outcome.ErrKindTimeout,
		Timing: outcome.Timing{Total: time.Second}})
	return a.Finalize(false)
}

func TestReportText(t *testing.T) {
	text := sampleReport().Text()

	for _, want := range []string{
		"Summary",
		"Requests:       10/10",
		"[200] 9 responses",
		"[timeout] 1",
		"P50",
		"P99",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "partial") {
		t.Error("complete run rendered as partial")
	}
}

func TestReportTextPartialAndEmpty(t *testing.T) {
	a := NewAggregator(100)
	report := a.Finalize(true)

	text := report.Text()
	if !strings.Contains(text, "partial") {
		t.Error("cancelled run not labeled partial")
	}
	if !strings.Contains(text, "Error rate:     n/a") {
		t.Errorf("empty run should report n/a rates:\n%s", text)
	}
}

func TestReportExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := sampleReport().Export(path); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc["completed"].(float64) != 10 {
		t.Errorf("completed = %v, want 10", doc["completed"])
	}
	if _, ok := doc["percentiles"].(map[string]any)["p99"]; !ok {
		t.Error("export missing p99 percentile")
	}
}

func TestReportExportYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := sampleReport().Export(path); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var doc struct {
		Completed  int            `yaml:"completed"`
		ErrorKinds map[string]int `yaml:"error_kinds"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if doc.Completed != 10 {
		t.Errorf("completed = %d, want 10", doc.Completed)
	}
	if doc.ErrorKinds["timeout"] != 1 {
		t.Errorf("error_kinds = %v, want timeout: 1", doc.ErrorKinds)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512b"},
		{2048, "2.00kb"},
		{3 << 20, "3.00mb"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
