package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/pepe/internal/outcome"
)

// Percentile is one rung of the latency distribution ladder.
type Percentile struct {
	P     int
	Value time.Duration
}

// Snapshot is an immutable point-in-time copy of the aggregate state.
// Snapshots are value types: cloned freely, discarded after render.
type Snapshot struct {
	Total     int
	Sent      int
	Completed int
	Success   int
	Failed    int
	Errors    int
	Timeouts  int

	ErrorKinds  map[outcome.ErrorKind]int
	StatusCodes map[int]int

	CacheHits    int
	CacheMisses  int
	CacheUnknown int

	Bytes       int64
	BytesPerSec float64

	Elapsed time.Duration
	RPS     float64

	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	Median time.Duration
	P90    time.Duration
	P95    time.Duration
	P99    time.Duration

	Percentiles []Percentile

	AvgDNSLookup time.Duration

	ErrorRate    float64
	CacheHitRate float64

	Done      bool
	Cancelled bool
}

// Progress returns completion as a fraction in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// Remaining returns how many requests have not completed yet.
func (s Snapshot) Remaining() int {
	if s.Completed > s.Total {
		return 0
	}
	return s.Total - s.Completed
}

// Report is the final, frozen view of a run. Partial marks runs truncated
// by cancellation; the statistics still reflect every recorded outcome.
type Report struct {
	Snapshot
	Partial  bool
	Duration time.Duration
}

// Write renders the human-readable report.
func (r Report) Write(w io.Writer) error {
	var b strings.Builder

	title := "Summary"
	if r.Partial {
		title = "Summary (partial run)"
	}
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "  Requests:       %d/%d completed in %s\n", r.Completed, r.Total, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "  Success:        %d\n", r.Success)
	fmt.Fprintf(&b, "  Failed (non-2xx): %d\n", r.Failed)
	fmt.Fprintf(&b, "  Errors:         %d (timeouts: %d)\n", r.Errors, r.Timeouts)
	fmt.Fprintf(&b, "  Error rate:     %s\n", rate(r.ErrorRate, r.Completed))
	fmt.Fprintf(&b, "  Cache hit rate: %s\n", rate(r.CacheHitRate, r.Completed))
	fmt.Fprintf(&b, "  Requests/sec:   %.2f\n", r.RPS)
	fmt.Fprintf(&b, "  Data:           %s (%s/s)\n", formatBytes(r.Bytes), formatBytes(int64(r.BytesPerSec)))

	if r.Completed > 0 {
		fmt.Fprintf(&b, "\nLatency\n")
		fmt.Fprintf(&b, "  Min:    %s\n", formatMs(r.Min))
		fmt.Fprintf(&b, "  Mean:   %s\n", formatMs(r.Mean))
		fmt.Fprintf(&b, "  StdDev: %s\n", formatMs(r.StdDev))
		fmt.Fprintf(&b, "  Max:    %s\n", formatMs(r.Max))
		fmt.Fprintf(&b, "\nDistribution\n")
		for _, p := range r.Percentiles {
			fmt.Fprintf(&b, "  P%-3d %s\n", p.P, formatMs(p.Value))
		}
	}

	if len(r.StatusCodes) > 0 {
		fmt.Fprintf(&b, "\nStatus codes\n")
		codes := make([]int, 0, len(r.StatusCodes))
		for c := range r.StatusCodes {
			codes = append(codes, c)
		}
		sort.Ints(codes)
		for _, c := range codes {
			fmt.Fprintf(&b, "  [%d] %d responses\n", c, r.StatusCodes[c])
		}
	}

	if len(r.ErrorKinds) > 0 {
		fmt.Fprintf(&b, "\nErrors\n")
		for _, k := range []outcome.ErrorKind{
			outcome.ErrKindTimeout, outcome.ErrKindConnect, outcome.ErrKindTLS,
			outcome.ErrKindDNS, outcome.ErrKindTransport, outcome.ErrKindOther,
		} {
			if n := r.ErrorKinds[k]; n > 0 {
				fmt.Fprintf(&b, "  [%s] %d\n", k, n)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Text returns the rendered report as a string.
func (r Report) Text() string {
	var b strings.Builder
	r.Write(&b) // strings.Builder never fails
	return b.String()
}

// reportDoc is the machine-readable export shape. Maps are re-keyed to
// strings so JSON and YAML renderings look the same.
type reportDoc struct {
	Partial      bool               `json:"partial" yaml:"partial"`
	DurationMs   float64            `json:"duration_ms" yaml:"duration_ms"`
	Total        int                `json:"total" yaml:"total"`
	Sent         int                `json:"sent" yaml:"sent"`
	Completed    int                `json:"completed" yaml:"completed"`
	Success      int                `json:"success" yaml:"success"`
	Failed       int                `json:"failed" yaml:"failed"`
	Errors       int                `json:"errors" yaml:"errors"`
	ErrorKinds   map[string]int     `json:"error_kinds,omitempty" yaml:"error_kinds,omitempty"`
	StatusCodes  map[string]int     `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	ErrorRate    float64            `json:"error_rate" yaml:"error_rate"`
	CacheHitRate float64            `json:"cache_hit_rate" yaml:"cache_hit_rate"`
	RPS          float64            `json:"requests_per_sec" yaml:"requests_per_sec"`
	Bytes        int64              `json:"bytes" yaml:"bytes"`
	MinMs        float64            `json:"min_ms" yaml:"min_ms"`
	MeanMs       float64            `json:"mean_ms" yaml:"mean_ms"`
	StdDevMs     float64            `json:"stddev_ms" yaml:"stddev_ms"`
	MaxMs        float64            `json:"max_ms" yaml:"max_ms"`
	Percentiles  map[string]float64 `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`
	AvgDNSMs     float64            `json:"avg_dns_lookup_ms" yaml:"avg_dns_lookup_ms"`
}

func (r Report) doc() reportDoc {
	doc := reportDoc{
		Partial:      r.Partial,
		DurationMs:   ms(r.Duration),
		Total:        r.Total,
		Sent:         r.Sent,
		Completed:    r.Completed,
		Success:      r.Success,
		Failed:       r.Failed,
		Errors:       r.Errors,
		ErrorRate:    r.ErrorRate,
		CacheHitRate: r.CacheHitRate,
		RPS:          r.RPS,
		Bytes:        r.Bytes,
		MinMs:        ms(r.Min),
		MeanMs:       ms(r.Mean),
		StdDevMs:     ms(r.StdDev),
		MaxMs:        ms(r.Max),
		AvgDNSMs:     ms(r.AvgDNSLookup),
	}
	if len(r.ErrorKinds) > 0 {
		doc.ErrorKinds = make(map[string]int, len(r.ErrorKinds))
		for k, v := range r.ErrorKinds {
			doc.ErrorKinds[k.String()] = v
		}
	}
	if len(r.StatusCodes) > 0 {
		doc.StatusCodes = make(map[string]int, len(r.StatusCodes))
		for c, v := range r.StatusCodes {
			doc.StatusCodes[fmt.Sprintf("%d", c)] = v
		}
	}
	if len(r.Percentiles) > 0 {
		doc.Percentiles = make(map[string]float64, len(r.Percentiles))
		for _, p := range r.Percentiles {
			doc.Percentiles[fmt.Sprintf("p%d", p.P)] = ms(p.Value)
		}
	}
	return doc
}

// Export writes the report to path; the format follows the file extension
// (.json, .yaml/.yml, anything else gets the text rendering).
func (r Report) Export(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(r.doc(), "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r.doc())
	default:
		data = []byte(r.Text())
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// rate renders a fraction as a percentage, or n/a before any completion.
func rate(v float64, completed int) string {
	if completed == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func formatMs(d time.Duration) string {
	return fmt.Sprintf("%.2fms", ms(d))
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2fmb", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2fkb", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%db", n)
	}
}
