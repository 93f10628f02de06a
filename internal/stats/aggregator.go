package stats

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/studiowebux/pepe/internal/outcome"
)

// PercentileLadder is the set of quantiles rendered in the dashboard's
// latency distribution and the exported report.
var PercentileLadder = []int{0, 10, 25, 50, 75, 90, 95, 99, 100}

// Aggregator is the single point of truth for run statistics. All outcomes
// are routed through one consumption loop (Run), so Record is never invoked
// concurrently; the mutex only guards against readers taking snapshots on
// the render tick.
type Aggregator struct {
	mu sync.Mutex

	start     time.Time
	total     int
	sent      int
	completed int
	success   int
	failed    int // responses outside 2xx
	errKinds  map[outcome.ErrorKind]int
	errCount  int

	bytes       int64
	statusCodes map[int]int
	cacheCats   map[outcome.CacheCategory]int

	// accumulator identity inputs, in milliseconds
	durSum   float64
	durSumSq float64
	durMin   time.Duration // -1 until the first sample
	durMax   time.Duration

	dnsSum   time.Duration
	dnsCount int

	samples []time.Duration

	finalized    bool
	cancelled    bool
	finalElapsed time.Duration
}

// NewAggregator creates an aggregator for a run of total requests.
func NewAggregator(total int) *Aggregator {
	return &Aggregator{
		start:       time.Now(),
		total:       total,
		errKinds:    make(map[outcome.ErrorKind]int),
		statusCodes: make(map[int]int),
		cacheCats:   make(map[outcome.CacheCategory]int),
		samples:     make([]time.Duration, 0, 1024),
		durMin:      -1,
	}
}

// Run consumes the engine's channels until the outcome channel closes.
// observer, when non-nil, receives every outcome after it has been
// recorded; the dashboard uses it to feed its recent-request ring.
func (a *Aggregator) Run(outcomes <-chan outcome.Outcome, sent <-chan int, observer func(outcome.Outcome)) {
	for outcomes != nil || sent != nil {
		select {
		case o, ok := <-outcomes:
			if !ok {
				outcomes = nil
				continue
			}
			a.Record(o)
			if observer != nil {
				observer(o)
			}
		case n, ok := <-sent:
			if !ok {
				sent = nil
				continue
			}
			a.AddSent(n)
		}
	}
}

// AddSent counts dispatched requests (they may not have completed yet).
func (a *Aggregator) AddSent(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return
	}
	a.sent += n
}

// Record folds one outcome into the running accumulators and the sample
// buffer. O(1) amortized.
func (a *Aggregator) Record(o outcome.Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized {
		return
	}

	a.completed++
	a.bytes += o.Bytes

	ms := float64(o.Timing.Total) / float64(time.Millisecond)
	a.durSum += ms
	a.durSumSq += ms * ms
	a.samples = append(a.samples, o.Timing.Total)

	if a.durMin < 0 || o.Timing.Total < a.durMin {
		a.durMin = o.Timing.Total
	}
	if o.Timing.Total > a.durMax {
		a.durMax = o.Timing.Total
	}

	if o.Timing.DNSLookup > 0 {
		a.dnsSum += o.Timing.DNSLookup
		a.dnsCount++
	}

	if o.OK() {
		a.statusCodes[o.StatusCode]++
		if o.Success() {
			a.success++
		} else {
			a.failed++
		}
	} else {
		a.errCount++
		a.errKinds[o.Err]++
	}

	if o.HasCache {
		a.cacheCats[o.Cache.Category()]++
	}
}

// Snapshot returns an immutable point-in-time copy of the aggregate state.
// Percentiles are recomputed here from a sorted clone of the sample buffer,
// so the O(n log n) cost is bound to the render tick, not the arrival rate.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// Finalize freezes the aggregator and returns the report for the run.
// Safe to call once the outcome channel is closed; later Record calls
// become no-ops.
func (a *Aggregator) Finalize(cancelled bool) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.finalized {
		a.finalized = true
		a.cancelled = cancelled
		a.finalElapsed = time.Since(a.start)
	}

	snap := a.snapshotLocked()
	return Report{
		Snapshot: snap,
		Partial:  a.cancelled || a.completed < a.total,
		Duration: a.finalElapsed,
	}
}

func (a *Aggregator) snapshotLocked() Snapshot {
	elapsed := a.finalElapsed
	if !a.finalized {
		elapsed = time.Since(a.start)
	}

	snap := Snapshot{
		Total:     a.total,
		Sent:      a.sent,
		Completed: a.completed,
		Success:   a.success,
		Failed:    a.failed,
		Errors:    a.errCount,
		Timeouts:  a.errKinds[outcome.ErrKindTimeout],
		Bytes:     a.bytes,
		Elapsed:   elapsed,
		Min:       max(a.durMin, 0),
		Max:       a.durMax,
		Cancelled: a.cancelled,
		Done:      a.finalized,

		ErrorKinds:  make(map[outcome.ErrorKind]int, len(a.errKinds)),
		StatusCodes: make(map[int]int, len(a.statusCodes)),
	}
	for k, v := range a.errKinds {
		snap.ErrorKinds[k] = v
	}
	for c, v := range a.statusCodes {
		snap.StatusCodes[c] = v
	}
	snap.CacheHits = a.cacheCats[outcome.CategoryHit]
	snap.CacheMisses = a.cacheCats[outcome.CategoryMiss]
	snap.CacheUnknown = a.cacheCats[outcome.CategoryUnknown]

	if a.completed > 0 {
		mean := a.durSum / float64(a.completed)
		snap.Mean = time.Duration(mean * float64(time.Millisecond))

		// Accumulator identity; clamp to absorb floating point error.
		variance := a.durSumSq/float64(a.completed) - mean*mean
		if variance < 0 {
			variance = 0
		}
		snap.StdDev = time.Duration(math.Sqrt(variance) * float64(time.Millisecond))

		snap.ErrorRate = float64(a.errCount) / float64(a.completed)
		snap.CacheHitRate = float64(snap.CacheHits) / float64(a.completed)
	}
	if secs := elapsed.Seconds(); secs > 0 {
		snap.RPS = float64(a.completed) / secs
		snap.BytesPerSec = float64(a.bytes) / secs
	}
	if a.dnsCount > 0 {
		snap.AvgDNSLookup = a.dnsSum / time.Duration(a.dnsCount)
	}

	if len(a.samples) > 0 {
		sorted := make([]time.Duration, len(a.samples))
		copy(sorted, a.samples)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		snap.Percentiles = make([]Percentile, 0, len(PercentileLadder))
		for _, p := range PercentileLadder {
			snap.Percentiles = append(snap.Percentiles, Percentile{
				P:     p,
				Value: nearestRank(sorted, float64(p)/100),
			})
		}
		snap.Median = nearestRank(sorted, 0.50)
		snap.P90 = nearestRank(sorted, 0.90)
		snap.P95 = nearestRank(sorted, 0.95)
		snap.P99 = nearestRank(sorted, 0.99)
	}

	return snap
}

// nearestRank indexes sorted samples at ceil(q*n)-1, clamped to [0, n-1].
func nearestRank(sorted []time.Duration, q float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(q*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}
