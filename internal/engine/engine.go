package engine

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/studiowebux/pepe/internal/outcome"
	"github.com/studiowebux/pepe/internal/request"
)

// BodyPreviewLen is how much of each response body survives into the
// outcome for the dashboard's partial-response pane.
const BodyPreviewLen = 100

// Options configures one run.
type Options struct {
	Total       int
	Concurrency int
	Timeout     time.Duration
}

// Validate rejects configurations the engine cannot honor.
func (o Options) Validate() error {
	if o.Total < 1 {
		return fmt.Errorf("total requests must be at least 1")
	}
	if o.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// Engine dispatches requests with bounded concurrency and publishes one
// outcome per attempted request. It owns its channels: both close when the
// run completes or is cancelled.
type Engine struct {
	tpl    *request.Template
	opts   Options
	client *http.Client

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once

	outcomes chan outcome.Outcome
	sent     chan int
}

// New builds an engine and its shared HTTP client.
func New(ctx context.Context, tpl *request.Template, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	client, err := tpl.BuildClient(opts.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP client: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	return &Engine{
		tpl:      tpl,
		opts:     opts,
		client:   client,
		ctx:      runCtx,
		cancel:   cancel,
		outcomes: make(chan outcome.Outcome, opts.Concurrency*2),
		sent:     make(chan int, opts.Concurrency*2),
	}, nil
}

// Outcomes is the stream of per-request results, closed on completion.
func (e *Engine) Outcomes() <-chan outcome.Outcome {
	return e.outcomes
}

// Sent ticks once per dispatched request.
func (e *Engine) Sent() <-chan int {
	return e.sent
}

// Stop cancels the run. In-flight requests are abandoned; the outcome
// channel still closes once their tasks unwind. Idempotent.
func (e *Engine) Stop() {
	e.stopOnce.Do(e.cancel)
}

// Cancelled reports whether the run was cut short.
func (e *Engine) Cancelled() bool {
	return e.ctx.Err() != nil
}

// Run starts the dispatch loop in the background. The loop acquires one
// semaphore permit per request, so at most Concurrency requests are in
// "started, not completed" state at any instant; acquisition suspends the
// loop goroutine, not a worker thread.
func (e *Engine) Run() {
	go func() {
		sem := semaphore.NewWeighted(int64(e.opts.Concurrency))
		var wg sync.WaitGroup

		for seq := 0; seq < e.opts.Total; seq++ {
			if err := sem.Acquire(e.ctx, 1); err != nil {
				break // run cancelled while waiting for a permit
			}

			select {
			case e.sent <- 1:
			case <-e.ctx.Done():
			}

			wg.Add(1)
			go func(seq int) {
				defer wg.Done()
				defer sem.Release(1)

				o := e.execute(seq)
				if e.ctx.Err() != nil {
					// Run cancelled while this request was in flight;
					// its result is abandoned, not recorded.
					return
				}
				select {
				case e.outcomes <- o:
				case <-e.ctx.Done():
				}
			}(seq)
		}

		wg.Wait()
		close(e.outcomes)
		close(e.sent)
	}()
}

// execute performs one request and converts the result, success or
// failure, into an Outcome.
func (e *Engine) execute(seq int) outcome.Outcome {
	reqCtx, cancel := context.WithTimeout(e.ctx, e.opts.Timeout)
	defer cancel()

	var dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, firstByte time.Time
	trace := &httptrace.ClientTrace{
		DNSStart:             func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone:              func(httptrace.DNSDoneInfo) { dnsDone = time.Now() },
		ConnectStart:         func(_, _ string) { connStart = time.Now() },
		ConnectDone:          func(_, _ string, _ error) { connDone = time.Now() },
		TLSHandshakeStart:    func() { tlsStart = time.Now() },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { tlsDone = time.Now() },
		GotFirstResponseByte: func() { firstByte = time.Now() },
	}

	req, err := e.tpl.NewHTTPRequest(httptrace.WithClientTrace(reqCtx, trace))
	if err != nil {
		return outcome.Outcome{
			Seq:       seq,
			Err:       outcome.ErrKindOther,
			ErrDetail: err.Error(),
			Timestamp: time.Now(),
		}
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		total := time.Since(start)
		return outcome.Outcome{
			Seq:       seq,
			Err:       outcome.Classify(err),
			ErrDetail: err.Error(),
			Timing:    buildTiming(start, dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, firstByte, total),
			Timestamp: time.Now(),
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	total := time.Since(start)
	timing := buildTiming(start, dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, firstByte, total)

	if readErr != nil {
		return outcome.Outcome{
			Seq:       seq,
			Err:       outcome.Classify(readErr),
			ErrDetail: fmt.Sprintf("failed to read response body: %v", readErr),
			Timing:    timing,
			Timestamp: time.Now(),
		}
	}

	cache, hasCache := outcome.ParseCacheStatus(resp.Header)
	return outcome.Outcome{
		Seq:         seq,
		StatusCode:  resp.StatusCode,
		Bytes:       int64(len(body)),
		BodyPreview: previewBody(body),
		Cache:       cache,
		HasCache:    hasCache,
		Timing:      timing,
		Timestamp:   time.Now(),
	}
}

func buildTiming(start, dnsStart, dnsDone, connStart, connDone, tlsStart, tlsDone, firstByte time.Time, total time.Duration) outcome.Timing {
	t := outcome.Timing{Total: total}
	if !dnsStart.IsZero() && !dnsDone.IsZero() {
		t.DNSLookup = dnsDone.Sub(dnsStart)
	}
	if !connStart.IsZero() && !connDone.IsZero() {
		t.Connect = connDone.Sub(connStart)
	}
	if !tlsStart.IsZero() && !tlsDone.IsZero() {
		t.TLSHandshake = tlsDone.Sub(tlsStart)
	}
	if !firstByte.IsZero() {
		t.FirstByte = firstByte.Sub(start)
	}
	return t
}

// previewBody flattens and truncates a response body for the log pane.
func previewBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	if len(s) > BodyPreviewLen {
		s = s[:BodyPreviewLen]
	}
	return s
}
