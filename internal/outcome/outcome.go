package outcome

import "time"

// ErrorKind classifies why a request failed.
type ErrorKind int

const (
	// ErrKindNone marks a request that produced an HTTP response.
	ErrKindNone ErrorKind = iota
	ErrKindTimeout
	ErrKindConnect
	ErrKindTLS
	ErrKindDNS
	ErrKindTransport
	ErrKindOther
)

// String returns the display label used in reports and the dashboard log.
func (k ErrorKind) String() string {
	switch k {
	case ErrKindNone:
		return "none"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindConnect:
		return "connect"
	case ErrKindTLS:
		return "tls"
	case ErrKindDNS:
		return "dns"
	case ErrKindTransport:
		return "transport"
	default:
		return "other"
	}
}

// Timing is the per-request phase breakdown captured via httptrace.
// DNSLookup and TLSHandshake are zero when the phase did not happen
// (cached DNS, reused connection, plaintext).
type Timing struct {
	DNSLookup    time.Duration
	Connect      time.Duration
	TLSHandshake time.Duration
	FirstByte    time.Duration
	Total        time.Duration
}

// Outcome is the immutable record of one attempted request. Exactly one
// Outcome exists per dispatched request; Seq reflects dispatch order, not
// completion order.
type Outcome struct {
	Seq         int
	StatusCode  int // 0 when the request never produced a response
	Err         ErrorKind
	ErrDetail   string
	Bytes       int64
	BodyPreview string
	Cache       CacheStatus
	HasCache    bool
	Timing      Timing
	Timestamp   time.Time
}

// OK reports whether the request produced an HTTP response (any status).
func (o Outcome) OK() bool {
	return o.Err == ErrKindNone
}

// Success reports a 2xx response.
func (o Outcome) Success() bool {
	return o.OK() && o.StatusCode >= 200 && o.StatusCode < 300
}
