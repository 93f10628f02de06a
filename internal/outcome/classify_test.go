package outcome

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{
			name: "nil error",
			err:  nil,
			want: ErrKindNone,
		},
		{
			name: "context deadline exceeded",
			err:  fmt.Errorf("Get \"http://example.com\": %w", context.DeadlineExceeded),
			want: ErrKindTimeout,
		},
		{
			name: "url error timeout",
			err:  &url.Error{Op: "Get", URL: "http://example.com", Err: &timeoutErr{}},
			want: ErrKindTimeout,
		},
		{
			name: "dns error",
			err:  &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: &net.DNSError{Name: "x", Err: "no such host"}}},
			want: ErrKindDNS,
		},
		{
			name: "dial refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: ErrKindConnect,
		},
		{
			name: "connection reset mid-read",
			err:  &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
			want: ErrKindConnect,
		},
		{
			name: "write error falls back to transport",
			err:  &net.OpError{Op: "write", Net: "tcp", Err: errors.New("broken pipe")},
			want: ErrKindTransport,
		},
		{
			name: "tls string fallback",
			err:  errors.New("tls: handshake failure"),
			want: ErrKindTLS,
		},
		{
			name: "x509 string fallback",
			err:  errors.New("x509: certificate signed by unknown authority"),
			want: ErrKindTLS,
		},
		{
			name: "connection refused string fallback",
			err:  errors.New("dial tcp 127.0.0.1:9999: connect: connection refused"),
			want: ErrKindConnect,
		},
		{
			name: "no such host string fallback",
			err:  errors.New("dial tcp: lookup nope.example.invalid: no such host"),
			want: ErrKindDNS,
		},
		{
			name: "unexpected EOF",
			err:  errors.New("unexpected EOF"),
			want: ErrKindTransport,
		},
		{
			name: "too many redirects",
			err:  errors.New("Get \"http://example.com\": stopped after 10 redirects"),
			want: ErrKindTransport,
		},
		{
			name: "unknown error",
			err:  errors.New("something odd happened"),
			want: ErrKindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// timeoutErr implements net.Error with Timeout() == true.
type timeoutErr struct{}

func (*timeoutErr) Error() string   { return "i/o timeout" }
func (*timeoutErr) Timeout() bool   { return true }
func (*timeoutErr) Temporary() bool { return true }

func TestOutcomeSuccess(t *testing.T) {
	tests := []struct {
		name    string
		o       Outcome
		ok      bool
		success bool
	}{
		{"200 response", Outcome{StatusCode: 200}, true, true},
		{"204 response", Outcome{StatusCode: 204}, true, true},
		{"404 response", Outcome{StatusCode: 404}, true, false},
		{"500 response", Outcome{StatusCode: 500}, true, false},
		{"timeout", Outcome{Err: ErrKindTimeout}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.OK(); got != tt.ok {
				t.Errorf("OK() = %v, want %v", got, tt.ok)
			}
			if got := tt.o.Success(); got != tt.success {
				t.Errorf("Success() = %v, want %v", got, tt.success)
			}
		})
	}
}
