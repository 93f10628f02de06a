package outcome

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Classify maps a transport error to an ErrorKind. Deadline errors always
// win: a request that ran out its per-request timeout is a timeout even if
// the deadline fired mid-handshake. Everything else is decided by the
// deepest typed error in the unwrap chain, with a string fallback for
// errors the stdlib only surfaces as text.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrKindNone
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrKindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrKindDNS
	}

	if isTLSError(err) {
		return ErrKindTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrKindTimeout
		}
		if opErr.Op == "dial" {
			return ErrKindConnect
		}
		var errno syscall.Errno
		if errors.As(opErr.Err, &errno) {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
				return ErrKindConnect
			}
		}
		return ErrKindTransport
	}

	return classifyString(err.Error())
}

func isTLSError(err error) bool {
	var (
		certInvalid   x509.CertificateInvalidError
		unknownAuth   x509.UnknownAuthorityError
		hostnameErr   x509.HostnameError
		recordHdrErr  tls.RecordHeaderError
		certVerifyErr *tls.CertificateVerificationError
	)
	return errors.As(err, &certInvalid) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &recordHdrErr) ||
		errors.As(err, &certVerifyErr)
}

// classifyString is the last-resort categorization for errors that reach us
// as plain text (the transport flattens some failures into url.Error
// strings).
func classifyString(s string) ErrorKind {
	ls := strings.ToLower(s)

	switch {
	case strings.Contains(ls, "context deadline exceeded"),
		strings.Contains(ls, "timed out"),
		strings.Contains(ls, "timeout"):
		return ErrKindTimeout
	case strings.Contains(ls, "no such host"),
		strings.Contains(ls, "dial tcp: lookup"):
		return ErrKindDNS
	case strings.Contains(ls, "tls"),
		strings.Contains(ls, "x509"),
		strings.Contains(ls, "certificate"):
		return ErrKindTLS
	case strings.Contains(ls, "connection refused"),
		strings.Contains(ls, "connection reset"),
		strings.Contains(ls, "network is unreachable"),
		strings.Contains(ls, "no route to host"):
		return ErrKindConnect
	case strings.Contains(ls, "eof"),
		strings.Contains(ls, "malformed http"),
		strings.Contains(ls, "stopped after"),
		strings.Contains(ls, "unsupported protocol"):
		return ErrKindTransport
	}

	return ErrKindOther
}
