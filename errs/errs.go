// Package errs defines the error taxonomy shared across the SRv6
// control-plane packages: a distinct Go type per category, each with its
// own propagation policy documented at the call sites that produce it.
package errs

import "fmt"

// ConfigError is a constraint violation at ingress — bit-length
// inconsistency, duplicate address, unknown locator. Surfaced to the
// operator; no state changes accompany it.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func Configf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ResourceMissing reports that a referenced VRF or interface is not yet
// live. Non-fatal: the SID stays valid-but-not-sent and is retried on
// the matching resource event.
type ResourceMissing struct {
	Resource string
}

func (e *ResourceMissing) Error() string {
	return fmt.Sprintf("resource missing: %s", e.Resource)
}

// BrokerSendFailure reports a failed socket write or a broker nack.
// Logged; the edge is retried on the next relevant event.
type BrokerSendFailure struct {
	Msg string
}

func (e *BrokerSendFailure) Error() string { return e.Msg }

func SendFailuref(format string, args ...any) error {
	return &BrokerSendFailure{Msg: fmt.Sprintf(format, args...)}
}

// EncodeOverflow reports that an FPM message would exceed the caller's
// buffer. The encoder returns 0; the caller is expected to drop or
// resize.
type EncodeOverflow struct {
	Needed int
}

func (e *EncodeOverflow) Error() string {
	return fmt.Sprintf("encode overflow: need at least %d more bytes", e.Needed)
}

// Internal reports a broken invariant — e.g. a SID marked sent but not
// present in the catalogue. Fatal: callers are expected to panic on this
// type rather than attempt recovery.
type Internal struct {
	Msg string
}

func (e *Internal) Error() string { return e.Msg }

func Internalf(format string, args ...any) error {
	return &Internal{Msg: fmt.Sprintf(format, args...)}
}
