package volcspeech

import (
	"errors"
	"fmt"
)

// ErrIncompleteFrame reports that a buffer does not yet contain a full
// frame. It is the only non-error, non-success decode outcome and must
// never be treated as a malformed frame.
var ErrIncompleteFrame = errors.New("volcspeech: incomplete frame")

// ErrorKind classifies protocol failures so callers can tell "we
// misread bytes" from "the peer never replied" from "the peer said no".
type ErrorKind string

const (
	// KindTransport covers socket connect, handshake and mid-stream
	// I/O failures. Always fatal to the in-flight session.
	KindTransport ErrorKind = "transport"

	// KindDecode covers malformed frames, unsupported compression or
	// serialization, and strict length overruns.
	KindDecode ErrorKind = "decode"

	// KindRemote covers the peer's own error frames; the message text
	// is forwarded verbatim.
	KindRemote ErrorKind = "remote"

	// KindSequence covers an expected handshake event that never
	// arrived before the stream ended.
	KindSequence ErrorKind = "sequence"
)

// Error is a speech protocol error.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Message is the failure description. For KindRemote it is the
	// peer's error payload, verbatim.
	Message string

	// HTTPStatus is the handshake status code, when the WebSocket
	// upgrade was rejected at the HTTP level.
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("volcspeech: %s: %s (http_status=%d)", e.Kind, e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("volcspeech: %s: %s", e.Kind, e.Message)
}

// AsError attempts to convert err to *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newTransportError(message string) *Error {
	return &Error{Kind: KindTransport, Message: message}
}

func newDecodeError(message string) *Error {
	return &Error{Kind: KindDecode, Message: message}
}

func newRemoteError(message string) *Error {
	return &Error{Kind: KindRemote, Message: message}
}

func newSequenceError(message string) *Error {
	return &Error{Kind: KindSequence, Message: message}
}
