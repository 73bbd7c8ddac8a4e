// Package backend defines the contract shared by the local and remote snapshot
// stores and the failure taxonomy the persistence gateway switches on.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandeepkv93/dailytodo/internal/model"
)

var (
	// ErrNotFound reports that the store is reachable but holds no snapshot.
	ErrNotFound = errors.New("backend: snapshot not found")
	// ErrBackendUnavailable reports that the store is not configured or not reachable at all.
	ErrBackendUnavailable = errors.New("backend: unavailable")
	// ErrMalformedSnapshot reports stored data that cannot be decoded.
	ErrMalformedSnapshot = errors.New("backend: malformed snapshot")
)

// Backend loads and saves a user's snapshot for one calendar date.
type Backend interface {
	Name() string
	LoadSnapshot(ctx context.Context, userID string, date model.CalendarDate) (model.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
}

// TransportError wraps a failed round trip to a reachable-but-failing store.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend: %s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Op: op, Err: err}
}

func Malformed(detail string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformedSnapshot, detail)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformedSnapshot, detail, err)
}

// Kind is the classified outcome of a backend call.
type Kind int

const (
	KindOK Kind = iota
	KindNotFound
	KindUnavailable
	KindTransport
	KindMalformed
	// KindSkipped marks a backend that was not attempted.
	KindSkipped
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "backend_unavailable"
	case KindTransport:
		return "transport_error"
	case KindMalformed:
		return "malformed_snapshot"
	case KindSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Failed reports whether k is one of the error kinds.
func (k Kind) Failed() bool {
	return k == KindUnavailable || k == KindTransport || k == KindMalformed
}

// Classify maps err onto a Kind. Unrecognized errors count as transport failures.
func Classify(err error) Kind {
	if err == nil {
		return KindOK
	}
	var transport *TransportError
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBackendUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrMalformedSnapshot):
		return KindMalformed
	case errors.As(err, &transport):
		return KindTransport
	default:
		return KindTransport
	}
}
