package route

import (
	"errors"
	"fmt"

	"github.com/coni/hyperisle/internal/shared/types"
)

// Sentinel errors classifying dispatch failures.
var (
	// ErrIntentDelivery wraps canceled, rejected or malformed intent
	// dispatches reported by the platform layer
	ErrIntentDelivery = errors.New("intent delivery failure")
	// ErrBridgeUnavailable marks the native bridge as unreachable
	ErrBridgeUnavailable = errors.New("native bridge unavailable")
)

// DispatchError ties a failed side effect to the user action that
// requested it.
type DispatchError struct {
	Kind types.ActionKind
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
