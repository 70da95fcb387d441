package core

import "errors"

var (
	// ErrCapsuleAlreadyInvoked is the checked rendition of the source
	// language's "invoke() called twice is undefined behavior": Go has no
	// safe way to express true UB, so a double invocation panics with this
	// sentinel instead.
	ErrCapsuleAlreadyInvoked = errors.New("taskpool: capsule invoked more than once")

	// ErrPoolTerminating is returned by submission APIs once Terminate or
	// Join has begun; it is also the eager check RunH performs before
	// blocking on its handshake channel, so a submission against a
	// terminating pool fails fast instead of hanging forever.
	ErrPoolTerminating = errors.New("taskpool: pool is terminating")

	// ErrHandleChannelClosed indicates the RunH handshake channel was
	// closed without a value ever being sent. The wrapper task always
	// sends before invoking the user payload, so observing this is an
	// internal invariant violation, not a normal runtime condition.
	ErrHandleChannelClosed = errors.New("taskpool: handle channel closed without a value")

	// ErrJoinTimedOut is returned by Join when its context is cancelled
	// before the pool could be observed fully drained.
	ErrJoinTimedOut = errors.New("taskpool: join did not observe an empty pool before its context expired")
)
