package topology

import "fmt"

// ClosedError is returned by any operation invoked after Close.
type ClosedError struct {
	// Op names the operation that was attempted, e.g. "GetServer".
	Op string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("sdam: cluster is closed: %s", e.Op)
}

// NotFoundError is returned by GetServer when the address is not currently
// a member of the cluster.
type NotFoundError struct {
	Address fmt.Stringer
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sdam: server %s is not a member of this cluster", e.Address)
}

// TimeoutError is returned by SelectServer when no matching server appeared
// before the caller's deadline.
type TimeoutError struct {
	Timeout fmt.Stringer
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("sdam: server selection timed out after %s", e.Timeout)
}

// NoMatchingServerError is returned by SelectServer when the cluster is
// fully connected but the selector matched no member.
type NoMatchingServerError struct{}

func (e *NoMatchingServerError) Error() string {
	return "sdam: no server matches the given selector"
}

// FactoryError wraps a failure to construct a Server for a newly discovered
// peer. The cluster continues operating without that member.
type FactoryError struct {
	Address fmt.Stringer
	Err     error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("sdam: failed to create server %s: %v", e.Address, e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }
