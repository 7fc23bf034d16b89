package topology

import (
	"sync"

	"github.com/coredb/sdam/address"
	"github.com/coredb/sdam/description"
)

// notifyFunc is the callback a Server invokes on every accepted
// notification. MultiServerCluster installs one per member; per the "weak
// callback" design in spec.md §9, the callback looks the sender up by
// address on each invocation rather than closing over the Server itself, so
// a notification from an already-removed member is a no-op instead of a
// resurrection.
type notifyFunc func(desc description.Server)

// Server is the per-address monitor handle spec.md §4.1 describes: it holds
// the latest ServerDescription and forwards every accepted notification to
// the cluster that owns it. It performs no I/O itself; a heartbeat source
// (external collaborator) is what actually talks to the database process.
type Server struct {
	address address.Address

	mu     sync.Mutex
	desc   description.Server
	closed bool

	notify notifyFunc
}

// newServer constructs a Server at addr with no notifications delivered
// yet; its initial description is the canonical Connecting/Unknown one.
func newServer(addr address.Address, notify notifyFunc) *Server {
	return &Server{
		address: addr,
		desc:    description.UnknownServer(addr),
		notify:  notify,
	}
}

// NewServer constructs a Server at addr that forwards every accepted
// notification to notify. ServerFactory implementations use this to build
// the handle they hand back from Create; it is exported for that purpose
// and is not used by the cluster's own internal bookkeeping.
func NewServer(addr address.Address, notify func(description.Server)) *Server {
	return newServer(addr, notify)
}

// Address returns the address this Server monitors.
func (s *Server) Address() address.Address {
	return s.address
}

// Description returns the latest ServerDescription. Never blocks, never
// fails.
func (s *Server) Description() description.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

// SendNotification replaces the stored description with desc and invokes
// the cluster callback. desc.Address must equal s.Address(); callers that
// violate this get a panic, since it indicates a programming error in the
// heartbeat source, not a runtime condition the monitor can recover from.
//
// Once Close has been called, SendNotification is a no-op.
func (s *Server) SendNotification(desc description.Server) {
	if !desc.Address.Equal(s.address) {
		panic("sdam: SendNotification called with a description for a different address")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	desc = desc.Sanitize()
	s.desc = desc
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(desc)
	}
}

// setDescription replaces the stored description without invoking the
// notify callback. Used by MultiServerCluster for the synthetic demotion in
// spec.md §4 step 8 (the new description must be observable via
// Description(), but must not re-enter notification handling).
func (s *Server) setDescription(desc description.Server) {
	s.mu.Lock()
	s.desc = desc
	s.mu.Unlock()
}

// Close stops this Server from accepting further notifications. Idempotent.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
