package topology

import (
	"github.com/coredb/sdam/address"
	"github.com/coredb/sdam/description"
)

// ServerFactory constructs the per-address Server monitor and arranges for
// a real heartbeat source to drive it. It is an external collaborator
// (spec.md §6): the core only calls Create/Destroy from inside its critical
// section and never waits on I/O here.
type ServerFactory interface {
	// Create returns a new Server for addr, wired so that incoming
	// heartbeat replies eventually reach notify via Server.SendNotification.
	// A non-nil error is reported to the cluster as a FactoryError and the
	// address is treated as removed.
	Create(addr address.Address, notify func(desc description.Server)) (*Server, error)

	// Destroy is invoked when the cluster removes a member, after the
	// Server's own Close has already been called.
	Destroy(s *Server)
}
